// Command texgest-server runs the texgest HTTP API.
package main

import (
	"os"

	"github.com/dgallion1/texgest/internal/cli"
)

func main() {
	if err := cli.ExecuteServer(); err != nil {
		os.Exit(1)
	}
}
