// Package cli implements the texgest command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/dgallion1/texgest/internal/config"
	"github.com/dgallion1/texgest/internal/document"
	"github.com/dgallion1/texgest/internal/output"
)

var (
	// Version is set at build time
	version = "dev"
	// Commit is set at build time
	commit = "none"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, c string) {
	version = v
	commit = c
}

type flags struct {
	output     string
	query      string
	configFile string
	debug      bool

	strictBraces     bool
	nbsp             bool
	strictDelimiters bool
	maxDepth         int
	lineWidth        float64
}

type app struct {
	flags  flags
	cfg    config.Config
	format output.Format
	log    *slog.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "texgest",
		Short: "Structure LaTeX sources into a document tree",
		Long: `texgest builds a structural tree from a LaTeX source: sectioning,
environments, lists, tables, math, labels and bibliography.

Environment Variables:
  TEXGEST_CONFIG            YAML config file
  MATH_STRICT_BRACES        brace every sub/superscript target
  MATH_NON_BREAKING_SPACES  write spaces in math as ~
  MATH_STRICT_DELIMITERS    use the long math delimiters
  INCLUDE_MAX_DEPTH         \input nesting limit (default 4)`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.output, "output", "o", "text", "Output format (text|json|yaml|table)")
	pf.StringVar(&a.flags.query, "query", "", "jq expression to filter structured output")
	a.bindConfigFlags(pf)

	root.AddCommand(
		a.showCmd(),
		a.latexCmd(),
		a.xrefsCmd(),
		a.parseCmd(),
		a.markupCmd(),
		a.serveCmd(),
	)
	return root
}

// bindConfigFlags registers the flags that override the loaded config.
func (a *app) bindConfigFlags(pf *pflag.FlagSet) {
	pf.StringVar(&a.flags.configFile, "config", "", "Config file (env: TEXGEST_CONFIG)")
	pf.BoolVar(&a.flags.debug, "debug", false, "Enable debug logging")
	pf.BoolVar(&a.flags.strictBraces, "strict-braces", false, "Brace single sub/superscript targets in math")
	pf.BoolVar(&a.flags.nbsp, "nbsp", false, "Write spaces in math as non-breaking spaces")
	pf.BoolVar(&a.flags.strictDelimiters, "strict-delimiters", false, "Use \\( \\) and \\begin{displaymath} delimiters")
	pf.IntVar(&a.flags.maxDepth, "max-depth", 0, "Maximum \\input nesting depth")
	pf.Float64Var(&a.flags.lineWidth, "line-width", 0, "Assumed text width in mm for absolute image widths")
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "error:", err)
		return err
	}
	return nil
}

func (a *app) setup(cmd *cobra.Command) error {
	path := a.flags.configFile
	if path == "" {
		path = os.Getenv("TEXGEST_CONFIG")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	fs := cmd.Flags()
	if fs.Changed("strict-braces") {
		cfg.MathStrictBraces = a.flags.strictBraces
	}
	if fs.Changed("nbsp") {
		cfg.MathNonBreakingSpaces = a.flags.nbsp
	}
	if fs.Changed("strict-delimiters") {
		cfg.MathStrictDelimiters = a.flags.strictDelimiters
	}
	if fs.Changed("max-depth") && a.flags.maxDepth > 0 {
		cfg.IncludeMaxDepth = a.flags.maxDepth
	}
	if fs.Changed("line-width") && a.flags.lineWidth > 0 {
		cfg.LineWidthMM = a.flags.lineWidth
	}
	a.cfg = cfg

	// Output format selection: --output > non-terminal json > text
	if fs.Lookup("output") != nil {
		formatStr := a.flags.output
		if !fs.Changed("output") && !isTerminal(cmd.OutOrStdout()) {
			formatStr = "json"
		}
		if a.format, err = output.ParseFormat(formatStr); err != nil {
			return err
		}
	}

	level := slog.LevelWarn
	if a.flags.debug {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = output.WithQuery(ctx, a.flags.query)
	cmd.SetContext(ctx)
	return nil
}

// load builds the document named by the argument, or standard input when
// the argument is "-" or absent.
func (a *app) load(cmd *cobra.Command, args []string) (*document.Document, error) {
	opts := a.cfg.DocumentOptions()
	opts.Logger = a.log
	opts.Build.Logger = a.log
	if len(args) == 0 || args[0] == "-" {
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return document.Parse(string(src), "", opts)
	}
	return document.ParseFile(args[0], opts)
}

func (a *app) print(cmd *cobra.Command, data any) error {
	return output.NewPrinter(cmd.OutOrStdout(), a.format).Print(cmd.Context(), data)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
