// Package include resolves \input and \include commands by splicing the
// referenced files into the source.
package include

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dgallion1/texgest/internal/texerr"
)

// DefaultMaxDepth is the inclusion depth cap used when none is configured.
const DefaultMaxDepth = 4

// ReadFunc reads the file at path.
type ReadFunc func(path string) ([]byte, error)

// Resolver expands inclusion commands.
type Resolver struct {
	// ReadFile defaults to os.ReadFile.
	ReadFile ReadFunc
	// MaxDepth is the deepest allowed nesting; the top-level file is depth 0.
	MaxDepth int
	Logger   *slog.Logger
}

func (r *Resolver) readFile(p string) ([]byte, error) {
	if r.ReadFile != nil {
		return r.ReadFile(p)
	}
	return os.ReadFile(p)
}

func (r *Resolver) maxDepth() int {
	if r.MaxDepth > 0 {
		return r.MaxDepth
	}
	return DefaultMaxDepth
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Read loads the file at p and expands every inclusion inside it.
func (r *Resolver) Read(p string) (string, error) {
	return r.read(p, 0)
}

// Expand expands the inclusions in text, which was read from p. An empty p
// means the source location is unknown, so any inclusion fails.
func (r *Resolver) Expand(text, p string) (string, error) {
	return r.expand(text, p, 0)
}

func (r *Resolver) read(p string, depth int) (string, error) {
	if depth > r.maxDepth() {
		return "", fmt.Errorf("%w: %s: deeper than %d", texerr.ErrRecursionDepthExceeded, p, r.maxDepth())
	}
	r.logger().Info("reading source", "path", p, "depth", depth)
	data, err := r.readFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", texerr.ErrUnresolvedExternalReference, p)
		}
		return "", fmt.Errorf("include: read %s: %w", p, err)
	}
	return r.expand(string(data), p, depth)
}

var command = regexp.MustCompile(`\\(input|include)\{([^}]*)\}`)

func (r *Resolver) expand(text, p string, depth int) (string, error) {
	var b strings.Builder
	last := 0
	for _, m := range command.FindAllStringSubmatchIndex(text, -1) {
		if commented(text, m[0]) {
			continue
		}
		ref := strings.TrimSpace(text[m[4]:m[5]])
		if p == "" {
			return "", fmt.Errorf("%w: \\%s{%s}: document location unknown", texerr.ErrUnresolvedExternalReference, text[m[2]:m[3]], ref)
		}
		body, err := r.read(Join(p, ref), depth+1)
		if err != nil {
			return "", err
		}
		b.WriteString(text[last:m[0]])
		b.WriteString(body)
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

// commented reports whether offset i lies after an unescaped % on its line.
func commented(text string, i int) bool {
	start := strings.LastIndexByte(text[:i], '\n') + 1
	line := text[start:i]
	for j := 0; j < len(line); j++ {
		switch line[j] {
		case '\\':
			j++
		case '%':
			return true
		}
	}
	return false
}

// Join resolves ref against the directory of the including file, adding
// a .tex extension when ref has none.
func Join(from, ref string) string {
	if path.Ext(ref) == "" {
		ref += ".tex"
	}
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(filepath.Dir(from), ref)
}

// MapReader serves files from memory, keyed by cleaned path.
func MapReader(files map[string][]byte) ReadFunc {
	return func(p string) ([]byte, error) {
		if data, ok := files[filepath.Clean(p)]; ok {
			return data, nil
		}
		return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
}
