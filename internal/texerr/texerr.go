// Package texerr declares the error kinds that abort a document build.
//
// Every build error wraps exactly one of these sentinels, so callers can
// classify failures with errors.Is regardless of where they were raised.
package texerr

import "errors"

var (
	// ErrLexicalTypeMismatch: a handler received a lexical node of the wrong variant.
	ErrLexicalTypeMismatch = errors.New("lexical type mismatch")

	// ErrMacroArityMismatch: the argument count does not match the registered arity.
	ErrMacroArityMismatch = errors.New("macro arity mismatch")

	// ErrUnresolvedExternalReference: a relative reference needs a source location that is unknown.
	ErrUnresolvedExternalReference = errors.New("unresolved external reference")

	// ErrMalformedTabularSpec: a column specification cannot be parsed.
	ErrMalformedTabularSpec = errors.New("malformed tabular spec")

	// ErrRecursionDepthExceeded: the file-inclusion depth cap was reached.
	ErrRecursionDepthExceeded = errors.New("recursion depth exceeded")

	// ErrSyntax: the source cannot be tokenized (unbalanced braces, unclosed
	// environments, stray delimiters).
	ErrSyntax = errors.New("syntax error")
)

// Kind returns the sentinel wrapped by err, or nil if err is not a build error.
func Kind(err error) error {
	for _, k := range []error{
		ErrLexicalTypeMismatch,
		ErrMacroArityMismatch,
		ErrUnresolvedExternalReference,
		ErrMalformedTabularSpec,
		ErrRecursionDepthExceeded,
		ErrSyntax,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
