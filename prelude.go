package schem

import (
	_ "embed"
	"fmt"
	"os"
)

// preludeSource is the bundled prelude, evaluated into Root on first use.
//
//go:embed prelude.schem
var preludeSource string

// PreludeSource returns the bundled prelude text.
func PreludeSource() string { return preludeSource }

// WithPreludeFile replaces the bundled prelude with the contents of path.
// The file is read immediately; a read failure surfaces from LoadPrelude.
func WithPreludeFile(path string) Option {
	b, err := os.ReadFile(path)
	if err != nil {
		return func(ip *Interpreter) {
			ip.preludeName = path
			ip.preludeOnce.Do(func() { ip.preludeErr = fmt.Errorf("prelude: %w", err) })
		}
	}
	return WithPrelude(path, string(b))
}
