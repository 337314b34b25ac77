// builtin_file.go
//
// This file provides the host-OS builtins. They are not installed by
// default: embedders opt in with WithOSBuiltins, and the schem CLI does.
//
//   - (slurp path)               whole file as a string
//   - (spit path s append?)      writes (or appends) s; returns nil
//   - (file-exists? path)        true if path exists
//   - (getenv name)              environment variable, or nil when unset
//   - (load-file path)           reads and evaluates every form of a file in
//     the root environment; returns the last value
//
// I/O failures are hard errors: they propagate to the host like any other
// error, wrapped with the path.
package schem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// WithOSBuiltins installs slurp, spit, file-exists?, getenv and load-file.
func WithOSBuiltins() Option {
	return func(ip *Interpreter) { ip.osBuiltins = true }
}

func registerOsBuiltins(ip *Interpreter) {
	ip.register(
		Bridge{Name: "slurp", ParamHint: "[path]", Fn: func(args []Value) (Value, error) {
			path, err := pathArg("slurp", args, 1, 1)
			if err != nil {
				return nil, err
			}
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("slurp: %w", err)
			}
			return String(b), nil
		}},
		Bridge{Name: "spit", ParamHint: "[path s append?]", Fn: func(args []Value) (Value, error) {
			path, err := pathArg("spit", args, 2, 3)
			if err != nil {
				return nil, err
			}
			flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
			if len(args) == 3 && Truthy(args[2]) {
				flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
			}
			f, err := os.OpenFile(path, flags, 0o644)
			if err != nil {
				return nil, fmt.Errorf("spit: %w", err)
			}
			if _, err := f.WriteString(Print(args[1], false)); err != nil {
				f.Close()
				return nil, fmt.Errorf("spit: %w", err)
			}
			if err := f.Close(); err != nil {
				return nil, fmt.Errorf("spit: %w", err)
			}
			return NilValue, nil
		}},
		Bridge{Name: "file-exists?", ParamHint: "[path]", Fn: func(args []Value) (Value, error) {
			path, err := pathArg("file-exists?", args, 1, 1)
			if err != nil {
				return nil, err
			}
			_, err = os.Stat(path)
			switch {
			case err == nil:
				return True, nil
			case errors.Is(err, fs.ErrNotExist):
				return False, nil
			}
			return nil, fmt.Errorf("file-exists?: %w", err)
		}},
		Bridge{Name: "getenv", ParamHint: "[name]", Fn: func(args []Value) (Value, error) {
			name, err := pathArg("getenv", args, 1, 1)
			if err != nil {
				return nil, err
			}
			if v, ok := os.LookupEnv(name); ok {
				return String(v), nil
			}
			return NilValue, nil
		}},
		Bridge{Name: "load-file", ParamHint: "[path]", Fn: func(ctx context.Context, args []Value) (Value, error) {
			path, err := pathArg("load-file", args, 1, 1)
			if err != nil {
				return nil, err
			}
			return ip.LoadFile(ctx, path)
		}},
	)
	setBuiltinDoc(ip, "spit", `Write the unescaped printed form of s to path.

Params:
	path:    string
	s:       any value; strings are written verbatim
	append?: truthy to append instead of truncating

Returns:
	nil`)
	setBuiltinDoc(ip, "load-file", `Evaluate every form in the file at path in the root environment.

Definitions made by the file stay bound. Syntax errors are reported with a
caret snippet naming the file.`)
}

// LoadFile reads the file at path and evaluates its forms in Root. Unlike
// Arep it takes no lock, so it may be called from inside an evaluation.
func (ip *Interpreter) LoadFile(ctx context.Context, path string) (Value, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load-file: %w", err)
	}
	src := string(b)
	ast, err := ReadAll(src)
	if err != nil {
		return nil, WrapErrorWithName(err, path, src)
	}
	ip.logger.DebugContext(ctx, "loading file", "path", path)
	return ip.Evaluate(ctx, ast, ip.Root)
}

func pathArg(fn string, args []Value, min, max int) (string, error) {
	if err := wantArity(fn, args, min, max); err != nil {
		return "", err
	}
	return argString(fn, args, 0)
}
