// errors.go: the error taxonomy and caret-snippet rendering
//
// What this file does
// -------------------
// Every failure the engine reports is one of five concrete error types:
//
//	*SyntaxError         reader: unbalanced brackets, unexpected end of input,
//	                     unterminated strings, unreadable tokens
//	*UnboundSymbolError  evaluator: symbol not found in any scope
//	*ArityError          library: wrong argument count (including odd
//	                     key/value lists)
//	*TypeError           applying a non-callable, binding into a non-pattern,
//	                     invalid map keys, wrong argument types
//	*UserError           explicit `throw` / `throw-error`, carrying the thrown
//	                     value unchanged
//
// Errors are never caught inside the language. They travel up through
// Evaluate to the host, which inspects them with errors.As.
//
// For terminals, `WrapErrorWithSource` renders syntax errors as a numbered
// snippet with a caret under the offending column:
//
//	SYNTAX ERROR at 2:9: unexpected ')'
//
//	   1 | (def x
//	   2 |   (+ 1 2))
//	     |         ^
//
// The wrapped error still unwraps to the original *SyntaxError.
package schem

import (
	"fmt"
	"strings"
)

/* ===========================
   PUBLIC API
   =========================== */

// SyntaxError is raised by the reader. Pos is the byte offset into the source;
// Line and Col are 1-based. Incomplete is set when the input ended inside an
// open form or string, i.e. more input could still make it valid.
type SyntaxError struct {
	Pos        int
	Line, Col  int
	Msg        string
	Incomplete bool
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// UnboundSymbolError is raised when a symbol resolves in no scope.
type UnboundSymbolError struct {
	Name Symbol
}

func (e *UnboundSymbolError) Error() string {
	return fmt.Sprintf("unbound symbol: %s", string(e.Name))
}

// ArityError reports a wrong argument count to Fn.
type ArityError struct {
	Fn  string
	Msg string
}

func (e *ArityError) Error() string {
	if e.Fn == "" {
		return "arity error: " + e.Msg
	}
	return fmt.Sprintf("arity error in %s: %s", e.Fn, e.Msg)
}

type TypeError struct {
	Msg string
}

func (e *TypeError) Error() string { return "type error: " + e.Msg }

// UserError carries the value passed to throw.
type UserError struct {
	Value Value
}

func (e *UserError) Error() string {
	if s, ok := e.Value.(String); ok {
		return string(s)
	}
	return Print(e.Value, true)
}

// IsIncomplete reports whether err is a syntax error caused by input that
// ended too early. REPLs use it to keep reading continuation lines.
func IsIncomplete(err error) bool {
	se, ok := err.(*SyntaxError)
	return ok && se.Incomplete
}

// WrapErrorWithSource returns an error whose message is a caret-annotated
// snippet of src when err is a *SyntaxError. Other errors are returned
// unchanged.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName is WrapErrorWithSource with a source name (usually a file
// path) in the header.
func WrapErrorWithName(err error, srcName, src string) error {
	se, ok := err.(*SyntaxError)
	if !ok {
		return err
	}
	return &sourceError{
		err:  se,
		text: prettyErrorStringLabeled(src, "SYNTAX ERROR", srcName, se.Line, se.Col, se.Msg),
	}
}

//// END_OF_PUBLIC

/* ===========================
   PRIVATE: helpers & rendering
   =========================== */

type sourceError struct {
	err  error
	text string
}

func (e *sourceError) Error() string { return e.text }
func (e *sourceError) Unwrap() error { return e.err }

// prettyErrorStringLabeled shows at most one line of context on each side of
// the error line. Coordinates are 1-based and clamped to the source.
func prettyErrorStringLabeled(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if line > len(lines) {
		line = len(lines)
	}

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
