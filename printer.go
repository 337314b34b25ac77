package schem

import (
	"math"
	"strconv"
	"strings"
)

/* ---------- globals & tiny helpers ---------- */

var EnableColor = false // REPL-only; tests can leave this false
var MaxInlineWidth = 80 // width threshold for single-line collections in Pretty

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
)

func colorize(s, c string) string {
	if !EnableColor {
		return s
	}
	return c + s + colorReset
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// formatNumber prints integral values without a fractional part.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

/* ---------- public entry points ---------- */

// Print renders v as text. With escape set, strings are quoted and escaped so
// the result reads back as an equal value; without it strings print raw, as
// `str` and `println` want them. Print never fails.
func Print(v Value, escape bool) string {
	var b strings.Builder
	writeValue(&b, v, escape, nil)
	return b.String()
}

// FormatValue is the REPL rendering of a result: escaped, and colored by kind
// when EnableColor is set.
func FormatValue(v Value) string {
	s := Print(v, true)
	switch v.(type) {
	case String:
		return colorize(s, colorGreen)
	case Number, Bool, Nil:
		return colorize(s, colorBlue)
	case Keyword:
		return colorize(s, colorYellow)
	}
	return s
}

// FormatError is the REPL rendering of an error message.
func FormatError(msg string) string { return colorize(msg, colorRed) }

// Pretty renders v escaped, breaking collections wider than MaxInlineWidth
// over several lines with two-space indentation.
func Pretty(v Value) string {
	var b strings.Builder
	writePretty(&b, v, 0, nil)
	return b.String()
}

/* ---------- single-line writer ---------- */

// inProgress holds the atoms and maps currently being written. Both are
// mutable, so a value can contain itself; re-entry prints a placeholder.
type inProgress map[Value]bool

func (o *inProgress) enter(v Value) bool {
	if (*o)[v] {
		return false
	}
	if *o == nil {
		*o = inProgress{}
	}
	(*o)[v] = true
	return true
}

func (o inProgress) leave(v Value) { delete(o, v) }

func writeValue(b *strings.Builder, v Value, escape bool, seen inProgress) {
	switch x := v.(type) {
	case nil, Nil:
		b.WriteString("nil")
	case Bool:
		if x {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case Number:
		b.WriteString(formatNumber(float64(x)))
	case String:
		if escape {
			b.WriteString(quoteString(string(x)))
		} else {
			b.WriteString(string(x))
		}
	case Symbol:
		b.WriteString(string(x))
	case Keyword:
		b.WriteByte(':')
		b.WriteString(string(x))
	case *List:
		writeItems(b, "(", ")", x.Items, escape, seen)
	case *Vector:
		writeItems(b, "[", "]", x.Items, escape, seen)
	case *Map:
		if !seen.enter(x) {
			b.WriteString("{...}")
			return
		}
		writeItems(b, "{", "}", x.Flatten(), escape, seen)
		seen.leave(x)
	case *Function:
		b.WriteString(functionSummary(x))
	case *Atom:
		if !seen.enter(x) {
			b.WriteString("#<atom ...>")
			return
		}
		b.WriteString("#<atom ")
		writeValue(b, x.Deref(), escape, seen)
		b.WriteByte('>')
		seen.leave(x)
	case *RegExp:
		b.WriteString("#<regexp /")
		b.WriteString(x.Source)
		b.WriteByte('/')
		b.WriteString(x.Flags)
		b.WriteByte('>')
	case *Handle:
		b.WriteString("#<handle ")
		b.WriteString(x.Kind)
		b.WriteByte('>')
	default:
		b.WriteString("#<unknown>")
	}
}

func writeItems(b *strings.Builder, lead, close string, items []Value, escape bool, seen inProgress) {
	b.WriteString(lead)
	for i, it := range items {
		if i > 0 {
			b.WriteByte(' ')
		}
		writeValue(b, it, escape, seen)
	}
	b.WriteString(close)
}

// functionSummary prints metadata only, never the body.
func functionSummary(f *Function) string {
	if f.IsBridge() {
		if f.Name == "" {
			return "#<bridge>"
		}
		return "#<bridge " + f.Name + ">"
	}
	kind := "fn"
	if f.IsMacro {
		kind = "macro"
	}
	var b strings.Builder
	b.WriteString("#<")
	b.WriteString(kind)
	if f.Name != "" {
		b.WriteByte(' ')
		b.WriteString(f.Name)
	}
	if f.Params != nil {
		b.WriteByte(' ')
		writeValue(&b, f.Params, true, nil)
	}
	b.WriteByte('>')
	return b.String()
}

/* ---------- multi-line writer ---------- */

func writePretty(b *strings.Builder, v Value, depth int, seen inProgress) {
	var flat strings.Builder
	writeValue(&flat, v, true, seen)
	var lead, close string
	var items []Value
	switch x := v.(type) {
	case *List:
		lead, close, items = "(", ")", x.Items
	case *Vector:
		lead, close, items = "[", "]", x.Items
	case *Map:
		if seen[x] {
			b.WriteString(flat.String())
			return
		}
		lead, close, items = "{", "}", x.Flatten()
	}
	if lead == "" || len(items) == 0 || depth*2+flat.Len() <= MaxInlineWidth {
		b.WriteString(flat.String())
		return
	}
	if m, ok := v.(*Map); ok {
		seen.enter(m)
		defer seen.leave(m)
	}
	pad := strings.Repeat("  ", depth+1)
	b.WriteString(lead)
	_, isMap := v.(*Map)
	for i, it := range items {
		if i > 0 {
			if isMap && i%2 == 1 {
				b.WriteByte(' ')
			} else {
				b.WriteByte('\n')
				b.WriteString(pad)
			}
		}
		writePretty(b, it, depth+1, seen)
	}
	b.WriteString(close)
}
