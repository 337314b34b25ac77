// introspection.go — tooling surface for editors and REPLs.
//
// Everything here is read-only over the interpreter: symbol completion,
// rendered documentation, and locating the form under a cursor in a source
// buffer. The REPL's tab completion and the `doc` builtin both go through
// these functions.
package schem

import (
	"errors"
	"io"
	"sort"
	"strings"
)

// SpecialForms lists the names the evaluator intercepts before application.
var SpecialForms = []Symbol{
	symDef, symDefmacro, symDo, symFn, symIf, symLet,
	symMacroexpand, symQuasiquote, symQuote,
}

// Completions returns every bound name and special form starting with
// prefix, sorted.
func (ip *Interpreter) Completions(prefix string) []string {
	var out []string
	for _, s := range ip.Root.ListSymbols() {
		if strings.HasPrefix(string(s), prefix) {
			out = append(out, string(s))
		}
	}
	for _, s := range SpecialForms {
		if strings.HasPrefix(string(s), prefix) {
			out = append(out, string(s))
		}
	}
	sort.Strings(out)
	return out
}

// DocText renders a SymbolInfo the way `doc` prints it:
//
//	name [params]
//	kind
//
//	docstring
func DocText(info SymbolInfo) string {
	var b strings.Builder
	b.WriteString(string(info.Name))
	if info.ParamHint != "" {
		b.WriteByte(' ')
		b.WriteString(info.ParamHint)
	}
	b.WriteByte('\n')
	b.WriteString(info.Kind)
	if info.Doc != "" {
		b.WriteString("\n\n")
		b.WriteString(info.Doc)
	}
	return b.String()
}

// FormAtOffset reads src top-level form by top-level form and returns the
// innermost List, Vector or Map containing offset. When offset falls on an
// atom, the enclosing collection is returned; nil means offset is outside
// every collection form.
func FormAtOffset(src string, offset int) (Value, error) {
	r := NewReader(src)
	for {
		form, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if hit := FormAt(form, offset); hit != nil {
			return hit, nil
		}
		if r.Offset() > offset {
			return nil, nil
		}
	}
}
