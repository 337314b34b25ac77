// builtin_introspection.go
//
// Builtins surfaced:
//  1. (eval form)      evaluates a form in the root environment
//  2. (symbols)        sorted list of every bound symbol
//  3. (doc sym)        documentation text for a bound name or special form
//  4. (type-of x)      keyword naming the runtime kind of x
//  5. (macroexpand-all form)  expands macros in form and all its subforms
package schem

import (
	"context"
	"fmt"
)

func registerIntrospectionBuiltins(ip *Interpreter) {
	ip.register(
		Bridge{Name: "eval", ParamHint: "[form]", Fn: func(ctx context.Context, args []Value) (Value, error) {
			if err := wantArity("eval", args, 1, 1); err != nil {
				return nil, err
			}
			return ip.Evaluate(ctx, args[0], ip.Root)
		}},
		Bridge{Name: "symbols", ParamHint: "[]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("symbols", args, 0, 0); err != nil {
				return nil, err
			}
			syms := ip.Root.ListSymbols()
			out := make([]Value, len(syms))
			for i, s := range syms {
				out[i] = s
			}
			return NewList(out...), nil
		}},
		Bridge{Name: "doc", ParamHint: "[sym]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("doc", args, 1, 1); err != nil {
				return nil, err
			}
			var name Symbol
			switch x := args[0].(type) {
			case Symbol:
				name = x
			case String:
				name = Symbol(x)
			case *Function:
				return String(functionDoc(x)), nil
			default:
				return nil, argTypeError("doc", 0, "a symbol", args[0])
			}
			for _, sf := range SpecialForms {
				if sf == name {
					return String(string(name) + "\nspecial form"), nil
				}
			}
			info, ok := ip.Root.SymbolInfo(name)
			if !ok {
				return nil, &UnboundSymbolError{Name: name}
			}
			return String(DocText(info)), nil
		}},
		Bridge{Name: "type-of", ParamHint: "[x]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("type-of", args, 1, 1); err != nil {
				return nil, err
			}
			return Keyword(args[0].Tag().String()), nil
		}},
		Bridge{Name: "macroexpand-all", ParamHint: "[form]", Fn: func(ctx context.Context, args []Value) (Value, error) {
			if err := wantArity("macroexpand-all", args, 1, 1); err != nil {
				return nil, err
			}
			return ip.expandAll(ctx, args[0])
		}},
	)
	setBuiltinDoc(ip, "doc", `Documentation for a name: its parameter hint, its kind and its docstring.

Accepts a quoted symbol, a string, or a function value.`)
	setBuiltinDoc(ip, "eval", "Evaluates form in the root environment.")
}

func functionDoc(f *Function) string {
	info := SymbolInfo{Name: Symbol(f.Name), Doc: f.Doc, ParamHint: f.ParamHint, IsMacro: f.IsMacro}
	switch {
	case f.IsBridge():
		info.Kind = "bridge"
	case f.IsMacro:
		info.Kind = "macro"
	default:
		info.Kind = "fn"
	}
	if info.Name == "" {
		info.Name = "<anonymous>"
	}
	return DocText(info)
}

// expandAll walks form depth first. Quoted forms are left alone.
func (ip *Interpreter) expandAll(ctx context.Context, form Value) (Value, error) {
	form, err := ip.macroExpand(ctx, form, ip.Root)
	if err != nil {
		return nil, err
	}
	switch x := form.(type) {
	case *List:
		if h, ok := headSymbol(x); ok && h == symQuote {
			return x, nil
		}
		items, err := ip.expandItems(ctx, x.Items)
		if err != nil {
			return nil, err
		}
		return &List{Items: items, Span: x.Span}, nil
	case *Vector:
		items, err := ip.expandItems(ctx, x.Items)
		if err != nil {
			return nil, err
		}
		return &Vector{Items: items, Span: x.Span}, nil
	case *Map:
		out := NewMap()
		var err error
		x.Each(func(k, v Value) {
			if err != nil {
				return
			}
			var ev Value
			if ev, err = ip.expandAll(ctx, v); err == nil {
				err = out.Set(k, ev)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("macroexpand-all: %w", err)
		}
		return out, nil
	}
	return form, nil
}

func (ip *Interpreter) expandItems(ctx context.Context, items []Value) ([]Value, error) {
	out := make([]Value, len(items))
	for i, it := range items {
		v, err := ip.expandAll(ctx, it)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
