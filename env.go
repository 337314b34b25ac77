// env.go — lexical environments and destructuring
//
// An Env is one scope: a symbol table plus a link to its outer scope. Lookups
// walk outward; Set always writes the current scope, so redefining a name in a
// child scope shadows the outer binding and never mutates it.
//
// Closures capture their defining *Env by pointer. Child scopes created for
// calls and `let` are dropped as soon as nothing references them; the Go
// garbage collector owns their lifetime.
//
// Destructuring (Bind) is shared by `let` and closure application:
//
//	[a b]           positional; missing source elements bind to nil
//	[a [b c]]       nested patterns recurse
//	[a & rest]      rest captures the remaining elements as a new list
//	{x :a, y :b}    associative; binds x to (get source :a)
package schem

import (
	"context"
	"fmt"
	"sort"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// Env is a lexical environment frame with an outer link.
type Env struct {
	outer *Env
	table map[Symbol]Value
}

// Evaluator evaluates a form in an environment. *Interpreter implements it.
type Evaluator interface {
	Evaluate(ctx context.Context, ast Value, env *Env) (Value, error)
}

// SymbolInfo is the introspection record for a bound name.
type SymbolInfo struct {
	Name      Symbol
	Kind      string // "bridge", "fn", "macro", or the value's tag name
	Doc       string
	ParamHint string
	IsMacro   bool
}

// NewEnv creates a new scope whose lookups fall back to outer (may be nil).
func NewEnv(outer *Env) *Env {
	return &Env{outer: outer, table: make(map[Symbol]Value)}
}

// Outer returns the enclosing scope, or nil for a root scope.
func (e *Env) Outer() *Env { return e.outer }

// Set binds name to v in this scope only.
func (e *Env) Set(name Symbol, v Value) Value {
	e.table[name] = v
	return v
}

// Remove deletes the binding of name from this scope only.
func (e *Env) Remove(name Symbol) { delete(e.table, name) }

// Find returns the nearest binding of name.
func (e *Env) Find(name Symbol) (Value, bool) {
	for s := e; s != nil; s = s.outer {
		if v, ok := s.table[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Get is Find that fails with *UnboundSymbolError.
func (e *Env) Get(name Symbol) (Value, error) {
	if v, ok := e.Find(name); ok {
		return v, nil
	}
	return nil, &UnboundSymbolError{Name: name}
}

// Lookup reports whether name is bound in this scope (outer scopes are not
// consulted).
func (e *Env) Lookup(name Symbol) (Value, bool) {
	v, ok := e.table[name]
	return v, ok
}

// AddMap installs a batch of bindings into this scope. Each entry may be a
// Bridge record, a BridgeFunc, a Value, or a plain Go value accepted by
// ToValue. Unless overwrite is set, a name already bound in this scope
// rejects the whole batch and nothing is installed.
func (e *Env) AddMap(bindings map[string]any, overwrite bool) error {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	if !overwrite {
		for _, name := range names {
			if _, exists := e.table[Symbol(name)]; exists {
				return fmt.Errorf("addMap: %q is already bound", name)
			}
		}
	}

	vals := make([]Value, len(names))
	for i, name := range names {
		v, err := bindingValue(name, bindings[name])
		if err != nil {
			return fmt.Errorf("addMap: %s: %w", name, err)
		}
		vals[i] = v
	}
	for i, name := range names {
		e.table[Symbol(name)] = vals[i]
	}
	return nil
}

// Bind destructures source into this scope according to target.
//
// When ev is non-nil, each element of a sequential source is evaluated in e
// before it is bound, so later elements see earlier bindings. `let` uses this
// with its targets and expressions split into two sequences. Closure
// application passes already-evaluated arguments and a nil ev.
func (e *Env) Bind(ctx context.Context, target, source Value, ev Evaluator) error {
	switch t := target.(type) {
	case Symbol:
		if ev != nil {
			v, err := ev.Evaluate(ctx, source, e)
			if err != nil {
				return err
			}
			source = v
		}
		e.Set(t, source)
		return nil
	case *Vector:
		return e.bindSeq(ctx, t.Items, source, ev)
	case *List:
		return e.bindSeq(ctx, t.Items, source, ev)
	case *Map:
		if ev != nil {
			v, err := ev.Evaluate(ctx, source, e)
			if err != nil {
				return err
			}
			source = v
		}
		return e.bindAssoc(ctx, t, source)
	}
	return &TypeError{Msg: fmt.Sprintf("cannot bind to %s: not a symbol or binding pattern", Print(target, true))}
}

// ListSymbols returns every name visible from e, sorted and without
// duplicates.
func (e *Env) ListSymbols() []Symbol {
	seen := map[Symbol]bool{}
	var out []Symbol
	for s := e; s != nil; s = s.outer {
		for name := range s.table {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SymbolInfo describes the binding visible for name.
func (e *Env) SymbolInfo(name Symbol) (SymbolInfo, bool) {
	v, ok := e.Find(name)
	if !ok {
		return SymbolInfo{}, false
	}
	info := SymbolInfo{Name: name, Kind: v.Tag().String()}
	if f, ok := v.(*Function); ok {
		info.Doc = f.Doc
		info.IsMacro = f.IsMacro
		info.ParamHint = f.ParamHint
		switch {
		case f.IsBridge():
			info.Kind = "bridge"
		case f.IsMacro:
			info.Kind = "macro"
		default:
			info.Kind = "fn"
		}
		if info.ParamHint == "" && f.Params != nil {
			info.ParamHint = Print(f.Params, true)
		}
	}
	return info, true
}

//// END_OF_PUBLIC

const restMarker = Symbol("&")

func (e *Env) bindSeq(ctx context.Context, targets []Value, source Value, ev Evaluator) error {
	items, ok := Seq(source)
	if !ok {
		return &TypeError{Msg: fmt.Sprintf("cannot destructure %s as a sequence", source.Tag())}
	}
	for i := 0; i < len(targets); i++ {
		if s, ok := targets[i].(Symbol); ok && s == restMarker {
			if i+1 >= len(targets) {
				return &TypeError{Msg: "'&' must be followed by a binding target"}
			}
			var rest []Value
			if i < len(items) {
				rest = make([]Value, 0, len(items)-i)
				for _, it := range items[i:] {
					if ev != nil {
						v, err := ev.Evaluate(ctx, it, e)
						if err != nil {
							return err
						}
						it = v
					}
					rest = append(rest, it)
				}
			}
			return e.Bind(ctx, targets[i+1], NewList(rest...), nil)
		}
		var src Value = NilValue
		if i < len(items) {
			src = items[i]
			if ev != nil {
				v, err := ev.Evaluate(ctx, src, e)
				if err != nil {
					return err
				}
				src = v
			}
		}
		if err := e.Bind(ctx, targets[i], src, nil); err != nil {
			return err
		}
	}
	return nil
}

func (e *Env) bindAssoc(ctx context.Context, pattern *Map, source Value) error {
	var m *Map
	switch s := source.(type) {
	case *Map:
		m = s
	case Nil:
	default:
		return &TypeError{Msg: fmt.Sprintf("cannot destructure %s as a map", source.Tag())}
	}
	var err error
	pattern.Each(func(target, key Value) {
		if err != nil {
			return
		}
		var v Value = NilValue
		if m != nil {
			if got, ok := m.Get(key); ok {
				v = got
			}
		}
		err = e.Bind(ctx, target, v, nil)
	})
	return err
}
