// interpreter_exec.go — the evaluator loop (private).
//
// Evaluate is a single loop over (ast, env). Every tail position — the
// bodies of let, do and if, quasiquote expansions, and closure application —
// rewrites those two variables and continues the loop instead of recursing,
// so Schem-to-Schem tail calls never grow the Go stack. Non-tail
// sub-evaluations (arguments, `def` values, `if` conditions) recurse.
//
// Each iteration:
//
//  1. non-list forms resolve atomically (symbols, vectors, maps, literals);
//  2. a list is macro-expanded to a fixed point first;
//  3. an empty list evaluates to itself;
//  4. special forms dispatch on the head symbol;
//  5. anything else evaluates head and arguments left to right and applies.
//
// Bridge functions are leaves: they are called directly, and a panic inside
// one is recovered and returned as an error.
package schem

import (
	"context"
	"fmt"
	"log/slog"
)

// Special form names.
const (
	symDef           = Symbol("def")
	symDefmacro      = Symbol("defmacro")
	symLet           = Symbol("let")
	symDo            = Symbol("do")
	symIf            = Symbol("if")
	symFn            = Symbol("fn")
	symQuote         = Symbol("quote")
	symQuasiquote    = Symbol("quasiquote")
	symUnquote       = Symbol("unquote")
	symSpliceUnquote = Symbol("splice-unquote")
	symMacroexpand   = Symbol("macroexpand")
)

// Evaluate evaluates ast in env.
func (ip *Interpreter) Evaluate(ctx context.Context, ast Value, env *Env) (Value, error) {
	for {
		if ip.stepHook != nil {
			if err := ip.stepHook(ctx, ast, env); err != nil {
				return nil, err
			}
		}
		if ip.logger.Enabled(ctx, slog.LevelDebug) {
			ip.logger.DebugContext(ctx, "eval step", "form", Print(ast, true))
		}

		list, ok := ast.(*List)
		if !ok {
			return ip.evalAtom(ctx, ast, env)
		}
		expanded, err := ip.macroExpand(ctx, list, env)
		if err != nil {
			return nil, err
		}
		if list, ok = expanded.(*List); !ok {
			return ip.evalAtom(ctx, expanded, env)
		}
		if len(list.Items) == 0 {
			return list, nil
		}

		if head, ok := headSymbol(list); ok {
			args := list.Items[1:]
			switch head {
			case symDef:
				return ip.evalDef(ctx, args, env, false)

			case symDefmacro:
				return ip.evalDef(ctx, args, env, true)

			case symLet:
				if len(args) < 1 {
					return nil, &ArityError{Fn: "let", Msg: "expected a binding vector"}
				}
				bindings, ok := sequential(args[0])
				if !ok {
					return nil, &TypeError{Msg: fmt.Sprintf("let: bindings must be a vector, got %s", args[0].Tag())}
				}
				if len(bindings)%2 != 0 {
					return nil, &ArityError{Fn: "let", Msg: "bindings must contain an even number of forms"}
				}
				targets := make([]Value, 0, len(bindings)/2)
				exprs := make([]Value, 0, len(bindings)/2)
				for i := 0; i < len(bindings); i += 2 {
					targets = append(targets, bindings[i])
					exprs = append(exprs, bindings[i+1])
				}
				child := NewEnv(env)
				if err := child.Bind(ctx, NewVector(targets...), NewList(exprs...), ip); err != nil {
					return nil, err
				}
				ast, env = implicitDo(args[1:]), child
				continue

			case symDo:
				if len(args) == 0 {
					return NilValue, nil
				}
				for _, form := range args[:len(args)-1] {
					if _, err := ip.Evaluate(ctx, form, env); err != nil {
						return nil, err
					}
				}
				ast = args[len(args)-1]
				continue

			case symIf:
				if len(args) < 2 || len(args) > 3 {
					return nil, &ArityError{Fn: "if", Msg: fmt.Sprintf("expected 2 or 3 arguments, got %d", len(args))}
				}
				cond, err := ip.Evaluate(ctx, args[0], env)
				if err != nil {
					return nil, err
				}
				switch {
				case Truthy(cond):
					ast = args[1]
				case len(args) == 3:
					ast = args[2]
				default:
					return NilValue, nil
				}
				continue

			case symFn:
				return makeClosure(args, env)

			case symQuote:
				if len(args) != 1 {
					return nil, &ArityError{Fn: "quote", Msg: fmt.Sprintf("expected 1 argument, got %d", len(args))}
				}
				return args[0], nil

			case symQuasiquote:
				if len(args) != 1 {
					return nil, &ArityError{Fn: "quasiquote", Msg: fmt.Sprintf("expected 1 argument, got %d", len(args))}
				}
				ast = quasiquote(args[0])
				continue

			case symMacroexpand:
				if len(args) != 1 {
					return nil, &ArityError{Fn: "macroexpand", Msg: fmt.Sprintf("expected 1 argument, got %d", len(args))}
				}
				return ip.macroExpand(ctx, args[0], env)
			}
		}

		vals := make([]Value, len(list.Items))
		for i, it := range list.Items {
			v, err := ip.Evaluate(ctx, it, env)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		callee, callArgs := vals[0], vals[1:]

		if kw, ok := callee.(Keyword); ok && len(callArgs) == 0 {
			return kw, nil
		}
		f, ok := callee.(*Function)
		if !ok || f.IsBridge() {
			return ip.applyLeaf(ctx, callee, callArgs)
		}
		callEnv, err := ip.closureEnv(ctx, f, callArgs)
		if err != nil {
			return nil, err
		}
		if ip.logger.Enabled(ctx, slog.LevelDebug) {
			ip.logger.DebugContext(ctx, "tail call", "fn", f.Name, "args", len(callArgs))
		}
		ast, env = f.Body, callEnv
	}
}

// evalAtom resolves a non-list form.
func (ip *Interpreter) evalAtom(ctx context.Context, ast Value, env *Env) (Value, error) {
	switch x := ast.(type) {
	case Symbol:
		return env.Get(x)
	case *Vector:
		items := make([]Value, len(x.Items))
		for i, it := range x.Items {
			v, err := ip.Evaluate(ctx, it, env)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return NewVector(items...), nil
	case *Map:
		out := NewMap()
		var err error
		x.Each(func(k, v Value) {
			if err != nil {
				return
			}
			var ev Value
			if ev, err = ip.Evaluate(ctx, v, env); err == nil {
				err = out.Set(k, ev)
			}
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	case nil:
		return NilValue, nil
	}
	return ast, nil
}

// macroExpand rewrites ast while its head symbol names a macro. There is no
// cycle detection: a macro that always expands to itself loops forever.
func (ip *Interpreter) macroExpand(ctx context.Context, ast Value, env *Env) (Value, error) {
	for {
		f, ok := ip.macroCall(ast, env)
		if !ok {
			return ast, nil
		}
		out, err := ip.Apply(ctx, f, ast.(*List).Items[1:])
		if err != nil {
			return nil, err
		}
		if ip.logger.Enabled(ctx, slog.LevelDebug) {
			ip.logger.DebugContext(ctx, "macro expanded", "macro", f.Name, "form", Print(out, true))
		}
		ast = out
	}
}

func (ip *Interpreter) macroCall(ast Value, env *Env) (*Function, bool) {
	l, ok := ast.(*List)
	if !ok {
		return nil, false
	}
	head, ok := headSymbol(l)
	if !ok {
		return nil, false
	}
	v, ok := env.Find(head)
	if !ok {
		return nil, false
	}
	f, ok := v.(*Function)
	return f, ok && f.IsMacro
}

// evalDef implements (def sym expr) and (defmacro sym expr).
func (ip *Interpreter) evalDef(ctx context.Context, args []Value, env *Env, macro bool) (Value, error) {
	form := "def"
	if macro {
		form = "defmacro"
	}
	if len(args) != 2 {
		return nil, &ArityError{Fn: form, Msg: fmt.Sprintf("expected a symbol and a value, got %d argument(s)", len(args))}
	}
	name, ok := args[0].(Symbol)
	if !ok {
		return nil, &TypeError{Msg: fmt.Sprintf("%s: name must be a symbol, got %s", form, args[0].Tag())}
	}
	v, err := ip.Evaluate(ctx, args[1], env)
	if err != nil {
		return nil, err
	}
	if macro {
		f, ok := v.(*Function)
		if !ok {
			return nil, &TypeError{Msg: fmt.Sprintf("defmacro: %s must be a function, got %s", name, v.Tag())}
		}
		m := *f
		m.IsMacro = true
		if m.Name == "" {
			m.Name = string(name)
		}
		v = &m
	} else if f, ok := v.(*Function); ok && f.Name == "" {
		named := *f
		named.Name = string(name)
		v = &named
	}
	if env == ip.Root {
		delete(ip.pending, name)
	}
	return env.Set(name, v), nil
}

// makeClosure implements (fn params body...). A leading string in a body of
// more than one form is the docstring.
func makeClosure(args []Value, env *Env) (Value, error) {
	if len(args) < 1 {
		return nil, &ArityError{Fn: "fn", Msg: "expected a parameter vector"}
	}
	params := args[0]
	switch params.(type) {
	case *Vector, *List:
	default:
		return nil, &TypeError{Msg: fmt.Sprintf("fn: parameters must be a vector, got %s", params.Tag())}
	}
	body := args[1:]
	var doc string
	if len(body) > 1 {
		if s, ok := body[0].(String); ok {
			doc, body = string(s), body[1:]
		}
	}
	return &Function{
		Doc:       doc,
		ParamHint: Print(params, true),
		Params:    params,
		Body:      implicitDo(body),
		Env:       env,
	}, nil
}

// implicitDo turns a body of several forms into one.
func implicitDo(body []Value) Value {
	switch len(body) {
	case 0:
		return NilValue
	case 1:
		return body[0]
	}
	return NewList(append([]Value{symDo}, body...)...)
}

// closureEnv builds the call scope of a closure: a child of its captured
// environment with the parameters bound to args.
func (ip *Interpreter) closureEnv(ctx context.Context, f *Function, args []Value) (*Env, error) {
	env := NewEnv(f.Env)
	if err := env.Bind(ctx, f.Params, NewList(args...), nil); err != nil {
		return nil, err
	}
	return env, nil
}

// applyLeaf applies everything that is not a closure: bridge functions,
// keywords, numbers and vectors.
func (ip *Interpreter) applyLeaf(ctx context.Context, callee Value, args []Value) (Value, error) {
	switch c := callee.(type) {
	case *Function:
		if c.IsBridge() {
			return ip.callBridge(ctx, c, args)
		}
		return ip.Apply(ctx, c, args)
	case Keyword:
		if len(args) == 0 {
			return c, nil
		}
		if err := wantArity(Print(c, true), args, 1, 2); err != nil {
			return nil, err
		}
		m, ok := args[0].(*Map)
		if ok {
			if v, found := m.Get(c); found {
				return v, nil
			}
		}
		if len(args) == 2 {
			return args[1], nil
		}
		return NilValue, nil
	case Number:
		if err := wantArity(formatNumber(float64(c)), args, 1, 1); err != nil {
			return nil, err
		}
		items, ok := Seq(args[0])
		if !ok {
			return nil, &TypeError{Msg: fmt.Sprintf("cannot index into %s", args[0].Tag())}
		}
		return indexOrNil(items, float64(c)), nil
	case *Vector:
		if err := wantArity("vector", args, 1, 1); err != nil {
			return nil, err
		}
		n, ok := args[0].(Number)
		if !ok {
			return nil, &TypeError{Msg: fmt.Sprintf("vector index must be a number, got %s", args[0].Tag())}
		}
		return indexOrNil(c.Items, float64(n)), nil
	}
	return nil, &TypeError{Msg: fmt.Sprintf("not callable: %s", Print(callee, true))}
}

func indexOrNil(items []Value, f float64) Value {
	i := int(f)
	if float64(i) != f || i < 0 || i >= len(items) {
		return NilValue
	}
	return items[i]
}

func (ip *Interpreter) callBridge(ctx context.Context, f *Function, args []Value) (res Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("bridge function %s panicked: %v", f.Name, r)
		}
	}()
	res, err = f.Native(ctx, args)
	if err == nil && res == nil {
		res = NilValue
	}
	return res, err
}

// quasiquote rewrites a quasiquoted form into cons/concat calls:
//
//	`x           → (quote x)            for symbols
//	`~x          → x
//	`(a ~@b c)   → (cons a' (concat b (cons c' ())))
//	`[a b]       → (vec <list expansion>)
//	`{k v}       → (apply hash-map <list expansion of k v>)
func quasiquote(ast Value) Value {
	switch x := ast.(type) {
	case *List:
		if head, ok := headSymbol(x); ok && head == symUnquote && len(x.Items) == 2 {
			return x.Items[1]
		}
		return quasiquoteSeq(x.Items)
	case *Vector:
		return NewList(Symbol("vec"), quasiquoteSeq(x.Items))
	case *Map:
		return NewList(Symbol("apply"), Symbol("hash-map"), quasiquoteSeq(x.Flatten()))
	case Symbol:
		return NewList(symQuote, x)
	}
	return ast
}

func quasiquoteSeq(items []Value) Value {
	var acc Value = NewList()
	for i := len(items) - 1; i >= 0; i-- {
		elt := items[i]
		if l, ok := elt.(*List); ok {
			if head, ok := headSymbol(l); ok && head == symSpliceUnquote && len(l.Items) == 2 {
				acc = NewList(Symbol("concat"), l.Items[1], acc)
				continue
			}
		}
		acc = NewList(Symbol("cons"), quasiquote(elt), acc)
	}
	return acc
}
