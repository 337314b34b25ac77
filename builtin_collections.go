package schem

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// ---- collection built-ins ----------------------------------------------
//
// Every operation here returns a fresh collection, with one exception kept on
// purpose: conj onto a map mutates that map in place and returns it.

func registerCollectionBuiltins(ip *Interpreter) {
	// constructors
	ip.register(
		Bridge{Name: "list", ParamHint: "[& items]", Fn: func(args []Value) (Value, error) {
			return NewList(append([]Value(nil), args...)...), nil
		}},
		Bridge{Name: "vector", ParamHint: "[& items]", Fn: func(args []Value) (Value, error) {
			return NewVector(append([]Value(nil), args...)...), nil
		}},
		Bridge{Name: "vec", ParamHint: "[coll]", Doc: "Vector holding the items of a list, vector or nil.",
			Fn: func(args []Value) (Value, error) {
				if err := wantArity("vec", args, 1, 1); err != nil {
					return nil, err
				}
				items, err := argSeq("vec", args, 0)
				if err != nil {
					return nil, err
				}
				return NewVector(append([]Value(nil), items...)...), nil
			}},
		Bridge{Name: "hash-map", ParamHint: "[& kvs]", Doc: "Map from alternating keys and values.",
			Fn: func(args []Value) (Value, error) {
				m, err := NewMapFromPairs(args...)
				if err != nil {
					return nil, err
				}
				return m, nil
			}},
	)

	// access
	ip.register(
		Bridge{Name: "count", ParamHint: "[coll]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("count", args, 1, 1); err != nil {
				return nil, err
			}
			switch x := args[0].(type) {
			case *Map:
				return Number(x.Len()), nil
			case String:
				return Number(len([]rune(string(x)))), nil
			}
			items, err := argSeq("count", args, 0)
			if err != nil {
				return nil, err
			}
			return Number(len(items)), nil
		}},
		Bridge{Name: "empty?", ParamHint: "[coll]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("empty?", args, 1, 1); err != nil {
				return nil, err
			}
			switch x := args[0].(type) {
			case *Map:
				return Boolean(x.Len() == 0), nil
			case String:
				return Boolean(x == ""), nil
			}
			items, err := argSeq("empty?", args, 0)
			if err != nil {
				return nil, err
			}
			return Boolean(len(items) == 0), nil
		}},
		Bridge{Name: "nth", ParamHint: "[coll index default?]", Doc: "Item at index; out of range is an error unless a default is given.",
			Fn: func(args []Value) (Value, error) {
				if err := wantArity("nth", args, 2, 3); err != nil {
					return nil, err
				}
				items, err := argSeq("nth", args, 0)
				if err != nil {
					return nil, err
				}
				i, err := argInt("nth", args, 1)
				if err != nil {
					return nil, err
				}
				if i < 0 || i >= len(items) {
					if len(args) == 3 {
						return args[2], nil
					}
					return nil, &TypeError{Msg: fmt.Sprintf("nth: index %d out of range for %d item(s)", i, len(items))}
				}
				return items[i], nil
			}},
		Bridge{Name: "first", ParamHint: "[coll]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("first", args, 1, 1); err != nil {
				return nil, err
			}
			items, err := argSeq("first", args, 0)
			if err != nil || len(items) == 0 {
				return NilValue, err
			}
			return items[0], nil
		}},
		Bridge{Name: "rest", ParamHint: "[coll]", Doc: "List of all items but the first; empty for nil or empty input.",
			Fn: func(args []Value) (Value, error) {
				if err := wantArity("rest", args, 1, 1); err != nil {
					return nil, err
				}
				items, err := argSeq("rest", args, 0)
				if err != nil {
					return nil, err
				}
				if len(items) == 0 {
					return NewList(), nil
				}
				return NewList(append([]Value(nil), items[1:]...)...), nil
			}},
		Bridge{Name: "last", ParamHint: "[coll]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("last", args, 1, 1); err != nil {
				return nil, err
			}
			items, err := argSeq("last", args, 0)
			if err != nil || len(items) == 0 {
				return NilValue, err
			}
			return items[len(items)-1], nil
		}},
		Bridge{Name: "get", ParamHint: "[coll key default?]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("get", args, 2, 3); err != nil {
				return nil, err
			}
			var dflt Value = NilValue
			if len(args) == 3 {
				dflt = args[2]
			}
			switch x := args[0].(type) {
			case *Map:
				if v, ok := x.Get(args[1]); ok {
					return v, nil
				}
			case *List, *Vector:
				items, _ := sequential(x)
				if n, ok := args[1].(Number); ok {
					if v := indexOrNil(items, float64(n)); v != NilValue {
						return v, nil
					}
				}
			case Nil:
			default:
				return nil, argTypeError("get", 0, "a map or vector", args[0])
			}
			return dflt, nil
		}},
		Bridge{Name: "contains?", ParamHint: "[m key]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("contains?", args, 2, 2); err != nil {
				return nil, err
			}
			m, err := argMap("contains?", args, 0)
			if err != nil {
				return nil, err
			}
			_, ok := m.Get(args[1])
			return Boolean(ok), nil
		}},
		Bridge{Name: "keys", ParamHint: "[m]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("keys", args, 1, 1); err != nil {
				return nil, err
			}
			m, err := argMap("keys", args, 0)
			if err != nil {
				return nil, err
			}
			return NewList(m.Keys()...), nil
		}},
		Bridge{Name: "vals", ParamHint: "[m]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("vals", args, 1, 1); err != nil {
				return nil, err
			}
			m, err := argMap("vals", args, 0)
			if err != nil {
				return nil, err
			}
			return NewList(m.Values()...), nil
		}},
	)

	// construction from existing collections
	ip.register(
		Bridge{Name: "cons", ParamHint: "[x coll]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("cons", args, 2, 2); err != nil {
				return nil, err
			}
			items, err := argSeq("cons", args, 1)
			if err != nil {
				return nil, err
			}
			out := make([]Value, 0, len(items)+1)
			return NewList(append(append(out, args[0]), items...)...), nil
		}},
		Bridge{Name: "concat", ParamHint: "[& colls]", Fn: func(args []Value) (Value, error) {
			var out []Value
			for i := range args {
				items, err := argSeq("concat", args, i)
				if err != nil {
					return nil, err
				}
				out = append(out, items...)
			}
			return NewList(out...), nil
		}},
		Bridge{Name: "conj", ParamHint: "[coll & xs]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("conj", args, 1, -1); err != nil {
				return nil, err
			}
			return conj(args[0], args[1:])
		}},
		Bridge{Name: "assoc", ParamHint: "[m & kvs]", Doc: "New map with the given keys set; the argument map is unchanged.",
			Fn: func(args []Value) (Value, error) {
				if err := wantArity("assoc", args, 1, -1); err != nil {
					return nil, err
				}
				if len(args[1:])%2 != 0 {
					return nil, &ArityError{Fn: "assoc", Msg: "expected an even number of key/value arguments"}
				}
				var out *Map
				switch x := args[0].(type) {
				case *Map:
					out = x.Clone()
				case Nil:
					out = NewMap()
				default:
					return nil, argTypeError("assoc", 0, "a map", args[0])
				}
				for i := 1; i < len(args); i += 2 {
					if err := out.Set(args[i], args[i+1]); err != nil {
						return nil, err
					}
				}
				return out, nil
			}},
		Bridge{Name: "dissoc", ParamHint: "[m & ks]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("dissoc", args, 1, -1); err != nil {
				return nil, err
			}
			m, err := argMap("dissoc", args, 0)
			if err != nil {
				return nil, err
			}
			out := m.Clone()
			for _, k := range args[1:] {
				out.Delete(k)
			}
			return out, nil
		}},
		Bridge{Name: "seq", ParamHint: "[coll]", Doc: "List view of a collection or string; nil when empty.",
			Fn: func(args []Value) (Value, error) {
				if err := wantArity("seq", args, 1, 1); err != nil {
					return nil, err
				}
				var items []Value
				switch x := args[0].(type) {
				case String:
					for _, r := range string(x) {
						items = append(items, String(string(r)))
					}
				case *Map:
					x.Each(func(k, v Value) { items = append(items, NewVector(k, v)) })
				default:
					seq, err := argSeq("seq", args, 0)
					if err != nil {
						return nil, err
					}
					items = append(items, seq...)
				}
				if len(items) == 0 {
					return NilValue, nil
				}
				return NewList(items...), nil
			}},
		Bridge{Name: "reverse", ParamHint: "[coll]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("reverse", args, 1, 1); err != nil {
				return nil, err
			}
			items, err := argSeq("reverse", args, 0)
			if err != nil {
				return nil, err
			}
			out := make([]Value, len(items))
			for i, it := range items {
				out[len(items)-1-i] = it
			}
			return NewList(out...), nil
		}},
		Bridge{Name: "range", ParamHint: "[end] | [start end step?]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("range", args, 1, 3); err != nil {
				return nil, err
			}
			ns, err := numbers("range", args)
			if err != nil {
				return nil, err
			}
			start, end, step := 0.0, ns[0], 1.0
			if len(ns) > 1 {
				start, end = ns[0], ns[1]
			}
			if len(ns) == 3 {
				step = ns[2]
			}
			if step == 0 {
				return nil, &TypeError{Msg: "range: step must not be zero"}
			}
			var out []Value
			for x := start; (step > 0 && x < end) || (step < 0 && x > end); x += step {
				out = append(out, Number(x))
			}
			return NewList(out...), nil
		}},
	)

	// higher-order
	ip.register(
		Bridge{Name: "apply", ParamHint: "[f & args coll]", Doc: "Calls f with args followed by the items of coll.",
			Fn: func(ctx context.Context, args []Value) (Value, error) {
				if err := wantArity("apply", args, 2, -1); err != nil {
					return nil, err
				}
				last, err := argSeq("apply", args, len(args)-1)
				if err != nil {
					return nil, err
				}
				callArgs := append(append([]Value(nil), args[1:len(args)-1]...), last...)
				return ip.Apply(ctx, args[0], callArgs)
			}},
		Bridge{Name: "map", ParamHint: "[f & colls]", Doc: "List of (f x) for each x, in order. Several collections are walked in step up to the shortest.",
			Fn: func(ctx context.Context, args []Value) (Value, error) {
				if err := wantArity("map", args, 2, -1); err != nil {
					return nil, err
				}
				colls := make([][]Value, len(args)-1)
				n := -1
				for i := range colls {
					items, err := argSeq("map", args, i+1)
					if err != nil {
						return nil, err
					}
					colls[i] = items
					if n < 0 || len(items) < n {
						n = len(items)
					}
				}
				out := make([]Value, n)
				for j := 0; j < n; j++ {
					callArgs := make([]Value, len(colls))
					for i := range colls {
						callArgs[i] = colls[i][j]
					}
					v, err := ip.Apply(ctx, args[0], callArgs)
					if err != nil {
						return nil, err
					}
					out[j] = v
				}
				return NewList(out...), nil
			}},
		Bridge{Name: "filter", ParamHint: "[pred coll]", Fn: func(ctx context.Context, args []Value) (Value, error) {
			if err := wantArity("filter", args, 2, 2); err != nil {
				return nil, err
			}
			items, err := argSeq("filter", args, 1)
			if err != nil {
				return nil, err
			}
			out := []Value{}
			for _, it := range items {
				keep, err := ip.Apply(ctx, args[0], []Value{it})
				if err != nil {
					return nil, err
				}
				if Truthy(keep) {
					out = append(out, it)
				}
			}
			return NewList(out...), nil
		}},
		Bridge{Name: "reduce", ParamHint: "[f init? coll]", Doc: "Left fold. Without init the first item seeds the fold; an empty coll yields (f).",
			Fn: func(ctx context.Context, args []Value) (Value, error) {
				if err := wantArity("reduce", args, 2, 3); err != nil {
					return nil, err
				}
				items, err := argSeq("reduce", args, len(args)-1)
				if err != nil {
					return nil, err
				}
				var acc Value
				if len(args) == 3 {
					acc = args[1]
				} else {
					if len(items) == 0 {
						return ip.Apply(ctx, args[0], nil)
					}
					acc, items = items[0], items[1:]
				}
				for _, it := range items {
					if acc, err = ip.Apply(ctx, args[0], []Value{acc, it}); err != nil {
						return nil, err
					}
				}
				return acc, nil
			}},
		Bridge{Name: "sort", ParamHint: "[cmp? coll]", Fn: func(ctx context.Context, args []Value) (Value, error) {
			if err := wantArity("sort", args, 1, 2); err != nil {
				return nil, err
			}
			items, err := argSeq("sort", args, len(args)-1)
			if err != nil {
				return nil, err
			}
			out := append([]Value(nil), items...)
			var sortErr error
			less := func(a, b Value) bool {
				ok, err := naturalLess(a, b)
				if err != nil && sortErr == nil {
					sortErr = err
				}
				return ok
			}
			if len(args) == 2 {
				cmp := args[0]
				less = func(a, b Value) bool {
					if sortErr != nil {
						return false
					}
					r, err := ip.Apply(ctx, cmp, []Value{a, b})
					if err != nil {
						sortErr = err
						return false
					}
					if n, ok := r.(Number); ok {
						return n < 0
					}
					return Truthy(r)
				}
			}
			sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
			if sortErr != nil {
				return nil, sortErr
			}
			return NewList(out...), nil
		}},
	)
}

// conj adds xs to coll: lists grow at the front, vectors at the back. Maps
// take [k v] vectors or maps and are mutated in place.
func conj(coll Value, xs []Value) (Value, error) {
	switch c := coll.(type) {
	case *List:
		out := make([]Value, 0, len(c.Items)+len(xs))
		for i := len(xs) - 1; i >= 0; i-- {
			out = append(out, xs[i])
		}
		return NewList(append(out, c.Items...)...), nil
	case *Vector:
		out := make([]Value, 0, len(c.Items)+len(xs))
		return NewVector(append(append(out, c.Items...), xs...)...), nil
	case Nil:
		return conj(NewList(), xs)
	case *Map:
		for _, x := range xs {
			switch e := x.(type) {
			case *Map:
				var err error
				e.Each(func(k, v Value) {
					if err == nil {
						err = c.Set(k, v)
					}
				})
				if err != nil {
					return nil, err
				}
			case *Vector:
				if len(e.Items) != 2 {
					return nil, &TypeError{Msg: "conj: map entries must be [key value] vectors"}
				}
				if err := c.Set(e.Items[0], e.Items[1]); err != nil {
					return nil, err
				}
			default:
				return nil, &TypeError{Msg: fmt.Sprintf("conj: cannot add %s to a map", x.Tag())}
			}
		}
		return c, nil
	}
	return nil, argTypeError("conj", 0, "a collection", coll)
}

// naturalLess orders numbers numerically and strings, keywords and symbols
// lexically.
func naturalLess(a, b Value) (bool, error) {
	switch x := a.(type) {
	case Number:
		if y, ok := b.(Number); ok {
			return x < y, nil
		}
	case String, Keyword, Symbol:
		if a.Tag() == b.Tag() {
			return strings.Compare(Print(a, false), Print(b, false)) < 0, nil
		}
	}
	return false, &TypeError{Msg: fmt.Sprintf("sort: cannot compare %s with %s", a.Tag(), b.Tag())}
}
