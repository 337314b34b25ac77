// runtime.go
//
// The host bridge: Bridge records, conversion between Go values and Schem
// values, and the small argument-checking helpers every builtin_*.go file
// uses. Builtins are registered against this surface only; they never reach
// into the evaluator loop.

package schem

import (
	"context"
	"fmt"
	"reflect"
	"sort"
)

// Bridge describes a host function to install. Fn may be any of
//
//	BridgeFunc
//	func(context.Context, []Value) (Value, error)
//	func(context.Context, []Value) (any, error)
//	func([]Value) (Value, error)
//	func([]Value) (any, error)
//
// Plain results are converted with ToValue.
type Bridge struct {
	Name      string
	Fn        any
	ParamHint string
	Doc       string
}

// NewBridgeFunction wraps b into a bridge *Function carrying its metadata.
func NewBridgeFunction(b Bridge) (*Function, error) {
	native, err := asBridgeFunc(b.Fn)
	if err != nil {
		return nil, err
	}
	return &Function{Name: b.Name, Doc: b.Doc, ParamHint: b.ParamHint, Native: native}, nil
}

// ToValue converts a Go value into a Value. Slices become lists, maps with
// string keys become keyword-keyed maps, and values with no Schem
// counterpart become *Handle.
func ToValue(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return NilValue, nil
	case Value:
		return v, nil
	case bool:
		return Boolean(v), nil
	case string:
		return String(v), nil
	case int:
		return Number(v), nil
	case int8:
		return Number(v), nil
	case int16:
		return Number(v), nil
	case int32:
		return Number(v), nil
	case int64:
		return Number(v), nil
	case uint:
		return Number(v), nil
	case uint8:
		return Number(v), nil
	case uint16:
		return Number(v), nil
	case uint32:
		return Number(v), nil
	case uint64:
		return Number(v), nil
	case float32:
		return Number(v), nil
	case float64:
		return Number(v), nil
	case []Value:
		return NewList(v...), nil
	case []any:
		items := make([]Value, len(v))
		for i, it := range v {
			iv, err := ToValue(it)
			if err != nil {
				return nil, err
			}
			items[i] = iv
		}
		return NewList(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			iv, err := ToValue(v[k])
			if err != nil {
				return nil, err
			}
			m.entries.Put(Keyword(k), iv)
		}
		return m, nil
	}
	return reflectToValue(x)
}

// FromValue converts v into plain Go data for hosts: nil, bool, float64,
// string, []any and map[string]any. Keywords and symbols become their names.
// Functions, atoms and regexps are returned as-is; handles yield their Data.
// A map nested inside itself converts to nil at the point of re-entry.
func FromValue(v Value) any {
	return fromValue(v, nil)
}

//// END_OF_PUBLIC

func fromValue(v Value, seen inProgress) any {
	switch x := v.(type) {
	case nil, Nil:
		return nil
	case Bool:
		return bool(x)
	case Number:
		return float64(x)
	case String:
		return string(x)
	case Symbol:
		return string(x)
	case Keyword:
		return string(x)
	case *List:
		return fromItems(x.Items, seen)
	case *Vector:
		return fromItems(x.Items, seen)
	case *Map:
		if !seen.enter(x) {
			return nil
		}
		defer seen.leave(x)
		out := make(map[string]any, x.Len())
		x.Each(func(k, val Value) { out[keyName(k)] = fromValue(val, seen) })
		return out
	case *Handle:
		return x.Data
	}
	return v
}

// register installs builtins into the root scope. Builtins are registered
// once per interpreter, so a collision is a programming error.
func (ip *Interpreter) register(bridges ...Bridge) {
	batch := make(map[string]any, len(bridges))
	for _, b := range bridges {
		batch[b.Name] = b
	}
	if err := ip.Root.AddMap(batch, false); err != nil {
		panic(err)
	}
}

// setBuiltinDoc replaces the docstring of an installed function.
func setBuiltinDoc(ip *Interpreter, name, doc string) {
	if v, ok := ip.Root.Lookup(Symbol(name)); ok {
		if f, ok := v.(*Function); ok {
			c := *f
			c.Doc = doc
			ip.Root.Set(Symbol(name), &c)
		}
	}
}

// bindingValue converts one AddMap entry.
func bindingValue(name string, x any) (Value, error) {
	switch b := x.(type) {
	case Bridge:
		if b.Name == "" {
			b.Name = name
		}
		return NewBridgeFunction(b)
	case *Bridge:
		c := *b
		if c.Name == "" {
			c.Name = name
		}
		return NewBridgeFunction(c)
	case Value:
		return b, nil
	}
	if native, err := asBridgeFunc(x); err == nil {
		return &Function{Name: name, Native: native}, nil
	}
	return ToValue(x)
}

func asBridgeFunc(fn any) (BridgeFunc, error) {
	switch f := fn.(type) {
	case BridgeFunc:
		return f, nil
	case func(context.Context, []Value) (Value, error):
		return f, nil
	case func(context.Context, []Value) (any, error):
		return func(ctx context.Context, args []Value) (Value, error) {
			r, err := f(ctx, args)
			if err != nil {
				return nil, err
			}
			return ToValue(r)
		}, nil
	case func([]Value) (Value, error):
		return func(_ context.Context, args []Value) (Value, error) { return f(args) }, nil
	case func([]Value) (any, error):
		return func(_ context.Context, args []Value) (Value, error) {
			r, err := f(args)
			if err != nil {
				return nil, err
			}
			return ToValue(r)
		}, nil
	}
	return nil, &TypeError{Msg: fmt.Sprintf("unsupported bridge function type %T", fn)}
}

func fromItems(items []Value, seen inProgress) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = fromValue(it, seen)
	}
	return out
}

// reflectToValue handles typed slices and string-keyed maps ([]string,
// map[string]int, ...). Anything else becomes a handle named after its type.
func reflectToValue(x any) (Value, error) {
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			iv, err := ToValue(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			items[i] = iv
		}
		return NewList(items...), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		m := NewMap()
		for _, k := range keys {
			iv, err := ToValue(rv.MapIndex(k).Interface())
			if err != nil {
				return nil, err
			}
			m.entries.Put(Keyword(k.String()), iv)
		}
		return m, nil
	}
	return &Handle{Kind: fmt.Sprintf("%T", x), Data: x}, nil
}

/* ---------- argument helpers for builtins ---------- */

func wantArity(fn string, args []Value, min, max int) error {
	n := len(args)
	if n >= min && (max < 0 || n <= max) {
		return nil
	}
	var want string
	switch {
	case max < 0:
		want = fmt.Sprintf("at least %d", min)
	case min == max:
		want = fmt.Sprintf("%d", min)
	default:
		want = fmt.Sprintf("%d to %d", min, max)
	}
	return &ArityError{Fn: fn, Msg: fmt.Sprintf("expected %s argument(s), got %d", want, n)}
}

func argTypeError(fn string, i int, want string, got Value) error {
	return &TypeError{Msg: fmt.Sprintf("%s: argument %d must be %s, got %s", fn, i+1, want, got.Tag())}
}

func argNumber(fn string, args []Value, i int) (float64, error) {
	n, ok := args[i].(Number)
	if !ok {
		return 0, argTypeError(fn, i, "a number", args[i])
	}
	return float64(n), nil
}

func argInt(fn string, args []Value, i int) (int, error) {
	f, err := argNumber(fn, args, i)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, &TypeError{Msg: fmt.Sprintf("%s: argument %d must be an integer, got %s", fn, i+1, formatNumber(f))}
	}
	return int(f), nil
}

func argString(fn string, args []Value, i int) (string, error) {
	s, ok := args[i].(String)
	if !ok {
		return "", argTypeError(fn, i, "a string", args[i])
	}
	return string(s), nil
}

func argSeq(fn string, args []Value, i int) ([]Value, error) {
	items, ok := Seq(args[i])
	if !ok {
		return nil, argTypeError(fn, i, "a list or vector", args[i])
	}
	return items, nil
}

func argMap(fn string, args []Value, i int) (*Map, error) {
	m, ok := args[i].(*Map)
	if !ok {
		return nil, argTypeError(fn, i, "a map", args[i])
	}
	return m, nil
}

func argAtom(fn string, args []Value, i int) (*Atom, error) {
	a, ok := args[i].(*Atom)
	if !ok {
		return nil, argTypeError(fn, i, "an atom", args[i])
	}
	return a, nil
}
