// types.go — the Schem runtime value model
//
// OVERVIEW
// ========
// Every runtime value is a variant of one closed union, `Value`. The union is
// sealed: only types declared in this package implement it (the unexported
// marker method keeps foreign types out), so a type switch over the variants
// below is exhaustive.
//
//	Nil       singleton, falsy
//	Bool      True / False; False is the only other falsy value
//	Number    float64
//	String    immutable text
//	Symbol    identifier resolved through the environment
//	Keyword   self-evaluating identifier, printed with a leading ':'
//	*List     ordered sequence; a call or special form when evaluated
//	*Vector   ordered sequence; literal, also used for binding patterns
//	*Map      associative; keys restricted to Keyword/Number/String/Symbol
//	*Function bridge (host) function or closure, optionally a macro
//	*Atom     mutable reference cell with watches
//	*RegExp   compiled pattern + flags (regexp.go)
//	*Handle   opaque host value
//
// Lists, vectors and maps produced by the reader carry a Span into the source
// they were read from (see spans.go). Values built at run time have a zero
// Span.
//
// MUTABILITY
// ==========
// Collections are immutable by convention: library functions return new
// values. Two exceptions exist and are relied upon: Atom is the mutable cell,
// and `conj` onto a Map mutates the target map in place.
package schem

import (
	"context"
	"fmt"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// ValueTag enumerates the runtime kinds of Value.
type ValueTag int

const (
	TNil ValueTag = iota
	TBool
	TNumber
	TString
	TSymbol
	TKeyword
	TList
	TVector
	TMap
	TFunction
	TAtom
	TRegExp
	THandle
)

var tagNames = [...]string{
	TNil:      "nil",
	TBool:     "boolean",
	TNumber:   "number",
	TString:   "string",
	TSymbol:   "symbol",
	TKeyword:  "keyword",
	TList:     "list",
	TVector:   "vector",
	TMap:      "map",
	TFunction: "function",
	TAtom:     "atom",
	TRegExp:   "regexp",
	THandle:   "handle",
}

func (t ValueTag) String() string {
	if int(t) >= 0 && int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("ValueTag(%d)", int(t))
}

// Value is the sealed union of all runtime values.
type Value interface {
	Tag() ValueTag
	schemValue()
}

type Nil struct{}

// NilValue is the nil singleton.
var NilValue Value = Nil{}

type Bool bool

var (
	True  Value = Bool(true)
	False Value = Bool(false)
)

// Boolean returns the singleton for b.
func Boolean(b bool) Value {
	if b {
		return True
	}
	return False
}

type Number float64

type String string

// Symbol names a binding. Symbols never contain ':' and only the division
// symbol may contain '/'.
type Symbol string

// Keyword holds the keyword name without its leading ':'.
type Keyword string

// List is an ordered sequence. Items must not be mutated once the list is
// shared.
type List struct {
	Items []Value
	Span  Span
}

// NewList builds a list over items (the slice is not copied).
func NewList(items ...Value) *List { return &List{Items: items} }

// Vector is an ordered sequence with literal syntax [a b c].
type Vector struct {
	Items []Value
	Span  Span
}

// NewVector builds a vector over items (the slice is not copied).
func NewVector(items ...Value) *Vector { return &Vector{Items: items} }

// Map is an associative collection. Keys are restricted to Keyword, Number,
// String and Symbol; Set rejects any other key with a *TypeError.
type Map struct {
	entries *linkedhashmap.Map
	Span    Span
}

// NewMap returns an empty map.
func NewMap() *Map { return &Map{entries: linkedhashmap.New()} }

// NewMapFromPairs builds a map from a flat k1 v1 k2 v2 ... sequence.
func NewMapFromPairs(kvs ...Value) (*Map, error) {
	if len(kvs)%2 != 0 {
		return nil, &ArityError{Fn: "hash-map", Msg: fmt.Sprintf("expected an even number of key/value arguments, got %d", len(kvs))}
	}
	m := NewMap()
	for i := 0; i < len(kvs); i += 2 {
		if err := m.Set(kvs[i], kvs[i+1]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ValidMapKey reports whether v may be used as a map key.
func ValidMapKey(v Value) bool {
	switch v.(type) {
	case Keyword, Number, String, Symbol:
		return true
	}
	return false
}

// Set binds k to v, mutating m.
func (m *Map) Set(k, v Value) error {
	if !ValidMapKey(k) {
		return &TypeError{Msg: fmt.Sprintf("invalid map key of type %s: %s", k.Tag(), Print(k, true))}
	}
	m.entries.Put(k, v)
	return nil
}

// Get looks up k.
func (m *Map) Get(k Value) (Value, bool) {
	if !ValidMapKey(k) {
		return nil, false
	}
	v, ok := m.entries.Get(k)
	if !ok {
		return nil, false
	}
	return v.(Value), true
}

// Delete removes k if present, mutating m.
func (m *Map) Delete(k Value) { m.entries.Remove(k) }

// Len returns the number of entries.
func (m *Map) Len() int { return m.entries.Size() }

// Each visits every entry.
func (m *Map) Each(fn func(k, v Value)) {
	m.entries.Each(func(k, v interface{}) { fn(k.(Value), v.(Value)) })
}

// Keys returns the keys of m.
func (m *Map) Keys() []Value {
	out := make([]Value, 0, m.Len())
	m.Each(func(k, _ Value) { out = append(out, k) })
	return out
}

// Values returns the values of m, in the same order as Keys.
func (m *Map) Values() []Value {
	out := make([]Value, 0, m.Len())
	m.Each(func(_, v Value) { out = append(out, v) })
	return out
}

// Flatten returns k1 v1 k2 v2 ... Callers must not rely on the order.
func (m *Map) Flatten() []Value {
	out := make([]Value, 0, 2*m.Len())
	m.Each(func(k, v Value) { out = append(out, k, v) })
	return out
}

// Clone returns a shallow copy without the source span.
func (m *Map) Clone() *Map {
	c := NewMap()
	m.Each(func(k, v Value) { c.entries.Put(k, v) })
	return c
}

// BridgeFunc is the native signature of host-provided functions. Arguments
// are already evaluated. Implementations may block; ctx is the context of the
// evaluation that called them.
type BridgeFunc func(ctx context.Context, args []Value) (Value, error)

// Function is either a bridge function (Native != nil) or a closure carrying
// its parameter pattern, unevaluated body and defining environment.
//
// Name, Doc and ParamHint are introspection metadata only.
type Function struct {
	Name      string
	Doc       string
	ParamHint string
	IsMacro   bool

	Native BridgeFunc

	Params Value // *Vector or *List pattern
	Body   Value
	Env    *Env
}

// IsBridge reports whether f wraps a native callable.
func (f *Function) IsBridge() bool { return f.Native != nil }

// Atom is the mutable reference cell. Watches run in registration order;
// see builtin_atoms.go for the notification rules.
type Atom struct {
	value   Value
	watches []atomWatch
}

type atomWatch struct {
	key Value
	fn  Value
}

// NewAtom returns an atom holding v.
func NewAtom(v Value) *Atom { return &Atom{value: v} }

// Deref returns the current value.
func (a *Atom) Deref() Value { return a.value }

// AddWatch registers fn under key. Re-registering an existing key replaces
// the callback and keeps its position.
func (a *Atom) AddWatch(key, fn Value) {
	for i := range a.watches {
		if Equal(a.watches[i].key, key) {
			a.watches[i].fn = fn
			return
		}
	}
	a.watches = append(a.watches, atomWatch{key: key, fn: fn})
}

// RemoveWatch drops the watch registered under key, if any.
func (a *Atom) RemoveWatch(key Value) bool {
	for i := range a.watches {
		if Equal(a.watches[i].key, key) {
			a.watches = append(a.watches[:i:i], a.watches[i+1:]...)
			return true
		}
	}
	return false
}

// Handle wraps a host value the language cannot represent.
type Handle struct {
	Kind string
	Data any
}

func (Nil) Tag() ValueTag       { return TNil }
func (Bool) Tag() ValueTag      { return TBool }
func (Number) Tag() ValueTag    { return TNumber }
func (String) Tag() ValueTag    { return TString }
func (Symbol) Tag() ValueTag    { return TSymbol }
func (Keyword) Tag() ValueTag   { return TKeyword }
func (*List) Tag() ValueTag     { return TList }
func (*Vector) Tag() ValueTag   { return TVector }
func (*Map) Tag() ValueTag      { return TMap }
func (*Function) Tag() ValueTag { return TFunction }
func (*Atom) Tag() ValueTag     { return TAtom }
func (*RegExp) Tag() ValueTag   { return TRegExp }
func (*Handle) Tag() ValueTag   { return THandle }

func (Nil) schemValue()       {}
func (Bool) schemValue()      {}
func (Number) schemValue()    {}
func (String) schemValue()    {}
func (Symbol) schemValue()    {}
func (Keyword) schemValue()   {}
func (*List) schemValue()     {}
func (*Vector) schemValue()   {}
func (*Map) schemValue()      {}
func (*Function) schemValue() {}
func (*Atom) schemValue()     {}
func (*RegExp) schemValue()   {}
func (*Handle) schemValue()   {}

// Truthy implements the language's truthiness: everything except false and
// nil is true, including 0 and empty collections.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case nil, Nil:
		return false
	case Bool:
		return bool(x)
	}
	return true
}

// Seq returns the items of a List or Vector. Nil is the empty sequence.
func Seq(v Value) ([]Value, bool) {
	switch x := v.(type) {
	case *List:
		return x.Items, true
	case *Vector:
		return x.Items, true
	case Nil:
		return nil, true
	}
	return nil, false
}

// Equal is structural equality. Lists and vectors with equal items compare
// equal to each other; keywords never equal symbols; functions, atoms,
// regexps and handles compare by identity.
func Equal(a, b Value) bool {
	return equal(a, b, nil)
}

//// END_OF_PUBLIC

// mapPair is a map comparison in progress. A pair met again while it is
// still being compared is taken as equal, so self-referencing maps terminate.
type mapPair struct{ x, y *Map }

func equal(a, b Value, comparing map[mapPair]bool) bool {
	switch x := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Bool, Number, String, Symbol, Keyword:
		return a == b
	case *List, *Vector:
		xs, _ := Seq(x)
		ys, ok := sequential(b)
		if !ok || len(xs) != len(ys) {
			return false
		}
		for i := range xs {
			if !equal(xs[i], ys[i], comparing) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := b.(*Map)
		if !ok || x.Len() != y.Len() {
			return false
		}
		if x == y || comparing[mapPair{x, y}] {
			return true
		}
		if comparing == nil {
			comparing = map[mapPair]bool{}
		}
		comparing[mapPair{x, y}] = true
		defer delete(comparing, mapPair{x, y})
		same := true
		x.Each(func(k, v Value) {
			if !same {
				return
			}
			w, ok := y.Get(k)
			same = ok && equal(v, w, comparing)
		})
		return same
	default:
		return a == b
	}
}

// sequential is Seq without the nil case.
func sequential(v Value) ([]Value, bool) {
	switch x := v.(type) {
	case *List:
		return x.Items, true
	case *Vector:
		return x.Items, true
	}
	return nil, false
}

func mkList(items ...Value) *List { return &List{Items: items} }

// headSymbol returns the symbol in head position of a non-empty list.
func headSymbol(l *List) (Symbol, bool) {
	if len(l.Items) == 0 {
		return "", false
	}
	s, ok := l.Items[0].(Symbol)
	return s, ok
}
