package schem

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// --- JSON ---------------------------------------------------------------------

func registerJSONBuiltins(ip *Interpreter) {
	ip.register(
		Bridge{Name: "parse-json", ParamHint: "[s]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("parse-json", args, 1, 1); err != nil {
				return nil, err
			}
			s, err := argString("parse-json", args, 0)
			if err != nil {
				return nil, err
			}
			dec := json.NewDecoder(strings.NewReader(s))
			dec.UseNumber()
			var x any
			if err := dec.Decode(&x); err != nil {
				return nil, &TypeError{Msg: "parse-json: invalid JSON: " + err.Error()}
			}
			return goJSONToValue(x)
		}},
		Bridge{Name: "to-json", ParamHint: "[x]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("to-json", args, 1, 1); err != nil {
				return nil, err
			}
			var buf bytes.Buffer
			if err := writeJSON(&buf, args[0], nil); err != nil {
				return nil, err
			}
			return String(buf.String()), nil
		}},
	)
	setBuiltinDoc(ip, "parse-json", `Parse a JSON string into Schem values.

Mapping rules:
  • null/true/false/numbers/strings map to nil/booleans/numbers/strings
  • arrays map to vectors
  • objects map to maps with keyword keys, sorted by key`)
	setBuiltinDoc(ip, "to-json", `Serialize a value to a compact JSON string.

Lists and vectors become arrays, maps become objects in insertion order.
Keywords and symbols serialize as their names. Functions, atoms, regexps and
handles cannot be serialized.`)
}

// goJSONToValue converts a decoded JSON value (decoded with UseNumber).
func goJSONToValue(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return NilValue, nil
	case bool:
		return Boolean(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil || math.IsInf(f, 0) {
			return nil, &TypeError{Msg: fmt.Sprintf("parse-json: number out of range: %s", v)}
		}
		return Number(f), nil
	case string:
		return String(v), nil
	case []any:
		out := make([]Value, len(v))
		for i := range v {
			el, err := goJSONToValue(v[i])
			if err != nil {
				return nil, err
			}
			out[i] = el
		}
		return NewVector(out...), nil
	case map[string]any:
		// Key order is lost by encoding/json; sort for determinism.
		m := NewMap()
		for _, k := range sortedKeys(v) {
			el, err := goJSONToValue(v[k])
			if err != nil {
				return nil, err
			}
			m.entries.Put(Keyword(k), el)
		}
		return m, nil
	}
	return nil, &TypeError{Msg: fmt.Sprintf("parse-json: unexpected %T", x)}
}

func writeJSON(buf *bytes.Buffer, v Value, seen inProgress) error {
	switch x := v.(type) {
	case Nil:
		buf.WriteString("null")
	case Bool:
		if x {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Number:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &TypeError{Msg: "to-json: " + formatNumber(f) + " is not representable"}
		}
		buf.WriteString(formatNumber(f))
	case String, Keyword, Symbol:
		b, err := json.Marshal(keyName(x))
		if err != nil {
			return err
		}
		buf.Write(b)
	case *List, *Vector:
		items, _ := sequential(x)
		buf.WriteByte('[')
		for i, it := range items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, it, seen); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *Map:
		if !seen.enter(x) {
			return &TypeError{Msg: "to-json: map contains itself"}
		}
		defer seen.leave(x)
		buf.WriteByte('{')
		var err error
		i := 0
		x.Each(func(k, val Value) {
			if err != nil {
				return
			}
			if i > 0 {
				buf.WriteByte(',')
			}
			i++
			kb, _ := json.Marshal(keyName(k))
			buf.Write(kb)
			buf.WriteByte(':')
			err = writeJSON(buf, val, seen)
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
	default:
		return &TypeError{Msg: fmt.Sprintf("to-json: cannot serialize %s", v.Tag())}
	}
	return nil
}

// keyName is the bare name of a map key: keywords lose their colon.
func keyName(v Value) string {
	if kw, ok := v.(Keyword); ok {
		return string(kw)
	}
	return Print(v, false)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
