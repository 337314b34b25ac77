package schem

import (
	"context"
	"fmt"
	"io"
	"strings"
)

func registerStringBuiltins(ip *Interpreter) {
	ip.register(
		Bridge{Name: "str", ParamHint: "[& xs]", Doc: "Concatenation of the unescaped printed forms of xs.",
			Fn: func(args []Value) (Value, error) { return String(printJoined(args, false, "")), nil }},
		Bridge{Name: "pr-str", ParamHint: "[& xs]", Doc: "Escaped printed forms of xs, separated by spaces.",
			Fn: func(args []Value) (Value, error) { return String(printJoined(args, true, " ")), nil }},
		Bridge{Name: "prn", ParamHint: "[& xs]", Fn: func(args []Value) (Value, error) {
			_, err := io.WriteString(ip.stdout, printJoined(args, true, " ")+"\n")
			return NilValue, err
		}},
		Bridge{Name: "println", ParamHint: "[& xs]", Fn: func(args []Value) (Value, error) {
			_, err := io.WriteString(ip.stdout, printJoined(args, false, " ")+"\n")
			return NilValue, err
		}},
		Bridge{Name: "read-string", ParamHint: "[s]", Doc: "Reads the first form of s without evaluating it.",
			Fn: func(args []Value) (Value, error) {
				if err := wantArity("read-string", args, 1, 1); err != nil {
					return nil, err
				}
				s, err := argString("read-string", args, 0)
				if err != nil {
					return nil, err
				}
				return ReadStr(s)
			}},
		Bridge{Name: "pretty-str", ParamHint: "[x]", Doc: "Escaped printed form of x, broken over lines when wide.",
			Fn: func(args []Value) (Value, error) {
				if err := wantArity("pretty-str", args, 1, 1); err != nil {
					return nil, err
				}
				return String(Pretty(args[0])), nil
			}},
	)

	ip.register(
		Bridge{Name: "subs", ParamHint: "[s start end?]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("subs", args, 2, 3); err != nil {
				return nil, err
			}
			s, err := argString("subs", args, 0)
			if err != nil {
				return nil, err
			}
			r := []rune(s)
			i, err := argInt("subs", args, 1)
			if err != nil {
				return nil, err
			}
			j := len(r)
			if len(args) == 3 {
				if j, err = argInt("subs", args, 2); err != nil {
					return nil, err
				}
			}
			if i < 0 || j > len(r) || i > j {
				return nil, &TypeError{Msg: fmt.Sprintf("subs: range [%d, %d) out of bounds for length %d", i, j, len(r))}
			}
			return String(string(r[i:j])), nil
		}},
		Bridge{Name: "join", ParamHint: "[sep? coll]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("join", args, 1, 2); err != nil {
				return nil, err
			}
			sep := ""
			if len(args) == 2 {
				s, err := argString("join", args, 0)
				if err != nil {
					return nil, err
				}
				sep = s
			}
			items, err := argSeq("join", args, len(args)-1)
			if err != nil {
				return nil, err
			}
			return String(printJoined(items, false, sep)), nil
		}},
		Bridge{Name: "split", ParamHint: "[s sep]", Doc: "Splits s on a string or regexp separator.",
			Fn: func(args []Value) (Value, error) {
				if err := wantArity("split", args, 2, 2); err != nil {
					return nil, err
				}
				s, err := argString("split", args, 0)
				if err != nil {
					return nil, err
				}
				var parts []string
				switch sep := args[1].(type) {
				case String:
					parts = strings.Split(s, string(sep))
				case *RegExp:
					parts = sep.Regexp().Split(s, -1)
				default:
					return nil, argTypeError("split", 1, "a string or regexp", args[1])
				}
				return stringList(parts), nil
			}},
		stringFn("upper-case", strings.ToUpper),
		stringFn("lower-case", strings.ToLower),
		stringFn("trim", strings.TrimSpace),
		stringTest("starts-with?", strings.HasPrefix),
		stringTest("ends-with?", strings.HasSuffix),
		stringTest("includes?", strings.Contains),
	)
}

func registerRegexBuiltins(ip *Interpreter) {
	ip.register(
		Bridge{Name: "re-pattern", ParamHint: "[pattern flags?]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("re-pattern", args, 1, 2); err != nil {
				return nil, err
			}
			pattern, err := argString("re-pattern", args, 0)
			if err != nil {
				return nil, err
			}
			flags := ""
			if len(args) == 2 {
				if flags, err = argString("re-pattern", args, 1); err != nil {
					return nil, err
				}
			}
			return NewRegExp(pattern, flags)
		}},
		Bridge{Name: "re-find", ParamHint: "[re s]", Fn: func(args []Value) (Value, error) {
			re, s, err := regexArgs("re-find", args, 2)
			if err != nil {
				return nil, err
			}
			if re.Global() {
				all := re.Regexp().FindAllStringSubmatch(s, -1)
				out := make([]Value, len(all))
				for i, m := range all {
					out[i] = matchValue(m)
				}
				return NewList(out...), nil
			}
			m := re.Regexp().FindStringSubmatch(s)
			if m == nil {
				return NilValue, nil
			}
			return matchValue(m), nil
		}},
		Bridge{Name: "re-matches", ParamHint: "[re s]", Doc: "Like re-find, but the pattern must match all of s.",
			Fn: func(args []Value) (Value, error) {
				re, s, err := regexArgs("re-matches", args, 2)
				if err != nil {
					return nil, err
				}
				anchored, err := NewRegExp(`^(?:`+re.Source+`)$`, strings.ReplaceAll(re.Flags, "g", ""))
				if err != nil {
					return nil, err
				}
				m := anchored.Regexp().FindStringSubmatch(s)
				if m == nil {
					return NilValue, nil
				}
				return matchValue(m), nil
			}},
		Bridge{Name: "re-replace", ParamHint: "[re s replacement]", Fn: func(ctx context.Context, args []Value) (Value, error) {
			re, s, err := regexArgs("re-replace", args, 3)
			if err != nil {
				return nil, err
			}
			return regexReplace(ctx, ip, re, s, args[2])
		}},
	)
	setBuiltinDoc(ip, "re-replace", `Replaces the first match of re in s, or every match when re has the g flag.

The replacement is either a string, where $1 and ${name} refer to capture
groups, or a function called with the matched text whose result is printed
unescaped.`)
}

func printJoined(args []Value, escape bool, sep string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = Print(a, escape)
	}
	return strings.Join(parts, sep)
}

func stringList(parts []string) *List {
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = String(p)
	}
	return NewList(out...)
}

func stringFn(name string, f func(string) string) Bridge {
	return Bridge{Name: name, ParamHint: "[s]", Fn: func(args []Value) (Value, error) {
		if err := wantArity(name, args, 1, 1); err != nil {
			return nil, err
		}
		s, err := argString(name, args, 0)
		if err != nil {
			return nil, err
		}
		return String(f(s)), nil
	}}
}

func stringTest(name string, f func(s, sub string) bool) Bridge {
	return Bridge{Name: name, ParamHint: "[s sub]", Fn: func(args []Value) (Value, error) {
		if err := wantArity(name, args, 2, 2); err != nil {
			return nil, err
		}
		s, err := argString(name, args, 0)
		if err != nil {
			return nil, err
		}
		sub, err := argString(name, args, 1)
		if err != nil {
			return nil, err
		}
		return Boolean(f(s, sub)), nil
	}}
}

func regexArgs(fn string, args []Value, n int) (*RegExp, string, error) {
	if err := wantArity(fn, args, n, n); err != nil {
		return nil, "", err
	}
	re, ok := args[0].(*RegExp)
	if !ok {
		return nil, "", argTypeError(fn, 0, "a regexp", args[0])
	}
	s, err := argString(fn, args, 1)
	return re, s, err
}

// matchValue is the whole match as a string, or a vector [whole g1 g2 ...]
// when the pattern has groups.
func matchValue(m []string) Value {
	if len(m) == 1 {
		return String(m[0])
	}
	out := make([]Value, len(m))
	for i, g := range m {
		out[i] = String(g)
	}
	return NewVector(out...)
}

func regexReplace(ctx context.Context, ip *Interpreter, re *RegExp, s string, repl Value) (Value, error) {
	rx := re.Regexp()
	limit := 1
	if re.Global() {
		limit = -1
	}
	locs := rx.FindAllStringSubmatchIndex(s, limit)
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		b.WriteString(s[last:loc[0]])
		switch r := repl.(type) {
		case String:
			b.Write(rx.ExpandString(nil, string(r), s, loc))
		case *Function:
			v, err := ip.Apply(ctx, r, []Value{String(s[loc[0]:loc[1]])})
			if err != nil {
				return nil, err
			}
			b.WriteString(Print(v, false))
		default:
			return nil, argTypeError("re-replace", 2, "a string or function", repl)
		}
		last = loc[1]
	}
	b.WriteString(s[last:])
	return String(b.String()), nil
}
