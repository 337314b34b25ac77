package schem

import (
	"context"
	"fmt"
	"math"
)

// ---- core built-ins ----------------------------------------------------

func registerCoreBuiltins(ip *Interpreter) {
	// arithmetic
	ip.register(
		Bridge{Name: "+", ParamHint: "[& xs]", Doc: "Sum of the arguments; (+) is 0.",
			Fn: func(args []Value) (Value, error) {
				return foldNumbers("+", args, 0, func(a, b float64) float64 { return a + b })
			}},
		Bridge{Name: "*", ParamHint: "[& xs]", Doc: "Product of the arguments; (*) is 1.",
			Fn: func(args []Value) (Value, error) {
				return foldNumbers("*", args, 1, func(a, b float64) float64 { return a * b })
			}},
		Bridge{Name: "-", ParamHint: "[x & ys]", Doc: "Subtracts ys from x left to right; (- x) negates x.",
			Fn: func(args []Value) (Value, error) { return reduceNumbers("-", args, func(a, b float64) float64 { return a - b }, func(a float64) float64 { return -a }) }},
		Bridge{Name: "/", ParamHint: "[x & ys]", Doc: "Divides x by ys left to right; (/ x) is 1/x.",
			Fn: func(args []Value) (Value, error) { return reduceNumbers("/", args, func(a, b float64) float64 { return a / b }, func(a float64) float64 { return 1 / a }) }},
		Bridge{Name: "mod", ParamHint: "[a b]", Doc: "Floored modulus: the result has the sign of b.",
			Fn: func(args []Value) (Value, error) {
				a, b, err := twoNumbers("mod", args)
				if err != nil {
					return nil, err
				}
				m := math.Mod(a, b)
				if m != 0 && (m < 0) != (b < 0) {
					m += b
				}
				return Number(m), nil
			}},
		Bridge{Name: "min", ParamHint: "[x & xs]", Fn: func(args []Value) (Value, error) {
			return reduceNumbers("min", args, math.Min, func(a float64) float64 { return a })
		}},
		Bridge{Name: "max", ParamHint: "[x & xs]", Fn: func(args []Value) (Value, error) {
			return reduceNumbers("max", args, math.Max, func(a float64) float64 { return a })
		}},
		Bridge{Name: "abs", ParamHint: "[x]", Fn: unaryMath("abs", math.Abs)},
		Bridge{Name: "floor", ParamHint: "[x]", Fn: unaryMath("floor", math.Floor)},
		Bridge{Name: "round", ParamHint: "[x]", Doc: "Rounds half away from zero.", Fn: unaryMath("round", math.Round)},
	)

	// comparison
	ip.register(
		Bridge{Name: "=", ParamHint: "[x & ys]", Doc: "Structural equality. Lists and vectors with equal items are equal.",
			Fn: func(args []Value) (Value, error) {
				if err := wantArity("=", args, 1, -1); err != nil {
					return nil, err
				}
				for i := 1; i < len(args); i++ {
					if !Equal(args[0], args[i]) {
						return False, nil
					}
				}
				return True, nil
			}},
		Bridge{Name: "not=", ParamHint: "[x & ys]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("not=", args, 1, -1); err != nil {
				return nil, err
			}
			for i := 1; i < len(args); i++ {
				if !Equal(args[0], args[i]) {
					return True, nil
				}
			}
			return False, nil
		}},
		Bridge{Name: "<", ParamHint: "[x & ys]", Fn: compareChain("<", func(a, b float64) bool { return a < b })},
		Bridge{Name: "<=", ParamHint: "[x & ys]", Fn: compareChain("<=", func(a, b float64) bool { return a <= b })},
		Bridge{Name: ">", ParamHint: "[x & ys]", Fn: compareChain(">", func(a, b float64) bool { return a > b })},
		Bridge{Name: ">=", ParamHint: "[x & ys]", Fn: compareChain(">=", func(a, b float64) bool { return a >= b })},
	)

	// predicates
	ip.register(
		tagPredicate("nil?", TNil),
		tagPredicate("number?", TNumber),
		tagPredicate("string?", TString),
		tagPredicate("symbol?", TSymbol),
		tagPredicate("keyword?", TKeyword),
		tagPredicate("list?", TList),
		tagPredicate("vector?", TVector),
		tagPredicate("map?", TMap),
		tagPredicate("atom?", TAtom),
		tagPredicate("regexp?", TRegExp),
		predicate("true?", func(v Value) bool { return v == True }),
		predicate("false?", func(v Value) bool { return v == False }),
		predicate("fn?", func(v Value) bool {
			f, ok := v.(*Function)
			return ok && !f.IsMacro
		}),
		predicate("macro?", func(v Value) bool {
			f, ok := v.(*Function)
			return ok && f.IsMacro
		}),
		predicate("sequential?", func(v Value) bool {
			_, ok := sequential(v)
			return ok
		}),
	)

	// symbols, keywords, errors
	ip.register(
		Bridge{Name: "symbol", ParamHint: "[name]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("symbol", args, 1, 1); err != nil {
				return nil, err
			}
			s, err := argString("symbol", args, 0)
			if err != nil {
				return nil, err
			}
			return Symbol(s), nil
		}},
		Bridge{Name: "keyword", ParamHint: "[name]", Doc: "Keyword named name; a keyword argument is returned unchanged.",
			Fn: func(args []Value) (Value, error) {
				if err := wantArity("keyword", args, 1, 1); err != nil {
					return nil, err
				}
				switch x := args[0].(type) {
				case Keyword:
					return x, nil
				case String:
					return Keyword(x), nil
				case Symbol:
					return Keyword(x), nil
				}
				return nil, argTypeError("keyword", 0, "a string", args[0])
			}},
		Bridge{Name: "gensym", ParamHint: "[prefix?]", Doc: "Fresh symbol for macro hygiene.",
			Fn: func(args []Value) (Value, error) {
				if err := wantArity("gensym", args, 0, 1); err != nil {
					return nil, err
				}
				prefix := "G__"
				if len(args) == 1 {
					p, err := argString("gensym", args, 0)
					if err != nil {
						return nil, err
					}
					prefix = p
				}
				return Symbol(fmt.Sprintf("%s%d", prefix, ip.gensym.Add(1))), nil
			}},
		Bridge{Name: "throw", ParamHint: "[value]",
			Fn: func(args []Value) (Value, error) {
				if err := wantArity("throw", args, 1, 1); err != nil {
					return nil, err
				}
				return nil, &UserError{Value: args[0]}
			}},
		Bridge{Name: "throw-error", ParamHint: "[message]",
			Fn: func(_ context.Context, args []Value) (Value, error) {
				if err := wantArity("throw-error", args, 1, 1); err != nil {
					return nil, err
				}
				msg, err := argString("throw-error", args, 0)
				if err != nil {
					return nil, err
				}
				return nil, &UserError{Value: String(msg)}
			}},
	)
	setBuiltinDoc(ip, "throw", `Raises a UserError carrying value unchanged.

There is no way to catch it from Schem code: the error propagates to the host
that started the evaluation. Definitions completed before the throw stay bound.`)
	setBuiltinDoc(ip, "throw-error", `Raises a UserError whose value is the message string.`)
}

func numbers(fn string, args []Value) ([]float64, error) {
	out := make([]float64, len(args))
	for i := range args {
		n, err := argNumber(fn, args, i)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func foldNumbers(fn string, args []Value, zero float64, op func(a, b float64) float64) (Value, error) {
	ns, err := numbers(fn, args)
	if err != nil {
		return nil, err
	}
	acc := zero
	for _, n := range ns {
		acc = op(acc, n)
	}
	return Number(acc), nil
}

// reduceNumbers folds from the first argument; one argument applies unary.
func reduceNumbers(fn string, args []Value, op func(a, b float64) float64, unary func(float64) float64) (Value, error) {
	if err := wantArity(fn, args, 1, -1); err != nil {
		return nil, err
	}
	ns, err := numbers(fn, args)
	if err != nil {
		return nil, err
	}
	if len(ns) == 1 {
		return Number(unary(ns[0])), nil
	}
	acc := ns[0]
	for _, n := range ns[1:] {
		acc = op(acc, n)
	}
	return Number(acc), nil
}

func twoNumbers(fn string, args []Value) (float64, float64, error) {
	if err := wantArity(fn, args, 2, 2); err != nil {
		return 0, 0, err
	}
	a, err := argNumber(fn, args, 0)
	if err != nil {
		return 0, 0, err
	}
	b, err := argNumber(fn, args, 1)
	return a, b, err
}

func unaryMath(fn string, op func(float64) float64) BridgeFunc {
	return func(_ context.Context, args []Value) (Value, error) {
		if err := wantArity(fn, args, 1, 1); err != nil {
			return nil, err
		}
		n, err := argNumber(fn, args, 0)
		if err != nil {
			return nil, err
		}
		return Number(op(n)), nil
	}
}

func compareChain(fn string, ok func(a, b float64) bool) BridgeFunc {
	return func(_ context.Context, args []Value) (Value, error) {
		if err := wantArity(fn, args, 1, -1); err != nil {
			return nil, err
		}
		ns, err := numbers(fn, args)
		if err != nil {
			return nil, err
		}
		for i := 1; i < len(ns); i++ {
			if !ok(ns[i-1], ns[i]) {
				return False, nil
			}
		}
		return True, nil
	}
}

func predicate(name string, test func(Value) bool) Bridge {
	return Bridge{Name: name, ParamHint: "[x]", Fn: func(args []Value) (Value, error) {
		if err := wantArity(name, args, 1, 1); err != nil {
			return nil, err
		}
		return Boolean(test(args[0])), nil
	}}
}

func tagPredicate(name string, tag ValueTag) Bridge {
	b := predicate(name, func(v Value) bool { return v.Tag() == tag })
	b.Doc = "True if x is a " + tag.String() + "."
	return b
}
