package schem

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// --- helpers ---------------------------------------------------------------

func arep(t *testing.T, ip *Interpreter, src string) string {
	t.Helper()
	out, err := ip.Arep(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("Arep error for %q: %v", src, err)
	}
	return out
}

func evalSrc(t *testing.T, src string) string {
	t.Helper()
	return arep(t, NewInterpreter(), src)
}

func arepErr(t *testing.T, ip *Interpreter, src string) error {
	t.Helper()
	_, err := ip.Arep(context.Background(), src, nil)
	if err == nil {
		t.Fatalf("expected error for %q", src)
	}
	return err
}

func wantOut(t *testing.T, got, want string) {
	t.Helper()
	if got != want {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func wantCases(t *testing.T, cases []struct{ in, want string }) {
	t.Helper()
	ip := NewInterpreter()
	for _, c := range cases {
		if got := arep(t, ip, c.in); got != c.want {
			t.Errorf("%s: want %s, got %s", c.in, c.want, got)
		}
	}
}

// --- evaluation ------------------------------------------------------------

func Test_Interpreter_Literals(t *testing.T) {
	wantCases(t, []struct{ in, want string }{
		{`1`, `1`},
		{`1.5`, `1.5`},
		{`-3`, `-3`},
		{`"hi\n"`, `"hi\n"`},
		{`:kw`, `:kw`},
		{`nil`, `nil`},
		{`true`, `true`},
		{`()`, `()`},
		{`[1 (+ 1 1)]`, `[1 2]`},
		{`{:a (+ 1 2)}`, `{:a 3}`},
		{``, `nil`},
	})
}

func Test_Interpreter_Arithmetic_Identities(t *testing.T) {
	wantCases(t, []struct{ in, want string }{
		{`(+)`, `0`},
		{`(*)`, `1`},
		{`(+ 1 2 3)`, `6`},
		{`(- 5)`, `-5`},
		{`(- 10 1 2)`, `7`},
		{`(/ 2)`, `0.5`},
		{`(/ 12 2 3)`, `2`},
		{`(mod -7 3)`, `2`},
		{`(mod 7 -3)`, `-2`},
		{`(/ 1 0)`, `Infinity`},
		{`(min 3 1 2)`, `1`},
		{`(max 3 1 2)`, `3`},
		{`(< 1 2 3)`, `true`},
		{`(< 1 3 2)`, `false`},
		{`(>= 3 3 1)`, `true`},
	})
}

func Test_Interpreter_Equality(t *testing.T) {
	wantCases(t, []struct{ in, want string }{
		{`(= (list 1 2) [1 2])`, `true`},
		{`(= (list 1 2 3) (vector 1 2 3))`, `true`},
		{`(= 1)`, `true`},
		{`(= :a 'a)`, `false`},
		{`(= {:a [1]} {:a (list 1)})`, `true`},
		{`(= "a" "a" "a")`, `true`},
		{`(not= 1 2)`, `true`},
		{`(= nil false)`, `false`},
	})
}

func Test_Interpreter_Truthiness(t *testing.T) {
	wantCases(t, []struct{ in, want string }{
		{`(if 0 :yes :no)`, `:yes`},
		{`(if "" :yes :no)`, `:yes`},
		{`(if () :yes :no)`, `:yes`},
		{`(if nil :yes :no)`, `:no`},
		{`(if false :yes :no)`, `:no`},
		{`(if false :yes)`, `nil`},
	})
}

func Test_Interpreter_Def_Persists_Across_Calls(t *testing.T) {
	ip := NewInterpreter()
	wantOut(t, arep(t, ip, `(def x 41)`), `41`)
	wantOut(t, arep(t, ip, `(+ x 1)`), `42`)
	wantOut(t, arep(t, ip, `(def x 1) (def y 2) (+ x y)`), `3`)
}

func Test_Interpreter_Let_Sequential_And_Shadowing(t *testing.T) {
	wantCases(t, []struct{ in, want string }{
		{`(let [a 1 b (+ a 1)] (* a b))`, `2`},
		{`(def z 1) (let [z 2] z)`, `2`},
		{`(def z 1) (let [z 2] z) z`, `1`},
		{`(let [] 5)`, `5`},
		{`(let [a 1])`, `nil`},
	})
}

func Test_Interpreter_Destructuring(t *testing.T) {
	wantCases(t, []struct{ in, want string }{
		{`(let [[a & rest] (list 1 2 3)] rest)`, `(2 3)`},
		{`(let [[a & rest] (list 1 2 3)] a)`, `1`},
		{`(let [{x :a} {:a 1}] x)`, `1`},
		{`(let [{x :missing} {:a 1}] x)`, `nil`},
		{`(let [[a [b c]] [1 [2 3]]] (+ a b c))`, `6`},
		{`(let [[a b] [1]] b)`, `nil`},
		{`((fn [a & more] more) 1)`, `()`},
		{`((fn [[x y] {z :z}] (list x y z)) [1 2] {:z 3})`, `(1 2 3)`},
	})
}

func Test_Interpreter_Closures_Capture_Environment(t *testing.T) {
	ip := NewInterpreter()
	arep(t, ip, `(def adder (fn [n] (fn [x] (+ x n))))`)
	arep(t, ip, `(def add5 (adder 5))`)
	wantOut(t, arep(t, ip, `(add5 10)`), `15`)
	wantOut(t, arep(t, ip, `(def n 100) (add5 1)`), `6`)
}

func Test_Interpreter_Fn_Docstring(t *testing.T) {
	ip := NewInterpreter()
	arep(t, ip, `(def f (fn [x] "Doubles x." (* 2 x)))`)
	wantOut(t, arep(t, ip, `(f 4)`), `8`)
	info, ok := ip.Root.SymbolInfo("f")
	if !ok || info.Doc != "Doubles x." || info.Kind != "fn" {
		t.Fatalf("unexpected info: %#v", info)
	}
	// A lone string is the body, not a docstring.
	wantOut(t, arep(t, ip, `((fn [] "just a string"))`), `"just a string"`)
}

func Test_Interpreter_Def_Names_A_Copy(t *testing.T) {
	ip := NewInterpreter()
	arep(t, ip, `(def box (atom (fn [x] x)))`)
	arep(t, ip, `(def named @box)`)
	wantOut(t, arep(t, ip, `[@box named]`), `[#<fn [x]> #<fn named [x]>]`)
	wantOut(t, arep(t, ip, `(named 3)`), `3`)
}

func Test_Interpreter_TailCalls_Do_Not_Grow_Stack(t *testing.T) {
	ip := NewInterpreter()
	arep(t, ip, `(def sum (fn [n acc] (if (= n 0) acc (sum (- n 1) (+ acc n)))))`)
	wantOut(t, arep(t, ip, `(sum 100000 0)`), `5000050000`)

	arep(t, ip, `(defn countdown [n] (cond (= n 0) :done :else (countdown (dec n))))`)
	wantOut(t, arep(t, ip, `(countdown 100000)`), `:done`)

	arep(t, ip, `(defn walk [n] (let [m (- n 1)] (do (if (> m 0) (walk m) :bottom))))`)
	wantOut(t, arep(t, ip, `(walk 100000)`), `:bottom`)
}

func Test_Interpreter_Quasiquote(t *testing.T) {
	wantCases(t, []struct{ in, want string }{
		{"`(1 ~(+ 1 1) ~@(list 3 4))", `(1 2 3 4)`},
		{"`x", `x`},
		{"`[1 ~(+ 1 1)]", `[1 2]`},
		{"`{:a ~(+ 1 2)}", `{:a 3}`},
		{"`(a ~@[] b)", `(a b)`},
		{"(let [xs (list 2 3)] `(1 ~@xs))", `(1 2 3)`},
		{"'(1 ~x)", `(1 (unquote x))`},
	})
}

func Test_Interpreter_Macros_Expand_To_Fixed_Point(t *testing.T) {
	ip := NewInterpreter()
	arep(t, ip, "(defmacro swap-if (fn [c a b] `(if ~c ~b ~a)))")
	wantOut(t, arep(t, ip, `(swap-if true 1 2)`), `2`)
	wantOut(t, arep(t, ip, `(macroexpand (swap-if true 1 2))`), `(if true 2 1)`)

	arep(t, ip, `(defmacro m2 (fn [] 42))`)
	arep(t, ip, `(defmacro m1 (fn [] '(m2)))`)
	wantOut(t, arep(t, ip, `(m1)`), `42`)
	wantOut(t, arep(t, ip, `(macroexpand (m1))`), `42`)

	// Macro arguments arrive unevaluated.
	arep(t, ip, `(defmacro quoted (fn [x] (list 'quote x)))`)
	wantOut(t, arep(t, ip, `(quoted (undefined-fn 1))`), `(undefined-fn 1)`)
	wantOut(t, arep(t, ip, `(macro? quoted)`), `true`)
	wantOut(t, arep(t, ip, `(fn? quoted)`), `false`)
}

func Test_Interpreter_Prelude_Macros(t *testing.T) {
	wantCases(t, []struct{ in, want string }{
		{`(when true 1 2)`, `2`},
		{`(when false 1)`, `nil`},
		{`(unless false :ok)`, `:ok`},
		{`(cond false 1 nil 2 :else 3)`, `3`},
		{`(cond)`, `nil`},
		{`(and 1 2 3)`, `3`},
		{`(and 1 nil 3)`, `nil`},
		{`(and)`, `true`},
		{`(or nil false 7)`, `7`},
		{`(or)`, `nil`},
		{`(-> 5 (- 1) (* 2))`, `8`},
		{`(->> 5 (- 1) (* 2))`, `-8`},
		{`(-> [1 2 3] first)`, `1`},
		{`(not nil)`, `true`},
		{`(map inc [1 2])`, `(2 3)`},
		{`(every? number? [1 2])`, `true`},
		{`(some (fn [x] (if (> x 1) x)) [1 2 3])`, `2`},
		{`((complement nil?) 1)`, `true`},
		{`(second [1 2 3])`, `2`},
	})
}

func Test_Interpreter_Callable_Keywords_Numbers_Vectors(t *testing.T) {
	wantCases(t, []struct{ in, want string }{
		{`(:a {:a 1})`, `1`},
		{`(:b {:a 1} 5)`, `5`},
		{`(:b {:a 1})`, `nil`},
		{`(:a)`, `:a`},
		{`(1 [10 20 30])`, `20`},
		{`(0 (list 7))`, `7`},
		{`(5 [1])`, `nil`},
		{`([10 20] 1)`, `20`},
		{`([10 20] 9)`, `nil`},
	})
}

func Test_Interpreter_Not_Callable(t *testing.T) {
	err := arepErr(t, NewInterpreter(), `("str" 1)`)
	var te *TypeError
	if !errors.As(err, &te) || !strings.Contains(te.Msg, "not callable") {
		t.Fatalf("want TypeError not callable, got %v", err)
	}
}

func Test_Interpreter_Unbound_Symbol(t *testing.T) {
	err := arepErr(t, NewInterpreter(), `(+ 1 nope)`)
	var ue *UnboundSymbolError
	if !errors.As(err, &ue) || ue.Name != "nope" {
		t.Fatalf("want UnboundSymbolError nope, got %v", err)
	}
}

func Test_Interpreter_Error_Leaves_Completed_Defs(t *testing.T) {
	ip := NewInterpreter()
	err := arepErr(t, ip, `(do (def a 1) (throw "boom"))`)
	var ue *UserError
	if !errors.As(err, &ue) {
		t.Fatalf("want UserError, got %T %v", err, err)
	}
	if !Equal(ue.Value, String("boom")) || err.Error() != "boom" {
		t.Fatalf("want boom, got %v", ue.Value)
	}
	wantOut(t, arep(t, ip, `a`), `1`)
}

func Test_Interpreter_Throw_Carries_Any_Value(t *testing.T) {
	err := arepErr(t, NewInterpreter(), `(throw {:code 7})`)
	var ue *UserError
	if !errors.As(err, &ue) {
		t.Fatalf("want UserError, got %v", err)
	}
	m, ok := ue.Value.(*Map)
	if !ok {
		t.Fatalf("want map payload, got %#v", ue.Value)
	}
	if v, _ := m.Get(Keyword("code")); !Equal(v, Number(7)) {
		t.Fatalf("want :code 7, got %v", v)
	}
}

func Test_Interpreter_SpecialForm_Arity_Errors(t *testing.T) {
	ip := NewInterpreter()
	for _, src := range []string{`(def)`, `(def x 1 2)`, `(if)`, `(if 1 2 3 4)`, `(quote)`, `(let [a])`} {
		var ae *ArityError
		if err := arepErr(t, ip, src); !errors.As(err, &ae) {
			t.Errorf("%s: want ArityError, got %v", src, err)
		}
	}
	var te *TypeError
	if err := arepErr(t, ip, `(def "x" 1)`); !errors.As(err, &te) {
		t.Errorf("want TypeError for non-symbol def, got %v", err)
	}
}

func Test_Interpreter_Overrides_Are_Restored(t *testing.T) {
	ip := NewInterpreter()
	ctx := context.Background()

	out, err := ip.Arep(ctx, `(+ x 1)`, map[string]any{"x": 5})
	if err != nil {
		t.Fatalf("Arep: %v", err)
	}
	wantOut(t, out, `6`)

	var ue *UnboundSymbolError
	if err := arepErr(t, ip, `x`); !errors.As(err, &ue) {
		t.Fatalf("override leaked: %v", err)
	}

	double := func(args []Value) (Value, error) { return Number(42), nil }
	out, err = ip.Arep(ctx, `(+ 1 2)`, map[string]any{"+": double})
	if err != nil {
		t.Fatalf("Arep: %v", err)
	}
	wantOut(t, out, `42`)
	wantOut(t, arep(t, ip, `(+ 1 2)`), `3`)

	arep(t, ip, `(def host 1)`)
	out, err = ip.Arep(ctx, `(do (def host 42) host)`, map[string]any{"host": 7})
	if err != nil {
		t.Fatalf("Arep: %v", err)
	}
	wantOut(t, out, `42`)
	wantOut(t, arep(t, ip, `host`), `42`)

	out, err = ip.Arep(ctx, `(do (def fresh host) fresh)`, map[string]any{"host": 7, "fresh": 0})
	if err != nil {
		t.Fatalf("Arep: %v", err)
	}
	wantOut(t, out, `7`)
	wantOut(t, arep(t, ip, `[host fresh]`), `[42 7]`)
}

func Test_Interpreter_Overrides_Restored_On_Error(t *testing.T) {
	ip := NewInterpreter()
	_, err := ip.Arep(context.Background(), `(throw y)`, map[string]any{"y": "bad"})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := ip.Root.Lookup("y"); ok {
		t.Fatal("override y still bound after failed evaluation")
	}
}

func Test_Interpreter_InstallBridgeFunctions(t *testing.T) {
	ip := NewInterpreter()
	err := ip.InstallBridgeFunctions(map[string]any{
		"host-greet": Bridge{ParamHint: "[name]", Doc: "Greets.", Fn: func(args []Value) (any, error) {
			return "hello " + Print(args[0], false), nil
		}},
		"host-answer": 42,
	})
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	wantOut(t, arep(t, ip, `(host-greet "bob")`), `"hello bob"`)
	wantOut(t, arep(t, ip, `host-answer`), `42`)

	if err := ip.InstallBridgeFunctions(map[string]any{"host-new": 1, "map": 2}); err == nil {
		t.Fatal("expected collision error")
	}
	if _, ok := ip.Root.Lookup("host-new"); ok {
		t.Fatal("partial batch installed")
	}
}

func Test_Interpreter_Bridge_Panic_Is_Recovered(t *testing.T) {
	ip := NewInterpreter()
	boom := func(args []Value) (Value, error) { panic("kaboom") }
	_, err := ip.Arep(context.Background(), `(explode)`, map[string]any{"explode": boom})
	if err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Fatalf("want recovered panic, got %v", err)
	}
}

func Test_Interpreter_Bridge_Receives_Context(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "tagged")
	ip := NewInterpreter()
	probe := func(ctx context.Context, args []Value) (Value, error) {
		s, _ := ctx.Value(key{}).(string)
		return String(s), nil
	}
	out, err := ip.Arep(ctx, `(probe)`, map[string]any{"probe": probe})
	if err != nil {
		t.Fatalf("Arep: %v", err)
	}
	wantOut(t, out, `"tagged"`)
}

func Test_Interpreter_ArepAsync_Delivers_Once(t *testing.T) {
	ip := NewInterpreter()
	res := <-ip.ArepAsync(context.Background(), `(do (sleep 1) (+ 1 1))`, nil)
	if res.Err != nil {
		t.Fatalf("async: %v", res.Err)
	}
	wantOut(t, res.Output, `2`)
}

func Test_Interpreter_Sleep_Honours_Cancellation(t *testing.T) {
	ip := NewInterpreter()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := ip.Arep(ctx, `(sleep 10000)`, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
}

func Test_Interpreter_StepHook_Can_Abort(t *testing.T) {
	stop := errors.New("stopped by debugger")
	steps := 0
	hook := func(ctx context.Context, ast Value, env *Env) error {
		steps++
		if steps > 50 {
			return stop
		}
		return nil
	}
	ip := NewInterpreter(WithoutPrelude(), WithStepHook(hook))
	arep(t, ip, `(def spin (fn [] (spin)))`)
	if _, err := ip.Arep(context.Background(), `(spin)`, nil); !errors.Is(err, stop) {
		t.Fatalf("want hook error, got %v", err)
	}
}

func Test_Interpreter_Logger_Debug_Steps(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ip := NewInterpreter(WithoutPrelude(), WithLogger(logger))
	arep(t, ip, `(def f (fn [x] x)) (f 1)`)
	out := buf.String()
	if !strings.Contains(out, "eval step") || !strings.Contains(out, "tail call") {
		t.Fatalf("missing debug records:\n%s", out)
	}
}

func Test_Interpreter_Stdout_Redirect(t *testing.T) {
	var buf bytes.Buffer
	ip := NewInterpreter(WithStdout(&buf))
	arep(t, ip, `(println "a" 1 :k) (prn "a" 1)`)
	if got, want := buf.String(), "a 1 :k\n\"a\" 1\n"; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func Test_Interpreter_WithoutPrelude(t *testing.T) {
	ip := NewInterpreter(WithoutPrelude())
	var ue *UnboundSymbolError
	if err := arepErr(t, ip, `(inc 1)`); !errors.As(err, &ue) {
		t.Fatalf("want unbound inc, got %v", err)
	}
}

func Test_Interpreter_Custom_Prelude(t *testing.T) {
	ip := NewInterpreter(WithPrelude("mine.schem", `(def answer 42)`))
	wantOut(t, arep(t, ip, `answer`), `42`)

	bad := NewInterpreter(WithPrelude("broken.schem", `(def x`))
	err := arepErr(t, bad, `1`)
	if !IsIncomplete(errors.Unwrap(err)) || !strings.Contains(err.Error(), "broken.schem") {
		t.Fatalf("want wrapped syntax error naming the prelude, got %v", err)
	}
}

func Test_Interpreter_Apply_And_MacroExpand(t *testing.T) {
	ip := NewInterpreter()
	ctx := context.Background()
	if err := ip.LoadPrelude(ctx); err != nil {
		t.Fatalf("prelude: %v", err)
	}
	inc, _ := ip.Root.Get("inc")
	v, err := ip.Apply(ctx, inc, []Value{Number(1)})
	if err != nil || !Equal(v, Number(2)) {
		t.Fatalf("Apply inc: %v %v", v, err)
	}
	v, err = ip.Apply(ctx, Keyword("a"), []Value{mustMap(t, Keyword("a"), Number(9))})
	if err != nil || !Equal(v, Number(9)) {
		t.Fatalf("Apply keyword: %v %v", v, err)
	}

	form, _ := ReadStr(`(when x y)`)
	out, err := ip.MacroExpand(ctx, form, ip.Root)
	if err != nil {
		t.Fatalf("MacroExpand: %v", err)
	}
	wantOut(t, Print(out, true), `(if x (do y))`)
}

func Test_Interpreter_Independent_Instances(t *testing.T) {
	a, b := NewInterpreter(), NewInterpreter()
	arep(t, a, `(def only-a 1)`)
	var ue *UnboundSymbolError
	if err := arepErr(t, b, `only-a`); !errors.As(err, &ue) {
		t.Fatalf("state leaked between interpreters: %v", err)
	}
}

func mustMap(t *testing.T, kvs ...Value) *Map {
	t.Helper()
	m, err := NewMapFromPairs(kvs...)
	if err != nil {
		t.Fatalf("NewMapFromPairs: %v", err)
	}
	return m
}
