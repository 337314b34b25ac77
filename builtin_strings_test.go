package schem

import (
	"errors"
	"testing"
)

func Test_Builtin_Strings_Printing(t *testing.T) {
	wantCases(t, []struct{ in, want string }{
		{`(str "a" 1 :k nil)`, `"a1:knil"`},
		{`(str)`, `""`},
		{`(str [1 "x"])`, `"[1 x]"`},
		{`(pr-str "a" 1)`, `"\"a\" 1"`},
		{`(read-string "(1 :a)")`, `(1 :a)`},
		{`(read-string "")`, `nil`},
		{`(pretty-str [1 2])`, `"[1 2]"`},
	})
}

func Test_Builtin_Strings_Manipulation(t *testing.T) {
	wantCases(t, []struct{ in, want string }{
		{`(subs "hello" 1 3)`, `"el"`},
		{`(subs "hello" 2)`, `"llo"`},
		{`(subs "héllo" 1 2)`, `"é"`},
		{`(join ", " [1 "b" :c])`, `"1, b, :c"`},
		{`(join [1 2])`, `"12"`},
		{`(split "a,b,,c" ",")`, `("a" "b" "" "c")`},
		{`(upper-case "abc")`, `"ABC"`},
		{`(lower-case "ABC")`, `"abc"`},
		{`(trim "  x ")`, `"x"`},
		{`(starts-with? "schem" "sch")`, `true`},
		{`(ends-with? "schem" "em")`, `true`},
		{`(includes? "schem" "z")`, `false`},
	})
}

func Test_Builtin_Strings_Errors(t *testing.T) {
	ip := NewInterpreter()
	var te *TypeError
	for _, src := range []string{`(subs "abc" 2 1)`, `(subs "abc" 0 9)`, `(subs "abc" 0.5)`, `(upper-case 1)`, `(split "a" 1)`} {
		if err := arepErr(t, ip, src); !errors.As(err, &te) {
			t.Errorf("%s: want TypeError, got %v", src, err)
		}
	}
	var se *SyntaxError
	if err := arepErr(t, ip, `(read-string "(1")`); !errors.As(err, &se) {
		t.Errorf("read-string: want SyntaxError, got %v", err)
	}
}

func Test_Builtin_Regex(t *testing.T) {
	wantCases(t, []struct{ in, want string }{
		{`(re-find (re-pattern "a+") "baaa")`, `"aaa"`},
		{`(re-find (re-pattern "a(b)") "xab")`, `["ab" "b"]`},
		{`(re-find (re-pattern "a" "g") "aba")`, `("a" "a")`},
		{`(re-find (re-pattern "z") "abc")`, `nil`},
		{`(re-find (re-pattern "abc" "i") "xABC")`, `"ABC"`},
		{`(re-matches (re-pattern "a+") "aaa")`, `"aaa"`},
		{`(re-matches (re-pattern "a+") "aab")`, `nil`},
		{`(re-matches (re-pattern "a|ab") "ab")`, `"ab"`},
		{`(re-replace (re-pattern "o") "foo" "0")`, `"f0o"`},
		{`(re-replace (re-pattern "o" "g") "foo" "0")`, `"f00"`},
		{`(re-replace (re-pattern "(\\w+)@(\\w+)") "me@host" "${2}:${1}")`, `"host:me"`},
		{`(re-replace (re-pattern "[0-9]+" "g") "a1b22" (fn [m] (count m)))`, `"a1b2"`},
		{`(split "a1b22c" (re-pattern "[0-9]+"))`, `("a" "b" "c")`},
	})
}

func Test_Builtin_Regex_Errors(t *testing.T) {
	ip := NewInterpreter()
	var te *TypeError
	for _, src := range []string{`(re-pattern "a" "q")`, `(re-pattern "(")`, `(re-find "a" "a")`, `(re-replace (re-pattern "a") "a" 1)`} {
		if err := arepErr(t, ip, src); !errors.As(err, &te) {
			t.Errorf("%s: want TypeError, got %v", src, err)
		}
	}
}
