package schem

import (
	"strings"
	"testing"
)

func Test_Introspection_Completions(t *testing.T) {
	ip := NewInterpreter()
	got := ip.Completions("re")
	want := []string{"re-find", "re-matches", "re-pattern", "re-replace", "read-string", "reduce", "regexp?", "remove-watch", "reset!", "rest", "reverse"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("want %v\ngot  %v", want, got)
	}
	if got := ip.Completions("de"); !contains(got, "def") || !contains(got, "defmacro") || !contains(got, "deref") {
		t.Fatalf("special forms missing from completions: %v", got)
	}
}

func Test_Introspection_Completions_See_Prelude_After_Load(t *testing.T) {
	ip := NewInterpreter()
	if contains(ip.Completions("def"), "defn") {
		t.Fatal("prelude is loaded lazily")
	}
	arep(t, ip, `nil`)
	if !contains(ip.Completions("def"), "defn") {
		t.Fatal("defn missing after prelude load")
	}
}

func Test_Introspection_DocText(t *testing.T) {
	got := DocText(SymbolInfo{Name: "f", Kind: "fn", ParamHint: "[a b]", Doc: "Adds."})
	eq(t, got, "f [a b]\nfn\n\nAdds.")
	eq(t, DocText(SymbolInfo{Name: "x", Kind: "number"}), "x\nnumber")
}

func Test_Introspection_FormAtOffset(t *testing.T) {
	src := "(def a 1)\n\n(defn f [x]\n  (+ x (* 2 x)))\n"
	cases := []struct {
		offset int
		want   string
	}{
		{1, "(def a 1)"},
		{10, ""},
		{20, "[x]"},
		{33, "(* 2 x)"},
		{28, "(+ x (* 2 x))"},
	}
	for _, c := range cases {
		got, err := FormAtOffset(src, c.offset)
		if err != nil {
			t.Fatal(err)
		}
		s := ""
		if got != nil {
			s = Print(got, true)
		}
		if s != c.want {
			t.Errorf("offset %d: want %q, got %q", c.offset, c.want, s)
		}
	}
	if _, err := FormAtOffset("(a) (b", 5); !IsIncomplete(err) {
		t.Fatalf("want incomplete error, got %v", err)
	}
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
