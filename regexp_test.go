package schem

import "testing"

func Test_RegExp_Flags(t *testing.T) {
	re, err := NewRegExp(`^b`, "gm")
	if err != nil {
		t.Fatal(err)
	}
	if !re.Global() {
		t.Fatal("g flag lost")
	}
	if got := re.Regexp().FindAllString("a\nb\nb", -1); len(got) != 2 {
		t.Fatalf("multi-line flag not applied: %q", got)
	}
	plain, _ := NewRegExp(`^b`, "")
	if plain.Global() || plain.Regexp().MatchString("a\nb") {
		t.Fatal("flags leaked into an unflagged pattern")
	}
}

func Test_RegExp_Compiles_Once(t *testing.T) {
	a, err := NewRegExp(`x+y`, "i")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewRegExp(`x+y`, "gi")
	if a.Regexp() != b.Regexp() {
		t.Fatal("same pattern and inline flags should share a compiled program")
	}
	if a.Flags != "i" || b.Flags != "gi" {
		t.Fatal("textual flags must be kept per value")
	}
}
