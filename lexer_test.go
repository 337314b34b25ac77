package schem

import (
	"testing"
)

func scan(t *testing.T, src string) []Token {
	t.Helper()
	toks, err := NewLexer(src).Scan()
	if err != nil {
		t.Fatalf("Scan error: %v\nsource:\n%s", err, src)
	}
	return toks
}

func Test_Lexer_Token_Types(t *testing.T) {
	toks := scan(t, "( ) [ ] { } ' ` ~ ~@ @ \"s\" sym")
	want := []TokenType{
		LROUND, RROUND, LSQUARE, RSQUARE, LCURLY, RCURLY,
		QUOTE, QUASIQUOTE, UNQUOTE, SPLICE_UNQUOTE, DEREF, STRING, ATOM,
	}
	if len(toks) != len(want) {
		t.Fatalf("want %d tokens, got %d: %#v", len(want), len(toks), toks)
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: want %s, got %s", i, tt, toks[i].Type)
		}
	}
}

func Test_Lexer_Atoms_Stop_At_Delimiters(t *testing.T) {
	toks := scan(t, `(foo:bar"x"baz)`)
	if len(toks) != 5 {
		t.Fatalf("want 5 tokens, got %#v", toks)
	}
	if toks[1].Lexeme != "foo:bar" || toks[2].Literal != "x" || toks[3].Lexeme != "baz" {
		t.Fatalf("unexpected split: %#v", toks)
	}
}

func Test_Lexer_Positions(t *testing.T) {
	toks := scan(t, "a\n  bc ; note\n\"d\"")
	cases := []struct {
		lexeme    string
		pos, end  int
		line, col int
	}{
		{"a", 0, 1, 1, 1},
		{"bc", 4, 6, 2, 3},
		{`"d"`, 14, 17, 3, 1},
	}
	if len(toks) != len(cases) {
		t.Fatalf("want %d tokens, got %#v", len(cases), toks)
	}
	for i, c := range cases {
		tk := toks[i]
		if tk.Lexeme != c.lexeme || tk.Pos != c.pos || tk.End != c.end || tk.Line != c.line || tk.Col != c.col {
			t.Errorf("token %d: want %+v, got %+v", i, c, tk)
		}
	}
}

func Test_Lexer_String_Escapes(t *testing.T) {
	toks := scan(t, `"q\"n\nt\tb\\"`)
	if len(toks) != 1 || toks[0].Literal != "q\"n\nt\tb\\" {
		t.Fatalf("unexpected literal %#v", toks)
	}
}

func Test_Lexer_Unterminated_String_Is_Incomplete(t *testing.T) {
	_, err := NewLexer("\"abc\n").Scan()
	if !IsIncomplete(err) {
		t.Fatalf("want incomplete error, got %v", err)
	}
	se := err.(*SyntaxError)
	if se.Line != 1 || se.Col != 1 {
		t.Fatalf("error should point at the opening quote, got %d:%d", se.Line, se.Col)
	}
}

func Test_Lexer_Invalid_Escape(t *testing.T) {
	_, err := NewLexer(`"a\x"`).Scan()
	se, ok := err.(*SyntaxError)
	if !ok || se.Incomplete || se.Col != 3 {
		t.Fatalf("want complete syntax error at col 3, got %#v", err)
	}
}

func Test_Lexer_Offset_Tracks_Scan(t *testing.T) {
	l := NewLexer("  (x)")
	tk, err := l.Next()
	if err != nil || tk.Type != LROUND {
		t.Fatalf("unexpected first token %v %v", tk, err)
	}
	if l.Offset() != 3 {
		t.Fatalf("want offset 3, got %d", l.Offset())
	}
}
