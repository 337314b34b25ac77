// reader.go — Schem reader (text → forms)
//
// WHAT THIS MODULE DOES
// =====================
// Turns source text into Value-model terms. The grammar is the full Lisp
// reader grammar:
//
//	form    := list | vector | map | prefix form | STRING | ATOM
//	list    := '(' form* ')'
//	vector  := '[' form* ']'
//	map     := '{' (form form)* '}'
//	prefix  := "'" | '`' | '~' | '~@' | '@'
//
// Prefixes expand to two-element lists: 'x → (quote x), `x → (quasiquote x),
// ~x → (unquote x), ~@x → (splice-unquote x), @x → (deref x).
//
// Atom tokens are classified in this order: integer, float, true/false, nil,
// keyword (":name"), symbol. Symbols must not contain ':' and only the lone
// "/" symbol may contain '/'.
//
// POSITIONS
// =========
// Every List, Vector and Map built here carries the byte Span of its source
// text (see spans.go). Reading is restartable: a Reader hands out one
// top-level form per Next call and reports via Offset where it stopped, so
// editors can walk a buffer form by form.
//
// ERRORS
// ======
// All failures are *SyntaxError. Input that ends inside an open form or
// string sets Incomplete, which REPLs use to ask for a continuation line.
package schem

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// Reader reads top-level forms from a source string.
type Reader struct {
	lex    *Lexer
	peeked *Token
}

func NewReader(src string) *Reader {
	return &Reader{lex: NewLexer(src)}
}

// Next reads the next top-level form. It returns io.EOF once only whitespace
// and comments remain.
func (r *Reader) Next() (Value, error) {
	t, err := r.peek()
	if err != nil {
		return nil, err
	}
	if t.Type == EOF {
		return nil, io.EOF
	}
	return r.readForm()
}

// Offset is the byte position just past the last form returned by Next.
func (r *Reader) Offset() int {
	if r.peeked != nil {
		return r.peeked.Pos
	}
	return r.lex.Offset()
}

// ReadStr reads the first form of src. Empty input reads as nil.
func ReadStr(src string) (Value, error) {
	v, err := NewReader(src).Next()
	if errors.Is(err, io.EOF) {
		return NilValue, nil
	}
	return v, err
}

// ReadAll reads every top-level form of src. Zero forms read as nil, one form
// as itself, and several forms as (do f1 f2 ...).
func ReadAll(src string) (Value, error) {
	r := NewReader(src)
	var forms []Value
	for {
		v, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		forms = append(forms, v)
	}
	switch len(forms) {
	case 0:
		return NilValue, nil
	case 1:
		return forms[0], nil
	}
	return &List{
		Items: append([]Value{Symbol("do")}, forms...),
		Span:  Span{StartByte: 0, EndByte: len(src)},
	}, nil
}

//// END_OF_PUBLIC

var prefixSymbols = map[TokenType]Symbol{
	QUOTE:          "quote",
	QUASIQUOTE:     "quasiquote",
	UNQUOTE:        "unquote",
	SPLICE_UNQUOTE: "splice-unquote",
	DEREF:          "deref",
}

func (r *Reader) peek() (Token, error) {
	if r.peeked == nil {
		t, err := r.lex.Next()
		if err != nil {
			return Token{}, err
		}
		r.peeked = &t
	}
	return *r.peeked, nil
}

func (r *Reader) next() (Token, error) {
	t, err := r.peek()
	r.peeked = nil
	return t, err
}

func (r *Reader) errAt(t Token, msg string, incomplete bool) error {
	return &SyntaxError{Pos: t.Pos, Line: t.Line, Col: t.Col, Msg: msg, Incomplete: incomplete}
}

func (r *Reader) readForm() (Value, error) {
	t, err := r.next()
	if err != nil {
		return nil, err
	}
	switch t.Type {
	case EOF:
		return nil, r.errAt(t, "unexpected end of input", true)
	case LROUND:
		items, end, err := r.readSeq(t, RROUND)
		if err != nil {
			return nil, err
		}
		return &List{Items: items, Span: Span{t.Pos, end}}, nil
	case LSQUARE:
		items, end, err := r.readSeq(t, RSQUARE)
		if err != nil {
			return nil, err
		}
		return &Vector{Items: items, Span: Span{t.Pos, end}}, nil
	case LCURLY:
		items, end, err := r.readSeq(t, RCURLY)
		if err != nil {
			return nil, err
		}
		if len(items)%2 != 0 {
			return nil, r.errAt(t, "map literal must contain an even number of forms", false)
		}
		m := NewMap()
		for i := 0; i < len(items); i += 2 {
			if err := m.Set(items[i], items[i+1]); err != nil {
				return nil, r.errAt(t, err.Error(), false)
			}
		}
		m.Span = Span{t.Pos, end}
		return m, nil
	case RROUND, RSQUARE, RCURLY:
		return nil, r.errAt(t, "unexpected "+t.Type.String(), false)
	case QUOTE, QUASIQUOTE, UNQUOTE, SPLICE_UNQUOTE, DEREF:
		inner, err := r.readForm()
		if err != nil {
			return nil, err
		}
		end := r.lex.Offset()
		if sp, ok := SpanOf(inner); ok {
			end = sp.EndByte
		}
		return &List{Items: []Value{prefixSymbols[t.Type], inner}, Span: Span{t.Pos, end}}, nil
	case STRING:
		return String(t.Literal), nil
	case ATOM:
		return r.classify(t)
	}
	return nil, r.errAt(t, fmt.Sprintf("unreadable token %q", t.Lexeme), false)
}

// readSeq reads forms until the closing token and returns the end offset
// (one past the closing delimiter).
func (r *Reader) readSeq(open Token, closer TokenType) ([]Value, int, error) {
	items := []Value{}
	for {
		t, err := r.peek()
		if err != nil {
			return nil, 0, err
		}
		switch t.Type {
		case closer:
			r.next()
			return items, t.End, nil
		case EOF:
			return nil, 0, r.errAt(open, fmt.Sprintf("unexpected end of input: expected %s", closer), true)
		case RROUND, RSQUARE, RCURLY:
			return nil, 0, r.errAt(t, fmt.Sprintf("unexpected %s, expected %s", t.Type, closer), false)
		}
		v, err := r.readForm()
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
}

func (r *Reader) classify(t Token) (Value, error) {
	s := t.Lexeme
	if looksNumeric(s) {
		if isIntegerLiteral(s) {
			n, err := strconv.ParseInt(s, 10, 64)
			if err == nil {
				return Number(n), nil
			}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || strings.ContainsAny(s, "xX_pP") {
			return nil, r.errAt(t, fmt.Sprintf("invalid number %q", s), false)
		}
		return Number(f), nil
	}
	switch s {
	case "true":
		return True, nil
	case "false":
		return False, nil
	case "nil":
		return NilValue, nil
	}
	if strings.HasPrefix(s, ":") {
		name := s[1:]
		if name == "" || strings.Contains(name, ":") {
			return nil, r.errAt(t, fmt.Sprintf("invalid keyword %q", s), false)
		}
		return Keyword(name), nil
	}
	if strings.Contains(s, ":") || (s != "/" && strings.Contains(s, "/")) {
		return nil, r.errAt(t, fmt.Sprintf("invalid symbol %q", s), false)
	}
	return Symbol(s), nil
}

// looksNumeric reports whether s starts like a number: a digit, or a sign or
// '.' followed by a digit.
func looksNumeric(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
	}
	return i < len(s) && isDigit(s[i])
}

func isIntegerLiteral(s string) bool {
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
