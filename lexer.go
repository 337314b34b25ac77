// lexer.go: Schem tokenizer
package schem

import (
	"strings"
)

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota

	// Delimiters
	LROUND  // "("
	RROUND  // ")"
	LSQUARE // "["
	RSQUARE // "]"
	LCURLY  // "{"
	RCURLY  // "}"

	// Reader prefixes
	QUOTE          // "'"
	QUASIQUOTE     // "`"
	UNQUOTE        // "~"
	SPLICE_UNQUOTE // "~@"
	DEREF          // "@"

	// Literals
	STRING // Literal holds the unescaped text
	ATOM   // numbers, booleans, nil, keywords and symbols; classified by the reader
)

var tokenNames = map[TokenType]string{
	EOF:            "end of input",
	LROUND:         "'('",
	RROUND:         "')'",
	LSQUARE:        "'['",
	RSQUARE:        "']'",
	LCURLY:         "'{'",
	RCURLY:         "'}'",
	QUOTE:          "quote",
	QUASIQUOTE:     "quasiquote",
	UNQUOTE:        "unquote",
	SPLICE_UNQUOTE: "splice-unquote",
	DEREF:          "deref",
	STRING:         "string",
	ATOM:           "atom",
}

func (t TokenType) String() string { return tokenNames[t] }

// Token is a lexical token. Pos and End are byte offsets ([Pos, End)); Line
// and Col are 1-based and point at Pos.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal string
	Pos     int
	End     int
	Line    int
	Col     int
}

// Lexer scans Schem source one token at a time.
type Lexer struct {
	src   string
	start int // start index of current token
	cur   int // current index
	line  int // 1-based
	col   int // 1-based column of cur

	startLine, startCol int
}

func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Offset is the byte position the next token scan starts from.
func (l *Lexer) Offset() int { return l.cur }

// Next returns the next token, or a token of type EOF at the end of input.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()
	l.start, l.startLine, l.startCol = l.cur, l.line, l.col
	c, ok := l.advance()
	if !ok {
		return l.token(EOF, ""), nil
	}
	switch c {
	case '(':
		return l.token(LROUND, ""), nil
	case ')':
		return l.token(RROUND, ""), nil
	case '[':
		return l.token(LSQUARE, ""), nil
	case ']':
		return l.token(RSQUARE, ""), nil
	case '{':
		return l.token(LCURLY, ""), nil
	case '}':
		return l.token(RCURLY, ""), nil
	case '\'':
		return l.token(QUOTE, ""), nil
	case '`':
		return l.token(QUASIQUOTE, ""), nil
	case '@':
		return l.token(DEREF, ""), nil
	case '~':
		if b, ok := l.peek(); ok && b == '@' {
			l.advance()
			return l.token(SPLICE_UNQUOTE, ""), nil
		}
		return l.token(UNQUOTE, ""), nil
	case '"':
		s, err := l.scanString()
		if err != nil {
			return Token{}, err
		}
		return l.token(STRING, s), nil
	}
	for {
		b, ok := l.peek()
		if !ok || isDelimiter(b) {
			break
		}
		l.advance()
	}
	return l.token(ATOM, l.src[l.start:l.cur]), nil
}

// Scan tokenizes the whole input. The trailing EOF token is not included.
func (l *Lexer) Scan() ([]Token, error) {
	var toks []Token
	for {
		t, err := l.Next()
		if err != nil {
			return nil, err
		}
		if t.Type == EOF {
			return toks, nil
		}
		toks = append(toks, t)
	}
}

func (l *Lexer) token(tt TokenType, lit string) Token {
	return Token{
		Type:    tt,
		Lexeme:  l.src[l.start:l.cur],
		Literal: lit,
		Pos:     l.start,
		End:     l.cur,
		Line:    l.startLine,
		Col:     l.startCol,
	}
}

func (l *Lexer) peek() (byte, bool) {
	if l.cur >= len(l.src) {
		return 0, false
	}
	return l.src[l.cur], true
}

func (l *Lexer) advance() (byte, bool) {
	if l.cur >= len(l.src) {
		return 0, false
	}
	c := l.src[l.cur]
	l.cur++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c, true
}

// skipWhitespace skips blanks, commas and ';' line comments.
func (l *Lexer) skipWhitespace() {
	for {
		c, ok := l.peek()
		if !ok {
			return
		}
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',':
			l.advance()
		case c == ';':
			for {
				c, ok := l.peek()
				if !ok || c == '\n' {
					break
				}
				l.advance()
			}
		default:
			return
		}
	}
}

func isDelimiter(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', ',', '(', ')', '[', ']', '{', '}', '\'', '`', '"', ';':
		return true
	}
	return false
}

func (l *Lexer) errAt(line, col, pos int, msg string, incomplete bool) error {
	return &SyntaxError{Pos: pos, Line: line, Col: col, Msg: msg, Incomplete: incomplete}
}

// scanString reads after the opening quote up to and including the closing
// quote, decoding \" \n \t and \\.
func (l *Lexer) scanString() (string, error) {
	var b strings.Builder
	for {
		c, ok := l.advance()
		if !ok {
			return "", l.errAt(l.startLine, l.startCol, l.start, "unterminated string", true)
		}
		switch c {
		case '"':
			return b.String(), nil
		case '\\':
			escLine, escCol, escPos := l.line, l.col-1, l.cur-1
			e, ok := l.advance()
			if !ok {
				return "", l.errAt(l.startLine, l.startCol, l.start, "unterminated string", true)
			}
			switch e {
			case '"':
				b.WriteByte('"')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\':
				b.WriteByte('\\')
			default:
				return "", l.errAt(escLine, escCol, escPos, "invalid escape \\"+string(e), false)
			}
		default:
			b.WriteByte(c)
		}
	}
}
