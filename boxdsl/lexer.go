package boxdsl

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Lexer tokenizes diagram source text into a stream of tokens.
type Lexer struct {
	src    []byte
	pos    int // current byte offset
	line   int // current line (1-based)
	col    int // current column (1-based)
	peeked *Token
}

// NewLexer creates a new Lexer for the given source bytes.
func NewLexer(src []byte) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Tokenize scans the whole source. The returned slice always ends with a
// TokenEOF token. Any character the grammar does not know aborts with a
// *LexError; there is no partial result.
func Tokenize(src []byte) ([]Token, error) {
	lex := NewLexer(src)
	var tokens []Token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			return tokens, nil
		}
	}
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (Token, error) {
	if l.peeked != nil {
		return *l.peeked, nil
	}
	tok, err := l.scan()
	if err != nil {
		return Token{}, err
	}
	l.peeked = &tok
	return tok, nil
}

// Next returns the next token and advances the lexer.
func (l *Lexer) Next() (Token, error) {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok, nil
	}
	return l.scan()
}

func (l *Lexer) currentPos() Position {
	return Position{Line: l.line, Column: l.col, Offset: l.pos}
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *Lexer) advance() byte {
	ch := l.src[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

// hashStartsComment reports whether the '#' under the cursor opens a line
// comment: it must be the first column or follow whitespace. Otherwise it is
// an anchor suffix as in node#anchor.
func (l *Lexer) hashStartsComment() bool {
	if l.col == 1 || l.pos == 0 {
		return true
	}
	return isSpace(l.src[l.pos-1]) || l.src[l.pos-1] == '\n'
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEnd() {
		ch := l.peek()
		switch {
		case isSpace(ch):
			l.advance()
		case ch == '#' && l.hashStartsComment():
			// The newline stays in the stream; it separates statements.
			for !l.atEnd() && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) scan() (Token, error) {
	l.skipWhitespaceAndComments()

	if l.atEnd() {
		return Token{Kind: TokenEOF, Pos: l.currentPos()}, nil
	}

	pos := l.currentPos()
	ch := l.peek()

	// Single-character tokens
	switch ch {
	case '\n':
		l.advance()
		return Token{Kind: TokenNewline, Literal: "\n", Pos: pos}, nil
	case '{':
		l.advance()
		return Token{Kind: TokenLBrace, Literal: "{", Pos: pos}, nil
	case '}':
		l.advance()
		return Token{Kind: TokenRBrace, Literal: "}", Pos: pos}, nil
	case '[':
		l.advance()
		return Token{Kind: TokenLBracket, Literal: "[", Pos: pos}, nil
	case ']':
		l.advance()
		return Token{Kind: TokenRBracket, Literal: "]", Pos: pos}, nil
	case ':':
		l.advance()
		return Token{Kind: TokenColon, Literal: ":", Pos: pos}, nil
	case ',':
		l.advance()
		return Token{Kind: TokenComma, Literal: ",", Pos: pos}, nil
	case '.':
		l.advance()
		return Token{Kind: TokenDot, Literal: ".", Pos: pos}, nil
	case '#':
		l.advance()
		return Token{Kind: TokenHash, Literal: "#", Pos: pos}, nil
	case '"':
		return l.scanString()
	case '-':
		if l.peekAt(1) == '-' && l.peekAt(2) == '>' {
			l.advance()
			l.advance()
			l.advance()
			return Token{Kind: TokenArrow, Literal: "-->", Pos: pos}, nil
		}
		// Numbers never carry a sign, so "-0.1" fails here.
		l.advance()
		return Token{}, &LexError{
			Message: "unexpected character '-'",
			Pos:     pos,
		}
	}

	if isDigit(ch) {
		return l.scanNumber(), nil
	}

	if isIdentStart(ch) {
		return l.scanIdentifier(), nil
	}

	r, _ := utf8.DecodeRune(l.src[l.pos:])
	return Token{}, &LexError{
		Message: fmt.Sprintf("unexpected character %q", r),
		Pos:     pos,
	}
}

func (l *Lexer) scanString() (Token, error) {
	pos := l.currentPos()
	l.advance() // consume opening "

	var sb strings.Builder
	for {
		if l.atEnd() {
			return Token{}, &LexError{
				Message: "unterminated string",
				Pos:     pos,
			}
		}
		ch := l.advance()
		if ch == '"' {
			return Token{Kind: TokenString, Literal: sb.String(), Pos: pos}, nil
		}
		if ch == '\\' {
			if l.atEnd() {
				return Token{}, &LexError{
					Message: "unterminated string escape",
					Pos:     pos,
				}
			}
			escPos := l.currentPos()
			esc := l.advance()
			switch esc {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				return Token{}, &LexError{
					Message: fmt.Sprintf("invalid escape sequence '\\%c'", esc),
					Pos:     escPos,
				}
			}
			continue
		}
		sb.WriteByte(ch)
	}
}

func (l *Lexer) scanNumber() Token {
	pos := l.currentPos()
	start := l.pos

	for !l.atEnd() && isDigit(l.peek()) {
		l.advance()
	}

	// A dot only belongs to the number when a digit follows it.
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		l.advance() // consume '.'
		for !l.atEnd() && isDigit(l.peek()) {
			l.advance()
		}
	}

	return Token{Kind: TokenNumber, Literal: string(l.src[start:l.pos]), Pos: pos}
}

func (l *Lexer) scanIdentifier() Token {
	pos := l.currentPos()
	start := l.pos

	for !l.atEnd() && isIdentPart(l.peek()) {
		l.advance()
	}

	literal := string(l.src[start:l.pos])

	if kind, ok := keywords[literal]; ok {
		return Token{Kind: kind, Literal: literal, Pos: pos}
	}

	return Token{Kind: TokenIdentifier, Literal: literal, Pos: pos}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
