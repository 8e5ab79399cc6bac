package boxdsl

// TokenKind identifies the type of a lexical token.
type TokenKind int

const (
	TokenEOF        TokenKind = iota
	TokenIdentifier           // [A-Za-z_][A-Za-z0-9_]*
	TokenString               // "..." with escape processing
	TokenNumber               // [0-9]+(.[0-9]+)?
	TokenArrow                // -->
	TokenLBrace               // {
	TokenRBrace               // }
	TokenLBracket             // [
	TokenRBracket             // ]
	TokenColon                // :
	TokenComma                // ,
	TokenDot                  // .
	TokenHash                 // # (anchor suffix, not a comment)
	TokenNewline              // \n

	// Keywords (identifier text checked against keyword map)
	TokenGroup // group
)

var tokenNames = map[TokenKind]string{
	TokenEOF:        "EOF",
	TokenIdentifier: "identifier",
	TokenString:     "string",
	TokenNumber:     "number",
	TokenArrow:      "'-->'",
	TokenLBrace:     "'{'",
	TokenRBrace:     "'}'",
	TokenLBracket:   "'['",
	TokenRBracket:   "']'",
	TokenColon:      "':'",
	TokenComma:      "','",
	TokenDot:        "'.'",
	TokenHash:       "'#'",
	TokenNewline:    "newline",
	TokenGroup:      "'group'",
}

func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return "unknown"
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Kind    TokenKind
	Literal string // text content (decoded for strings, raw for others)
	Pos     Position
}

// describe renders the token for error messages.
func (t Token) describe() string {
	switch t.Kind {
	case TokenEOF:
		return "end of input"
	case TokenNewline:
		return "newline"
	case TokenString, TokenIdentifier, TokenNumber:
		return t.Kind.String() + " " + quote(t.Literal)
	default:
		return t.Kind.String()
	}
}

// keywords maps keyword strings to their token kinds.
var keywords = map[string]TokenKind{
	"group": TokenGroup,
}
