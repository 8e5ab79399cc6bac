package boxdsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resyncFrom runs recovery for ctx at the start of src and returns how many
// tokens were skipped and the token parsing resumes at.
func resyncFrom(t *testing.T, ctx recoveryContext, src string) (int, Token) {
	t.Helper()
	tokens, err := Tokenize([]byte(src))
	require.NoError(t, err)
	p := &parser{tokens: tokens}
	p.resync(ctx)
	return p.pos, p.peek()
}

func TestRecoveryStopPoints(t *testing.T) {
	tests := []struct {
		name     string
		ctx      recoveryContext
		src      string
		consumed int
		resumeAt TokenKind
	}{
		{"statement consumes newline", recoverStatement, "x y\nz", 3, TokenIdentifier},
		{"statement ignores closing brace", recoverStatement, "x } y\nz", 4, TokenIdentifier},
		{"statement stops at end of input", recoverStatement, "x y", 2, TokenEOF},
		{"body consumes newline", recoverBody, "x y\nz", 3, TokenIdentifier},
		{"body stops before closing brace", recoverBody, "x y }", 2, TokenRBrace},
		{"body skips nested blocks", recoverBody, "x { a\n b } y }", 7, TokenRBrace},
		{"property stops before newline", recoverProperty, "5\nz", 1, TokenNewline},
		{"property stops before closing brace", recoverProperty, "5 6 }", 2, TokenRBrace},
		{"property skips bracketed value", recoverProperty, "[1, 2] }", 5, TokenRBrace},
		{"anchor consumes comma", recoverAnchor, "5, b", 2, TokenIdentifier},
		{"anchor consumes newline", recoverAnchor, "5\nb", 2, TokenIdentifier},
		{"anchor skips comma inside brackets", recoverAnchor, "[1, 2], b", 6, TokenIdentifier},
		{"anchor stops before closing brace", recoverAnchor, "5 }", 1, TokenRBrace},
		{"coordinates consume closing bracket", recoverCoordinates, "0.5 ] , q", 2, TokenComma},
		{"coordinates stop before newline", recoverCoordinates, "0.5\n", 1, TokenNewline},
		{"coordinates stop before closing brace", recoverCoordinates, "0.5 }", 1, TokenRBrace},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumed, resume := resyncFrom(t, tt.ctx, tt.src)
			assert.Equal(t, tt.consumed, consumed)
			assert.Equal(t, tt.resumeAt, resume.Kind)
		})
	}
}

func TestRecoveryMachineStates(t *testing.T) {
	m := newRecoveryMachine(recoverBody)
	assert.Equal(t, stateScanning, m.state)

	assert.True(t, m.step(Token{Kind: TokenLBrace}))
	assert.Equal(t, stateNested, m.state)
	assert.True(t, m.step(Token{Kind: TokenLBracket}))
	assert.Equal(t, 2, m.depth)

	// Stop tokens have no effect while nested.
	assert.True(t, m.step(Token{Kind: TokenNewline}))
	assert.True(t, m.step(Token{Kind: TokenRBracket}))
	assert.True(t, m.step(Token{Kind: TokenRBrace}))
	assert.Equal(t, stateScanning, m.state)
	assert.False(t, m.done())

	assert.False(t, m.step(Token{Kind: TokenRBrace}))
	assert.True(t, m.done())
}

func TestRecoveryMachineEOFAlwaysStops(t *testing.T) {
	for _, ctx := range []recoveryContext{recoverStatement, recoverBody, recoverProperty, recoverAnchor, recoverCoordinates} {
		m := newRecoveryMachine(ctx)
		m.step(Token{Kind: TokenLBrace})
		assert.False(t, m.step(Token{Kind: TokenEOF}), "context %s", ctx)
		assert.True(t, m.done(), "context %s", ctx)
	}
}

func TestRecoveryContextNames(t *testing.T) {
	assert.Equal(t, "statement", recoverStatement.String())
	assert.Equal(t, "coordinates", recoverCoordinates.String())
	assert.Equal(t, "unknown", recoveryContext(99).String())
}
