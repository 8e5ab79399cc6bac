package boxdsl

// recoveryContext names the construct that failed to parse. Each context has
// its own rule for where parsing can safely resume.
type recoveryContext int

const (
	// recoverStatement resumes after the end of the current top-level line.
	recoverStatement recoveryContext = iota
	// recoverBody resumes after the end of the current line inside a node
	// or group body, or before the body's closing brace.
	recoverBody
	// recoverProperty resumes before the newline or closing brace that ends
	// a property value.
	recoverProperty
	// recoverAnchor resumes after the comma (or line) ending an anchor entry,
	// or before the closing brace of the anchors block.
	recoverAnchor
	// recoverCoordinates resumes after the ']' closing a coordinate pair.
	recoverCoordinates
)

func (c recoveryContext) String() string {
	switch c {
	case recoverStatement:
		return "statement"
	case recoverBody:
		return "body"
	case recoverProperty:
		return "property"
	case recoverAnchor:
		return "anchor"
	case recoverCoordinates:
		return "coordinates"
	default:
		return "unknown"
	}
}

// recoveryAction is what the machine does with the token under the cursor.
type recoveryAction int

const (
	actionSkip        recoveryAction = iota // consume, keep scanning
	actionStop                              // leave the token, stop
	actionConsumeStop                       // consume the token, stop
)

// stopRules lists, per context, the tokens that end recovery when seen
// outside any nested braces or brackets. Unlisted tokens are skipped.
var stopRules = map[recoveryContext]map[TokenKind]recoveryAction{
	recoverStatement: {
		TokenNewline: actionConsumeStop,
	},
	recoverBody: {
		TokenNewline: actionConsumeStop,
		TokenRBrace:  actionStop,
	},
	recoverProperty: {
		TokenNewline: actionStop,
		TokenRBrace:  actionStop,
	},
	recoverAnchor: {
		TokenComma:   actionConsumeStop,
		TokenNewline: actionConsumeStop,
		TokenRBrace:  actionStop,
	},
	recoverCoordinates: {
		TokenRBracket: actionConsumeStop,
		TokenNewline:  actionStop,
		TokenRBrace:   actionStop,
	},
}

type recoveryState int

const (
	stateScanning recoveryState = iota // at nesting depth zero
	stateNested                        // inside a bracketed value being skipped
	stateDone
)

// recoveryMachine decides, token by token, how far to skip after a parse
// error. It tracks bracket nesting so that a skipped `{ ... }` or `[ ... ]`
// value is discarded whole.
type recoveryMachine struct {
	ctx   recoveryContext
	state recoveryState
	depth int
}

func newRecoveryMachine(ctx recoveryContext) *recoveryMachine {
	return &recoveryMachine{ctx: ctx}
}

// step reports whether tok should be consumed. After step returns, m.done()
// tells whether recovery has finished.
func (m *recoveryMachine) step(tok Token) (consume bool) {
	if tok.Kind == TokenEOF {
		m.state = stateDone
		return false
	}

	switch m.state {
	case stateScanning:
		if tok.Kind == TokenLBrace || tok.Kind == TokenLBracket {
			m.state = stateNested
			m.depth = 1
			return true
		}
		switch stopRules[m.ctx][tok.Kind] {
		case actionStop:
			m.state = stateDone
			return false
		case actionConsumeStop:
			m.state = stateDone
			return true
		default:
			return true
		}

	case stateNested:
		switch tok.Kind {
		case TokenLBrace, TokenLBracket:
			m.depth++
		case TokenRBrace, TokenRBracket:
			m.depth--
			if m.depth == 0 {
				m.state = stateScanning
			}
		}
		return true
	}

	return false
}

func (m *recoveryMachine) done() bool { return m.state == stateDone }

// resync skips tokens according to the context's rules.
func (p *parser) resync(ctx recoveryContext) {
	m := newRecoveryMachine(ctx)
	for !m.done() {
		if m.step(p.peek()) {
			p.next()
		}
	}
}
