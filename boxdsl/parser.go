package boxdsl

import (
	"fmt"
	"strconv"
)

// ParseSource tokenizes and parses src. The returned error is the fatal
// tokenizer failure (a *LexError), in which case the document is empty.
// Recoverable problems are returned as diagnostics alongside whatever part
// of the document did parse.
func ParseSource(src []byte) (*Document, Errors, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return &Document{}, nil, err
	}
	doc, errs := Parse(tokens)
	return doc, errs, nil
}

// Parse builds a Document from a token stream. It never stops at the first
// problem: every diagnostic found is returned, and the document holds every
// node and arrow that parsed cleanly. A nil error list means success.
func Parse(tokens []Token) (*Document, Errors) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != TokenEOF {
		var pos Position
		if len(tokens) > 0 {
			pos = tokens[len(tokens)-1].Pos
		}
		tokens = append(tokens[:len(tokens):len(tokens)], Token{Kind: TokenEOF, Pos: pos})
	}
	p := &parser{tokens: tokens}
	doc := p.parseDocument()
	return doc, p.errs
}

type parser struct {
	tokens []Token
	pos    int
	errs   Errors
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

// peekAt looks n tokens ahead; the EOF token repeats past the end.
func (p *parser) peekAt(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Kind != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) skipNewlines() {
	for p.peek().Kind == TokenNewline {
		p.next()
	}
}

func (p *parser) errorf(pos Position, format string, args ...any) {
	p.errs = append(p.errs, syntaxErr(pos, format, args...))
}

func (p *parser) constraintf(pos Position, format string, args ...any) {
	p.errs = append(p.errs, constraintErr(pos, format, args...))
}

func (p *parser) parseDocument() *Document {
	doc := &Document{}

	// Node declarations come first; the first statement that looks like an
	// arrow switches the parser into the arrow phase for good.
	for {
		p.skipNewlines()
		tok := p.peek()
		if tok.Kind == TokenEOF {
			return doc
		}

		if tok.Kind == TokenIdentifier {
			switch p.peekAt(1).Kind {
			case TokenLBrace:
				doc.Nodes = append(doc.Nodes, p.parseNode())
				continue
			case TokenArrow, TokenDot, TokenHash:
				p.parseArrows(doc)
				return doc
			default:
				p.next()
				got := p.peek()
				p.errorf(got.Pos, "expected '{' after node identifier %s, got %s", quoteIdent(tok.Literal), got.describe())
				p.resync(recoverStatement)
				continue
			}
		}

		if tok.Kind == TokenGroup {
			p.errorf(tok.Pos, "group blocks are only allowed inside a node")
			p.parseGroup()
			continue
		}

		p.errorf(tok.Pos, "unexpected %s at top level", tok.describe())
		p.resync(recoverStatement)
	}
}

// parseNode parses IDENT '{' body '}'. The caller has checked the brace.
func (p *parser) parseNode() *ContainerNode {
	idTok := p.next()
	p.next() // consume '{'

	node := &ContainerNode{ID: idTok.Literal, Pos: idTok.Pos}
	p.parseBody(node, nil, "node "+quoteIdent(node.ID))
	return node
}

// parseGroup parses 'group' '{' body '}'. Returns nil if the block is
// malformed beyond recovery.
func (p *parser) parseGroup() *GroupNode {
	groupTok := p.next() // consume 'group'

	if p.peek().Kind != TokenLBrace {
		got := p.peek()
		p.errorf(got.Pos, "expected '{' after 'group', got %s", got.describe())
		p.resync(recoverBody)
		return nil
	}
	p.next() // consume '{'

	group := &GroupNode{Pos: groupTok.Pos}
	p.parseBody(nil, group, "group")
	return group
}

// parseBody parses body entries up to and including the closing brace.
// Exactly one of node and group is non-nil.
func (p *parser) parseBody(node *ContainerNode, group *GroupNode, owner string) {
	add := func(c Child) {
		if node != nil {
			node.Items = append(node.Items, c)
		} else {
			group.Items = append(group.Items, c)
		}
	}

	for {
		tok := p.peek()
		switch tok.Kind {
		case TokenNewline:
			p.next()

		case TokenRBrace:
			p.next()
			return

		case TokenEOF:
			p.errorf(tok.Pos, "expected '}' to close %s, got end of input", owner)
			return

		case TokenGroup:
			if g := p.parseGroup(); g != nil {
				add(g)
			}

		case TokenIdentifier:
			switch p.peekAt(1).Kind {
			case TokenColon:
				if node != nil {
					p.parseNodeProperty(node)
				} else {
					p.parseGroupProperty(group)
				}
			case TokenLBrace:
				add(p.parseNode())
			default:
				p.next()
				got := p.peek()
				p.errorf(got.Pos, "expected ':' or '{' after %s, got %s", quoteIdent(tok.Literal), got.describe())
				p.resync(recoverBody)
			}

		default:
			p.errorf(tok.Pos, "unexpected %s in %s body", tok.describe(), owner)
			p.resync(recoverBody)
		}
	}
}

// parseNodeProperty parses NAME ':' VALUE inside a node body.
func (p *parser) parseNodeProperty(node *ContainerNode) {
	nameTok := p.next()
	p.next() // consume ':'

	switch nameTok.Literal {
	case "label":
		if label, ok := p.expectString("label"); ok {
			node.Label = label
		}

	case "direction":
		if dir, ok := p.parseDirection(); ok {
			node.Dir = dir
		}

	case "size":
		tok := p.peek()
		size, ok := p.expectNumber("size")
		if !ok {
			return
		}
		if !inUnitRange(size) {
			p.constraintf(tok.Pos, "%s", sizeRangeMessage(node.ID, size))
			return
		}
		node.Size = &size

	case "anchors":
		node.Anchors = p.parseAnchors(node.ID)

	default:
		p.errorf(nameTok.Pos, "Unknown property '%s'", nameTok.Literal)
		p.skipValue()
	}
}

// parseGroupProperty parses NAME ':' VALUE inside a group body, where only
// direction is allowed.
func (p *parser) parseGroupProperty(group *GroupNode) {
	nameTok := p.next()
	p.next() // consume ':'

	if nameTok.Literal != "direction" {
		p.errorf(nameTok.Pos, "groups can only have 'direction' property")
		p.skipValue()
		return
	}
	if dir, ok := p.parseDirection(); ok {
		group.Dir = dir
	}
}

func (p *parser) parseDirection() (Direction, bool) {
	tok := p.peek()
	value, ok := p.expectString("direction")
	if !ok {
		return "", false
	}
	switch Direction(value) {
	case Vertical, Horizontal:
		return Direction(value), true
	default:
		p.errorf(tok.Pos, "invalid direction %s: must be \"vertical\" or \"horizontal\"", quote(value))
		return "", false
	}
}

// skipValue discards a property value: a single token, or a whole bracketed
// value when it opens with '{' or '['.
func (p *parser) skipValue() {
	tok := p.peek()
	switch tok.Kind {
	case TokenLBrace, TokenLBracket:
		m := newRecoveryMachine(recoverProperty)
		for m.step(p.peek()) {
			p.next()
			if m.state == stateScanning {
				return
			}
		}
	case TokenNewline, TokenRBrace, TokenEOF:
		// Missing value; the body loop reports nothing further.
	default:
		p.next()
	}
}

func (p *parser) expectString(property string) (string, bool) {
	tok := p.peek()
	if tok.Kind != TokenString {
		p.errorf(tok.Pos, "%s must be a string, got %s", property, tok.describe())
		p.resync(recoverProperty)
		return "", false
	}
	p.next()
	return tok.Literal, true
}

func (p *parser) expectNumber(property string) (float64, bool) {
	tok := p.peek()
	if tok.Kind != TokenNumber {
		p.errorf(tok.Pos, "%s must be a number, got %s", property, tok.describe())
		p.resync(recoverProperty)
		return 0, false
	}
	p.next()
	f, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.errorf(tok.Pos, "invalid number %s: %v", quote(tok.Literal), err)
		return 0, false
	}
	return f, true
}

// parseAnchors parses '{' NAME ':' '[' X ',' Y ']' (',' ...)* ','? '}'.
// Out-of-range coordinates are reported but kept; duplicates are reported
// and the later entry wins. An empty block yields nil.
func (p *parser) parseAnchors(nodeID string) []Anchor {
	open := p.peek()
	if open.Kind != TokenLBrace {
		p.errorf(open.Pos, "anchors must be an object, got %s", open.describe())
		p.resync(recoverProperty)
		return nil
	}
	p.next()

	var anchors []Anchor
	index := make(map[string]int)

	for {
		p.skipNewlines()
		tok := p.peek()
		switch tok.Kind {
		case TokenRBrace:
			p.next()
			if len(anchors) == 0 {
				return nil
			}
			return anchors
		case TokenEOF:
			p.errorf(tok.Pos, "expected '}' to close anchors of node %s, got end of input", quoteIdent(nodeID))
			return anchors
		case TokenIdentifier:
		default:
			p.errorf(tok.Pos, "expected anchor name, got %s", tok.describe())
			p.resync(recoverAnchor)
			continue
		}

		nameTok := p.next()
		if colon := p.peek(); colon.Kind != TokenColon {
			p.errorf(colon.Pos, "expected ':' after anchor %s, got %s", quoteIdent(nameTok.Literal), colon.describe())
			p.resync(recoverAnchor)
			continue
		}
		p.next()

		at, ok := p.parseCoordinates()
		if !ok {
			continue
		}
		anchor := Anchor{Name: nameTok.Literal, At: at, Pos: nameTok.Pos}
		p.errs = append(p.errs, anchorRangeErrors(nodeID, anchor)...)
		if i, dup := index[anchor.Name]; dup {
			p.errorf(nameTok.Pos, "duplicate anchor %s on node %s", quoteIdent(anchor.Name), quoteIdent(nodeID))
			anchors[i] = anchor
		} else {
			index[anchor.Name] = len(anchors)
			anchors = append(anchors, anchor)
		}

		p.skipNewlines()
		sep := p.peek()
		switch sep.Kind {
		case TokenComma:
			p.next()
		case TokenRBrace:
			// closed on the next iteration
		default:
			p.errorf(sep.Pos, "expected ',' or '}' in anchors, got %s", sep.describe())
			p.resync(recoverAnchor)
		}
	}
}

// parseCoordinates parses '[' NUMBER ',' NUMBER ']'. On failure it has
// already resynchronized to the next anchor entry.
func (p *parser) parseCoordinates() (Point, bool) {
	var values [2]float64
	expected := []TokenKind{TokenLBracket, TokenNumber, TokenComma, TokenNumber, TokenRBracket}

	n := 0
	for _, kind := range expected {
		tok := p.peek()
		if tok.Kind != kind {
			p.errorf(tok.Pos, "expected %s in anchor coordinates, got %s", kind, tok.describe())
			p.abandonCoordinates(kind == TokenLBracket)
			return Point{}, false
		}
		p.next()
		if kind == TokenNumber {
			f, err := strconv.ParseFloat(tok.Literal, 64)
			if err != nil {
				p.errorf(tok.Pos, "invalid number %s: %v", quote(tok.Literal), err)
				p.abandonCoordinates(false)
				return Point{}, false
			}
			values[n] = f
			n++
		}
	}
	return Point{X: values[0], Y: values[1]}, true
}

// abandonCoordinates skips the rest of a broken anchor entry, including the
// comma that separates it from the next one.
func (p *parser) abandonCoordinates(beforeBracket bool) {
	if beforeBracket {
		p.resync(recoverAnchor)
		return
	}
	p.resync(recoverCoordinates)
	if p.peek().Kind == TokenComma {
		p.next()
	}
}

// parseArrows parses the remaining statements as `path --> path`.
func (p *parser) parseArrows(doc *Document) {
	for {
		p.skipNewlines()
		tok := p.peek()
		if tok.Kind == TokenEOF {
			return
		}
		if tok.Kind == TokenIdentifier && p.peekAt(1).Kind == TokenLBrace {
			p.errorf(tok.Pos, "node %s must be declared before any arrow", quoteIdent(tok.Literal))
			p.resync(recoverStatement)
			continue
		}
		if arrow := p.parseArrow(); arrow != nil {
			doc.Arrows = append(doc.Arrows, arrow)
		}
	}
}

func (p *parser) parseArrow() *Arrow {
	start := p.peek()
	if start.Kind != TokenIdentifier {
		p.errorf(start.Pos, "expected arrow source, got %s", start.describe())
		p.resync(recoverStatement)
		return nil
	}

	source, ok := p.parsePath()
	if !ok {
		p.resync(recoverStatement)
		return nil
	}

	op := p.peek()
	if op.Kind != TokenArrow {
		p.errorf(op.Pos, "expected '-->' after %s, got %s", quoteIdent(source.String()), op.describe())
		p.resync(recoverStatement)
		return nil
	}
	p.next()

	if tok := p.peek(); tok.Kind != TokenIdentifier {
		p.errorf(tok.Pos, "expected identifier after '-->', got %s", tok.describe())
		p.resync(recoverStatement)
		return nil
	}
	target, ok := p.parsePath()
	if !ok {
		p.resync(recoverStatement)
		return nil
	}

	if end := p.peek(); end.Kind != TokenNewline && end.Kind != TokenEOF {
		p.errorf(end.Pos, "expected end of line after arrow, got %s", end.describe())
		p.resync(recoverStatement)
		return nil
	}

	return &Arrow{Source: source, Target: target, Pos: start.Pos}
}

// parsePath parses IDENT ('.' IDENT)* ('#' IDENT)?. The caller has checked
// the first identifier.
func (p *parser) parsePath() (Endpoint, bool) {
	first := p.next()
	ep := Endpoint{Path: first.Literal, Pos: first.Pos}

	for p.peek().Kind == TokenDot {
		p.next()
		seg := p.peek()
		if seg.Kind != TokenIdentifier {
			p.errorf(seg.Pos, "expected identifier after '.', got %s", seg.describe())
			return Endpoint{}, false
		}
		p.next()
		ep.Path += "." + seg.Literal
	}

	if p.peek().Kind == TokenHash {
		p.next()
		name := p.peek()
		if name.Kind != TokenIdentifier {
			p.errorf(name.Pos, "expected anchor name after '#', got %s", name.describe())
			return Endpoint{}, false
		}
		p.next()
		ep.Anchor = name.Literal
	}

	return ep, true
}

func quoteIdent(id string) string {
	return "'" + id + "'"
}

func inUnitRange(f float64) bool {
	return f >= 0 && f <= 1
}

func sizeRangeMessage(nodeID string, size float64) string {
	return fmt.Sprintf("size %s of node %s must be between 0.0 and 1.0", formatFloat(size), quoteIdent(nodeID))
}

// anchorRangeErrors reports each coordinate of a outside [0, 1].
func anchorRangeErrors(nodeID string, a Anchor) Errors {
	var errs Errors
	for _, c := range []struct {
		axis  string
		value float64
	}{{"x", a.At.X}, {"y", a.At.Y}} {
		if !inUnitRange(c.value) {
			errs = append(errs, constraintErr(a.Pos,
				"anchor %s of node %s: %s coordinate %s must be between 0.0 and 1.0",
				quoteIdent(a.Name), quoteIdent(nodeID), c.axis, formatFloat(c.value)))
		}
	}
	return errs
}
