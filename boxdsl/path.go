package boxdsl

import "strings"

// CenterAnchor is the implicit anchor every container has at [0.5, 0.5].
const CenterAnchor = "center"

// Endpoint is one side of an arrow: a dotted node path and an optional
// anchor name.
type Endpoint struct {
	Path   string // e.g. "a.b.c"
	Anchor string // empty means the implicit center anchor
	Pos    Position
}

// ParseEndpoint splits "a.b#top" into its path and anchor parts. It does not
// validate identifiers; it exists for documents built in code.
func ParseEndpoint(s string) Endpoint {
	path, anchor, _ := strings.Cut(s, "#")
	return Endpoint{Path: path, Anchor: anchor}
}

// AnchorName returns the referenced anchor, resolving the default.
func (e Endpoint) AnchorName() string {
	if e.Anchor == "" {
		return CenterAnchor
	}
	return e.Anchor
}

func (e Endpoint) String() string {
	if e.Anchor == "" {
		return e.Path
	}
	return e.Path + "#" + e.Anchor
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}
