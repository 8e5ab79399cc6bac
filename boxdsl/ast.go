package boxdsl

// Position tracks a source location for error messages.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
	Offset int // 0-based byte offset into source
}

// Direction governs how a node packs its children.
type Direction string

const (
	Vertical   Direction = "vertical"
	Horizontal Direction = "horizontal"
)

// Child is one entry in a node body: either a *ContainerNode or a *GroupNode.
// Traversals switch on the concrete type.
type Child interface {
	Direction() Direction
	Children() []Child
	isChild()
}

// Point is a relative anchor coordinate inside a box.
type Point struct {
	X float64
	Y float64
}

// Anchor is a named relative position within a container box.
type Anchor struct {
	Name string
	At   Point
	Pos  Position
}

// ContainerNode is a visible box addressable by its ID.
type ContainerNode struct {
	ID    string
	Label string // may contain newlines; empty means no label
	Dir   Direction
	// Size, when non-nil, scales the dimension orthogonal to Dir.
	Size    *float64
	Anchors []Anchor // declaration order, names unique
	Items   []Child
	Pos     Position
}

func (*ContainerNode) isChild() {}

// Direction returns the packing direction, defaulting to vertical.
func (n *ContainerNode) Direction() Direction {
	if n.Dir == "" {
		return Vertical
	}
	return n.Dir
}

// Children returns the node's body entries in declaration order.
func (n *ContainerNode) Children() []Child { return n.Items }

// Anchor looks up a declared anchor by name. The implicit center anchor is
// not stored and is not returned here; see HasAnchor.
func (n *ContainerNode) Anchor(name string) (Anchor, bool) {
	for _, a := range n.Anchors {
		if a.Name == name {
			return a, true
		}
	}
	return Anchor{}, false
}

// HasAnchor reports whether name can be referenced on this node, including
// the implicit center anchor.
func (n *ContainerNode) HasAnchor(name string) bool {
	if name == CenterAnchor {
		return true
	}
	_, ok := n.Anchor(name)
	return ok
}

// GroupNode applies a direction to a subset of siblings without creating a
// box or a scope.
type GroupNode struct {
	Dir   Direction
	Items []Child
	Pos   Position
}

func (*GroupNode) isChild() {}

// Direction returns the packing direction, defaulting to vertical.
func (g *GroupNode) Direction() Direction {
	if g.Dir == "" {
		return Vertical
	}
	return g.Dir
}

// Children returns the group's entries in declaration order.
func (g *GroupNode) Children() []Child { return g.Items }

// Arrow connects two node endpoints.
type Arrow struct {
	Source Endpoint
	Target Endpoint
	Pos    Position
}

// Document is the complete parsed representation of a diagram.
type Document struct {
	Nodes  []*ContainerNode // top-level nodes in declaration order
	Arrows []*Arrow
}

// NodeByPath resolves a dotted node path, looking through groups.
// Returns nil if any segment is missing.
func (d *Document) NodeByPath(path string) *ContainerNode {
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil
	}
	var current *ContainerNode
	for _, n := range d.Nodes {
		if n.ID == segments[0] {
			current = n
			break
		}
	}
	for _, seg := range segments[1:] {
		if current == nil {
			return nil
		}
		current = findChild(current.Items, seg)
	}
	return current
}

// Walk visits every container in pre-order with its dotted path.
func (d *Document) Walk(fn func(path string, n *ContainerNode)) {
	for _, n := range d.Nodes {
		walkContainer(n.ID, n, fn)
	}
}

func walkContainer(path string, n *ContainerNode, fn func(string, *ContainerNode)) {
	fn(path, n)
	walkItems(path, n.Items, fn)
}

func walkItems(parent string, items []Child, fn func(string, *ContainerNode)) {
	for _, item := range items {
		switch c := item.(type) {
		case *ContainerNode:
			walkContainer(parent+"."+c.ID, c, fn)
		case *GroupNode:
			walkItems(parent, c.Items, fn)
		}
	}
}

// findChild searches items for a container with the given ID, descending
// into groups since they are invisible in addressing.
func findChild(items []Child, id string) *ContainerNode {
	for _, item := range items {
		switch c := item.(type) {
		case *ContainerNode:
			if c.ID == id {
				return c
			}
		case *GroupNode:
			if found := findChild(c.Items, id); found != nil {
				return found
			}
		}
	}
	return nil
}
