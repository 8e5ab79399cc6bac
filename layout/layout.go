// Package layout turns a parsed diagram into absolute pixel geometry.
//
// Layout runs in two passes over each top-level node. The first pass walks
// the tree bottom-up and sizes every container and group from its label or
// its children. The second pass walks top-down and assigns positions, with
// top-level nodes tiled left to right from the origin. The parsed tree is
// never modified; all geometry lives in the returned Result.
package layout

import (
	"strconv"

	"github.com/martinemde/boxes/boxdsl"
)

const (
	DefaultFontSize    = 14
	DefaultBorderWidth = 1
)

// Rect is an absolute box in pixels.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Point is an absolute position in pixels.
type Point struct {
	X float64
	Y float64
}

// Result holds the geometry computed for one document. Boxes and Anchors
// are keyed by dotted node path (for top-level nodes the path is the ID).
type Result struct {
	Boxes   map[string]Rect
	Anchors map[string]map[string]Point
	Canvas  Size
}

// Box returns the box computed for the node at path.
func (r *Result) Box(path string) (Rect, bool) {
	b, ok := r.Boxes[path]
	return b, ok
}

// Anchor returns the absolute position of a named anchor on the node at
// path. Every laid-out node has the "center" anchor.
func (r *Result) Anchor(path, name string) (Point, bool) {
	pt, ok := r.Anchors[path][name]
	return pt, ok
}

// Endpoint resolves an arrow endpoint to an absolute point.
func (r *Result) Endpoint(ep boxdsl.Endpoint) (Point, bool) {
	return r.Anchor(ep.Path, ep.AnchorName())
}

// Engine computes layouts. It holds only configuration, so one Engine can
// serve concurrent Compute calls.
type Engine struct {
	measurer    Measurer
	fontSize    float64
	borderWidth float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithFontSize sets the label font size in pixels.
func WithFontSize(size float64) Option {
	return func(e *Engine) { e.fontSize = size }
}

// WithBorderWidth sets the border added on each side of a leaf label.
func WithBorderWidth(w float64) Option {
	return func(e *Engine) { e.borderWidth = w }
}

// New creates an Engine that measures labels with m.
func New(m Measurer, opts ...Option) *Engine {
	e := &Engine{
		measurer:    m,
		fontSize:    DefaultFontSize,
		borderWidth: DefaultBorderWidth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Default returns an Engine with a default HeuristicMeasurer and the
// default font size and border.
func Default() *Engine {
	return New(NewHeuristicMeasurer())
}

// FontSize returns the font size the engine lays labels out with.
func (e *Engine) FontSize() float64 { return e.fontSize }

// Compute lays out doc. It does not validate: unresolvable arrows and
// out-of-range anchors are simply absent from the result.
func (e *Engine) Compute(doc *boxdsl.Document) *Result {
	res := &Result{
		Boxes:   make(map[string]Rect),
		Anchors: make(map[string]map[string]Point),
	}
	if doc == nil {
		return res
	}

	p := &pass{engine: e, frames: make(map[nodeKey]*frame)}

	var offset float64
	for i, n := range doc.Nodes {
		k := rootKey(i)
		p.size(n, k)
		p.place(n, k, offset, 0)

		f := p.frames[k]
		offset += f.w
		res.Canvas.Width = max(res.Canvas.Width, f.x+f.w)
		res.Canvas.Height = max(res.Canvas.Height, f.y+f.h)
	}

	for i, n := range doc.Nodes {
		p.collect(res, n.ID, n, rootKey(i))
	}
	return res
}

// nodeKey identifies a node within one layout pass by its child indexes
// from the document root, e.g. "0/2/1". Groups get keys too, so the side
// table covers every node without relying on IDs.
type nodeKey string

func rootKey(i int) nodeKey {
	return nodeKey(strconv.Itoa(i))
}

func (k nodeKey) child(i int) nodeKey {
	return nodeKey(string(k) + "/" + strconv.Itoa(i))
}

type frame struct {
	x, y, w, h float64
}

// pass is the mutable state of one Compute call.
type pass struct {
	engine *Engine
	frames map[nodeKey]*frame
}

// size computes the extent of c and all its descendants, post-order.
func (p *pass) size(c boxdsl.Child, k nodeKey) *frame {
	f := &frame{}
	p.frames[k] = f

	container, isContainer := c.(*boxdsl.ContainerNode)
	children := c.Children()

	if len(children) == 0 {
		if isContainer {
			p.sizeLeaf(container, f)
		}
		p.applySize(container, f)
		return f
	}

	kids := make([]*frame, len(children))
	for i, child := range children {
		kids[i] = p.size(child, k.child(i))
	}

	horizontal := c.Direction() == boxdsl.Horizontal
	for _, kf := range kids {
		if horizontal {
			f.w += kf.w
			f.h = max(f.h, kf.h)
		} else {
			f.h += kf.h
			f.w = max(f.w, kf.w)
		}
	}

	// Containers stretch their direct children across the cross axis.
	// Groups pass their children's sizes through unchanged.
	if isContainer {
		for _, kf := range kids {
			if horizontal {
				kf.h = f.h
			} else {
				kf.w = f.w
			}
		}
	}

	p.applySize(container, f)
	return f
}

func (p *pass) sizeLeaf(n *boxdsl.ContainerNode, f *frame) {
	e := p.engine
	text := e.measurer.Measure(n.Label, e.fontSize)
	minimum := e.measurer.MinimumBoxSize(e.fontSize)
	f.w = max(text.Width+2*e.borderWidth, minimum.Width)
	f.h = max(text.Height+2*e.borderWidth, minimum.Height)
}

// applySize scales the cross-axis extent of a container that sets size.
// Children have already been stretched to the unscaled extent and keep it,
// which produces the inset effect.
func (p *pass) applySize(n *boxdsl.ContainerNode, f *frame) {
	if n == nil || n.Size == nil {
		return
	}
	if n.Direction() == boxdsl.Horizontal {
		f.h *= *n.Size
	} else {
		f.w *= *n.Size
	}
}

// place assigns absolute positions to c and its descendants, pre-order.
func (p *pass) place(c boxdsl.Child, k nodeKey, x, y float64) {
	f := p.frames[k]
	f.x, f.y = x, y

	horizontal := c.Direction() == boxdsl.Horizontal
	for i, child := range c.Children() {
		ck := k.child(i)
		p.place(child, ck, x, y)
		if horizontal {
			x += p.frames[ck].w
		} else {
			y += p.frames[ck].h
		}
	}
}

// collect copies container geometry into res and resolves anchors. When a
// path is declared twice (a duplicate ID), the first declaration wins, the
// same one boxdsl.Document.NodeByPath resolves.
func (p *pass) collect(res *Result, path string, n *boxdsl.ContainerNode, k nodeKey) {
	if _, seen := res.Boxes[path]; !seen {
		f := p.frames[k]
		box := Rect{X: f.x, Y: f.y, Width: f.w, Height: f.h}
		res.Boxes[path] = box
		res.Anchors[path] = resolveAnchors(box, n.Anchors)
	}
	p.collectItems(res, path, n.Items, k)
}

func (p *pass) collectItems(res *Result, parent string, items []boxdsl.Child, k nodeKey) {
	for i, item := range items {
		switch c := item.(type) {
		case *boxdsl.ContainerNode:
			p.collect(res, parent+"."+c.ID, c, k.child(i))
		case *boxdsl.GroupNode:
			p.collectItems(res, parent, c.Items, k.child(i))
		}
	}
}

func resolveAnchors(box Rect, anchors []boxdsl.Anchor) map[string]Point {
	points := map[string]Point{
		boxdsl.CenterAnchor: box.at(0.5, 0.5),
	}
	for _, a := range anchors {
		if !inUnitRange(a.At.X) || !inUnitRange(a.At.Y) {
			continue
		}
		points[a.Name] = box.at(a.At.X, a.At.Y)
	}
	return points
}

func (r Rect) at(relX, relY float64) Point {
	return Point{X: r.X + r.Width*relX, Y: r.Y + r.Height*relY}
}

func inUnitRange(f float64) bool {
	return f >= 0 && f <= 1
}
