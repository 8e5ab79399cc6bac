// Package render writes laid-out diagrams as standalone SVG documents.
package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/martinemde/boxes/boxdsl"
	"github.com/martinemde/boxes/layout"
)

// Options controls SVG output.
type Options struct {
	Padding    float64 // blank margin around the canvas
	FontSize   float64
	LineHeight float64 // multiplier, matches the measurer's
}

// DefaultOptions returns the options used by the CLI when nothing is set.
func DefaultOptions() Options {
	return Options{
		Padding:    10,
		FontSize:   layout.DefaultFontSize,
		LineHeight: layout.DefaultLineHeight,
	}
}

// Rendered is the output of one render.
type Rendered struct {
	SVG []byte
	// Skipped lists arrows left out because an endpoint had no geometry.
	Skipped []*boxdsl.Arrow
}

// Renderer turns a document and its layout into SVG.
type Renderer struct {
	opts Options
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Render draws every container (parents before children, so children paint
// on top), its label, and every arrow whose endpoints resolve. Arrows that
// do not resolve are omitted rather than failing the render.
func (r *Renderer) Render(doc *boxdsl.Document, res *layout.Result) *Rendered {
	pad := r.opts.Padding
	var buf bytes.Buffer

	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="%s %s %s %s">`+"\n",
		num(res.Canvas.Width+2*pad), num(res.Canvas.Height+2*pad),
		num(-pad), num(-pad), num(res.Canvas.Width+2*pad), num(res.Canvas.Height+2*pad))
	buf.WriteString(`<defs><marker id="arrowhead" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse"><path d="M 0 0 L 10 5 L 0 10 z"/></marker></defs>` + "\n")

	doc.Walk(func(path string, n *boxdsl.ContainerNode) {
		box, ok := res.Box(path)
		if !ok {
			return
		}
		fmt.Fprintf(&buf, `<rect id="%s" x="%s" y="%s" width="%s" height="%s" fill="white" stroke="black" stroke-width="1"/>`+"\n",
			escape(path), num(box.X), num(box.Y), num(box.Width), num(box.Height))
		if n.Label != "" {
			r.writeLabel(&buf, box, n.Label)
		}
	})

	out := &Rendered{}
	for _, a := range doc.Arrows {
		from, ok1 := res.Endpoint(a.Source)
		to, ok2 := res.Endpoint(a.Target)
		if !ok1 || !ok2 {
			out.Skipped = append(out.Skipped, a)
			continue
		}
		fmt.Fprintf(&buf, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="black" stroke-width="1" marker-end="url(#arrowhead)"/>`+"\n",
			num(from.X), num(from.Y), num(to.X), num(to.Y))
	}

	buf.WriteString("</svg>\n")
	out.SVG = buf.Bytes()
	return out
}

func (r *Renderer) writeLabel(buf *bytes.Buffer, box layout.Rect, label string) {
	lines := strings.Split(label, "\n")
	lineHeight := r.opts.FontSize * r.opts.LineHeight
	cx := box.X + box.Width/2
	firstY := box.Y + box.Height/2 - lineHeight*float64(len(lines)-1)/2

	fmt.Fprintf(buf, `<text x="%s" y="%s" font-family="sans-serif" font-size="%s" text-anchor="middle" dominant-baseline="central">`,
		num(cx), num(firstY), num(r.opts.FontSize))
	for i, line := range lines {
		dy := "0"
		if i > 0 {
			dy = num(lineHeight)
		}
		fmt.Fprintf(buf, `<tspan x="%s" dy="%s">%s</tspan>`, num(cx), dy, escape(line))
	}
	buf.WriteString("</text>\n")
}

func num(f float64) string {
	if f == 0 {
		return "0" // also covers -0
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
