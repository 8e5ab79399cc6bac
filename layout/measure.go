package layout

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64
	Height float64
}

// Measurer reports how much room text needs. Implementations must be safe
// for concurrent use.
type Measurer interface {
	// Measure returns the extent of text at fontSize. Lines are split on
	// '\n'; empty text measures {0, 0}.
	Measure(text string, fontSize float64) Size
	// MinimumBoxSize is the smallest box a leaf node may have.
	MinimumBoxSize(fontSize float64) Size
}

const (
	DefaultLineHeight = 1.2
	DefaultCharWidth  = 0.6
)

// HeuristicMeasurer estimates text extents without font metrics: every
// rune is CharWidth×fontSize wide (East Asian wide runes count twice) and
// every line is LineHeight×fontSize tall.
type HeuristicMeasurer struct {
	LineHeight float64
	CharWidth  float64
}

// MeasurerOption configures a HeuristicMeasurer.
type MeasurerOption func(*HeuristicMeasurer)

// WithLineHeight sets the line height multiplier.
func WithLineHeight(mult float64) MeasurerOption {
	return func(m *HeuristicMeasurer) { m.LineHeight = mult }
}

// WithCharWidth sets the average glyph width as a fraction of font size.
func WithCharWidth(frac float64) MeasurerOption {
	return func(m *HeuristicMeasurer) { m.CharWidth = frac }
}

// NewHeuristicMeasurer returns a measurer with the default multipliers,
// adjusted by opts.
func NewHeuristicMeasurer(opts ...MeasurerOption) *HeuristicMeasurer {
	m := &HeuristicMeasurer{LineHeight: DefaultLineHeight, CharWidth: DefaultCharWidth}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Measure implements Measurer.
func (m *HeuristicMeasurer) Measure(text string, fontSize float64) Size {
	if text == "" {
		return Size{}
	}
	var size Size
	lineHeight := fontSize * m.LineHeight
	for _, line := range strings.Split(text, "\n") {
		size.Width = max(size.Width, float64(columns(line))*fontSize*m.CharWidth)
		size.Height += lineHeight
	}
	return size
}

// MinimumBoxSize implements Measurer: a square of side 2×fontSize.
func (m *HeuristicMeasurer) MinimumBoxSize(fontSize float64) Size {
	return Size{Width: fontSize * 2, Height: fontSize * 2}
}

// columns counts display columns in s.
func columns(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case unicode.In(r, unicode.Mn, unicode.Me, unicode.Cf):
			// combining and format runes take no space
		case isWide(r):
			n += 2
		default:
			n++
		}
	}
	return n
}

func isWide(r rune) bool {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	default:
		return false
	}
}
