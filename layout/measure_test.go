package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const epsilon = 1e-9

func TestHeuristicMeasurerSingleLine(t *testing.T) {
	m := NewHeuristicMeasurer()
	size := m.Measure("Hello world", 12)
	assert.InDelta(t, 11*12*0.6, size.Width, epsilon)
	assert.InDelta(t, 12*1.2, size.Height, epsilon)
}

func TestHeuristicMeasurerMultiLine(t *testing.T) {
	m := NewHeuristicMeasurer()
	size := m.Measure("ab\nabcd\n", 10)
	assert.InDelta(t, 4*10*0.6, size.Width, epsilon)
	// The trailing newline opens a third, empty line.
	assert.InDelta(t, 3*10*1.2, size.Height, epsilon)
}

func TestHeuristicMeasurerEmpty(t *testing.T) {
	assert.Equal(t, Size{}, NewHeuristicMeasurer().Measure("", 14))
}

func TestHeuristicMeasurerWideRunes(t *testing.T) {
	m := NewHeuristicMeasurer()
	narrow := m.Measure("ab", 10)
	wide := m.Measure("日本", 10)
	assert.InDelta(t, 2*narrow.Width, wide.Width, epsilon)
}

func TestHeuristicMeasurerCombiningMarks(t *testing.T) {
	m := NewHeuristicMeasurer()
	// "e" followed by a combining acute accent renders as one column.
	assert.InDelta(t, m.Measure("e", 10).Width, m.Measure("e\u0301", 10).Width, epsilon)
}

func TestHeuristicMeasurerOptions(t *testing.T) {
	m := NewHeuristicMeasurer(WithCharWidth(1), WithLineHeight(2))
	size := m.Measure("abc", 10)
	assert.InDelta(t, 30, size.Width, epsilon)
	assert.InDelta(t, 20, size.Height, epsilon)
}

func TestHeuristicMeasurerMinimumBoxSize(t *testing.T) {
	assert.Equal(t, Size{Width: 24, Height: 24}, NewHeuristicMeasurer().MinimumBoxSize(12))
}

func TestColumns(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 3},
		{"日本語", 6},
		{"ｱ", 1},
		{"Ａ", 2},
		{"a\u200bb", 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, columns(tt.in), "input: %q", tt.in)
	}
}
