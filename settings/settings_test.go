package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinemde/boxes/boxdsl"
	"github.com/martinemde/boxes/layout"
)

func TestParseFullFile(t *testing.T) {
	s, err := Parse([]byte(`
measure {
  font_size   = 12
  line_height = 1.5
  char_width  = 0.5
}

output {
  padding = 0
}
`), "boxes.hcl")
	require.NoError(t, err)
	assert.Equal(t, Settings{FontSize: 12, LineHeight: 1.5, CharWidth: 0.5, Padding: 0}, s)
}

func TestParsePartialFileKeepsDefaults(t *testing.T) {
	s, err := Parse([]byte("measure {\n  font_size = 20\n}\n"), "boxes.hcl")
	require.NoError(t, err)

	want := Default()
	want.FontSize = 20
	assert.Equal(t, want, s)
}

func TestParseReferencesDefaults(t *testing.T) {
	s, err := Parse([]byte("measure {\n  font_size = defaults.font_size * 2\n}\noutput {\n  padding = defaults.padding / 2\n}\n"), "boxes.hcl")
	require.NoError(t, err)
	assert.Equal(t, 28.0, s.FontSize)
	assert.Equal(t, 5.0, s.Padding)
}

func TestParseUnknownVariable(t *testing.T) {
	_, err := Parse([]byte("measure {\n  font_size = base * 2\n}\n"), "boxes.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode settings file")
}

func TestParseEmptyFile(t *testing.T) {
	s, err := Parse(nil, "boxes.hcl")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", "measure {", "failed to parse settings file"},
		{"unknown block", "theme {\n}\n", "failed to decode settings file"},
		{"unknown attribute", "measure {\n  colour = 1\n}\n", "failed to decode settings file"},
		{"wrong type", "measure {\n  font_size = \"big\"\n}\n", "failed to decode settings file"},
		{"zero font size", "measure {\n  font_size = 0\n}\n", "measure.font_size must be greater than zero"},
		{"negative padding", "output {\n  padding = -1\n}\n", "output.padding must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "boxes.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, s := range []Settings{
		Default(),
		{FontSize: 12, LineHeight: 1.5, CharWidth: 0.55, Padding: 0},
	} {
		src := Encode(s)
		assert.Contains(t, string(src), "measure {")
		assert.Contains(t, string(src), "output {")

		got, err := Parse(src, "encoded.hcl")
		require.NoError(t, err, "source:\n%s", src)
		assert.Equal(t, s, got)
	}
}

func TestLoadMissingOptionalFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), DefaultFile), true)
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadMissingRequiredFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.hcl"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading settings file")
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte("output {\n  padding = 4\n}\n"), 0o644))

	s, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, 4.0, s.Padding)
}

func TestDefaults(t *testing.T) {
	s := Default()
	assert.Equal(t, float64(layout.DefaultFontSize), s.FontSize)
	assert.Equal(t, layout.DefaultLineHeight, s.LineHeight)
	assert.Equal(t, layout.DefaultCharWidth, s.CharWidth)
	assert.Equal(t, 10.0, s.Padding)
}

func TestEngineUsesSettings(t *testing.T) {
	s := Default()
	s.FontSize = 10
	s.CharWidth = 1
	s.LineHeight = 1

	e := s.Engine()
	assert.Equal(t, 10.0, e.FontSize())

	doc, _, err := boxdsl.ParseSource([]byte(`a { label: "abcdefghij" }`))
	require.NoError(t, err)
	box, ok := e.Compute(doc).Box("a")
	require.True(t, ok)
	// Ten columns at 10px plus the border on both sides; the height is
	// raised to the 2×font-size minimum.
	assert.Equal(t, layout.Rect{Width: 102, Height: 20}, box)
}

func TestRendererUsesSettings(t *testing.T) {
	s := Default()
	s.Padding = 0
	out := s.Renderer().Render(&boxdsl.Document{}, &layout.Result{})
	assert.Contains(t, string(out.SVG), `viewBox="0 0 0 0"`)
}
