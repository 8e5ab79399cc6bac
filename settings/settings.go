// Package settings loads the optional boxes.hcl file that tunes text
// measurement and SVG output.
//
//	measure {
//	  font_size   = 14
//	  line_height = 1.2
//	  char_width  = 0.6
//	}
//	output {
//	  padding = 10
//	}
//
// Every attribute is optional; missing ones keep their defaults. Values may
// refer to the built-in defaults, as in font_size = defaults.font_size * 2.
package settings

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/martinemde/boxes/layout"
	"github.com/martinemde/boxes/render"
)

// DefaultFile is the settings file looked up in the working directory.
const DefaultFile = "boxes.hcl"

// Settings is the resolved configuration.
type Settings struct {
	FontSize   float64
	LineHeight float64
	CharWidth  float64
	Padding    float64
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		FontSize:   layout.DefaultFontSize,
		LineHeight: layout.DefaultLineHeight,
		CharWidth:  layout.DefaultCharWidth,
		Padding:    render.DefaultOptions().Padding,
	}
}

// fileRoot mirrors the blocks allowed in a settings file.
type fileRoot struct {
	Measure *measureBlock `hcl:"measure,block"`
	Output  *outputBlock  `hcl:"output,block"`
}

type measureBlock struct {
	FontSize   *float64 `hcl:"font_size,optional"`
	LineHeight *float64 `hcl:"line_height,optional"`
	CharWidth  *float64 `hcl:"char_width,optional"`
}

type outputBlock struct {
	Padding *float64 `hcl:"padding,optional"`
}

// Load reads and decodes the file at path. A missing file is not an error
// when optional is true; the defaults are returned.
func Load(path string, optional bool) (Settings, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return Default(), nil
		}
		return Settings{}, fmt.Errorf("reading settings file: %w", err)
	}
	return Parse(src, path)
}

// Parse decodes settings from HCL source. filename is used in diagnostics.
func Parse(src []byte, filename string) (Settings, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Settings{}, fmt.Errorf("failed to parse settings file %s: %w", filename, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, evalContext(), &root)
	if diags.HasErrors() {
		return Settings{}, fmt.Errorf("failed to decode settings file %s: %w", filename, diags)
	}

	s := Default()
	diags = root.apply(&s, file)
	if diags.HasErrors() {
		return Settings{}, fmt.Errorf("invalid settings in %s: %w", filename, diags)
	}
	return s, nil
}

// evalContext exposes the built-in values as the "defaults" object.
func evalContext() *hcl.EvalContext {
	d := Default()
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"defaults": cty.ObjectVal(map[string]cty.Value{
				"font_size":   cty.NumberFloatVal(d.FontSize),
				"line_height": cty.NumberFloatVal(d.LineHeight),
				"char_width":  cty.NumberFloatVal(d.CharWidth),
				"padding":     cty.NumberFloatVal(d.Padding),
			}),
		},
	}
}

func (r *fileRoot) apply(s *Settings, file *hcl.File) hcl.Diagnostics {
	var diags hcl.Diagnostics
	set := func(dst *float64, v *float64, name string) {
		if v == nil {
			return
		}
		if *v <= 0 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid setting",
				Detail:   fmt.Sprintf("%s must be greater than zero, got %g.", name, *v),
				Subject:  file.Body.MissingItemRange().Ptr(),
			})
			return
		}
		*dst = *v
	}
	if m := r.Measure; m != nil {
		set(&s.FontSize, m.FontSize, "measure.font_size")
		set(&s.LineHeight, m.LineHeight, "measure.line_height")
		set(&s.CharWidth, m.CharWidth, "measure.char_width")
	}
	if o := r.Output; o != nil && o.Padding != nil {
		if *o.Padding < 0 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid setting",
				Detail:   fmt.Sprintf("output.padding must not be negative, got %g.", *o.Padding),
				Subject:  file.Body.MissingItemRange().Ptr(),
			})
		} else {
			s.Padding = *o.Padding
		}
	}
	return diags
}

// Encode writes s in the settings file format. Parse reads the result back
// to the same Settings.
func Encode(s Settings) []byte {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	measure := root.AppendNewBlock("measure", nil).Body()
	measure.SetAttributeValue("font_size", cty.NumberFloatVal(s.FontSize))
	measure.SetAttributeValue("line_height", cty.NumberFloatVal(s.LineHeight))
	measure.SetAttributeValue("char_width", cty.NumberFloatVal(s.CharWidth))

	root.AppendNewline()
	output := root.AppendNewBlock("output", nil).Body()
	output.SetAttributeValue("padding", cty.NumberFloatVal(s.Padding))

	return hclwrite.Format(f.Bytes())
}

// Engine builds a layout engine from the settings.
func (s Settings) Engine() *layout.Engine {
	m := layout.NewHeuristicMeasurer(
		layout.WithLineHeight(s.LineHeight),
		layout.WithCharWidth(s.CharWidth),
	)
	return layout.New(m, layout.WithFontSize(s.FontSize))
}

// Renderer builds an SVG renderer matching the settings.
func (s Settings) Renderer() *render.Renderer {
	return render.New(render.Options{
		Padding:    s.Padding,
		FontSize:   s.FontSize,
		LineHeight: s.LineHeight,
	})
}
