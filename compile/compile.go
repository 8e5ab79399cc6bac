// Package compile runs the full boxes pipeline for one source document:
// tokenize, parse, validate, lay out and render.
package compile

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/martinemde/boxes/boxdsl"
	"github.com/martinemde/boxes/layout"
	"github.com/martinemde/boxes/render"
)

// Stage names one step of the pipeline.
type Stage string

const (
	StageTokenize Stage = "tokenize"
	StageParse    Stage = "parse"
	StageValidate Stage = "validate"
	StageLayout   Stage = "layout"
	StageRender   Stage = "render"
)

// Config holds the collaborators for a run. Zero fields get defaults:
// layout.Default(), a renderer with render.DefaultOptions(), a logger that
// discards output, and no event listeners.
type Config struct {
	Name     string // source name used in logs and events
	Engine   *layout.Engine
	Renderer *render.Renderer
	Logger   *slog.Logger
	Events   *EventEmitter
	// RenderOnError lays out and renders the partial document even when
	// diagnostics were found.
	RenderOnError bool
}

// Result is everything a run produced. Document is always non-nil.
type Result struct {
	RunID       string
	Document    *boxdsl.Document
	Diagnostics boxdsl.Errors
	Layout      *layout.Result   // nil if the run stopped before layout
	Output      *render.Rendered // nil if the run stopped before rendering
}

// DiagnosticsError is returned when the source has any diagnostics.
type DiagnosticsError struct {
	Name        string
	Diagnostics boxdsl.Errors
}

func (e *DiagnosticsError) Error() string {
	name := e.Name
	if name == "" {
		name = "input"
	}
	return fmt.Sprintf("%s: %d problem(s) found", name, len(e.Diagnostics))
}

func (e *DiagnosticsError) Unwrap() error { return e.Diagnostics }

// Run compiles src. The Result is returned even when err is non-nil, so
// callers can show diagnostics next to whatever structure was recovered.
func Run(src []byte, cfg Config) (*Result, error) {
	return newRunner(cfg, false).run(src)
}

// Check tokenizes, parses and validates src without laying it out.
func Check(src []byte, cfg Config) (*Result, error) {
	return newRunner(cfg, true).run(src)
}

func newRunner(cfg Config, checkOnly bool) *runner {
	cfg = withDefaults(cfg)
	r := &runner{cfg: cfg, runID: uuid.NewString(), checkOnly: checkOnly}
	r.log = cfg.Logger.With("run_id", r.runID, "source", cfg.Name)
	return r
}

func withDefaults(cfg Config) Config {
	if cfg.Engine == nil {
		cfg.Engine = layout.Default()
	}
	if cfg.Renderer == nil {
		cfg.Renderer = render.New(render.DefaultOptions())
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return cfg
}

type runner struct {
	cfg       Config
	runID     string
	log       *slog.Logger
	checkOnly bool
}

func (r *runner) run(src []byte) (*Result, error) {
	start := time.Now()
	r.cfg.Events.Emit(CompileStartedEvent(r.cfg.Name, r.runID))
	r.log.Debug("Compile started.", "bytes", len(src))

	res := &Result{RunID: r.runID, Document: &boxdsl.Document{}}

	var tokens []boxdsl.Token
	var lexErr error
	r.stage(StageTokenize, func() int {
		tokens, lexErr = boxdsl.Tokenize(src)
		if lexErr != nil {
			var le *boxdsl.LexError
			if errors.As(lexErr, &le) {
				res.Diagnostics = append(res.Diagnostics, le.AsError())
			}
			return 1
		}
		r.log.Debug("Tokenized.", "tokens", len(tokens))
		return 0
	})
	if lexErr != nil {
		return res, r.fail(res, lexErr)
	}

	r.stage(StageParse, func() int {
		var errs boxdsl.Errors
		res.Document, errs = boxdsl.Parse(tokens)
		res.Diagnostics = append(res.Diagnostics, errs...)
		return len(errs)
	})

	r.stage(StageValidate, func() int {
		before := len(res.Diagnostics)
		res.Diagnostics = dedupe(append(res.Diagnostics, boxdsl.Validate(res.Document)...))
		return len(res.Diagnostics) - before
	})

	if len(res.Diagnostics) > 0 && (r.checkOnly || !r.cfg.RenderOnError) {
		return res, r.fail(res, nil)
	}
	if r.checkOnly {
		r.complete(res, start)
		return res, nil
	}

	r.stage(StageLayout, func() int {
		res.Layout = r.cfg.Engine.Compute(res.Document)
		r.log.Debug("Layout computed.", "boxes", len(res.Layout.Boxes),
			"canvas_width", res.Layout.Canvas.Width, "canvas_height", res.Layout.Canvas.Height)
		return 0
	})

	r.stage(StageRender, func() int {
		res.Output = r.cfg.Renderer.Render(res.Document, res.Layout)
		for _, a := range res.Output.Skipped {
			r.log.Warn("Arrow omitted: endpoint has no geometry.",
				"arrow_source", a.Source.String(), "arrow_target", a.Target.String())
		}
		return 0
	})

	if len(res.Diagnostics) > 0 {
		return res, r.fail(res, nil)
	}

	r.complete(res, start)
	return res, nil
}

func (r *runner) complete(res *Result, start time.Time) {
	skipped := 0
	if res.Output != nil {
		skipped = len(res.Output.Skipped)
	}
	r.cfg.Events.Emit(CompileCompletedEvent(r.runID, time.Since(start), countNodes(res.Document), len(res.Document.Arrows), skipped))
	r.log.Info("Compile completed.", "duration", time.Since(start), "skipped_arrows", skipped)
}

// stage runs fn, timing it and emitting events. fn returns the number of
// diagnostics it added.
func (r *runner) stage(stage Stage, fn func() int) {
	r.cfg.Events.Emit(StageStartedEvent(stage))
	start := time.Now()
	n := fn()
	if n > 0 {
		r.cfg.Events.Emit(StageFailedEvent(stage, fmt.Sprintf("%d diagnostic(s)", n), n))
		r.log.Debug("Stage reported diagnostics.", "stage", stage, "count", n)
		return
	}
	r.cfg.Events.Emit(StageCompletedEvent(stage, time.Since(start)))
	r.log.Debug("Stage completed.", "stage", stage, "duration", time.Since(start))
}

func (r *runner) fail(res *Result, cause error) error {
	err := &DiagnosticsError{Name: r.cfg.Name, Diagnostics: res.Diagnostics}
	msg := err.Error()
	if cause != nil {
		msg = cause.Error()
	}
	r.cfg.Events.Emit(CompileFailedEvent(r.runID, msg, len(res.Diagnostics)))
	r.log.Info("Compile failed.", "diagnostics", len(res.Diagnostics))
	return err
}

// dedupe drops diagnostics reported twice, which happens for anchor ranges
// checked by both the parser and the validator.
func dedupe(errs boxdsl.Errors) boxdsl.Errors {
	type key struct {
		kind boxdsl.ErrorKind
		msg  string
		pos  boxdsl.Position
	}
	seen := make(map[key]bool, len(errs))
	out := errs[:0:0]
	for _, e := range errs {
		k := key{e.Kind, e.Message, e.Pos}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}

func countNodes(doc *boxdsl.Document) int {
	n := 0
	doc.Walk(func(string, *boxdsl.ContainerNode) { n++ })
	return n
}

// Format renders diagnostics one per line as name:line:col: kind: message.
func Format(name string, diags boxdsl.Errors) string {
	var b strings.Builder
	for _, d := range diags {
		if d.Pos.Line > 0 {
			fmt.Fprintf(&b, "%s:%d:%d: %s: %s\n", name, d.Pos.Line, d.Pos.Column, d.Kind, d.Message)
		} else {
			fmt.Fprintf(&b, "%s: %s: %s\n", name, d.Kind, d.Message)
		}
	}
	return b.String()
}
