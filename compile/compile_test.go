package compile

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/martinemde/boxes/boxdsl"
)

const twoNodes = `a { label: "A" }
b { label: "B" }
a --> b
`

// recorder collects events for assertions.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func newRecorder() (*recorder, *EventEmitter) {
	rec := &recorder{}
	em := NewEventEmitter()
	em.On(rec.listen)
	return rec, em
}

func TestRunSuccess(t *testing.T) {
	res, err := Run([]byte(twoNodes), Config{Name: "two.boxes"})
	require.NoError(t, err)

	_, perr := uuid.Parse(res.RunID)
	assert.NoError(t, perr, "run ID should be a UUID")
	assert.Empty(t, res.Diagnostics)
	require.Len(t, res.Document.Nodes, 2)

	require.NotNil(t, res.Layout)
	a, ok := res.Layout.Box("a")
	require.True(t, ok)
	b, ok := res.Layout.Box("b")
	require.True(t, ok)
	assert.Equal(t, a.Width, b.X)

	require.NotNil(t, res.Output)
	assert.Empty(t, res.Output.Skipped)
	assert.Contains(t, string(res.Output.SVG), "<svg")
	assert.Contains(t, string(res.Output.SVG), "<line")
}

func TestRunEmitsStageEvents(t *testing.T) {
	rec, em := newRecorder()
	_, err := Run([]byte(twoNodes), Config{Events: em})
	require.NoError(t, err)

	expected := []EventType{EventCompileStarted}
	for range []Stage{StageTokenize, StageParse, StageValidate, StageLayout, StageRender} {
		expected = append(expected, EventStageStarted, EventStageCompleted)
	}
	expected = append(expected, EventCompileCompleted)
	assert.Equal(t, expected, rec.types())

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, 2, last.Data["node_count"])
	assert.Equal(t, 1, last.Data["arrow_count"])
	assert.Equal(t, 0, last.Data["skipped_arrows"])
}

func TestRunStopsOnDiagnostics(t *testing.T) {
	rec, em := newRecorder()
	res, err := Run([]byte("a { }\na --> missing"), Config{Name: "bad.boxes", Events: em})
	require.Error(t, err)

	var diagErr *DiagnosticsError
	require.True(t, errors.As(err, &diagErr))
	assert.Equal(t, "bad.boxes: 1 problem(s) found", diagErr.Error())

	var errs boxdsl.Errors
	require.True(t, errors.As(err, &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, boxdsl.KindReference, errs[0].Kind)

	assert.Len(t, res.Document.Nodes, 1, "partial document is still returned")
	assert.Nil(t, res.Layout)
	assert.Nil(t, res.Output)

	types := rec.types()
	assert.Equal(t, EventCompileFailed, types[len(types)-1])
	assert.Contains(t, types, EventStageFailed)
	assert.NotContains(t, types, EventCompileCompleted)
}

func TestRunRenderOnError(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))

	res, err := Run([]byte("a { }\na --> missing"), Config{Logger: logger, RenderOnError: true})
	require.Error(t, err)

	require.NotNil(t, res.Output)
	require.Len(t, res.Output.Skipped, 1)
	assert.Equal(t, "missing", res.Output.Skipped[0].Target.Path)
	assert.Contains(t, string(res.Output.SVG), `<rect id="a"`)
	assert.NotContains(t, string(res.Output.SVG), "<line")

	assert.Contains(t, logs.String(), "Arrow omitted")
	assert.Contains(t, logs.String(), "arrow_target=missing")
	assert.Contains(t, logs.String(), "run_id="+res.RunID)
}

func TestRunLexError(t *testing.T) {
	rec, em := newRecorder()
	res, err := Run([]byte("a { size: -0.1 }"), Config{Events: em})
	require.Error(t, err)

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, boxdsl.KindSyntax, res.Diagnostics[0].Kind)
	assert.Equal(t, "unexpected character '-'", res.Diagnostics[0].Message)
	assert.NotNil(t, res.Document)
	assert.Empty(t, res.Document.Nodes)

	assert.Equal(t, []EventType{
		EventCompileStarted, EventStageStarted, EventStageFailed, EventCompileFailed,
	}, rec.types())
	assert.Contains(t, rec.events[3].Data["error"], "unexpected character '-'")
}

func TestRunDeduplicatesRangeDiagnostics(t *testing.T) {
	res, err := Run([]byte("a { anchors: { p: [2, 0] } }"), Config{})
	require.Error(t, err)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, boxdsl.KindConstraint, res.Diagnostics[0].Kind)
}

func TestRunCollectsAllStages(t *testing.T) {
	res, err := Run([]byte("a { direction: \"up\" }\na { }\na --> b"), Config{})
	require.Error(t, err)
	kinds := make([]boxdsl.ErrorKind, len(res.Diagnostics))
	for i, d := range res.Diagnostics {
		kinds[i] = d.Kind
	}
	assert.Equal(t, []boxdsl.ErrorKind{boxdsl.KindSyntax, boxdsl.KindReference, boxdsl.KindReference}, kinds)
}

func TestCheck(t *testing.T) {
	rec, em := newRecorder()
	res, err := Check([]byte(twoNodes), Config{Events: em})
	require.NoError(t, err)
	assert.Nil(t, res.Layout)
	assert.Nil(t, res.Output)

	assert.Equal(t, []EventType{
		EventCompileStarted,
		EventStageStarted, EventStageCompleted,
		EventStageStarted, EventStageCompleted,
		EventStageStarted, EventStageCompleted,
		EventCompileCompleted,
	}, rec.types())
}

func TestCheckIgnoresRenderOnError(t *testing.T) {
	res, err := Check([]byte("x --> y"), Config{RenderOnError: true})
	require.Error(t, err)
	assert.Len(t, res.Diagnostics, 2)
	assert.Nil(t, res.Output)
}

func TestRunLogsWithRunID(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	res, err := Run([]byte(twoNodes), Config{Name: "two.boxes", Logger: logger})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.Contains(t, line, `"run_id":"`+res.RunID+`"`)
		assert.Contains(t, line, `"source":"two.boxes"`)
	}
	assert.Contains(t, logs.String(), "Compile completed.")
}

func TestRunIDsAreUnique(t *testing.T) {
	r1, err := Run([]byte(""), Config{})
	require.NoError(t, err)
	r2, err := Run([]byte(""), Config{})
	require.NoError(t, err)
	assert.NotEqual(t, r1.RunID, r2.RunID)
}

func TestRunConcurrentDocuments(t *testing.T) {
	cfg := Config{}
	var g errgroup.Group
	results := make([]*Result, 16)
	for i := range results {
		g.Go(func() error {
			src := fmt.Sprintf("n%d { label: \"node %d\" }\nm { }\nn%d --> m", i, i, i)
			res, err := Run([]byte(src), cfg)
			results[i] = res
			return err
		})
	}
	require.NoError(t, g.Wait())

	for i, res := range results {
		_, ok := res.Layout.Box(fmt.Sprintf("n%d", i))
		assert.True(t, ok, "result %d", i)
	}
}

func TestFormat(t *testing.T) {
	diags := boxdsl.Errors{
		{Kind: boxdsl.KindSyntax, Message: "bad thing", Pos: boxdsl.Position{Line: 2, Column: 5}},
		{Kind: boxdsl.KindConstraint, Message: "no position"},
	}
	assert.Equal(t, "d.boxes:2:5: syntax: bad thing\nd.boxes: constraint: no position\n", Format("d.boxes", diags))
	assert.Equal(t, "", Format("d.boxes", nil))
}

func TestDiagnosticsErrorDefaultName(t *testing.T) {
	err := &DiagnosticsError{Diagnostics: boxdsl.Errors{{Message: "x"}}}
	assert.Equal(t, "input: 1 problem(s) found", err.Error())
}
