package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/martinemde/boxes/compile"
)

// errProblems is returned when any input had diagnostics.
var errProblems = errors.New("problems found")

func newRenderCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <file.boxes>...",
		Short: "Compile diagrams to SVG",
		Long:  "Parse, validate and lay out each file, writing <name>.svg next to it.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, v, args)
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output path for a single input ('-' for stdout)")
	cmd.Flags().Bool("force", false, "Render the recovered part of a diagram even if it has problems")
	cmd.Flags().IntP("jobs", "j", runtime.GOMAXPROCS(0), "Number of files compiled concurrently")

	_ = v.BindPFlag("jobs", cmd.Flags().Lookup("jobs"))
	return cmd
}

// fileResult is the outcome for one input, printed after all files finish
// so output order matches argument order.
type fileResult struct {
	name        string
	diagnostics string
	wrote       string
	err         error
}

func runRender(cmd *cobra.Command, v *viper.Viper, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	force, _ := cmd.Flags().GetBool("force")
	if output != "" && len(args) > 1 {
		return fmt.Errorf("--output can only be used with a single input file")
	}

	s, err := loadSettings(v)
	if err != nil {
		return err
	}
	stderr := &lockedWriter{w: cmd.ErrOrStderr()}
	logger, err := newLogger(v, stderr)
	if err != nil {
		return err
	}
	events := compile.NewEventEmitter()
	if v.GetBool("verbose") {
		events.On(progressListener(stderr))
	}

	engine := s.Engine()
	renderer := s.Renderer()
	results := make([]fileResult, len(args))

	var g errgroup.Group
	g.SetLimit(max(1, v.GetInt("jobs")))
	for i, path := range args {
		g.Go(func() error {
			r := &results[i]
			r.name = path

			src, err := os.ReadFile(path)
			if err != nil {
				r.err = fmt.Errorf("reading diagram: %w", err)
				return nil
			}

			res, err := compile.Run(src, compile.Config{
				Name:          path,
				Engine:        engine,
				Renderer:      renderer,
				Logger:        logger,
				Events:        events,
				RenderOnError: force,
			})
			r.diagnostics = compile.Format(path, res.Diagnostics)
			if err != nil {
				r.err = errProblems
			}
			if res.Output == nil {
				return nil
			}

			dest := output
			if dest == "" {
				dest = strings.TrimSuffix(path, filepath.Ext(path)) + ".svg"
			}
			if dest == "-" {
				// Single input only, so there is no concurrent writer.
				_, werr := cmd.OutOrStdout().Write(res.Output.SVG)
				if werr != nil {
					r.err = werr
				}
				return nil
			}
			if werr := os.WriteFile(dest, res.Output.SVG, 0o644); werr != nil {
				r.err = fmt.Errorf("writing %s: %w", dest, werr)
				return nil
			}
			r.wrote = dest
			return nil
		})
	}
	_ = g.Wait()

	return report(cmd.ErrOrStderr(), results)
}

func report(w io.Writer, results []fileResult) error {
	var failed error
	for _, r := range results {
		fmt.Fprint(w, r.diagnostics)
		if r.wrote != "" {
			fmt.Fprintf(w, "wrote %s\n", r.wrote)
		}
		switch {
		case r.err == nil:
		case errors.Is(r.err, errProblems):
			if failed == nil {
				failed = errProblems
			}
		default:
			fmt.Fprintf(w, "%s: %v\n", r.name, r.err)
			failed = errProblems
		}
	}
	return failed
}

// progressListener prints stage progress for --verbose.
func progressListener(w io.Writer) func(compile.Event) {
	return func(e compile.Event) {
		switch e.Type {
		case compile.EventStageCompleted:
			fmt.Fprintf(w, "[stage] %s done (%dms)\n", e.Data["name"], e.Data["duration_ms"])
		case compile.EventStageFailed:
			fmt.Fprintf(w, "[stage] %s: %s\n", e.Data["name"], e.Data["error"])
		case compile.EventCompileCompleted:
			fmt.Fprintf(w, "[compile] %d node(s), %d arrow(s)\n", e.Data["node_count"], e.Data["arrow_count"])
		}
	}
}

// lockedWriter serializes writes from concurrently compiled files.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
