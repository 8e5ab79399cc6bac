package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/martinemde/boxes/boxdsl"
	"github.com/martinemde/boxes/compile"
)

func newCheckCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file.boxes>...",
		Short: "Parse and validate diagrams without rendering",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			results := make([]fileResult, 0, len(args))
			for _, path := range args {
				r := fileResult{name: path}
				src, err := os.ReadFile(path)
				if err != nil {
					r.err = fmt.Errorf("reading diagram: %w", err)
					results = append(results, r)
					continue
				}
				res, err := compile.Check(src, compile.Config{Name: path, Logger: logger})
				r.diagnostics = compile.Format(path, res.Diagnostics)
				if err != nil {
					r.err = errProblems
				} else if v.GetBool("verbose") {
					r.diagnostics = fmt.Sprintf("%s: ok (%d top-level node(s), %d arrow(s))\n",
						path, len(res.Document.Nodes), len(res.Document.Arrows))
				}
				results = append(results, r)
			}
			return report(cmd.ErrOrStderr(), results)
		},
	}
}

func newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <file.boxes>",
		Short: "Print the token stream of a diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading diagram: %w", err)
			}
			tokens, err := boxdsl.Tokenize(src)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			for _, tok := range tokens {
				literal := tok.Literal
				if tok.Kind == boxdsl.TokenNewline {
					literal = `\n`
				}
				fmt.Fprintf(out, "%d:%d\t%s\t%s\n", tok.Pos.Line, tok.Pos.Column, tok.Kind, literal)
			}
			return nil
		},
	}
}
