package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/martinemde/boxes/settings"
)

// newRootCmd builds the command tree with its own viper instance so that
// separate invocations (and tests) never share flag state.
func newRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "boxes",
		Short:         "Compile box-and-arrow diagrams to SVG",
		Long:          "Boxes compiles a small text language of nested boxes and arrows into SVG diagrams.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Settings file (default: ./"+settings.DefaultFile+" if present)")
	rootCmd.PersistentFlags().Float64("font-size", 0, "Label font size in pixels (overrides the settings file)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print stage progress")

	_ = v.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("font_size", rootCmd.PersistentFlags().Lookup("font-size"))
	_ = v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = v.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	v.SetEnvPrefix("BOXES")
	v.AutomaticEnv()

	rootCmd.AddCommand(newRenderCmd(v), newCheckCmd(v), newTokensCmd(), newConfigCmd(v))
	return rootCmd
}

// loadSettings resolves the settings file and flag overrides.
func loadSettings(v *viper.Viper) (settings.Settings, error) {
	path := v.GetString("config")
	optional := path == ""
	if optional {
		path = settings.DefaultFile
	}
	s, err := settings.Load(path, optional)
	if err != nil {
		return settings.Settings{}, err
	}
	if fs := v.GetFloat64("font_size"); fs > 0 {
		s.FontSize = fs
	}
	return s, nil
}

// newLogger creates a logger writing to w. It does not touch the global
// slog default.
func newLogger(v *viper.Viper, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(v.GetString("log_level")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", v.GetString("log_level"))
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(v.GetString("log_format")) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", v.GetString("log_format"))
	}
}
