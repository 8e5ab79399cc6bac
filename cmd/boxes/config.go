package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/martinemde/boxes/settings"
)

func newConfigCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings as " + settings.DefaultFile,
		Long: "Print the settings that render would use, after applying the settings file and flags.\n" +
			"Redirect the output to " + settings.DefaultFile + " to start a settings file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(v)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(settings.Encode(s))
			return err
		},
	}
}
