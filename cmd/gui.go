package cmd

import (
	"github.com/lehigh-university-libraries/culler/internal/gui"
	"github.com/lehigh-university-libraries/culler/internal/triage"
	"github.com/spf13/cobra"
)

func newGUICmd(opts *rootOptions) *cobra.Command {
	var rescan bool

	cmd := &cobra.Command{
		Use:   "gui",
		Short: "Open the desktop window",
		Long: `Opens a window showing one image at a time with its resolution, size,
EXIF data and the names of any configured patterns it matches.

Key bindings come from the keyBinds section of the configuration file.
The session tally, blacklist and window size are saved when the window closes.`,
		Example: `  # Open the window with the default configuration
  culler gui

  # Rebuild the directory list first
  culler gui --rescan`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			svc, err := triage.NewService(cfg, triage.Options{Rescan: rescan})
			if err != nil {
				return err
			}
			gui.Run(svc)
			return nil
		},
	}

	cmd.Flags().BoolVar(&rescan, "rescan", false, "Rebuild the directory list before starting")

	return cmd
}
