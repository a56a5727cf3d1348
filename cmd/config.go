package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Long: `Prints the path of the configuration file and its contents after defaults
are applied. A missing file is created with the defaults.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			fmt.Printf("# %s\n", cfg.Path())
			fmt.Printf("# main path:   %s\n", cfg.MainPath())
			fmt.Printf("# delete path: %s\n", cfg.DeletePath())
			fmt.Printf("# dir list:    %s\n", cfg.DirListPath())
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}

	return cmd
}
