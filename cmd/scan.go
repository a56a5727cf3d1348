package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/lehigh-university-libraries/culler/internal/catalog"
	"github.com/spf13/cobra"
)

func newScanCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Rebuild the directory list",
		Long: `Walks the main path, counts the files in every directory that is not
blacklisted and writes the result to the directory list used to weight
random picks.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			blacklist, err := catalog.ReadBlacklist(cfg.BlacklistPath())
			if err != nil {
				return err
			}
			entries, err := catalog.Rebuild(cfg.DirListPath(), cfg.MainPath(), cfg.DefaultPath(), blacklist)
			if err != nil {
				return err
			}

			files := 0
			for _, e := range entries {
				files += e.Count
			}
			fmt.Printf("Scanned %s directories holding %s files\n", humanize.Comma(int64(len(entries))), humanize.Comma(int64(files)))
			fmt.Printf("Directory list: %s\n", cfg.DirListPath())
			return nil
		},
	}

	return cmd
}
