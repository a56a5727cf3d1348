package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/lehigh-university-libraries/culler/internal/storage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the session log",
		Example: `  culler history
  culler history --format csv > sessions.csv
  culler history --format parquet --output sessions.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			sessions, err := storage.ReadHistory(cfg.LogPath())
			if err != nil {
				return err
			}
			if format == "parquet" {
				if output == "" {
					return fmt.Errorf("--output is required for parquet")
				}
				return storage.ExportParquet(output, sessions)
			}
			return printHistory(os.Stdout, sessions, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, yaml, csv, parquet)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write parquet output to")

	return cmd
}

func printHistory(w io.Writer, sessions []storage.Session, format string) error {
	switch format {
	case "text":
		return printTextHistory(w, sessions)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sessions)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(sessions)
	case "csv":
		return printCSVHistory(w, sessions)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printTextHistory(w io.Writer, sessions []storage.Session) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions logged yet")
		return err
	}

	kept, deleted := 0, 0
	fmt.Fprintf(w, "%-16s  %8s  %8s\n", "Date", "Kept", "Deleted")
	for _, s := range sessions {
		fmt.Fprintf(w, "%-16s  %8d  %8d\n", s.Date, s.Kept, s.Deleted)
		kept += s.Kept
		deleted += s.Deleted
	}
	_, err := fmt.Fprintf(w, "%-16s  %8d  %8d\n", "Total", kept, deleted)
	return err
}

func printCSVHistory(w io.Writer, sessions []storage.Session) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"date", "kept", "deleted"}); err != nil {
		return err
	}
	for _, s := range sessions {
		if err := writer.Write([]string{s.Date, strconv.Itoa(s.Kept), strconv.Itoa(s.Deleted)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
