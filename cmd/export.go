package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/pomotask/internal/export"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the session log as CSV or JSON",
	Example: `  pomotask export --format csv > sessions.csv
  pomotask export --format json --out sessions.json`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format (csv, json)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "output file, - for stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(exportFormat)
	if format != "csv" && format != "json" {
		return fmt.Errorf("unknown format %q (want csv or json)", exportFormat)
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	sessions, err := s.SessionLog()
	if err != nil {
		return err
	}

	if exportOut == "-" {
		if format == "csv" {
			return export.WriteCSV(cmd.OutOrStdout(), sessions)
		}
		return export.WriteJSON(cmd.OutOrStdout(), sessions)
	}

	if format == "csv" {
		err = export.ToCSV(sessions, exportOut)
	} else {
		err = export.ToJSON(sessions, exportOut)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d sessions to %s\n", len(sessions), exportOut)
	return nil
}
