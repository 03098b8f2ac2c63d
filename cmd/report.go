package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
	"github.com/Yagna-Patil/Battery-Simulator/internal/parser"
	"github.com/Yagna-Patil/Battery-Simulator/internal/report"
	timeutils "github.com/Yagna-Patil/Battery-Simulator/internal/time"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Rebuild a detailed report from a simple CSV export",
	Long: `Read a simple CSV export and render the four-section detailed report.
The start time anchors the Actual Time column; it defaults to now.`,
	Example: `  battery-sim report --from-csv battery_simulation_data.csv
  battery-sim report --from-csv data.csv --start 09:15:00 --out battery_detailed_report.csv
  battery-sim report --from-csv data.csv --plan plan.yaml`,
	RunE: rebuildReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("from-csv", "", "Simple CSV export to read (required)")
	reportCmd.Flags().String("start", "", "Start time, RFC3339 or HH:MM:SS (default: now)")
	reportCmd.Flags().String("plan", "", "Plan file whose jump events fill the operation log")
	reportCmd.Flags().String("out", "", "Output file (default: stdout)")
	reportCmd.MarkFlagRequired("from-csv")
}

func rebuildReport(cmd *cobra.Command, args []string) error {
	fromCSV, _ := cmd.Flags().GetString("from-csv")
	startStr, _ := cmd.Flags().GetString("start")
	planFile, _ := cmd.Flags().GetString("plan")
	out, _ := cmd.Flags().GetString("out")

	file, err := os.Open(fromCSV)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", fromCSV, err)
	}
	defer file.Close()

	samples, err := report.ParseSimpleCSV(file)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", fromCSV, err)
	}

	start := time.Now()
	if startStr != "" {
		if start, err = timeutils.ParseStart(startStr, start); err != nil {
			return err
		}
	}

	events := models.DefaultJumpEvents()
	if planFile != "" {
		plan, err := parser.ParsePlanFile(planFile)
		if err != nil {
			return fmt.Errorf("failed to load plan: %w", err)
		}
		events = plan.JumpEvents
	}

	rep, err := report.Build(samples, start, events)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	if out == "" {
		_, err = rep.WriteTo(os.Stdout)
		return err
	}
	if err := writeFile(out, func(w io.Writer) error {
		_, err := rep.WriteTo(w)
		return err
	}); err != nil {
		return err
	}
	log.WithField("samples", len(samples)).Infof("Wrote %s", out)
	return nil
}
