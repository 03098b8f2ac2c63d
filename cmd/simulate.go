package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Yagna-Patil/Battery-Simulator/internal/config"
	"github.com/Yagna-Patil/Battery-Simulator/internal/generator"
	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
	"github.com/Yagna-Patil/Battery-Simulator/internal/parser"
	"github.com/Yagna-Patil/Battery-Simulator/internal/report"
	"github.com/Yagna-Patil/Battery-Simulator/internal/simulation"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one simulation and write its CSV exports",
	Long: `Run a simulation without the dashboard and write the simple CSV export
and the detailed report to the output directory.`,
	Example: `  # Default plan: three LFP cells, two CC_CV tasks
  battery-sim simulate

  # Plan from a file
  battery-sim simulate --plan plan.yaml --out-dir ./out

  # Pick the cells inline, reproducibly
  battery-sim simulate --cells lfp,nmc --seed 42`,
	RunE: simulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	addPlanFlags(simulateCmd)
	simulateCmd.Flags().String("out-dir", config.DefaultOutDir, "Directory for the CSV exports (overrides BATTERY_SIM_OUT_DIR)")
	viper.BindPFlag("out_dir", simulateCmd.Flags().Lookup("out-dir"))
}

// addPlanFlags registers the flags that describe a run.
func addPlanFlags(cmd *cobra.Command) {
	cmd.Flags().String("plan", "", "Plan file (JSON/YAML)")
	cmd.Flags().StringSlice("cells", nil, "Cell chemistries, e.g. lfp,nmc (ignored with --plan)")
	cmd.Flags().Int64("seed", 0, "Random seed (0 seeds from the clock)")
	cmd.Flags().Int("ticks", generator.DefaultTicks, "Number of samples to generate")
	cmd.Flags().Duration("tick-delay", 0, "Delay between generated ticks")
}

func loadPlan(cmd *cobra.Command) (models.Plan, error) {
	planFile, _ := cmd.Flags().GetString("plan")
	cells, _ := cmd.Flags().GetStringSlice("cells")

	if planFile != "" {
		plan, err := parser.ParsePlanFile(planFile)
		if err != nil {
			return models.Plan{}, fmt.Errorf("failed to load plan: %w", err)
		}
		return *plan, nil
	}

	plan := models.DefaultPlan()
	if len(cells) > 0 {
		plan.Cells = make([]models.Chemistry, len(cells))
		for i, c := range cells {
			plan.Cells[i] = models.Chemistry(c)
		}
	}
	return plan, nil
}

func runFromFlags(cmd *cobra.Command) (*simulation.Run, error) {
	plan, err := loadPlan(cmd)
	if err != nil {
		return nil, err
	}
	seed, _ := cmd.Flags().GetInt64("seed")
	ticks, _ := cmd.Flags().GetInt("ticks")
	delay, _ := cmd.Flags().GetDuration("tick-delay")

	run, err := simulation.Execute(plan, simulation.Options{
		Generator: generator.Config{Ticks: ticks, Delay: delay},
		Seed:      seed,
		Log:       log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run simulation: %w", err)
	}
	return run, nil
}

func simulate(cmd *cobra.Command, args []string) error {
	cfg := config.New()

	run, err := runFromFlags(cmd)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", cfg.OutDir, err)
	}

	simplePath := filepath.Join(cfg.OutDir, report.SimpleFileName)
	if err := writeFile(simplePath, run.WriteSimpleCSV); err != nil {
		return err
	}

	rep, err := run.Report()
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	reportPath := filepath.Join(cfg.OutDir, report.FileName)
	if err := writeFile(reportPath, func(w io.Writer) error {
		_, err := rep.WriteTo(w)
		return err
	}); err != nil {
		return err
	}

	snap := run.Snapshot()
	fmt.Printf("Simulation %s complete\n", snap.ID)
	fmt.Printf("  Started: %s\n", snap.StartTime.Format(time.RFC3339))
	fmt.Printf("  Samples: %d\n", snap.Done)
	fmt.Printf("  Max temperature: %.1f °C\n", rep.MaxTemperature())
	fmt.Printf("  Wrote %s\n", simplePath)
	fmt.Printf("  Wrote %s\n", reportPath)
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
