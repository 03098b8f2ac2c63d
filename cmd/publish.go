package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Yagna-Patil/Battery-Simulator/internal/config"
	"github.com/Yagna-Patil/Battery-Simulator/internal/mlflow"
	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Run a simulation and log it to MLflow",
	Long: `Run a simulation and record it as an MLflow run: plan and cell params,
voltage/current/temperature metric series and both CSV exports as artifacts.`,
	Example: `  # Log to a self-hosted tracking server
  MLFLOW_TRACKING_URI=http://localhost:5000 battery-sim publish --experiment-id 1

  # Databricks, with a run name and tags
  battery-sim publish --tracking-uri databricks://dev --experiment-id 123 \
    --run-name nightly --tag owner=lab --plan plan.yaml`,
	RunE: publish,
}

func init() {
	rootCmd.AddCommand(publishCmd)

	addPlanFlags(publishCmd)
	publishCmd.Flags().String("run-name", "", "MLflow run name (default: sim-<start time>)")
	publishCmd.Flags().StringArray("tag", []string{}, "Tags in key=value format")
	publishCmd.Flags().String("description", "", "Run description")
}

func publish(cmd *cobra.Command, args []string) error {
	cfg := config.New()
	client, err := mlflow.NewClient(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create MLflow client: %w", err)
	}

	runConfig, err := buildRunConfig(cmd, cfg)
	if err != nil {
		return err
	}

	run, err := runFromFlags(cmd)
	if err != nil {
		return err
	}

	info, err := client.LogSimulation(cmd.Context(), run, runConfig)
	if err != nil {
		return fmt.Errorf("failed to publish simulation: %w", err)
	}

	// Only the run ID goes to stdout, for shell scripting.
	fmt.Println(info.RunID)
	return nil
}

func buildRunConfig(cmd *cobra.Command, cfg *config.Config) (*models.RunConfig, error) {
	runName, _ := cmd.Flags().GetString("run-name")
	tags, _ := cmd.Flags().GetStringArray("tag")
	description, _ := cmd.Flags().GetString("description")

	tagMap, err := parseTags(tags)
	if err != nil {
		return nil, err
	}

	experimentID := cfg.ExperimentID
	runConfig := &models.RunConfig{
		ExperimentID: &experimentID,
		Tags:         tagMap,
	}
	if runName != "" {
		runConfig.RunName = &runName
	}
	if description != "" {
		processed := processEscapeSequences(description)
		runConfig.Description = &processed
	}
	return runConfig, nil
}

// parseTags parses tag strings in key=value format
func parseTags(tags []string) (map[string]string, error) {
	tagMap := make(map[string]string)
	for _, tag := range tags {
		parts := strings.SplitN(tag, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid tag format: %s (expected key=value)", tag)
		}
		tagMap[parts[0]] = parts[1]
	}
	return tagMap, nil
}

func processEscapeSequences(s string) string {
	return strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\r`, "\r", `\\`, `\`).Replace(s)
}
