package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Yagna-Patil/Battery-Simulator/internal/config"
)

var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "battery-sim",
	Short: "Battery cell simulator dashboard",
	Long: `A mock battery simulator. It serves an interactive dashboard, generates
synthetic voltage/current/temperature telemetry, exports it as CSV reports
and can publish runs to an MLflow tracking server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.New()
		if err := cfg.Validate(); err != nil {
			return err
		}
		log.SetLevel(cfg.Level())
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rootCmd.PersistentFlags().String("env-file", ".env", "Optional dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("tracking-uri", "", "MLflow tracking URI (overrides MLFLOW_TRACKING_URI)")
	rootCmd.PersistentFlags().String("experiment-id", "", "MLflow experiment ID (overrides MLFLOW_EXPERIMENT_ID)")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("tracking_uri", rootCmd.PersistentFlags().Lookup("tracking-uri"))
	viper.BindPFlag("experiment_id", rootCmd.PersistentFlags().Lookup("experiment-id"))
}

func initConfig() {
	envFile, _ := rootCmd.PersistentFlags().GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.WithError(err).Warnf("Failed to load %s", envFile)
		}
	}

	viper.SetEnvPrefix("BATTERY_SIM")
	viper.AutomaticEnv()

	// MLflow and Databricks settings also come from their usual variables.
	viper.BindEnv("tracking_uri", "BATTERY_SIM_MLFLOW_TRACKING_URI", "MLFLOW_TRACKING_URI")
	viper.BindEnv("experiment_id", "BATTERY_SIM_MLFLOW_EXPERIMENT_ID", "MLFLOW_EXPERIMENT_ID")
	viper.BindEnv("databricks_host", "DATABRICKS_HOST")
	viper.BindEnv("databricks_token", "DATABRICKS_TOKEN")

	config.SetDefaults(viper.GetViper())
}
