package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Yagna-Patil/Battery-Simulator/internal/config"
	"github.com/Yagna-Patil/Battery-Simulator/internal/dashboard"
	"github.com/Yagna-Patil/Battery-Simulator/internal/generator"
	"github.com/Yagna-Patil/Battery-Simulator/internal/metrics"
	"github.com/Yagna-Patil/Battery-Simulator/internal/simulation"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive dashboard",
	Long:  "Serve the battery dashboard, its JSON API and Prometheus metrics over HTTP.",
	Example: `  # Serve on the default :8501
  battery-sim serve

  # Animate faster on another port
  battery-sim serve --addr :9000 --tick-delay 10ms`,
	RunE: serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", config.DefaultAddr, "Listen address (overrides BATTERY_SIM_ADDR)")
	serveCmd.Flags().Duration("tick-delay", config.DefaultTickDelay, "Delay between generated ticks (overrides BATTERY_SIM_TICK_DELAY)")
	viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("tick_delay", serveCmd.Flags().Lookup("tick-delay"))
}

func serve(cmd *cobra.Command, args []string) error {
	cfg := config.New()

	if log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPromRecorder(reg)

	runner := simulation.NewRunner(simulation.Options{
		Generator: generator.Config{Ticks: generator.DefaultTicks, Delay: cfg.TickDelay},
		Recorder:  recorder,
		Log:       log,
	})

	srv, err := dashboard.New(dashboard.Config{
		Runner:   runner,
		Recorder: recorder,
		Gatherer: reg,
		Log:      log,
	})
	if err != nil {
		return fmt.Errorf("failed to create dashboard: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = srv.ListenAndServe(ctx, cfg.Addr)
	runner.Wait()
	return err
}
