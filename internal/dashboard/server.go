// Package dashboard serves the browser UI and its JSON API.
package dashboard

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Yagna-Patil/Battery-Simulator/internal/metrics"
	"github.com/Yagna-Patil/Battery-Simulator/internal/simulation"
)

//go:embed templates/*.html
var templateFS embed.FS

type Config struct {
	Runner   *simulation.Runner
	Recorder metrics.Recorder
	Gatherer prometheus.Gatherer
	Log      logrus.FieldLogger
	// Seed for the random source behind cell previews. Zero seeds from the
	// clock.
	Seed int64
}

type Server struct {
	runner   *simulation.Runner
	recorder metrics.Recorder
	log      logrus.FieldLogger
	engine   *gin.Engine

	rngMu sync.Mutex
	rng   *rand.Rand
}

func New(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, errors.New("dashboard requires a simulation runner")
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.Nop{}
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		runner:   cfg.Runner,
		recorder: cfg.Recorder,
		log:      cfg.Log,
		rng:      rand.New(rand.NewSource(seed)),
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(cfg.Log))
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.Index)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/cells", s.PreviewCells)
		v1.POST("/simulations", s.StartSimulation)
		v1.GET("/simulations/current", s.CurrentSimulation)
		v1.GET("/simulations/:run_id", s.GetSimulation)
		v1.GET("/simulations/:run_id/chart.png", s.Chart)
		v1.GET("/simulations/:run_id/data.csv", s.SimpleCSV)
		v1.GET("/simulations/:run_id/report.csv", s.DetailedReport)
	}

	s.engine = r
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Dashboard listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve dashboard: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("Shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down dashboard: %w", err)
	}
	return nil
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("Handled request")
	}
}
