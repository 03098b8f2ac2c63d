// Package generator produces the synthetic telemetry of a simulation run.
// Values are independent uniform draws; no battery model is involved and
// the configured tasks are not consulted.
package generator

import (
	"math/rand"
	"time"

	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
	"github.com/Yagna-Patil/Battery-Simulator/internal/numfmt"
)

const (
	DefaultTicks = 100
	DefaultDelay = 50 * time.Millisecond

	MinVoltage     = 3.0
	MaxVoltage     = 4.2
	MinCurrent     = 0.5
	MaxCurrent     = 5.0
	MinTemperature = 25.0
	MaxTemperature = 45.0
)

var sleepFn = time.Sleep

type Config struct {
	Ticks int
	// Delay between ticks, for animating the dashboard only. Zero disables it.
	Delay time.Duration
}

func DefaultConfig() Config {
	return Config{Ticks: DefaultTicks, Delay: DefaultDelay}
}

type Generator struct {
	cfg Config
	rng *rand.Rand
}

func New(cfg Config, rng *rand.Rand) *Generator {
	if cfg.Ticks <= 0 {
		cfg.Ticks = DefaultTicks
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	return &Generator{cfg: cfg, rng: rng}
}

func (g *Generator) Ticks() int { return g.cfg.Ticks }

// Run generates every tick and returns the samples in order. observe, when
// not nil, sees each sample as soon as it is drawn. Run has no cancellation:
// once started it completes all ticks.
func (g *Generator) Run(observe func(models.Sample)) []models.Sample {
	samples := make([]models.Sample, 0, g.cfg.Ticks)
	for i := 0; i < g.cfg.Ticks; i++ {
		s := g.next(i)
		samples = append(samples, s)
		if observe != nil {
			observe(s)
		}
		if g.cfg.Delay > 0 {
			sleepFn(g.cfg.Delay)
		}
	}
	return samples
}

func (g *Generator) next(index int) models.Sample {
	return models.Sample{
		Index:       index,
		Voltage:     numfmt.Round(g.uniform(MinVoltage, MaxVoltage), 2),
		Current:     numfmt.Round(g.uniform(MinCurrent, MaxCurrent), 2),
		Temperature: numfmt.Round(g.uniform(MinTemperature, MaxTemperature), 1),
	}
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}
