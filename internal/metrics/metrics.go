// Package metrics exposes simulation counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	RunsStarted   = "battery_sim_runs_started_total"
	RunsFinished  = "battery_sim_runs_finished_total"
	RunsRejected  = "battery_sim_runs_rejected_total"
	TicksTotal    = "battery_sim_ticks_total"
	ExportsTotal  = "battery_sim_exports_total"
	RunProgress   = "battery_sim_run_progress_ratio"
	LastMaxTemp   = "battery_sim_last_run_max_temperature_celsius"
	ReportLatency = "battery_sim_report_render_seconds"
)

// Recorder is what the simulation runner and the dashboard report to.
type Recorder interface {
	IncCounter(name string, v float64)
	IncExport(kind string)
	SetGauge(name string, v float64)
	ObserveLatency(name string, seconds float64)
}

type PromRecorder struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
	exports  *prometheus.CounterVec
}

// NewPromRecorder creates the collectors and registers them with reg.
func NewPromRecorder(reg prometheus.Registerer) *PromRecorder {
	started := prometheus.NewCounter(prometheus.CounterOpts{
		Name: RunsStarted,
		Help: "Simulation runs started.",
	})
	finished := prometheus.NewCounter(prometheus.CounterOpts{
		Name: RunsFinished,
		Help: "Simulation runs that generated every tick.",
	})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: RunsRejected,
		Help: "Start requests rejected because of an invalid plan or a run in progress.",
	})
	ticks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: TicksTotal,
		Help: "Telemetry samples generated across all runs.",
	})
	progress := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: RunProgress,
		Help: "Fraction of ticks generated by the current run.",
	})
	maxTemp := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: LastMaxTemp,
		Help: "Highest temperature of the most recently finished run.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    ReportLatency,
		Help:    "Time spent rendering a detailed report.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})
	exports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: ExportsTotal,
		Help: "Exports served, by kind.",
	}, []string{"kind"})

	reg.MustRegister(started, finished, rejected, ticks, progress, maxTemp, latency, exports)

	return &PromRecorder{
		counters: map[string]prometheus.Counter{
			RunsStarted:  started,
			RunsFinished: finished,
			RunsRejected: rejected,
			TicksTotal:   ticks,
		},
		gauges: map[string]prometheus.Gauge{
			RunProgress: progress,
			LastMaxTemp: maxTemp,
		},
		histos: map[string]prometheus.Observer{
			ReportLatency: latency,
		},
		exports: exports,
	}
}

func (p *PromRecorder) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromRecorder) IncExport(kind string) {
	p.exports.WithLabelValues(kind).Inc()
}

func (p *PromRecorder) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromRecorder) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

// Nop discards everything. The CLI uses it for one-shot runs.
type Nop struct{}

func (Nop) IncCounter(string, float64)     {}
func (Nop) IncExport(string)               {}
func (Nop) SetGauge(string, float64)       {}
func (Nop) ObserveLatency(string, float64) {}

var (
	_ Recorder = (*PromRecorder)(nil)
	_ Recorder = Nop{}
)
