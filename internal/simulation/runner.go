// Package simulation runs mock battery simulations: it builds the cell
// registry for a plan, drives the telemetry generator and keeps the latest
// run available for export.
package simulation

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Yagna-Patil/Battery-Simulator/internal/cells"
	"github.com/Yagna-Patil/Battery-Simulator/internal/generator"
	"github.com/Yagna-Patil/Battery-Simulator/internal/metrics"
	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
	"github.com/Yagna-Patil/Battery-Simulator/internal/report"
)

var ErrRunInProgress = errors.New("a simulation run is already in progress")

type Options struct {
	Generator generator.Config
	// Seed for the random source. Zero seeds from the clock.
	Seed     int64
	Now      func() time.Time
	Recorder metrics.Recorder
	Log      logrus.FieldLogger
}

func (o *Options) applyDefaults() {
	if o.Generator.Ticks <= 0 {
		o.Generator.Ticks = generator.DefaultTicks
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Recorder == nil {
		o.Recorder = metrics.Nop{}
	}
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
}

// Runner keeps at most one run: the latest. A new run can only start once
// the previous one has finished.
type Runner struct {
	opts Options

	mu      sync.Mutex
	current *Run
	wg      sync.WaitGroup
}

func NewRunner(opts Options) *Runner {
	opts.applyDefaults()
	return &Runner{opts: opts}
}

// Start validates the plan and generates its telemetry in the background.
func (r *Runner) Start(plan models.Plan) (*Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil && !r.current.Status().Terminal() {
		r.opts.Recorder.IncCounter(metrics.RunsRejected, 1)
		return nil, ErrRunInProgress
	}

	run, gen, err := prepare(plan, r.opts)
	if err != nil {
		r.opts.Recorder.IncCounter(metrics.RunsRejected, 1)
		return nil, err
	}
	r.current = run

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		execute(run, gen, r.opts)
	}()
	return run, nil
}

// Current returns the latest run, if any.
func (r *Runner) Current() (*Run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.current != nil
}

// Get returns the latest run when its id matches.
func (r *Runner) Get(id string) (*Run, bool) {
	run, ok := r.Current()
	if !ok || run.ID() != id {
		return nil, false
	}
	return run, true
}

// Wait blocks until background runs have finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Execute runs a plan to completion on the calling goroutine.
func Execute(plan models.Plan, opts Options) (*Run, error) {
	opts.applyDefaults()
	run, gen, err := prepare(plan, opts)
	if err != nil {
		return nil, err
	}
	execute(run, gen, opts)
	return run, nil
}

func prepare(plan models.Plan, opts Options) (*Run, *generator.Generator, error) {
	// Normalize rewrites elements in place; the caller's slices stay untouched.
	plan.Cells = clone(plan.Cells)
	plan.Tasks = clone(plan.Tasks)
	plan.JumpEvents = clone(plan.JumpEvents)
	if err := plan.Normalize(); err != nil {
		return nil, nil, fmt.Errorf("invalid plan: %w", err)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = opts.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	registry, err := cells.Build(plan.Cells, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build cell registry: %w", err)
	}

	gen := generator.New(opts.Generator, rng)
	run := &Run{
		id:     uuid.NewString(),
		plan:   plan,
		cells:  registry,
		ticks:  gen.Ticks(),
		status: models.RunStatusPending,
	}
	return run, gen, nil
}

func execute(run *Run, gen *generator.Generator, opts Options) {
	log := opts.Log.WithField("run_id", run.ID())
	rec := opts.Recorder

	run.begin(opts.Now())
	rec.IncCounter(metrics.RunsStarted, 1)
	rec.SetGauge(metrics.RunProgress, 0)
	log.WithFields(logrus.Fields{
		"cells": len(run.plan.Cells),
		"tasks": len(run.plan.Tasks),
		"ticks": run.ticks,
	}).Info("Simulation started")

	gen.Run(func(s models.Sample) {
		run.record(s)
		rec.IncCounter(metrics.TicksTotal, 1)
		rec.SetGauge(metrics.RunProgress, float64(s.Index+1)/float64(run.ticks))
		log.Debugf("Tick %d: %.2f V %.2f A %.1f °C", s.Index, s.Voltage, s.Current, s.Temperature)
	})

	run.finish(opts.Now())
	rec.IncCounter(metrics.RunsFinished, 1)
	if maxTemp, err := report.MaxTemperature(run.Samples()); err == nil {
		rec.SetGauge(metrics.LastMaxTemp, maxTemp)
	}
	log.Info("Simulation complete")
}
