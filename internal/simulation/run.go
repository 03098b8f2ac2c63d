package simulation

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Yagna-Patil/Battery-Simulator/internal/cells"
	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
	"github.com/Yagna-Patil/Battery-Simulator/internal/report"
)

var ErrRunNotFinished = errors.New("simulation run has not finished")

// Run is one simulation: the plan it was started with, the cell registry
// shown alongside it and the telemetry generated so far.
type Run struct {
	id    string
	plan  models.Plan
	cells *cells.Registry
	ticks int

	mu      sync.RWMutex
	status  models.RunStatus
	start   time.Time
	end     time.Time
	samples []models.Sample
}

// Snapshot is a point-in-time copy of a run, safe to hand to other
// goroutines.
type Snapshot struct {
	ID         string             `json:"id"`
	Status     models.RunStatus   `json:"status"`
	StartTime  time.Time          `json:"start_time"`
	EndTime    *time.Time         `json:"end_time,omitempty"`
	Ticks      int                `json:"ticks"`
	Done       int                `json:"done"`
	Progress   float64            `json:"progress"`
	Cells      []models.Cell      `json:"cells"`
	Tasks      []models.Task      `json:"tasks"`
	JumpEvents []models.JumpEvent `json:"jump_events"`
	Samples    []models.Sample    `json:"samples"`
}

func (r *Run) ID() string { return r.id }

func (r *Run) Plan() models.Plan { return r.plan }

func (r *Run) Cells() *cells.Registry { return r.cells }

func (r *Run) StartTime() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.start
}

func (r *Run) Status() models.RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Samples returns a copy of the samples generated so far.
func (r *Run) Samples() []models.Sample {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Sample(nil), r.samples...)
}

func (r *Run) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Snapshot{
		ID:         r.id,
		Status:     r.status,
		StartTime:  r.start,
		Ticks:      r.ticks,
		Done:       len(r.samples),
		Cells:      r.cells.Cells(),
		Tasks:      clone(r.plan.Tasks),
		JumpEvents: clone(r.plan.JumpEvents),
		Samples:    append([]models.Sample(nil), r.samples...),
	}
	if r.ticks > 0 {
		s.Progress = float64(len(r.samples)) / float64(r.ticks)
	}
	if !r.end.IsZero() {
		end := r.end
		s.EndTime = &end
	}
	return s
}

// Report builds the detailed report of a finished run.
func (r *Run) Report() (*report.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.status != models.RunStatusFinished {
		return nil, fmt.Errorf("%w: %s is %s", ErrRunNotFinished, r.id, r.status)
	}
	return report.Build(r.samples, r.start, r.plan.JumpEvents)
}

// WriteSimpleCSV writes the simple CSV export of a finished run.
func (r *Run) WriteSimpleCSV(w io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.status != models.RunStatusFinished {
		return fmt.Errorf("%w: %s is %s", ErrRunNotFinished, r.id, r.status)
	}
	return report.WriteSimpleCSV(w, r.samples)
}

func (r *Run) begin(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = models.RunStatusRunning
	r.start = now
}

func (r *Run) record(s models.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
}

func (r *Run) finish(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = models.RunStatusFinished
	r.end = now
}

// clone copies s, keeping a non-nil empty slice non-nil so it encodes as [].
func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
