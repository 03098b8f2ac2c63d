// Package cells builds the display-only cell registry shown on the
// dashboard.
package cells

import (
	"fmt"
	"math/rand"

	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
	"github.com/Yagna-Patil/Battery-Simulator/internal/numfmt"
)

const (
	minCurrent = 0.5
	maxCurrent = 2.0
	minTemp    = 25.0
	maxTemp    = 40.0
)

// Registry maps cell keys to their static attributes, in the order the
// cells were configured.
type Registry struct {
	cells []models.Cell
	byKey map[string]int
}

// Build creates one cell per chemistry. Current and temperature are drawn
// from rng; they have no bearing on the simulated telemetry.
func Build(chemistries []models.Chemistry, rng *rand.Rand) (*Registry, error) {
	if len(chemistries) < models.MinCells || len(chemistries) > models.MaxCells {
		return nil, fmt.Errorf("%w: %d (valid: %d-%d)", models.ErrCellCount, len(chemistries), models.MinCells, models.MaxCells)
	}

	r := &Registry{
		cells: make([]models.Cell, 0, len(chemistries)),
		byKey: make(map[string]int, len(chemistries)),
	}
	for i, chem := range chemistries {
		bounds, err := chem.Bounds()
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i+1, err)
		}

		current := numfmt.Round(uniform(rng, minCurrent, maxCurrent), 2)
		cell := models.Cell{
			Key:         Key(i+1, chem),
			Chemistry:   chem,
			Voltage:     bounds.Nominal,
			Current:     current,
			Temperature: numfmt.Round(uniform(rng, minTemp, maxTemp), 1),
			Capacity:    numfmt.Round(bounds.Nominal*current, 2),
			MinVoltage:  bounds.Min,
			MaxVoltage:  bounds.Max,
		}
		r.byKey[cell.Key] = len(r.cells)
		r.cells = append(r.cells, cell)
	}
	return r, nil
}

// Key formats the identifier of the n-th (1-based) cell.
func Key(n int, chem models.Chemistry) string {
	return fmt.Sprintf("Cell %d (%s)", n, chem)
}

// Cells returns a copy of the cells in configuration order.
func (r *Registry) Cells() []models.Cell {
	out := make([]models.Cell, len(r.cells))
	copy(out, r.cells)
	return out
}

func (r *Registry) Lookup(key string) (models.Cell, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return models.Cell{}, false
	}
	return r.cells[i], true
}

func (r *Registry) Len() int { return len(r.cells) }

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
