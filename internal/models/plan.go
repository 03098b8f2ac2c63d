package models

import (
	"errors"
	"fmt"
)

var ErrCellCount = errors.New("cell count out of range")

const (
	MinCells     = 1
	MaxCells     = 10
	DefaultCells = 3

	MinTasks     = 1
	MaxTasks     = 5
	DefaultTasks = 2
)

// Plan is everything a user configures before starting a simulation.
type Plan struct {
	Cells      []Chemistry `json:"cells" yaml:"cells"`
	Tasks      []Task      `json:"tasks" yaml:"tasks"`
	JumpEvents []JumpEvent `json:"jump_events,omitempty" yaml:"jump_events,omitempty"`
}

// DefaultPlan mirrors the dashboard's initial form state.
func DefaultPlan() Plan {
	cells := make([]Chemistry, DefaultCells)
	for i := range cells {
		cells[i] = ChemistryLFP
	}
	tasks := make([]Task, DefaultTasks)
	for i := range tasks {
		tasks[i] = Task{Type: TaskCCCV, TimeSeconds: DefaultTaskSeconds}
	}
	return Plan{Cells: cells, Tasks: tasks}
}

// Normalize validates the plan in place and fills defaults.
func (p *Plan) Normalize() error {
	if len(p.Cells) < MinCells || len(p.Cells) > MaxCells {
		return fmt.Errorf("%w: %d (valid: %d-%d)", ErrCellCount, len(p.Cells), MinCells, MaxCells)
	}
	for i, c := range p.Cells {
		parsed, err := ParseChemistry(string(c))
		if err != nil {
			return fmt.Errorf("cell %d: %w", i+1, err)
		}
		p.Cells[i] = parsed
	}

	if len(p.Tasks) < MinTasks || len(p.Tasks) > MaxTasks {
		return fmt.Errorf("%w: %d tasks (valid: %d-%d)", ErrInvalidTask, len(p.Tasks), MinTasks, MaxTasks)
	}
	for i := range p.Tasks {
		if err := p.Tasks[i].Normalize(); err != nil {
			return fmt.Errorf("task %d: %w", i+1, err)
		}
	}

	if p.JumpEvents == nil {
		p.JumpEvents = DefaultJumpEvents()
	}
	return nil
}

// Params flattens the plan into run parameters.
func (p Plan) Params() map[string]string {
	params := map[string]string{
		"cell_count": fmt.Sprintf("%d", len(p.Cells)),
		"task_count": fmt.Sprintf("%d", len(p.Tasks)),
	}
	for i, c := range p.Cells {
		params[fmt.Sprintf("cell.%d.chemistry", i+1)] = string(c)
	}
	for i, t := range p.Tasks {
		for k, v := range t.Params(i + 1) {
			params[k] = v
		}
	}
	return params
}
