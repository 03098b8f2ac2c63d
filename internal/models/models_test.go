package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesSamples(t *testing.T) {
	s := Series{
		Voltages:     []float64{3.1, 3.2, 3.3},
		Currents:     []float64{1.0, 2.0, 3.0},
		Temperatures: []float64{25.0, 40.0, 30.0},
	}
	samples, err := s.Samples()
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, Sample{Index: 1, Voltage: 3.2, Current: 2.0, Temperature: 40.0}, samples[1])
	assert.Equal(t, s, SeriesOf(samples))
}

func TestSeriesSamplesLengthMismatch(t *testing.T) {
	s := Series{
		Voltages:     []float64{3.1, 3.2},
		Currents:     []float64{1.0},
		Temperatures: []float64{25.0, 26.0},
	}
	_, err := s.Samples()
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestParseChemistry(t *testing.T) {
	c, err := ParseChemistry(" NMC ")
	require.NoError(t, err)
	assert.Equal(t, ChemistryNMC, c)

	_, err = ParseChemistry("lead-acid")
	assert.ErrorIs(t, err, ErrUnknownChemistry)
}

func TestChargePercent(t *testing.T) {
	lfp := Cell{Voltage: 3.2, MinVoltage: 2.8, MaxVoltage: 3.6}
	assert.InDelta(t, 50.0, lfp.ChargePercent(), 1e-9)

	nmc := Cell{Voltage: 3.6, MinVoltage: 3.2, MaxVoltage: 4.0}
	assert.InDelta(t, 50.0, nmc.ChargePercent(), 1e-9)

	assert.Equal(t, 0.0, Cell{Voltage: 3}.ChargePercent())
}

func TestTaskNormalize(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		want    Task
		wantErr bool
	}{
		{
			name: "default duration",
			task: Task{Type: TaskIdle},
			want: Task{Type: TaskIdle, TimeSeconds: DefaultTaskSeconds},
		},
		{
			name: "idle drops charge fields",
			task: Task{Type: TaskIdle, CCCP: "5A", Current: 2, TimeSeconds: 30},
			want: Task{Type: TaskIdle, TimeSeconds: 30},
		},
		{
			name: "cc_cd keeps voltage",
			task: Task{Type: TaskCCCD, CCCP: "2A", Voltage: 3.0, CVVoltage: 4.2, Capacity: 1, TimeSeconds: 60},
			want: Task{Type: TaskCCCD, CCCP: "2A", Voltage: 3.0, Capacity: 1, TimeSeconds: 60},
		},
		{name: "too short", task: Task{Type: TaskCCCV, TimeSeconds: 4}, wantErr: true},
		{name: "too long", task: Task{Type: TaskCCCV, TimeSeconds: 61}, wantErr: true},
		{name: "unknown type", task: Task{Type: "PULSE"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Normalize()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTask)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tt.task)
		})
	}
}

func TestPlanNormalize(t *testing.T) {
	p := Plan{
		Cells: []Chemistry{"LFP", "nmc"},
		Tasks: []Task{{Type: TaskCCCV, CCCP: "5A", CVVoltage: 3.65}},
	}
	require.NoError(t, p.Normalize())
	assert.Equal(t, []Chemistry{ChemistryLFP, ChemistryNMC}, p.Cells)
	assert.Equal(t, DefaultTaskSeconds, p.Tasks[0].TimeSeconds)
	assert.Equal(t, DefaultJumpEvents(), p.JumpEvents)

	empty := Plan{Tasks: []Task{{Type: TaskIdle}}}
	assert.ErrorIs(t, empty.Normalize(), ErrCellCount)

	tooMany := Plan{Cells: make([]Chemistry, MaxCells+1), Tasks: []Task{{Type: TaskIdle}}}
	assert.ErrorIs(t, tooMany.Normalize(), ErrCellCount)

	noTasks := Plan{Cells: []Chemistry{ChemistryLFP}}
	assert.ErrorIs(t, noTasks.Normalize(), ErrInvalidTask)

	explicit := Plan{Cells: []Chemistry{ChemistryLFP}, Tasks: []Task{{Type: TaskIdle}}, JumpEvents: []JumpEvent{}}
	require.NoError(t, explicit.Normalize())
	assert.Empty(t, explicit.JumpEvents)
}

func TestPlanParams(t *testing.T) {
	p := Plan{
		Cells: []Chemistry{ChemistryLFP, ChemistryNMC},
		Tasks: []Task{
			{Type: TaskCCCV, CCCP: "5A", CVVoltage: 3.65, Current: 1.5, Capacity: 2, TimeSeconds: 10},
			{Type: TaskIdle, TimeSeconds: 20},
		},
	}
	params := p.Params()
	assert.Equal(t, "2", params["cell_count"])
	assert.Equal(t, "nmc", params["cell.2.chemistry"])
	assert.Equal(t, "CC_CV", params["task.1.task_type"])
	assert.Equal(t, "3.65", params["task.1.cv_voltage"])
	assert.Equal(t, "20", params["task.2.time_seconds"])
	_, hasCurrent := params["task.2.current"]
	assert.False(t, hasCurrent)
}
