package models

import (
	"errors"
	"fmt"
)

var ErrInvalidTask = errors.New("invalid task")

type TaskType string

const (
	TaskCCCV TaskType = "CC_CV"
	TaskIdle TaskType = "IDLE"
	TaskCCCD TaskType = "CC_CD"
)

// TaskTypes lists the task types in display order.
var TaskTypes = []TaskType{TaskCCCV, TaskIdle, TaskCCCD}

const (
	MinTaskSeconds     = 5
	MaxTaskSeconds     = 60
	DefaultTaskSeconds = 10
)

// Task is a charge, discharge or idle profile. Tasks are recorded with a run
// but the telemetry generator does not read them.
type Task struct {
	Type        TaskType `json:"task_type" yaml:"task_type"`
	CCCP        string   `json:"cc_cp,omitempty" yaml:"cc_cp,omitempty"`
	CVVoltage   float64  `json:"cv_voltage,omitempty" yaml:"cv_voltage,omitempty"`
	Voltage     float64  `json:"voltage,omitempty" yaml:"voltage,omitempty"`
	Current     float64  `json:"current,omitempty" yaml:"current,omitempty"`
	Capacity    float64  `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	TimeSeconds int      `json:"time_seconds" yaml:"time_seconds"`
}

// Normalize fills defaults and validates the task.
func (t *Task) Normalize() error {
	switch t.Type {
	case TaskCCCV, TaskIdle, TaskCCCD:
	default:
		return fmt.Errorf("%w: unknown task type %q (valid: CC_CV, IDLE, CC_CD)", ErrInvalidTask, string(t.Type))
	}

	if t.TimeSeconds == 0 {
		t.TimeSeconds = DefaultTaskSeconds
	}
	if t.TimeSeconds < MinTaskSeconds || t.TimeSeconds > MaxTaskSeconds {
		return fmt.Errorf("%w: duration %ds outside %d-%ds", ErrInvalidTask, t.TimeSeconds, MinTaskSeconds, MaxTaskSeconds)
	}

	// Fields that do not belong to the task type are dropped.
	switch t.Type {
	case TaskCCCV:
		t.Voltage = 0
	case TaskIdle:
		t.CCCP, t.CVVoltage, t.Voltage, t.Current, t.Capacity = "", 0, 0, 0, 0
	case TaskCCCD:
		t.CVVoltage, t.Current = 0, 0
	}
	return nil
}

// Params flattens the task into key/value pairs prefixed with the 1-based
// task number.
func (t Task) Params(n int) map[string]string {
	prefix := fmt.Sprintf("task.%d.", n)
	params := map[string]string{
		prefix + "task_type":    string(t.Type),
		prefix + "time_seconds": fmt.Sprintf("%d", t.TimeSeconds),
	}
	switch t.Type {
	case TaskCCCV:
		params[prefix+"cc_cp"] = t.CCCP
		params[prefix+"cv_voltage"] = fmt.Sprintf("%g", t.CVVoltage)
		params[prefix+"current"] = fmt.Sprintf("%g", t.Current)
		params[prefix+"capacity"] = fmt.Sprintf("%g", t.Capacity)
	case TaskCCCD:
		params[prefix+"cc_cp"] = t.CCCP
		params[prefix+"voltage"] = fmt.Sprintf("%g", t.Voltage)
		params[prefix+"capacity"] = fmt.Sprintf("%g", t.Capacity)
	}
	return params
}
