package models

import "errors"

// ErrLengthMismatch is returned when the voltage, current and temperature
// sequences of a Series do not have the same length.
var ErrLengthMismatch = errors.New("voltage, current and temperature sequences differ in length")

// Sample is one synthetic reading per generator tick.
type Sample struct {
	Index       int     `json:"index"`
	Voltage     float64 `json:"voltage"`
	Current     float64 `json:"current"`
	Temperature float64 `json:"temperature"`
}

// Series holds telemetry as three parallel sequences.
type Series struct {
	Voltages     []float64 `json:"voltages"`
	Currents     []float64 `json:"currents"`
	Temperatures []float64 `json:"temperatures"`
}

// Samples zips the series into samples. Sequences of unequal length are
// rejected instead of being truncated to the shortest one.
func (s Series) Samples() ([]Sample, error) {
	n := len(s.Voltages)
	if len(s.Currents) != n || len(s.Temperatures) != n {
		return nil, ErrLengthMismatch
	}

	samples := make([]Sample, n)
	for i := range samples {
		samples[i] = Sample{
			Index:       i,
			Voltage:     s.Voltages[i],
			Current:     s.Currents[i],
			Temperature: s.Temperatures[i],
		}
	}
	return samples, nil
}

// SeriesOf splits samples back into parallel sequences.
func SeriesOf(samples []Sample) Series {
	s := Series{
		Voltages:     make([]float64, len(samples)),
		Currents:     make([]float64, len(samples)),
		Temperatures: make([]float64, len(samples)),
	}
	for i, sample := range samples {
		s.Voltages[i] = sample.Voltage
		s.Currents[i] = sample.Current
		s.Temperatures[i] = sample.Temperature
	}
	return s
}

// JumpEvent annotates an anomalous step transition at a sample. SampleID is
// not checked against the sample range.
type JumpEvent struct {
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	SampleID  int    `json:"sample_id" yaml:"sample_id"`
	Event     string `json:"event" yaml:"event"`
}

// DefaultJumpEvents is the event log attached to every run that does not
// bring its own.
func DefaultJumpEvents() []JumpEvent {
	return []JumpEvent{
		{Timestamp: "19:31.7", SampleID: 3, Event: "Step jumped due to time limit"},
	}
}
