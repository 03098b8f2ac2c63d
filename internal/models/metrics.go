package models

import "time"

// Metric keys used when a run's telemetry is exported as metric series.
const (
	MetricVoltage     = "voltage"
	MetricCurrent     = "current"
	MetricTemperature = "temperature"
)

type Metric struct {
	Key       string    `json:"key"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	Step      int64     `json:"step"`
}
