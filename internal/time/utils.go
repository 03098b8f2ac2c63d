package timeutils

import (
	"fmt"
	"time"

	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
)

// SampleInterval is the elapsed time each exported sample represents. It is
// independent of the tick delay used to animate the dashboard.
const SampleInterval = 2 * time.Second

// Offset returns the elapsed time of the sample at index.
func Offset(index int) time.Duration {
	return time.Duration(index) * SampleInterval
}

// SampleTime returns the wall-clock time of the sample at index.
func SampleTime(start time.Time, index int) time.Time {
	return start.Add(Offset(index))
}

// FormatOffset renders a duration as MM:SS. Minutes are not wrapped at 60.
func FormatOffset(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// FormatClock renders the time of day as HH:MM:SS.
func FormatClock(t time.Time) string {
	return t.Format("15:04:05")
}

// ParseStart accepts an RFC3339 timestamp or a bare HH:MM:SS time of day,
// which is placed on the date of ref.
func ParseStart(s string, ref time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	clock, err := time.ParseInLocation("15:04:05", s, ref.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start time: %s (expected RFC3339 or HH:MM:SS)", s)
	}
	y, m, d := ref.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), clock.Second(), 0, ref.Location()), nil
}

// ProcessSamples expands each sample into voltage, current and temperature
// metrics. The step is the sample index and the timestamp is the sample's
// wall-clock time relative to start.
func ProcessSamples(samples []models.Sample, start time.Time) []models.Metric {
	result := make([]models.Metric, 0, len(samples)*3)
	for _, s := range samples {
		ts := SampleTime(start, s.Index)
		step := int64(s.Index)
		result = append(result,
			models.Metric{Key: models.MetricVoltage, Value: s.Voltage, Timestamp: ts, Step: step},
			models.Metric{Key: models.MetricCurrent, Value: s.Current, Timestamp: ts, Step: step},
			models.Metric{Key: models.MetricTemperature, Value: s.Temperature, Timestamp: ts, Step: step},
		)
	}
	return result
}
