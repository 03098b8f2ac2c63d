// Package report renders simulation telemetry as the four-section detailed
// report and as the simple CSV export.
package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
	"github.com/Yagna-Patil/Battery-Simulator/internal/numfmt"
	timeutils "github.com/Yagna-Patil/Battery-Simulator/internal/time"
)

// ErrNoSamples is returned when a report is requested for an empty run.
var ErrNoSamples = errors.New("no samples to report")

const (
	FileName       = "battery_detailed_report.csv"
	SimpleFileName = "battery_simulation_data.csv"
)

const (
	SectionTestData    = "Test Data"
	SectionCycleStats  = "Cycle Statistics"
	SectionOpLog       = "Operation Log"
	SectionProcessInfo = "Process Information"
)

const (
	StepConstantCurrent = "Constant Current"
	StepRest            = "Rest"
)

var testDataHeader = []string{
	"Sample ID", "Sampling", "Termination", "Actual Time", "Voltage (V)",
	"Current (A)", "Capacity (Ah)", "Energy (Wh)", "Step Type",
	"Cycle Count", "Step Num", "DC Resist", "Temperature (°C)",
}

var cycleStatsHeader = []string{
	"Cycle Num", "CC Charge", "CV Charge", "Total Charge", "Total Disch",
	"CC Charge Time", "CV Charge Time", "CC Disch Time", "Total Disch Time",
	"Efficiency (%)", "Capacity (%)", "Avg Disch Volt", "Median Volt",
	"Max Temp", "DC Resistance (mΩ)",
}

var opLogHeader = []string{"Timestamp", "Sample ID", "Event Type"}

var processInfoHeader = []string{
	"Step Type", "Constant Type", "Voltage Limit", "Current Limit",
	"Capacity Limit", "Time Limit", "Temp Limit", "Delta V Limit",
	"Target Cap", "Step Num", "Jump Count",
}

// SampleRow is one derived line of the Test Data section.
type SampleRow struct {
	SampleID    int
	Sampling    string
	Termination string
	ActualTime  string
	Voltage     float64
	Current     float64
	CapacityAh  float64
	EnergyWh    float64
	StepType    string
	CycleCount  int
	StepNum     int
	DCResist    int
	Temperature float64
}

func (r SampleRow) record() []string {
	return []string{
		numfmt.Int(r.SampleID),
		r.Sampling,
		r.Termination,
		r.ActualTime,
		numfmt.Float(r.Voltage),
		numfmt.Float(r.Current),
		numfmt.Float(r.CapacityAh),
		numfmt.Float(r.EnergyWh),
		r.StepType,
		numfmt.Int(r.CycleCount),
		numfmt.Int(r.StepNum),
		numfmt.Int(r.DCResist),
		numfmt.Float(r.Temperature),
	}
}

// SampleRows derives the Test Data rows. The step type splits the run in
// two fixed halves by position; it does not reflect the configured tasks.
func SampleRows(samples []models.Sample, start time.Time) []SampleRow {
	half := len(samples) / 2
	rows := make([]SampleRow, len(samples))
	for i, s := range samples {
		capacity := numfmt.Round(s.Current*timeutils.SampleInterval.Seconds()/3600, 6)
		step := StepRest
		if i < half {
			step = StepConstantCurrent
		}
		rows[i] = SampleRow{
			SampleID:    i + 1,
			Sampling:    timeutils.FormatOffset(timeutils.Offset(i)),
			ActualTime:  timeutils.FormatClock(timeutils.SampleTime(start, i)),
			Voltage:     s.Voltage,
			Current:     s.Current,
			CapacityAh:  capacity,
			EnergyWh:    numfmt.Round(capacity*s.Voltage, 6),
			StepType:    step,
			CycleCount:  1,
			StepNum:     i + 1,
			DCResist:    0,
			Temperature: s.Temperature,
		}
	}
	return rows
}

// MaxTemperature returns the highest temperature in samples.
func MaxTemperature(samples []models.Sample) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}
	highest := samples[0].Temperature
	for _, s := range samples[1:] {
		if s.Temperature > highest {
			highest = s.Temperature
		}
	}
	return highest, nil
}

// Section is a titled table of the report.
type Section struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Report is an immutable rendering of one run.
type Report struct {
	sections []Section
	rows     []SampleRow
	maxTemp  float64
}

// Build derives every section of the report. samples must not be empty;
// events are copied in order without checking their sample ids.
func Build(samples []models.Sample, start time.Time, events []models.JumpEvent) (*Report, error) {
	maxTemp, err := MaxTemperature(samples)
	if err != nil {
		return nil, err
	}

	rows := SampleRows(samples, start)
	testData := Section{Name: SectionTestData, Header: testDataHeader, Rows: make([][]string, len(rows))}
	for i, r := range rows {
		testData.Rows[i] = r.record()
	}

	opLog := Section{Name: SectionOpLog, Header: opLogHeader, Rows: make([][]string, len(events))}
	for i, e := range events {
		opLog.Rows[i] = []string{e.Timestamp, numfmt.Int(e.SampleID), e.Event}
	}

	return &Report{
		sections: []Section{
			testData,
			{Name: SectionCycleStats, Header: cycleStatsHeader, Rows: [][]string{cycleStatsRow(maxTemp)}},
			opLog,
			{Name: SectionProcessInfo, Header: processInfoHeader, Rows: [][]string{processInfoRow()}},
		},
		rows:    rows,
		maxTemp: maxTemp,
	}, nil
}

// Only Max Temp depends on the run.
func cycleStatsRow(maxTemp float64) []string {
	return []string{
		"1", "0.056245", "0", "0.056245", "0.042359",
		"00:40.0", "00:00.0", "00:30.0", "00:30.0",
		"75.31297", "100", "3.207877", "3.207877",
		numfmt.Float(maxTemp), "15.6",
	}
}

func processInfoRow() []string {
	return []string{
		"CC‑CV Charge", "Constant Voltage", "5", "3.65", "3.65",
		"0.05", "6", "00:40.0", "0.03", "0", "1",
	}
}

// Format builds the report and renders it as text.
func Format(samples []models.Sample, start time.Time, events []models.JumpEvent) (string, error) {
	r, err := Build(samples, start, events)
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

// Sections returns a deep copy of the report sections.
func (r *Report) Sections() []Section {
	out := make([]Section, len(r.sections))
	for i, s := range r.sections {
		rows := make([][]string, len(s.Rows))
		for j, row := range s.Rows {
			rows[j] = append([]string(nil), row...)
		}
		out[i] = Section{Name: s.Name, Header: append([]string(nil), s.Header...), Rows: rows}
	}
	return out
}

// SampleRows returns a copy of the derived Test Data rows.
func (r *Report) SampleRows() []SampleRow {
	return append([]SampleRow(nil), r.rows...)
}

func (r *Report) MaxTemperature() float64 { return r.maxTemp }

// WriteTo renders each section as a "### Name ###" line followed by its CSV
// table, with a blank line between sections.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	for i, s := range r.sections {
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "### %s ###\n", s.Name)
		if err := cw.Write(s.Header); err != nil {
			return 0, fmt.Errorf("failed to write %s header: %w", s.Name, err)
		}
		if err := cw.WriteAll(s.Rows); err != nil {
			return 0, fmt.Errorf("failed to write %s rows: %w", s.Name, err)
		}
	}
	return buf.WriteTo(w)
}

func (r *Report) String() string {
	var sb bytes.Buffer
	r.WriteTo(&sb)
	return sb.String()
}
