package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
	"github.com/Yagna-Patil/Battery-Simulator/internal/numfmt"
)

var simpleHeader = []string{"Time (s)", "Voltage (V)", "Current (A)", "Temperature (°C)"}

// WriteSimpleCSV writes one row per sample. The time column is the tick
// index, not the 2 second offset used by the detailed report.
func WriteSimpleCSV(w io.Writer, samples []models.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(simpleHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, s := range samples {
		record := []string{
			numfmt.Int(s.Index),
			numfmt.Float(s.Voltage),
			numfmt.Float(s.Current),
			numfmt.Float(s.Temperature),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write sample %d: %w", s.Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseSimpleCSV reads samples back from the simple CSV export.
func ParseSimpleCSV(r io.Reader) ([]models.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(simpleHeader)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse simple CSV: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse simple CSV header: %w", err)
	}
	for i, name := range simpleHeader {
		if header[i] != name {
			return nil, fmt.Errorf("failed to parse simple CSV: column %d is %q, expected %q", i+1, header[i], name)
		}
	}

	var samples []models.Sample
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse simple CSV: %w", err)
		}

		s, err := parseSimpleRecord(record)
		if err != nil {
			return nil, fmt.Errorf("failed to parse simple CSV line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func parseSimpleRecord(record []string) (models.Sample, error) {
	var s models.Sample
	var err error

	if s.Index, err = strconv.Atoi(record[0]); err != nil {
		return s, fmt.Errorf("invalid time %q: %w", record[0], err)
	}
	if s.Voltage, err = strconv.ParseFloat(record[1], 64); err != nil {
		return s, fmt.Errorf("invalid voltage %q: %w", record[1], err)
	}
	if s.Current, err = strconv.ParseFloat(record[2], 64); err != nil {
		return s, fmt.Errorf("invalid current %q: %w", record[2], err)
	}
	if s.Temperature, err = strconv.ParseFloat(record[3], 64); err != nil {
		return s, fmt.Errorf("invalid temperature %q: %w", record[3], err)
	}
	return s, nil
}
