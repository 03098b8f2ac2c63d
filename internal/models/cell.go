package models

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownChemistry = errors.New("unknown cell chemistry")

type Chemistry string

const (
	ChemistryLFP Chemistry = "lfp"
	ChemistryNMC Chemistry = "nmc"
)

// Chemistries lists the supported chemistries in display order.
var Chemistries = []Chemistry{ChemistryLFP, ChemistryNMC}

// VoltageBounds describes the nominal voltage and the window used for the
// charge percentage.
type VoltageBounds struct {
	Nominal float64 `json:"nominal"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

var chemistryBounds = map[Chemistry]VoltageBounds{
	ChemistryLFP: {Nominal: 3.2, Min: 2.8, Max: 3.6},
	ChemistryNMC: {Nominal: 3.6, Min: 3.2, Max: 4.0},
}

// ParseChemistry accepts a chemistry name in any case.
func ParseChemistry(s string) (Chemistry, error) {
	c := Chemistry(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := chemistryBounds[c]; !ok {
		return "", fmt.Errorf("%w: %q (valid: lfp, nmc)", ErrUnknownChemistry, s)
	}
	return c, nil
}

// Bounds returns the voltage bounds of the chemistry.
func (c Chemistry) Bounds() (VoltageBounds, error) {
	b, ok := chemistryBounds[c]
	if !ok {
		return VoltageBounds{}, fmt.Errorf("%w: %q", ErrUnknownChemistry, string(c))
	}
	return b, nil
}

// Cell carries the static display attributes of one modelled cell.
type Cell struct {
	Key         string    `json:"key"`
	Chemistry   Chemistry `json:"chemistry"`
	Voltage     float64   `json:"voltage"`
	Current     float64   `json:"current"`
	Temperature float64   `json:"temp"`
	Capacity    float64   `json:"capacity"`
	MinVoltage  float64   `json:"min_voltage"`
	MaxVoltage  float64   `json:"max_voltage"`
}

// ChargePercent maps the cell voltage onto its chemistry window.
func (c Cell) ChargePercent() float64 {
	span := c.MaxVoltage - c.MinVoltage
	if span <= 0 {
		return 0
	}
	return (c.Voltage - c.MinVoltage) / span * 100
}
