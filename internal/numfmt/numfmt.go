// Package numfmt holds the rounding and float rendering shared by the
// generator and the CSV exports.
package numfmt

import (
	"math"
	"strconv"
	"strings"
)

// Round rounds the exact binary value of v to the given number of decimal
// places. v is never scaled first, so 0.000294*3.25 rounds to 0.000955.
func Round(v float64, places int) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// Float renders v in its shortest round-trip form, always keeping a decimal
// point so that whole values read as floats ("30.0", not "30"). Magnitudes
// below 1e-4 or from 1e16 up use exponent form with a two-digit exponent
// ("6e-06", "1.5e+16").
func Float(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if abs := math.Abs(v); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if strings.ContainsRune(s, '.') {
		return s
	}
	return s + ".0"
}

// Int renders an integer column value.
func Int(v int) string {
	return strconv.Itoa(v)
}
