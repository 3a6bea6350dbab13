package score

import (
	"fmt"
	"math"
)

// Severity is the discrete classification of a normalized toxicity.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeveritySevere   Severity = "severe"
)

var severityColors = map[Severity]string{
	SeverityNone:     "green",
	SeverityLow:      "yellowgreen",
	SeverityModerate: "yellow",
	SeverityHigh:     "orange",
	SeveritySevere:   "red",
}

// Color is the display color associated with the band.
func (s Severity) Color() string {
	return severityColors[s]
}

// Bands holds the upper (inclusive) bounds of the none, low, moderate and
// high bands. Anything above the last bound is severe.
type Bands [4]float64

// DefaultBands returns the 2/4/6/8 cut points.
func DefaultBands() Bands {
	return Bands{2, 4, 6, 8}
}

// NewBands builds bands from configured thresholds. An empty list yields
// the defaults.
func NewBands(thresholds []float64) (Bands, error) {
	if len(thresholds) == 0 {
		return DefaultBands(), nil
	}

	var b Bands
	if len(thresholds) != len(b) {
		return b, fmt.Errorf("expected %d severity thresholds, got %d", len(b), len(thresholds))
	}
	copy(b[:], thresholds)

	if err := b.Validate(); err != nil {
		return b, err
	}
	return b, nil
}

// Validate checks the thresholds are finite, within the display range and
// strictly ascending.
func (b Bands) Validate() error {
	prev := math.Inf(-1)
	for i, v := range b {
		if math.IsNaN(v) || v < 0 || v > MaxNormalized {
			return fmt.Errorf("severity threshold %d (%v) outside [0, %v]", i+1, v, MaxNormalized)
		}
		if v <= prev {
			return fmt.Errorf("severity thresholds must be strictly ascending: %v", b)
		}
		prev = v
	}
	return nil
}

// Classify maps a normalized toxicity to its band. Each band includes its
// upper bound: with the defaults exactly 2.0 is none and 2.0001 is low.
func (b Bands) Classify(v float64) Severity {
	switch {
	case v <= b[0]:
		return SeverityNone
	case v <= b[1]:
		return SeverityLow
	case v <= b[2]:
		return SeverityModerate
	case v <= b[3]:
		return SeverityHigh
	default:
		return SeveritySevere
	}
}
