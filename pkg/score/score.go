package score

import (
	"errors"
	"fmt"
	"log/slog"
)

const (
	MinConstituents = 1
	MaxConstituents = 10

	MinPercentage   = 0.0
	MaxPercentage   = 100.0
	TotalPercentage = 100.0

	// MaxNormalized caps the toxicity used for severity and display.
	MaxNormalized = 10.0
)

// Table resolves unit toxicity. *toxicity.Table satisfies it.
type Table interface {
	Lookup(element string, concentration float64) (float64, error)
}

// Constituent is one nanoparticle entry of a scoring request.
type Constituent struct {
	Element       string  `json:"element" yaml:"element"`
	Concentration float64 `json:"concentration" yaml:"concentration"`
	Percentage    float64 `json:"percentage" yaml:"percentage"`
}

// Request is an ordered list of constituents.
type Request struct {
	Constituents []Constituent `json:"constituents" yaml:"constituents"`
}

// Result is the outcome of scoring a valid request.
type Result struct {
	FinalToxicity      float64  `json:"final_toxicity" yaml:"finalToxicity"`
	NormalizedToxicity float64  `json:"normalized_toxicity" yaml:"normalizedToxicity"`
	Severity           Severity `json:"severity_band" yaml:"severityBand"`
}

// Report is what the presentation layer renders: the result when the
// request was scored, and every validation issue otherwise.
type Report struct {
	Scored             bool     `json:"scored" yaml:"scored"`
	FinalToxicity      float64  `json:"final_toxicity" yaml:"finalToxicity"`
	NormalizedToxicity float64  `json:"normalized_toxicity" yaml:"normalizedToxicity"`
	Severity           Severity `json:"severity_band,omitempty" yaml:"severityBand,omitempty"`
	Color              string   `json:"color,omitempty" yaml:"color,omitempty"`
	Errors             []*Issue `json:"per_constituent_errors" yaml:"perConstituentErrors"`
}

// Engine validates and scores requests against one table. It holds no
// mutable state and may be shared across goroutines.
type Engine struct {
	table Table
	bands Bands
}

// NewEngine returns an engine over table using the given severity bands.
func NewEngine(table Table, bands Bands) (*Engine, error) {
	if table == nil {
		return nil, errors.New("toxicity table required")
	}
	if err := bands.Validate(); err != nil {
		return nil, fmt.Errorf("invalid severity bands: %w", err)
	}
	return &Engine{table: table, bands: bands}, nil
}

// Bands returns the engine's severity cut points.
func (e *Engine) Bands() Bands {
	return e.bands
}

// Validate checks every constituent and returns all problems at once as a
// *ValidationError, or nil when the request can be scored.
func (e *Engine) Validate(cs []Constituent) error {
	var errs []error

	if n := len(cs); n < MinConstituents || n > MaxConstituents {
		errs = append(errs, &RangeError{
			Index: -1,
			Field: "constituent count",
			Value: float64(n),
			Min:   MinConstituents,
			Max:   MaxConstituents,
		})
	}

	var sum float64
	for i, c := range cs {
		// negated so NaN is rejected
		if !(c.Percentage >= MinPercentage && c.Percentage <= MaxPercentage) {
			errs = append(errs, &RangeError{
				Index: i,
				Field: "percentage",
				Value: c.Percentage,
				Min:   MinPercentage,
				Max:   MaxPercentage,
			})
		}
		sum += c.Percentage

		if _, err := e.table.Lookup(c.Element, c.Concentration); err != nil {
			errs = append(errs, &ConstituentError{Index: i, Err: err})
		}
	}

	if sum != TotalPercentage {
		errs = append(errs, &PercentageSumError{Sum: sum})
	}

	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}

// Score computes the weighted toxicity of cs. It does not check counts or
// percentages; unknown pairs are reported together and nothing is scored.
func (e *Engine) Score(cs []Constituent) (*Result, error) {
	var final float64
	var errs []error

	for i, c := range cs {
		unit, err := e.table.Lookup(c.Element, c.Concentration)
		if err != nil {
			errs = append(errs, &ConstituentError{Index: i, Err: err})
			continue
		}
		final += unit * (c.Percentage / 100)
		slog.Debug("constituent scored",
			"element", c.Element,
			"concentration", c.Concentration,
			"percentage", c.Percentage,
			"unit", unit,
			"running", final)
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	res := e.result(final)
	slog.Debug("toxicity",
		"final", res.FinalToxicity,
		"normalized", res.NormalizedToxicity,
		"severity", res.Severity)
	return res, nil
}

// Evaluate validates req and scores it only when no issue was found.
func (e *Engine) Evaluate(req Request) *Report {
	if err := e.Validate(req.Constituents); err != nil {
		return &Report{Errors: Issues(err)}
	}

	res, err := e.Score(req.Constituents)
	if err != nil {
		return &Report{Errors: Issues(err)}
	}

	return &Report{
		Scored:             true,
		FinalToxicity:      res.FinalToxicity,
		NormalizedToxicity: res.NormalizedToxicity,
		Severity:           res.Severity,
		Color:              res.Severity.Color(),
		Errors:             []*Issue{},
	}
}

func (e *Engine) result(final float64) *Result {
	n := Normalize(final)
	return &Result{
		FinalToxicity:      final,
		NormalizedToxicity: n,
		Severity:           e.bands.Classify(n),
	}
}

// Normalize clamps a final toxicity into [0, MaxNormalized].
func Normalize(final float64) float64 {
	return max(min(final, MaxNormalized), 0)
}
