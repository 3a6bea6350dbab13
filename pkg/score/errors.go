package score

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mchmarny/nanotox/pkg/toxicity"
)

// RangeError reports a constituent count or percentage outside its bounds.
// Index is -1 for the count.
type RangeError struct {
	Index int
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *RangeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s %s outside [%s, %s]", e.Field, fmtNum(e.Value), fmtNum(e.Min), fmtNum(e.Max))
	}
	return fmt.Sprintf("constituent %d: %s %s outside [%s, %s]",
		e.Index+1, e.Field, fmtNum(e.Value), fmtNum(e.Min), fmtNum(e.Max))
}

// PercentageSumError reports percentages that do not add up to exactly 100.
type PercentageSumError struct {
	Sum float64
}

func (e *PercentageSumError) Error() string {
	return fmt.Sprintf("percentages add up to %s, must be exactly %s", fmtNum(e.Sum), fmtNum(TotalPercentage))
}

// ConstituentError ties a lookup failure to the constituent that caused it.
type ConstituentError struct {
	Index int
	Err   error
}

func (e *ConstituentError) Error() string {
	return fmt.Sprintf("constituent %d: %v", e.Index+1, e.Err)
}

func (e *ConstituentError) Unwrap() error {
	return e.Err
}

// ValidationError carries every problem found in a request. Individual
// errors are reachable with errors.As and errors.Is.
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid request (%d issues): %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() []error {
	return e.Errors
}

// Kind classifies an Issue.
type Kind string

const (
	KindRange         Kind = "range"
	KindPercentageSum Kind = "percentage_sum"
	KindNotFound      Kind = "not_found"
	KindLookup        Kind = "lookup"
)

// Issue is the serializable form of a validation error.
type Issue struct {
	// Index of the offending constituent, -1 for request-wide issues.
	Index         int      `json:"index" yaml:"index"`
	Kind          Kind     `json:"kind" yaml:"kind"`
	Element       string   `json:"element,omitempty" yaml:"element,omitempty"`
	Concentration *float64 `json:"concentration,omitempty" yaml:"concentration,omitempty"`
	Message       string   `json:"message" yaml:"message"`
}

// Issues flattens err into one Issue per underlying problem.
func Issues(err error) []*Issue {
	if err == nil {
		return []*Issue{}
	}

	var errs []error
	var ve *ValidationError
	if errors.As(err, &ve) {
		errs = ve.Errors
	} else {
		errs = []error{err}
	}

	list := make([]*Issue, 0, len(errs))
	for _, e := range errs {
		list = append(list, toIssue(e))
	}
	return list
}

func toIssue(err error) *Issue {
	is := &Issue{Index: -1, Kind: KindLookup, Message: err.Error()}

	var re *RangeError
	var se *PercentageSumError
	var ce *ConstituentError
	switch {
	case errors.As(err, &re):
		is.Index = re.Index
		is.Kind = KindRange
	case errors.As(err, &se):
		is.Kind = KindPercentageSum
	case errors.As(err, &ce):
		is.Index = ce.Index
	}

	var nf *toxicity.NotFoundError
	if errors.As(err, &nf) {
		c := nf.Concentration
		is.Kind = KindNotFound
		is.Element = nf.Element
		is.Concentration = &c
	}
	return is
}

func fmtNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
