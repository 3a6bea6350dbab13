package toxicity

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrNotFound matches any NotFoundError with errors.Is.
var ErrNotFound = errors.New("toxicity data not found")

// DataLoadError is returned when a table source is missing or malformed.
// No partial table is ever returned alongside it.
type DataLoadError struct {
	Source string
	Reason string
	Err    error
}

func (e *DataLoadError) Error() string {
	msg := fmt.Sprintf("loading toxicity table from %s: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

func loadErrorf(source, format string, args ...any) *DataLoadError {
	return &DataLoadError{Source: source, Reason: fmt.Sprintf(format, args...)}
}

func wrapLoadError(source string, err error, reason string) *DataLoadError {
	return &DataLoadError{Source: source, Reason: reason, Err: err}
}

// NotFoundError reports an (element, concentration) pair absent from the table.
// A tabulated zero is a value, never a NotFoundError.
type NotFoundError struct {
	Element       string
	Concentration float64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no data available for %s at concentration %s",
		e.Element, FormatConcentration(e.Concentration))
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// FormatConcentration renders a concentration level the way it is written
// in table headers (shortest exact representation).
func FormatConcentration(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}
