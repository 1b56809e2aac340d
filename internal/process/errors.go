package process

import (
	"errors"
	"fmt"
)

// InvalidCounterError reports a counter that would make the luminosity
// scale factor non-finite.
type InvalidCounterError struct {
	Process string
	Counter string
	Value   int64
}

func (e *InvalidCounterError) Error() string {
	return fmt.Sprintf("process %q: counter %s must be positive, got %d", e.Process, e.Counter, e.Value)
}

// IsInvalidCounter reports whether err is (or wraps) an InvalidCounterError.
func IsInvalidCounter(err error) bool {
	var ce *InvalidCounterError
	return errors.As(err, &ce)
}

// CheckCounters returns an *InvalidCounterError when a counter used as a
// divisor by NormalizeToLumi is not positive. NormalizeToLumi never calls
// it; callers opt in.
func (r *Record) CheckCounters() error {
	if r.InDataset <= 0 {
		return &InvalidCounterError{Process: r.ShortName, Counter: "InDataset", Value: r.InDataset}
	}
	if r.InNtuple <= 0 {
		return &InvalidCounterError{Process: r.ShortName, Counter: "InNtuple", Value: r.InNtuple}
	}
	if r.AnalyzedEvents <= 0 {
		return &InvalidCounterError{Process: r.ShortName, Counter: "AnalyzedEvents", Value: r.AnalyzedEvents}
	}
	return nil
}
