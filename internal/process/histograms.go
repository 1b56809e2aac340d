package process

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/hashicorp/go-multierror"

	"github.com/nilvalls/TTHTauTau-Roast/internal/histo"
)

// Histogram returns the wrapper registered under name.
func (r *Record) Histogram(name string) (*histo.Wrapper, bool) {
	w, ok := r.histos[name]
	return w, ok
}

// HasHistogram reports whether name is registered.
func (r *Record) HasHistogram(name string) bool {
	_, ok := r.histos[name]
	return ok
}

// SetHistogram registers w under name, taking ownership. A previous wrapper
// under the same name is dropped. Registering a wrapper that holds a
// histogram marks the record as filled.
func (r *Record) SetHistogram(name string, w *histo.Wrapper) {
	if r.histos == nil {
		r.histos = make(map[string]*histo.Wrapper)
	}
	r.histos[name] = w
	if w != nil && w.Histo() != nil {
		r.flags.FilledHistos = true
	}
}

// RemoveHistogram drops the wrapper registered under name.
func (r *Record) RemoveHistogram(name string) {
	delete(r.histos, name)
}

// HistogramNames returns the registered names in sorted order.
func (r *Record) HistogramNames() []string {
	return slices.Sorted(maps.Keys(r.histos))
}

// ResetHistograms empties every histogram. Wrappers without a histogram
// are skipped.
func (r *Record) ResetHistograms() {
	for _, w := range r.histos {
		if w != nil && w.Histo() != nil {
			w.Reset()
		}
	}
}

// ScaleHistograms multiplies every histogram by factor.
func (r *Record) ScaleHistograms(factor float64) {
	for _, w := range r.histos {
		if w != nil && w.Histo() != nil {
			w.ScaleBy(factor)
		}
	}
}

// Add accumulates other into r: ntuple paths are appended after r's own,
// histograms are summed bin by bin, and both cut-flows are summed row by
// row. Both records must register exactly the same histogram names with
// matching binning; otherwise a *SchemaMismatchError is returned and r is
// left unchanged.
func (r *Record) Add(other *Record) error {
	if err := r.checkSchema(other); err != nil {
		return err
	}

	r.NtuplePaths = append(r.NtuplePaths, other.NtuplePaths...)
	for name, w := range r.histos {
		ow := other.histos[name]
		if w == nil || ow == nil {
			continue
		}
		// binning verified by checkSchema
		_ = w.Add(ow.Histo())
	}
	r.cutFlow.Add(other.cutFlow)
	r.normalizedCutFlow.Add(other.normalizedCutFlow)
	return nil
}

// checkSchema collects every histogram name or binning disagreement
// between r and other.
func (r *Record) checkSchema(other *Record) error {
	var result *multierror.Error

	for _, name := range r.HistogramNames() {
		ow, ok := other.histos[name]
		if !ok {
			result = multierror.Append(result, fmt.Errorf("histogram %q missing from %q", name, other.ShortName))
			continue
		}
		w := r.histos[name]
		if w == nil || ow == nil || w.Histo() == nil || ow.Histo() == nil {
			continue
		}
		if !w.Histo().SameBinning(ow.Histo()) {
			result = multierror.Append(result, &histo.BinningError{
				Name:  name,
				Want:  w.Histo().Binning(),
				Found: ow.Histo().Binning(),
			})
		}
	}
	for _, name := range other.HistogramNames() {
		if _, ok := r.histos[name]; !ok {
			result = multierror.Append(result, fmt.Errorf("histogram %q missing from %q", name, r.ShortName))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return &SchemaMismatchError{Target: r.ShortName, Source: other.ShortName, Err: err}
	}
	return nil
}

// SchemaMismatchError reports records that cannot be merged.
type SchemaMismatchError struct {
	Target string
	Source string
	Err    error
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("cannot add %q into %q: %v", e.Source, e.Target, e.Err)
}

func (e *SchemaMismatchError) Unwrap() error { return e.Err }

// Problems returns the individual mismatches.
func (e *SchemaMismatchError) Problems() []error {
	var merr *multierror.Error
	if errors.As(e.Err, &merr) {
		return merr.WrappedErrors()
	}
	return []error{e.Err}
}

// IsSchemaMismatch reports whether err is (or wraps) a SchemaMismatchError.
func IsSchemaMismatch(err error) bool {
	var se *SchemaMismatchError
	return errors.As(err, &se)
}
