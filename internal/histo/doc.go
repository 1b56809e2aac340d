// Package histo provides the histogram collaborator used by process records.
//
// Hist1D is a fixed, uniformly binned one-dimensional histogram built on
// go-hep's hbook.H1D. It tracks the sum of weights and the sum of squared
// weights per bin and encodes with hbook's binary codec. Bin numbering
// follows the usual HEP convention:
//   - bin 0 is the underflow bin
//   - bins 1..N are the regular bins
//   - bin N+1 is the overflow bin
//
// Wrapper owns a (possibly nil) Hist1D together with presentation metadata.
// Records hold wrappers, never bare histograms, so that absent histograms can
// be skipped during reset and scaling.
//
// Nothing in this package is safe for concurrent mutation.
package histo
