// Package process models one physics process sample (collisions data, a
// simulated background or a signal) through an analysis.
//
// A Record carries:
//   - identity and physics constants (Metadata)
//   - event counters from each processing stage (Counters)
//   - one-way progress flags (analyzed, good events, filled, normalized)
//   - named histograms, owned exclusively through histo.Wrapper
//   - a raw and a luminosity-normalized cut-flow
//
// # Luminosity normalization
//
// NormalizeToLumi rescales a simulated record to a target integrated
// luminosity L:
//
//	expected = L * crossSection * branchingRatio
//	raw      = N_DS * (N_analyzed / N_ntuple)
//	sf       = expected / raw * otherScaleFactor
//
// The factor is applied to every histogram and recorded as a "Lumi norm"
// cut-flow row. Collisions records are never scaled. A record is scaled at
// most once; Update clears the flag for the next pass.
//
// Counters are not validated. Zero counters produce Inf or NaN factors that
// propagate into histogram contents, exactly as IEEE-754 division does. Use
// CheckCounters before normalizing when that is not wanted.
//
// Records are not safe for concurrent use.
package process
