package process

import (
	"log/slog"
	"sync"
)

// Observer receives normalization diagnostics.
type Observer interface {
	ObserveNormalization(n Normalization)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(n Normalization)

// ObserveNormalization calls f(n).
func (f ObserverFunc) ObserveNormalization(n Normalization) { f(n) }

// LogObserver writes one structured log record per normalization.
type LogObserver struct {
	Logger *slog.Logger
}

// NewLogObserver returns an observer logging through logger. A nil logger
// uses slog.Default() at call time.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{Logger: logger}
}

// ObserveNormalization logs the inputs and derived values of n.
func (o *LogObserver) ObserveNormalization(n Normalization) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("lumi normalization",
		"process", n.Process,
		"int_lumi", n.IntLumi,
		"cross_section", n.CrossSection,
		"branching_ratio", n.BranchingRatio,
		"in_dataset", n.InDataset,
		"analyzed", n.AnalyzedEvents,
		"in_ntuple", n.InNtuple,
		"expected_events", n.ExpectedEvents,
		"raw_events", n.RawEvents,
		"other_sf", n.OtherScaleFactor,
		"scale_factor", n.ScaleFactor,
		"rel_sys_pct", n.RelSysUncertainty*100,
	)
	if n.CutFlowErr != nil {
		logger.Warn("lumi norm row not registered", "process", n.Process, "error", n.CutFlowErr)
	}
}

// Recorder collects normalizations in memory.
type Recorder struct {
	mu    sync.Mutex
	items []Normalization
}

// ObserveNormalization appends n.
func (r *Recorder) ObserveNormalization(n Normalization) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// Normalizations returns the collected items in order.
func (r *Recorder) Normalizations() []Normalization {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Normalization(nil), r.items...)
}

func defaultObserver() Observer {
	return NewLogObserver(nil)
}
