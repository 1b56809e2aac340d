package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nilvalls/TTHTauTau-Roast/internal/cutflow"
	"github.com/nilvalls/TTHTauTau-Roast/internal/process"
	"github.com/nilvalls/TTHTauTau-Roast/internal/report"
	"github.com/nilvalls/TTHTauTau-Roast/internal/store"
)

// InspectResult is the payload of the inspect command.
type InspectResult struct {
	Metadata   InspectMetadata           `json:"metadata"`
	Counters   InspectCounters           `json:"counters"`
	Flags      process.Flags             `json:"flags"`
	GoodEvents int                       `json:"good_events"`
	Histograms map[string]cutflow.Number `json:"histograms"`
	History    []store.Snapshot          `json:"history"`
}

// InspectMetadata mirrors process.Metadata with JSON-safe constants.
type InspectMetadata struct {
	ShortName         string         `json:"short_name"`
	NiceName          string         `json:"nice_name"`
	LabelForLegend    string         `json:"label_for_legend"`
	Type              string         `json:"type"`
	TreeName          string         `json:"tree_name"`
	NtuplePaths       []string       `json:"ntuple_paths"`
	Color             int            `json:"color"`
	CheckReality      bool           `json:"check_reality"`
	Plot              bool           `json:"plot"`
	CrossSection      cutflow.Number `json:"cross_section"`
	BranchingRatio    cutflow.Number `json:"branching_ratio"`
	OtherScaleFactor  cutflow.Number `json:"other_scale_factor"`
	RelSysUncertainty cutflow.Number `json:"rel_sys_uncertainty"`
}

// InspectCounters mirrors process.Counters with a JSON-safe expectation.
type InspectCounters struct {
	InDataset           int64          `json:"in_dataset"`
	ReadByPreprocessing int64          `json:"read_by_preprocessing"`
	InNtuple            int64          `json:"in_ntuple"`
	AnalyzedEvents      int64          `json:"analyzed_events"`
	ExpectedEvents      cutflow.Number `json:"expected_events"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <process>",
		Short: "Show one process record",
		Long: `Show the metadata, counters, flags, histogram integrals and snapshot
history of a process.

Example:
  roast inspect ttbar
  roast inspect --format json tth`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runInspect(cmd *cobra.Command, opts *RootOptions, name string) error {
	if err := opts.setup(cmd.ErrOrStderr()); err != nil {
		return err
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	ctx := cmd.Context()
	r, err := st.LoadRecord(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return WrapExitError(ExitCommandError, fmt.Sprintf("unknown process %q", name), err).WithKind(ErrCodeNotFound)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read database", err)
	}
	history, err := st.History(ctx, name)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read history", err)
	}

	result := InspectResult{
		Metadata: InspectMetadata{
			ShortName:         r.ShortName,
			NiceName:          r.NiceName,
			LabelForLegend:    r.LabelForLegend,
			Type:              r.Type,
			TreeName:          r.TreeName,
			NtuplePaths:       r.NtuplePaths,
			Color:             r.Color,
			CheckReality:      r.CheckReality,
			Plot:              r.Plot,
			CrossSection:      cutflow.Number(r.CrossSection),
			BranchingRatio:    cutflow.Number(r.BranchingRatio),
			OtherScaleFactor:  cutflow.Number(r.OtherScaleFactor),
			RelSysUncertainty: cutflow.Number(r.RelSysUncertainty),
		},
		Counters: InspectCounters{
			InDataset:           r.InDataset,
			ReadByPreprocessing: r.ReadByPreprocessing,
			InNtuple:            r.InNtuple,
			AnalyzedEvents:      r.AnalyzedEvents,
			ExpectedEvents:      cutflow.Number(r.ExpectedEvents),
		},
		Flags:      r.Flags(),
		GoodEvents: len(r.GoodEvents()),
		Histograms: make(map[string]cutflow.Number),
		History:    history,
	}
	for _, h := range r.HistogramNames() {
		if w, ok := r.Histogram(h); ok && w != nil {
			result.Histograms[h] = cutflow.Number(w.Integral())
		}
	}

	return opts.formatter(cmd).Render(result, func(w io.Writer) error {
		return writeInspectText(w, r, result)
	})
}

func writeInspectText(w io.Writer, r *process.Record, res InspectResult) error {
	md := res.Metadata
	fmt.Fprintf(w, "%s (%s)\n", md.ShortName, describeType(r))
	fmt.Fprintf(w, "  Name:            %s\n", md.NiceName)
	fmt.Fprintf(w, "  Legend:          %s\n", md.LabelForLegend)
	fmt.Fprintf(w, "  Tree:            %s\n", md.TreeName)
	if len(md.NtuplePaths) > 0 {
		fmt.Fprintf(w, "  Ntuples:         %s\n", strings.Join(md.NtuplePaths, ", "))
	}
	fmt.Fprintf(w, "  Cross section:   %g pb\n", float64(md.CrossSection))
	fmt.Fprintf(w, "  Branching ratio: %g\n", float64(md.BranchingRatio))
	fmt.Fprintf(w, "  Other SF:        %g\n", float64(md.OtherScaleFactor))
	fmt.Fprintf(w, "  Rel. sys.:       %g%%\n", float64(md.RelSysUncertainty)*100)

	c := res.Counters
	fmt.Fprintln(w, "Counters:")
	fmt.Fprintf(w, "  N_DS:            %d\n", c.InDataset)
	fmt.Fprintf(w, "  N_read:          %d\n", c.ReadByPreprocessing)
	fmt.Fprintf(w, "  N_ntuple:        %d\n", c.InNtuple)
	fmt.Fprintf(w, "  N_analyzed:      %d\n", c.AnalyzedEvents)
	fmt.Fprintf(w, "  Expected:        %s\n", report.FormatCount(float64(c.ExpectedEvents), true))

	f := res.Flags
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintf(w, "  analyzed=%t good_events=%t filled=%t normalized=%t\n",
		f.Analyzed, f.ObtainedGoodEvents, f.FilledHistos, f.NormalizedHistos)

	fmt.Fprintf(w, "Histograms (%d):\n", len(res.Histograms))
	for _, h := range r.HistogramNames() {
		if v, ok := res.Histograms[h]; ok {
			fmt.Fprintf(w, "  %-24s %s\n", h, report.FormatCount(float64(v), true))
		}
	}

	fmt.Fprintf(w, "Snapshots (%d):\n", len(res.History))
	for _, s := range res.History {
		fmt.Fprintf(w, "  %4d  %s  %s  %.12s\n", s.Seq, s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.Digest)
	}
	return nil
}

// describeType renders a record type for text output.
func describeType(r *process.Record) string {
	switch {
	case r.IsCollisions():
		return "collisions"
	case r.IsSignal():
		return "signal"
	case r.IsBackground():
		return "background"
	}
	return r.Type
}
