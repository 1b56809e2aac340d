package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nilvalls/TTHTauTau-Roast/internal/cutflow"
	"github.com/nilvalls/TTHTauTau-Roast/internal/process"
	"github.com/nilvalls/TTHTauTau-Roast/internal/store"
)

// NormalizeOptions holds flags for the normalize command.
type NormalizeOptions struct {
	*RootOptions
	Luminosity float64
}

// NormalizeEntry is one line of the normalize command's output.
type NormalizeEntry struct {
	Process        string         `json:"process"`
	Applied        bool           `json:"applied"`
	ExpectedEvents cutflow.Number `json:"expected_events"`
	RawEvents      cutflow.Number `json:"raw_events"`
	ScaleFactor    cutflow.Number `json:"scale_factor"`
	Warning        string         `json:"warning,omitempty"`
}

// CombineEntry reports one combined record rebuilt after normalization.
type CombineEntry struct {
	Process string   `json:"process"`
	Members []string `json:"members"`
	Warning string   `json:"warning,omitempty"`
}

// NormalizeResult is the payload of the normalize command.
type NormalizeResult struct {
	Luminosity float64          `json:"luminosity"`
	Processes  []NormalizeEntry `json:"processes"`
	Combined   []CombineEntry   `json:"combined"`
}

// NewNormalizeCommand creates the normalize command.
func NewNormalizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NormalizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "normalize [process...]",
		Short: "Scale simulated processes to an integrated luminosity",
		Long: `Normalize every process (or the named ones) to the integrated luminosity.

Simulated histograms are scaled by L*sigma*BR / (N_DS * N_analyzed/N_ntuple),
times the process's extra scale factor, and a "Lumi norm" row is appended
to the raw cut-flow. Collisions data and processes that are already
normalized are left unchanged. The normalized cut-flow is rebuilt for every
selected process and a new snapshot is saved.

Combinations from the catalog are then rebuilt from their normalized
members and saved. Naming a combination selects its members.

Example:
  roast normalize --lumi 4982
  ROAST_LUMINOSITY=4982 roast normalize ttbar tth`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(cmd, opts, args)
		},
	}

	cmd.Flags().Float64VarP(&opts.Luminosity, "lumi", "l", 0, "integrated luminosity in pb^-1, default from config")

	return cmd
}

func runNormalize(cmd *cobra.Command, opts *NormalizeOptions, names []string) error {
	if err := opts.setup(cmd.ErrOrStderr()); err != nil {
		return err
	}

	lumi := opts.Luminosity
	if lumi == 0 {
		lumi = opts.cfg.Luminosity
	}
	if !(lumi > 0) {
		return NewExitError(ExitCommandError, "integrated luminosity must be positive: pass --lumi or set luminosity in the config")
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	ctx := cmd.Context()
	set, err := st.LoadSet(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read database", err)
	}
	if set.Len() == 0 {
		return NewExitError(ExitCommandError, "no processes in the database: run import first").WithKind(ErrCodeNotFound)
	}
	combs, err := st.Combinations(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read database", err)
	}
	// combined records are derived; drop stale copies and normalize members
	for _, c := range combs {
		set.Remove(c.Name)
		names = expandCombination(names, c)
	}
	recs, err := selectRecords(set, names)
	if err != nil {
		return err
	}

	observer := process.NewLogObserver(opts.logger)
	result := NormalizeResult{
		Luminosity: lumi,
		Processes:  make([]NormalizeEntry, 0, len(recs)),
		Combined:   []CombineEntry{},
	}
	touched := make(map[string]bool, len(recs))
	for _, r := range recs {
		entry := NormalizeEntry{Process: r.ShortName}
		if !r.IsCollisions() {
			if err := r.CheckCounters(); err != nil {
				opts.logger.Warn("scale factor will not be finite", "process", r.ShortName, "error", err)
				entry.Warning = err.Error()
			}
		}

		r.SetObserver(observer)
		n := r.NormalizeToLumi(lumi)
		r.BuildNormalizedCutFlow()
		if n.CutFlowErr != nil && entry.Warning == "" {
			entry.Warning = n.CutFlowErr.Error()
		}

		entry.Applied = n.Applied
		entry.ExpectedEvents = cutflow.Number(n.ExpectedEvents)
		entry.RawEvents = cutflow.Number(n.RawEvents)
		entry.ScaleFactor = cutflow.Number(n.ScaleFactor)

		if _, err := st.SaveRecord(ctx, r); err != nil {
			return WrapExitError(ExitFailure, "failed to save record", err)
		}
		touched[r.ShortName] = true
		result.Processes = append(result.Processes, entry)
	}

	for _, c := range combs {
		if !slices.ContainsFunc(c.Members, func(m string) bool { return touched[m] }) {
			continue
		}
		entry := CombineEntry{Process: c.Name, Members: c.Members}
		combined, err := set.Combine(c.Name, c.Members...)
		if err != nil {
			opts.logger.Warn("combination not rebuilt", "process", c.Name, "error", err)
			entry.Warning = err.Error()
			result.Combined = append(result.Combined, entry)
			continue
		}
		if _, err := st.SaveRecord(ctx, combined); err != nil {
			return WrapExitError(ExitFailure, "failed to save record", err)
		}
		opts.logger.Debug("combination rebuilt", "process", c.Name, "members", c.Members)
		result.Combined = append(result.Combined, entry)
	}

	return opts.formatter(cmd).Render(result, func(w io.Writer) error {
		fmt.Fprintf(w, "Normalized to %g pb^-1\n", lumi)
		for _, e := range result.Processes {
			status := "skipped"
			if e.Applied {
				status = fmt.Sprintf("scale factor %.6g", float64(e.ScaleFactor))
			}
			fmt.Fprintf(w, "  %-20s %s", e.Process, status)
			if e.Warning != "" {
				fmt.Fprintf(w, " (warning: %s)", e.Warning)
			}
			fmt.Fprintln(w)
		}
		for _, c := range result.Combined {
			fmt.Fprintf(w, "  %-20s combined from %s", c.Process, strings.Join(c.Members, ", "))
			if c.Warning != "" {
				fmt.Fprintf(w, " (warning: %s)", c.Warning)
			}
			fmt.Fprintln(w)
		}
		return nil
	})
}

// expandCombination replaces c's name in names with its members.
func expandCombination(names []string, c store.Combination) []string {
	i := slices.Index(names, c.Name)
	if i < 0 {
		return names
	}
	return slices.Concat(names[:i:i], c.Members, names[i+1:])
}
