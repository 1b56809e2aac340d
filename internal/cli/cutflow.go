package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/nilvalls/TTHTauTau-Roast/internal/report"
)

// CutFlowOptions holds flags for the cutflow command.
type CutFlowOptions struct {
	*RootOptions
	Normalized bool
}

// NewCutFlowCommand creates the cutflow command.
func NewCutFlowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CutFlowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cutflow [process...]",
		Short: "Print cut-flow tables",
		Long: `Print the cut-flow of every process (or the named ones) side by side.

Example:
  roast cutflow
  roast cutflow --normalized ttbar tth
  roast cutflow --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCutFlow(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.Normalized, "normalized", "n", false, "print the luminosity-normalized cut-flow")

	return cmd
}

func runCutFlow(cmd *cobra.Command, opts *CutFlowOptions, names []string) error {
	if err := opts.setup(cmd.ErrOrStderr()); err != nil {
		return err
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	set, err := st.LoadSet(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read database", err)
	}
	recs, err := selectRecords(set, names)
	if err != nil {
		return err
	}

	data, err := report.CutFlowJSON(recs, opts.Normalized)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to render cut-flow", err)
	}
	return opts.formatter(cmd).Render(json.RawMessage(data), func(w io.Writer) error {
		return report.WriteCutFlowText(w, recs, opts.Normalized)
	})
}
