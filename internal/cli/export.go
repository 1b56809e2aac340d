package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nilvalls/TTHTauTau-Roast/internal/report"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// ExportResult is the payload of the export command.
type ExportResult struct {
	Output    string   `json:"output"`
	Processes []string `json:"processes"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export [process...]",
		Short: "Write cut-flows to an Excel workbook",
		Long: `Write a workbook with a summary sheet and one cut-flow sheet per process.

Example:
  roast export -o cutflow.xlsx
  roast export -o signal.xlsx tth`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output .xlsx file (required)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions, names []string) error {
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

	if err := report.ExportXLSX(opts.Output, recs); err != nil {
		return WrapExitError(ExitFailure, "failed to write workbook", err)
	}
	opts.logger.Info("workbook written", "path", opts.Output, "sheets", len(recs)+1)

	result := ExportResult{Output: opts.Output, Processes: make([]string, 0, len(recs))}
	for _, r := range recs {
		result.Processes = append(result.Processes, r.ShortName)
	}
	return opts.formatter(cmd).Render(result, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Wrote %s (%d processes)\n", result.Output, len(result.Processes))
		return err
	})
}
