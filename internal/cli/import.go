package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nilvalls/TTHTauTau-Roast/internal/catalog"
	"github.com/nilvalls/TTHTauTau-Roast/internal/store"
)

// ImportResult is the payload of the import command.
type ImportResult struct {
	Catalog   string   `json:"catalog"`
	Created   []string `json:"created"`
	Updated   []string `json:"updated"`
	Combined  []string `json:"combined"`
	Snapshots []string `json:"snapshots"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [catalog]",
		Short: "Load process definitions into the database",
		Long: `Load a YAML or CUE process catalog into the database.

Processes already in the database have their metadata and upstream counts
updated, which clears their normalized state. New processes are created.
Combinations listed in the catalog are recorded; normalize builds them from
their normalized members.

Example:
  roast import processes.yaml
  roast import --db tth.db processes.cue`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, rootOpts, args)
		},
	}
	return cmd
}

func runImport(cmd *cobra.Command, opts *RootOptions, args []string) error {
	if err := opts.setup(cmd.ErrOrStderr()); err != nil {
		return err
	}

	path := opts.cfg.Catalog
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return NewExitError(ExitCommandError, "no catalog given: pass a path or set catalog in the config").WithKind(ErrCodeCatalog)
	}

	cat, err := catalog.LoadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load catalog", err).WithKind(ErrCodeCatalog)
	}
	opts.logger.Info("catalog loaded", "path", path, "processes", len(cat.Processes), "combinations", len(cat.Combine))

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

	result := ImportResult{Catalog: path, Created: []string{}, Updated: []string{}, Combined: []string{}}
	for _, e := range cat.Processes {
		if _, ok := set.Get(e.Name); ok {
			result.Updated = append(result.Updated, e.Name)
		} else {
			result.Created = append(result.Created, e.Name)
		}
	}
	cat.Apply(set)

	combs := make([]store.Combination, 0, len(cat.Combine))
	for _, c := range cat.Combine {
		combs = append(combs, store.Combination{Name: c.Name, Members: c.Members})
		result.Combined = append(result.Combined, c.Name)
	}
	if err := st.SaveCombinations(ctx, combs); err != nil {
		return WrapExitError(ExitFailure, "failed to save combinations", err)
	}

	touched := append(append([]string{}, result.Created...), result.Updated...)
	out := opts.formatter(cmd)
	result.Snapshots = make([]string, 0, len(touched))
	for _, name := range touched {
		r, _ := set.Get(name)
		id, err := st.SaveRecord(ctx, r)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to save record", err)
		}
		out.VerboseLog("saved %s as snapshot %s", name, id)
		result.Snapshots = append(result.Snapshots, id)
	}

	return out.Render(result, func(w io.Writer) error {
		fmt.Fprintf(w, "Imported %s: %d created, %d updated", path, len(result.Created), len(result.Updated))
		if len(result.Combined) > 0 {
			fmt.Fprintf(w, ", %d combinations (%s)", len(result.Combined), strings.Join(result.Combined, ", "))
		}
		fmt.Fprintln(w)
		return nil
	})
}
