// Package cli implements the roast command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/nilvalls/TTHTauTau-Roast/internal/config"
	"github.com/nilvalls/TTHTauTau-Roast/internal/process"
	"github.com/nilvalls/TTHTauTau-Roast/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"; empty defers to config
	ConfigPath string
	Database   string // overrides config when set

	// StoreOptions are passed to store.Open (for testing).
	StoreOptions []store.Option

	cfg    *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the roast CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roast",
		Short: "Roast - luminosity normalization and cut-flow bookkeeping",
		Long: `Roast keeps per-process records for a ttH(tau tau) analysis: physics
constants, upstream event counts, histograms and cut-flows. It normalizes
simulated processes to an integrated luminosity and reports raw and
normalized cut-flows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd.ErrOrStderr())
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "", "output format (json|text), default from config")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default ./"+config.DefaultFile+" if present)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database, default from config")

	// Add subcommands
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewNormalizeCommand(opts))
	cmd.AddCommand(NewCutFlowCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code.
// Failures are reported on stderr, or as a JSON error response on stdout
// when JSON output is selected.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer, storeOpts ...store.Option) int {
	opts := &RootOptions{StoreOptions: storeOpts}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	// cobra's own argument and flag validation errors are usage errors
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		err = WrapExitError(ExitCommandError, "invalid usage", err)
	}

	f := &OutputFormatter{Format: opts.Format, Writer: stderr, Verbose: opts.Verbose}
	if f.Format == "json" {
		f.Writer = stdout
	}
	_ = f.Error(ErrorKind(err), err.Error(), nil)
	return GetExitCode(err)
}

// setup resolves configuration and logging once per invocation. Flags win
// over the config file and environment.
func (o *RootOptions) setup(errOut io.Writer) error {
	if o.cfg != nil {
		return nil
	}

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err).WithKind(ErrCodeConfig)
	}
	if o.Format != "" {
		if !isValidFormat(o.Format) {
			return NewExitError(ExitCommandError,
				fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
		}
		cfg.Format = o.Format
	}
	o.Format = cfg.Format
	if o.Database != "" {
		cfg.Database = o.Database
	}

	level, err := cfg.Level()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log level", err).WithKind(ErrCodeConfig)
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))
	o.cfg = cfg
	return nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// openStore opens the configured database. Callers close it.
func (o *RootOptions) openStore() (*store.Store, error) {
	o.logger.Debug("opening database", "path", o.cfg.Database)
	opts := append([]store.Option{store.WithLogger(o.logger)}, o.StoreOptions...)
	st, err := store.Open(o.cfg.Database, opts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err).WithKind(ErrCodeStore)
	}
	return st, nil
}

func (o *RootOptions) closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		o.logger.Error("error closing database", "error", err)
	}
}

// selectRecords returns the named records in argument order, or every
// record when names is empty.
func selectRecords(set *process.Set, names []string) ([]*process.Record, error) {
	if len(names) == 0 {
		return set.All(), nil
	}
	recs := make([]*process.Record, 0, len(names))
	for _, name := range names {
		r, ok := set.Get(name)
		if !ok {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown process %q", name)).WithKind(ErrCodeNotFound)
		}
		recs = append(recs, r)
	}
	return recs, nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
