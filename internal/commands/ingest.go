package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/RakanEX/finance-db-pyscript/internal/importer"
	"github.com/RakanEX/finance-db-pyscript/internal/model"
)

type ingestOptions struct {
	variant  string
	scenario string
	mapping  string
	dryRun   bool
	store    storeFlags
}

func newIngestCommand(g *globalFlags) *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Normalize report exports and upsert them into the database",
		Long: "Normalize NetSuite income statement or balance sheet exports (CSV or XLSX)\n" +
			"and upsert the resulting facts. Variants: " + model.VariantNames() + ".",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(g, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runIngest(cmd.Context(), s, args, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	addVariantFlags(cmd, &opts.variant, &opts.scenario, &opts.mapping)
	addStoreFlags(cmd, &opts.store, &opts.dryRun)

	return cmd
}

func addVariantFlags(cmd *cobra.Command, variant, scenario, mapping *string) {
	cmd.Flags().StringVar(variant, "variant", "", "report variant: "+model.VariantNames()+" (default from config)")
	cmd.Flags().StringVar(variant, "mode", "", "alias of --variant (monthly-income, dump-income, dump-balance, monthly-balance)")
	cmd.Flags().StringVar(scenario, "scenario", "", "scenario tag for every fact (default from config, Actual)")
	cmd.Flags().StringVar(mapping, "mapping", "", "entity mapping CSV (default from config)")
}

func addStoreFlags(cmd *cobra.Command, f *storeFlags, dryRun *bool) {
	cmd.Flags().StringVar(&f.db, "db", "", "target database: postgres://..., sqlite:<path> or csv:<path> (default from config)")
	cmd.Flags().StringVar(&f.table, "table", "", "fact table name (default from config)")
	if dryRun != nil {
		cmd.Flags().BoolVar(dryRun, "dry-run", false, "print facts as CSV instead of storing them")
	}
}

func runIngest(ctx context.Context, s *session, files []string, opts ingestOptions, stdout, stderr io.Writer) error {
	variant, err := s.variant(opts.variant)
	if err != nil {
		return err
	}

	ctx = s.context(ctx)

	// Unreadable files fail on their own inside the run.
	jobs := make([]importer.Job, 0, len(files))
	for _, f := range files {
		jobs = append(jobs, importer.Job{Path: resolve(s.baseDir, f), Variant: variant})
	}

	popts := s.options(opts.scenario, opts.mapping)
	var runner *importer.Runner
	if opts.dryRun {
		runner = importer.NewDryRunner(stdout, popts, s.runID)
	} else {
		st, err := s.openStore(ctx, opts.store, os.Stdin, stderr)
		if err != nil {
			return err
		}
		defer st.Close()
		runner = importer.NewRunner(st, popts, s.runID)
	}

	rep, err := runner.Run(ctx, jobs)
	if err != nil {
		return err
	}

	if !opts.dryRun {
		for _, res := range rep.Results {
			if res.OK() {
				fmt.Fprintf(stdout, "%s: %d facts, %d rows written\n", filepath.Base(res.Job.Path), len(res.Batch.Facts), res.Affected)
			}
		}
	}
	return failures(rep, stderr)
}

// failures prints per-file errors and turns them into the command error.
func failures(rep *importer.Report, stderr io.Writer) error {
	failed := rep.Failed()
	if failed == 0 {
		return nil
	}
	for _, res := range rep.Results {
		if !res.OK() {
			fmt.Fprintf(stderr, "error: %s: %v\n", filepath.Base(res.Job.Path), res.Err)
		}
	}
	return fmt.Errorf("%d of %d files failed", failed, len(rep.Results))
}
