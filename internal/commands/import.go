package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/RakanEX/finance-db-pyscript/internal/importer"
	"github.com/RakanEX/finance-db-pyscript/internal/runlog"
)

func newImportCommand(g *globalFlags) *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "import [directory]",
		Short: "Ingest every export waiting in the project's import directory",
		Long: "Ingest every .csv/.xlsx export in <directory>/import/. Files in a subdirectory\n" +
			"named after a variant (import/balance-dump/...) use that variant. Loaded files\n" +
			"move to import/processed/ and every file is recorded in logs/ingest-log.csv.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(g, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			root := s.baseDir
			if len(args) > 0 {
				root = resolve(s.baseDir, args[0])
			}
			return runImport(cmd.Context(), s, root, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	addVariantFlags(cmd, &opts.variant, &opts.scenario, &opts.mapping)
	addStoreFlags(cmd, &opts.store, &opts.dryRun)

	return cmd
}

func runImport(ctx context.Context, s *session, root string, opts ingestOptions, stdout, stderr io.Writer) error {
	def, err := s.variant(opts.variant)
	if err != nil {
		return err
	}

	ctx = s.context(ctx)

	dir := s.cfg.Ingest.ImportDir
	files, err := importer.Scan(root, dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(stdout, "No exports in %s\n", filepath.Join(root, dir))
		return nil
	}

	jobs := make([]importer.Job, 0, len(files))
	for _, f := range files {
		jobs = append(jobs, f.Job(def))
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

	rep, runErr := runner.Run(ctx, jobs)
	if rep != nil && len(rep.Results) > 0 {
		if err := runlog.Append(root, rep.Entries(opts.dryRun)); err != nil {
			fmt.Fprintf(stderr, "warning: failed to write ingest log: %v\n", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	if !opts.dryRun {
		for i, res := range rep.Results {
			if !res.OK() {
				continue
			}
			if _, err := importer.MarkProcessed(root, dir, files[i].Name, s.runID); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "%s: %d facts, %d rows written\n", files[i].Name, len(res.Batch.Facts), res.Affected)
		}
	}

	return failures(rep, stderr)
}
