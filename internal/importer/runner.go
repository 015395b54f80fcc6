package importer

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/RakanEX/finance-db-pyscript/internal/ledger"
	"github.com/RakanEX/finance-db-pyscript/internal/logger"
	"github.com/RakanEX/finance-db-pyscript/internal/model"
	"github.com/RakanEX/finance-db-pyscript/internal/report"
	"github.com/RakanEX/finance-db-pyscript/internal/runlog"
)

// Store is the persistence the runner writes batches to.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, facts []model.Fact) (int64, error)
}

// Job is one file to ingest with its report variant.
type Job struct {
	Path    string
	Variant model.Variant
}

// InvalidBatchError means normalization produced facts that break ledger rules.
type InvalidBatchError struct {
	Path       string
	Violations []ledger.ValidationError
}

func (e *InvalidBatchError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Error())
	}
	return fmt.Sprintf("%s: %d invalid facts: %s", e.Path, len(e.Violations), strings.Join(msgs, "; "))
}

// Result is the outcome for one job.
type Result struct {
	Job      Job
	Batch    *report.Batch // nil when the file failed
	Affected int64
	Err      error // file-scoped failure
}

// OK reports whether the file was processed.
func (r Result) OK() bool { return r.Err == nil }

// Report summarizes a run.
type Report struct {
	RunID   string
	Started time.Time
	Results []Result
}

// Failed returns the number of files that could not be processed.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK() {
			n++
		}
	}
	return n
}

// Facts returns the number of facts emitted across all files.
func (r *Report) Facts() int {
	n := 0
	for _, res := range r.Results {
		if res.Batch != nil {
			n += len(res.Batch.Facts)
		}
	}
	return n
}

// Affected returns the number of rows the store reported written.
func (r *Report) Affected() int64 {
	var n int64
	for _, res := range r.Results {
		n += res.Affected
	}
	return n
}

// Entries converts the results into ingest-log rows.
func (r *Report) Entries(dryRun bool) []runlog.Entry {
	entries := make([]runlog.Entry, 0, len(r.Results))
	for _, res := range r.Results {
		e := runlog.Entry{
			Timestamp: r.Started,
			RunID:     r.RunID,
			File:      filepath.Base(res.Job.Path),
			Variant:   string(res.Job.Variant),
			Affected:  res.Affected,
		}
		switch {
		case res.Err != nil:
			e.Status = runlog.StatusFailed
			e.Details = res.Err.Error()
		case len(res.Batch.Facts) == 0:
			e.Status = runlog.StatusNoFacts
		case dryRun:
			e.Status = runlog.StatusDryRun
		default:
			e.Status = runlog.StatusLoaded
		}
		if res.Batch != nil {
			e.Facts = len(res.Batch.Facts)
		}
		entries = append(entries, e)
	}
	return entries
}

// Runner processes files one at a time. File-scoped failures are recorded
// and the run moves on; store failures abort the run.
type Runner struct {
	store   Store
	opts    report.Options
	runID   string
	dryRun  io.Writer
	wrote   bool
	ensured bool
}

// NewRunner creates a runner writing to store.
func NewRunner(store Store, opts report.Options, runID string) *Runner {
	return &Runner{store: store, opts: opts, runID: runID}
}

// NewDryRunner creates a runner that writes ledger CSV to w instead of storing.
func NewDryRunner(w io.Writer, opts report.Options, runID string) *Runner {
	return &Runner{dryRun: w, opts: opts, runID: runID}
}

// Run processes jobs in order, logging through the logger carried by ctx.
func (r *Runner) Run(ctx context.Context, jobs []Job) (*Report, error) {
	rep := &Report{RunID: r.runID, Started: r.now()}

	for _, job := range jobs {
		res, err := r.process(ctx, job)
		if err != nil {
			res.Err = err
			rep.Results = append(rep.Results, res)
			return rep, err
		}
		rep.Results = append(rep.Results, res)
	}

	runLog := logger.FromContext(ctx)
	runLog.Info().
		Int("files", len(rep.Results)).
		Int("failed", rep.Failed()).
		Int("facts", rep.Facts()).
		Int64("affected", rep.Affected()).
		Msg("run complete")
	return rep, nil
}

func (r *Runner) process(ctx context.Context, job Job) (Result, error) {
	res := Result{Job: job}
	log := logger.FromContext(ctx).With().Str("file", filepath.Base(job.Path)).Str("variant", string(job.Variant)).Logger()

	cfg, err := report.ConfigFor(job.Variant)
	if err != nil {
		res.Err = err
		log.Error().Err(err).Msg("skipping file")
		return res, nil
	}

	batch, err := report.ProcessFile(job.Path, cfg, r.opts)
	if err != nil {
		if !report.IsFileScoped(err) {
			return res, err
		}
		res.Err = err
		log.Error().Err(err).Msg("skipping file")
		return res, nil
	}
	if violations := ledger.ValidateFacts(batch.Facts); len(violations) > 0 {
		res.Err = &InvalidBatchError{Path: job.Path, Violations: violations}
		log.Error().Err(res.Err).Msg("skipping file")
		return res, nil
	}
	res.Batch = batch

	ev := log.Info().
		Int("rows", batch.Stats.Rows).
		Int("sections", batch.Stats.Sections).
		Int("excluded_label", batch.Stats.ExcludedLabel).
		Int("excluded_zero", batch.Stats.ExcludedZero).
		Int("facts", len(batch.Facts))
	if job.Variant.IsDump() {
		ev = ev.Str("entity", batch.Entity)
	} else {
		ev = ev.Str("period", batch.Period.Format(model.DateFormat))
	}
	ev.Msg("normalized")

	if len(batch.Facts) == 0 {
		log.Warn().Msg("no facts to store")
		return res, nil
	}

	if r.dryRun != nil {
		return res, r.writeDryRun(batch.Facts)
	}

	if !r.ensured {
		if err := r.store.EnsureSchema(ctx); err != nil {
			return res, err
		}
		r.ensured = true
	}
	n, err := r.store.Upsert(ctx, batch.Facts)
	if err != nil {
		return res, fmt.Errorf("storing %s: %w", job.Path, err)
	}
	res.Affected = n
	log.Info().Int64("affected", n).Msg("stored")
	return res, nil
}

func (r *Runner) writeDryRun(facts []model.Fact) error {
	if r.wrote {
		return ledger.AppendFacts(r.dryRun, facts)
	}
	r.wrote = true
	return ledger.WriteFacts(r.dryRun, facts)
}

func (r *Runner) now() time.Time {
	if r.opts.Now != nil {
		return r.opts.Now()
	}
	return time.Now()
}

