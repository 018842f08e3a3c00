package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"subforge/internal/config"
	"subforge/internal/history"
	"subforge/internal/jobslot"
	"subforge/internal/logging"
	"subforge/internal/services"
)

// errCancelled is returned by job commands whose job was cancelled so the
// process exits nonzero without printing an error line.
var errCancelled = fmt.Errorf("job cancelled: %w", context.Canceled)

// jobRun holds the resources a job command owns between begin and finish.
type jobRun struct {
	ctx    context.Context
	cfg    *config.Config
	logger *slog.Logger
	record *history.Record
	store  *history.Store
	slot   *jobslot.Slot
	jobLog *logging.JobLog
}

type jobSettings struct {
	quietConsole bool
}

type jobOption func(*jobSettings)

// withQuietConsole raises the main logger to warn for the job when quiet is
// set, unless debug logging was requested. Everything still reaches the job log.
func withQuietConsole(quiet bool) jobOption {
	return func(s *jobSettings) {
		s.quietConsole = quiet
	}
}

// beginJob takes the slot for kind, closes records a crashed process left
// running, records the new job and opens its job log.
func (c *commandContext) beginJob(ctx context.Context, kind history.Kind, input, output, detail string, opts ...jobOption) (*jobRun, error) {
	var settings jobSettings
	for _, opt := range opts {
		opt(&settings)
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	base, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	slot, err := jobslot.Acquire(cfg.Paths.StateDir, string(kind))
	if err != nil {
		return nil, err
	}
	run := &jobRun{cfg: cfg, slot: slot}

	store, err := history.Open(cfg)
	if err != nil {
		run.release()
		return nil, fmt.Errorf("open history: %w", err)
	}
	run.store = store

	// Bookkeeping runs even when ctx is already cancelled so the job is recorded.
	dbCtx := context.WithoutCancel(ctx)
	if n, err := store.AbandonRunning(dbCtx, kind); err != nil {
		base.Warn("failed to close abandoned jobs", logging.Error(err))
	} else if n > 0 {
		base.Info("closed abandoned jobs", logging.Int64("count", n), logging.String("kind", string(kind)))
	}
	if days := cfg.Logging.RetentionDays; days > 0 {
		if _, err := store.Prune(dbCtx, time.Now().AddDate(0, 0, -days)); err != nil {
			base.Warn("failed to prune job history", logging.Error(err))
		}
	}

	record, err := store.Start(dbCtx, history.Record{Kind: kind, InputPath: input, OutputPath: output, Detail: detail})
	if err != nil {
		run.release()
		return nil, fmt.Errorf("record job: %w", err)
	}
	run.record = record

	ctx = services.WithJobID(ctx, record.ID)
	ctx = services.WithJobKind(ctx, string(kind))
	console := base
	if settings.quietConsole && !base.Enabled(ctx, slog.LevelDebug) {
		console = logging.WithLevelOverride(base, slog.LevelWarn)
	}
	logger, jobLog, err := logging.OpenJobLog(console, cfg.JobLogDir(), string(kind), record.ID)
	if err != nil {
		logging.WarnWithContext(base, "job log unavailable", "job_log_open",
			logging.Error(err),
			logging.String(logging.FieldImpact, "job output only goes to the main log"),
		)
		logger = base
	}
	run.jobLog = jobLog
	run.ctx = ctx
	run.logger = logging.WithContext(ctx, logger)

	exclude := []string{}
	if jobLog != nil {
		exclude = append(exclude, jobLog.Path)
	}
	logging.CleanupOldLogs(run.logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     cfg.JobLogDir(),
		Pattern: "*.log",
		Exclude: exclude,
	})
	return run, nil
}

// finish records the outcome and releases everything beginJob acquired.
// Recording survives cancellation of the job context.
func (r *jobRun) finish(outcome history.Outcome) {
	defer r.release()
	ctx := context.WithoutCancel(r.ctx)
	if _, err := r.store.Finish(ctx, r.record.ID, outcome); err != nil {
		r.logger.Warn("failed to record job outcome", logging.Error(err))
	}
}

// fail records err with the status its marker implies and returns err.
func (r *jobRun) fail(err error) error {
	r.finish(history.Outcome{Status: services.FailureStatus(err), Err: err})
	return err
}

// cancelled records a cancelled job and returns errCancelled.
func (r *jobRun) cancelled(units int) error {
	r.finish(history.Outcome{Status: history.StatusCancelled, Units: units})
	return errCancelled
}

func (r *jobRun) release() {
	if r.jobLog != nil {
		_ = r.jobLog.Close()
	}
	if r.store != nil {
		_ = r.store.Close()
	}
	if r.slot != nil {
		_ = r.slot.Release()
	}
}
