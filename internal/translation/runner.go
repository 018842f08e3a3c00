package translation

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"subforge/internal/logging"
	"subforge/internal/services"
	"subforge/internal/subtitles"
)

// DefaultBatchDelay is the pause between consecutive batch calls.
const DefaultBatchDelay = 2 * time.Second

const previewLimit = 200

// Translator converts a newline-separated blob of captions into targetLanguage.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// ProgressFunc is invoked after every batch with the 1-based batch number and
// the batch total.
type ProgressFunc func(batch, total int)

// Runner executes one translation job at a time.
type Runner struct {
	translator Translator
	logger     *slog.Logger
	delay      time.Duration
	wait       func(ctx context.Context, d time.Duration) error
	busy       atomic.Bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithBatchDelay overrides the pause between batches. Negative values are treated as zero.
func WithBatchDelay(d time.Duration) Option {
	return func(r *Runner) {
		r.delay = max(d, 0)
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner constructs a runner around translator.
func NewRunner(translator Translator, opts ...Option) *Runner {
	r := &Runner{
		translator: translator,
		delay:      DefaultBatchDelay,
		wait:       sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.logger = logging.NewComponentLogger(r.logger, "translation")
	return r
}

// Busy reports whether a job is currently running.
func (r *Runner) Busy() bool {
	return r.busy.Load()
}

// Run translates job batch by batch. Cancelling ctx stops the job at the next
// batch boundary and yields StateCancelled with a nil error and no cues.
// Validation problems fail the job before any call is made.
func (r *Runner) Run(ctx context.Context, job *Job, onBatch ProgressFunc) (Result, error) {
	if job == nil {
		return Result{State: StateFailed}, services.Wrap(services.ErrValidation, "translation", "run", "job is nil", nil)
	}
	if !r.busy.CompareAndSwap(false, true) {
		return Result{JobID: job.ID, State: job.State()}, services.Wrap(services.ErrJobActive, "translation", "run", "a translation job is already running", nil)
	}
	defer r.busy.Store(false)

	ctx = services.WithJobID(ctx, job.ID)
	ctx = services.WithJobKind(ctx, "translate")
	logger := logging.WithContext(ctx, r.logger)

	result := Result{JobID: job.ID}
	if err := r.validate(job); err != nil {
		job.setState(StateFailed)
		result.State = StateFailed
		logging.ErrorWithContext(logger, "translation job rejected", "job_rejected", logging.Error(err))
		return result, err
	}

	job.setState(StateRunning)
	work := job.Cues.Clone()
	total := subtitles.BatchCount(len(work), job.BatchSize)
	result.Batches = total
	batches, err := subtitles.Batches(work, job.BatchSize)
	if err != nil {
		job.setState(StateFailed)
		result.State = StateFailed
		return result, err
	}

	logger.Info("translation started",
		logging.Int("cues", len(work)),
		logging.Int(logging.FieldBatchCount, total),
		logging.String("target_language", job.TargetLanguage),
	)

	for index, batch := range batches {
		number := index + 1
		if ctx.Err() != nil {
			return r.cancel(job, result, logger), nil
		}

		batchLogger := logger.With(logging.Int(logging.FieldBatch, number), logging.Int(logging.FieldBatchCount, total))
		if err := r.translateBatch(ctx, batch, job.TargetLanguage, batchLogger); err != nil {
			logging.ErrorWithContext(batchLogger, "batch translation failed; keeping original text", "batch_fallback",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the API key, model name, and network connectivity"),
			)
			result.Fallbacks = append(result.Fallbacks, number)
			result.Errors = append(result.Errors, BatchError{Batch: number, Err: err})
		}
		result.Processed = number

		if onBatch != nil {
			onBatch(number, total)
		}

		if number < total && r.delay > 0 {
			if err := r.wait(ctx, r.delay); err != nil {
				return r.cancel(job, result, logger), nil
			}
		}
	}

	result.Cues = work
	result.State = StateCompleted
	if len(result.Fallbacks) > 0 {
		result.State = StateCompletedWithFallback
	}
	job.setState(result.State)
	logger.Info("translation finished",
		logging.String("state", string(result.State)),
		logging.Int("fallback_batches", len(result.Fallbacks)),
	)
	return result, nil
}

func (r *Runner) validate(job *Job) error {
	if state := job.State(); state != StateIdle {
		return services.Wrap(services.ErrValidation, "translation", "validate job", "job already ran (state "+string(state)+")", nil)
	}
	if job.BatchSize < 1 {
		return services.Wrap(services.ErrConfiguration, "translation", "validate job", "batch size must be at least 1", nil)
	}
	if strings.TrimSpace(job.TargetLanguage) == "" {
		return services.Wrap(services.ErrValidation, "translation", "validate job", "target language required", nil)
	}
	if r.translator == nil {
		return services.Wrap(services.ErrConfiguration, "translation", "validate job", "translation backend not configured", nil)
	}
	return nil
}

// translateBatch replaces batch lines in place. On error the batch is untouched.
func (r *Runner) translateBatch(ctx context.Context, batch subtitles.CueSet, targetLanguage string, logger *slog.Logger) error {
	blob := encodeBatch(batch)
	if strings.TrimSpace(blob) == "" {
		logger.Debug("batch has no text; skipping")
		return nil
	}
	logger.Info("translating batch")
	logger.Debug("batch source", logging.String("preview", preview(blob, previewLimit)))

	// Cancellation is checked between batches; the call itself is never interrupted.
	reply, err := r.translator.Translate(context.WithoutCancel(ctx), blob, targetLanguage)
	if err != nil {
		return err
	}
	logger.Debug("batch translated", logging.String("preview", preview(reply, previewLimit)))

	lines := splitReply(reply, batch)
	switch {
	case len(lines) < len(batch):
		logging.WarnWithContext(logger, "translation returned fewer lines than cues; remaining cues keep original text", "batch_short_reply",
			logging.Int("expected_lines", len(batch)),
			logging.Int("received_lines", len(lines)),
			logging.String(logging.FieldImpact, "some captions stay untranslated"),
		)
	case len(lines) > len(batch):
		logger.Debug("translation returned extra lines; discarding",
			logging.Int("expected_lines", len(batch)),
			logging.Int("received_lines", len(lines)),
		)
	}
	for i := range min(len(lines), len(batch)) {
		if isBlankCue(batch[i]) {
			continue
		}
		batch[i] = batch[i].WithLines(decodeCue(lines[i]))
	}
	return nil
}

func (r *Runner) cancel(job *Job, result Result, logger *slog.Logger) Result {
	job.setState(StateCancelled)
	result.State = StateCancelled
	result.Cues = nil
	logger.Info("translation cancelled", logging.Int("batches_done", result.Processed))
	return result
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
