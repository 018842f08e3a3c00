package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subforge/internal/history"
	"subforge/internal/language"
	"subforge/internal/logging"
	"subforge/internal/services"
	"subforge/internal/services/llm"
	"subforge/internal/subtitles"
	"subforge/internal/translation"
)

type translateOptions struct {
	inputFile  string
	outputFile string
	targetLang string
	batchSize  int
	batchDelay time.Duration
	model      string
}

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var opts translateOptions

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate an SRT file through the configured LLM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("target_lang") {
				opts.targetLang = cfg.Translation.TargetLanguage
			}
			if !flags.Changed("batch_size") {
				opts.batchSize = cfg.Translation.BatchSize
			}
			if !flags.Changed("batch_delay") {
				opts.batchDelay = time.Duration(cfg.Translation.BatchDelaySeconds * float64(time.Second))
			}
			if !flags.Changed("model") {
				opts.model = cfg.LLM.Model
			}
			return runTranslate(cmd, ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.inputFile, "input_file", "", "Source SRT file")
	cmd.Flags().StringVar(&opts.outputFile, "output_file", "", "Destination for the translated SRT")
	cmd.Flags().StringVar(&opts.targetLang, "target_lang", "zh", "Target language code or name")
	cmd.Flags().IntVar(&opts.batchSize, "batch_size", 10, "Subtitle entries per LLM request")
	cmd.Flags().DurationVar(&opts.batchDelay, "batch_delay", translation.DefaultBatchDelay, "Pause between batches")
	cmd.Flags().StringVar(&opts.model, "model", "", "LLM model identifier (defaults to llm.model)")
	_ = cmd.MarkFlagRequired("input_file")
	_ = cmd.MarkFlagRequired("output_file")
	return cmd
}

func runTranslate(cmd *cobra.Command, ctx *commandContext, opts translateOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireLLM(); err != nil {
		return err
	}

	input := strings.TrimSpace(opts.inputFile)
	output := strings.TrimSpace(opts.outputFile)
	detail := fmt.Sprintf("%s via %s", language.DisplayName(opts.targetLang), opts.model)
	run, err := ctx.beginJob(cmd.Context(), history.KindTranslate, input, output, detail)
	if err != nil {
		return err
	}
	logger := run.logger

	cues, err := subtitles.ParseFile(input)
	if err != nil {
		return run.fail(services.Wrap(services.ErrValidation, "translate", "read input", "cannot read subtitles", err))
	}
	if len(cues) == 0 {
		return run.fail(services.Wrap(services.ErrValidation, "translate", "read input", input+" contains no subtitles", nil))
	}

	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          opts.model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	},
		llm.WithRetryMaxAttempts(cfg.LLM.RetryAttempts),
		llm.WithRetryBackoff(time.Duration(cfg.LLM.RetryBackoffSeconds)*time.Second, time.Duration(cfg.LLM.RetryBackoffSeconds)*time.Second),
	)
	runner := translation.NewRunner(client,
		translation.WithBatchDelay(opts.batchDelay),
		translation.WithLogger(logger),
	)
	job := translation.NewJob(cues, opts.targetLang, opts.batchSize)
	job.ID = run.record.ID

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Translating %d entries from %s into %s\n", len(cues), input, language.DisplayName(opts.targetLang))
	result, err := runner.Run(run.ctx, job, func(batch, total int) {
		fmt.Fprintf(out, "Translating batch %d of %d\n", batch, total)
	})
	if err != nil {
		return run.fail(err)
	}

	switch result.State {
	case translation.StateCancelled:
		fmt.Fprintf(out, "Translation cancelled after %d of %d batches; nothing written\n", result.Processed, result.Batches)
		return run.cancelled(result.Processed)
	case translation.StateCompleted, translation.StateCompletedWithFallback:
	default:
		return run.fail(fmt.Errorf("translation ended in state %s", result.State))
	}

	if err := subtitles.WriteFile(output, result.Cues); err != nil {
		return run.fail(fmt.Errorf("write %s: %w", output, err))
	}

	status := history.StatusCompleted
	if result.State == translation.StateCompletedWithFallback {
		status = history.StatusCompletedWithFallback
		logging.WarnWithContext(logger, "some batches kept their original text", "translation_fallback",
			logging.Any("batches", result.Fallbacks),
			logging.String(logging.FieldImpact, "untranslated lines in output"),
		)
		fmt.Fprintf(out, "Warning: %d of %d batches kept their original text (batches %s)\n",
			len(result.Fallbacks), result.Batches, joinInts(result.Fallbacks))
	}
	run.finish(history.Outcome{Status: status, Units: result.Batches, FallbackUnits: len(result.Fallbacks)})
	fmt.Fprintf(out, "Wrote %s\n", output)
	return nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
