package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"subforge/internal/extraction"
	"subforge/internal/history"
	"subforge/internal/services/whisperx"
	"subforge/internal/subtitles"
)

type extractOptions struct {
	video    string
	output   string
	language string
	model    string
	device   string
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Transcribe a video's speech into an SRT file with WhisperX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.video, "video", "", "Source video file")
	cmd.Flags().StringVar(&opts.output, "output", "", "Destination SRT (defaults to the video path with .srt)")
	cmd.Flags().StringVar(&opts.language, "language", "", "Spoken language; empty auto-detects (defaults to extraction.language)")
	cmd.Flags().StringVar(&opts.model, "model", "", "WhisperX model (defaults to extraction.model)")
	cmd.Flags().StringVar(&opts.device, "device", "", "auto, cpu, or cuda (defaults to extraction.device)")
	_ = cmd.MarkFlagRequired("video")
	return cmd
}

func runExtract(cmd *cobra.Command, ctx *commandContext, opts extractOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	engineCfg := whisperx.ConfigFrom(cfg)
	if flags.Changed("model") {
		engineCfg.Model = opts.model
	}
	if flags.Changed("device") {
		engineCfg.Device = opts.device
	}
	if !flags.Changed("language") {
		opts.language = cfg.Extraction.Language
	}

	req := extraction.Request{
		VideoPath:  strings.TrimSpace(opts.video),
		OutputPath: strings.TrimSpace(opts.output),
		Language:   opts.language,
	}
	output := req.OutputPath
	if output == "" {
		output = extraction.DefaultOutputPath(req.VideoPath)
	}

	model := strings.TrimSpace(engineCfg.Model)
	if model == "" {
		model = whisperx.DefaultModel
	}
	run, err := ctx.beginJob(cmd.Context(), history.KindExtract, req.VideoPath, output, "whisperx "+model)
	if err != nil {
		return err
	}
	engine := whisperx.NewEngine(engineCfg, run.logger)
	supervisor := extraction.NewSupervisor(engine, run.logger)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Extracting subtitles from %s (model %s)\n", req.VideoPath, engine.Model())
	result, err := supervisor.Extract(run.ctx, req, func(cue subtitles.Cue) {
		fmt.Fprintf(out, "[%s --> %s] %s\n", subtitles.FormatTimestamp(cue.Start), subtitles.FormatTimestamp(cue.End), cue.Text())
	})
	if err != nil {
		return run.fail(err)
	}

	switch result.Status {
	case extraction.StatusCancelled:
		fmt.Fprintf(out, "Extraction cancelled after %d entries; nothing written\n", len(result.Cues))
		return run.cancelled(len(result.Cues))
	case extraction.StatusCompleted:
	default:
		return run.fail(fmt.Errorf("extraction ended in state %s", result.Status))
	}

	run.finish(history.Outcome{Status: history.StatusCompleted, Units: len(result.Cues)})
	if !result.Saved {
		fmt.Fprintln(out, "No speech recognized; nothing written")
		return nil
	}
	fmt.Fprintf(out, "Wrote %d entries to %s\n", len(result.Cues), result.OutputPath)
	return nil
}
