package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"subforge/internal/history"
	"subforge/internal/services"
	"subforge/internal/transcode"
)

type burnOptions struct {
	video      string
	subtitles  string
	output     string
	videoCodec string
	audioCodec string
	quality    int
	charset    string

	fontName         string
	fontSize         int
	primaryColor     string
	outlineColor     string
	outlineWidth     int
	bold             bool
	italic           bool
	position         string
	marginVertical   int
	marginHorizontal int
}

func newBurnCommand(ctx *commandContext) *cobra.Command {
	var opts burnOptions

	cmd := &cobra.Command{
		Use:   "burn",
		Short: "Burn subtitles into a video with ffmpeg",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBurn(cmd, ctx, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.video, "video", "", "Source video file")
	flags.StringVar(&opts.subtitles, "subtitles", "", "SRT file to burn in")
	flags.StringVar(&opts.output, "output", "", "Destination video file")
	flags.StringVar(&opts.videoCodec, "video-codec", "", "ffmpeg video codec (defaults to transcode.video_codec)")
	flags.StringVar(&opts.audioCodec, "audio-codec", "", "ffmpeg audio codec (defaults to transcode.audio_codec)")
	flags.IntVar(&opts.quality, "quality", 0, "CRF quality for libx264/libx265")
	flags.StringVar(&opts.charset, "charset", "", "Subtitle file character encoding")
	flags.StringVar(&opts.fontName, "font", "", "Font family")
	flags.IntVar(&opts.fontSize, "font-size", 0, "Font size")
	flags.StringVar(&opts.primaryColor, "color", "", "Text color as RRGGBB")
	flags.StringVar(&opts.outlineColor, "outline-color", "", "Outline color as RRGGBB")
	flags.IntVar(&opts.outlineWidth, "outline-width", 0, "Outline width")
	flags.BoolVar(&opts.bold, "bold", false, "Bold text")
	flags.BoolVar(&opts.italic, "italic", false, "Italic text")
	flags.StringVar(&opts.position, "position", "", "Subtitle position: bottom, top, or center")
	flags.IntVar(&opts.marginVertical, "margin-v", 0, "Vertical margin")
	flags.IntVar(&opts.marginHorizontal, "margin-h", 0, "Horizontal margin")
	_ = cmd.MarkFlagRequired("video")
	_ = cmd.MarkFlagRequired("subtitles")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runBurn(cmd *cobra.Command, ctx *commandContext, opts burnOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()

	tc := cfg.Transcode
	if flags.Changed("video-codec") {
		tc.VideoCodec = opts.videoCodec
	}
	if flags.Changed("audio-codec") {
		tc.AudioCodec = opts.audioCodec
	}
	if flags.Changed("quality") {
		tc.Quality = opts.quality
	}
	if flags.Changed("charset") {
		tc.SubtitleCharset = opts.charset
	}

	sc := cfg.Style
	if flags.Changed("font") {
		sc.FontName = opts.fontName
	}
	if flags.Changed("font-size") {
		sc.FontSize = opts.fontSize
	}
	if flags.Changed("color") {
		sc.PrimaryColor = opts.primaryColor
	}
	if flags.Changed("outline-color") {
		sc.OutlineColor = opts.outlineColor
	}
	if flags.Changed("outline-width") {
		sc.OutlineWidth = opts.outlineWidth
	}
	if flags.Changed("bold") {
		sc.Bold = opts.bold
	}
	if flags.Changed("italic") {
		sc.Italic = opts.italic
	}
	if flags.Changed("position") {
		sc.Position = opts.position
	}
	if flags.Changed("margin-v") {
		sc.MarginVertical = opts.marginVertical
	}
	if flags.Changed("margin-h") {
		sc.MarginHorizontal = opts.marginHorizontal
	}

	req := transcode.Request{
		VideoPath:       strings.TrimSpace(opts.video),
		SubtitlePath:    strings.TrimSpace(opts.subtitles),
		OutputPath:      strings.TrimSpace(opts.output),
		VideoCodec:      tc.VideoCodec,
		AudioCodec:      tc.AudioCodec,
		Quality:         tc.Quality,
		Style:           transcode.StyleFromConfig(sc),
		SubtitleCharset: tc.SubtitleCharset,
	}
	detail := fmt.Sprintf("%s/%s crf %d", tc.VideoCodec, tc.AudioCodec, tc.Quality)
	out := cmd.OutOrStdout()
	run, err := ctx.beginJob(cmd.Context(), history.KindBurn, req.VideoPath, req.OutputPath, detail,
		withQuietConsole(isTerminal(out)))
	if err != nil {
		return err
	}

	for _, input := range []string{req.VideoPath, req.SubtitlePath} {
		if info, err := os.Stat(input); err != nil || info.IsDir() {
			return run.fail(services.Wrap(services.ErrValidation, "burn", "validate", "input not readable: "+input, err))
		}
	}
	argv, err := transcode.BuildCommand(req, transcode.CommandOptions{Binary: tc.FFmpegBinary})
	if err != nil {
		return run.fail(err)
	}

	progress := newBurnProgress(out, run.logger)
	supervisor := transcode.NewSupervisor(transcode.WithSupervisorLogger(run.logger))
	fmt.Fprintf(out, "Burning %s into %s\n", req.SubtitlePath, req.OutputPath)
	outcome, err := supervisor.Run(run.ctx, argv, progress.onProgress, progress.onLog)
	progress.done()

	switch outcome.Status {
	case transcode.OutcomeSuccess:
		run.finish(history.Outcome{Status: history.StatusCompleted, ExitCode: intPtr(0)})
		fmt.Fprintf(out, "Wrote %s in %s\n", req.OutputPath, formatElapsed(outcome.Elapsed))
		return nil
	case transcode.OutcomeCancelled:
		fmt.Fprintln(out, "Burn cancelled; the partial output may remain on disk")
		return run.cancelled(0)
	}

	var execErr *transcode.ExecutionError
	if errors.As(err, &execErr) {
		run.finish(history.Outcome{Status: history.StatusFailed, ExitCode: intPtr(execErr.ExitCode), Err: err})
		for _, line := range execErr.Tail {
			fmt.Fprintln(cmd.ErrOrStderr(), "  "+line)
		}
		return err
	}
	if err == nil {
		err = errors.New("ffmpeg failed")
	}
	return run.fail(err)
}

func intPtr(v int) *int {
	return &v
}
