package transcode

import (
	"path"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"subforge/internal/services"
)

// Request describes one burn-in run.
type Request struct {
	VideoPath       string
	SubtitlePath    string
	OutputPath      string
	VideoCodec      string
	AudioCodec      string
	Quality         int
	Style           StyleConfig
	SubtitleCharset string
}

// PathStyle selects how paths are rewritten for ffmpeg.
type PathStyle int

const (
	// PathStyleHost follows runtime.GOOS.
	PathStyleHost PathStyle = iota
	PathStylePOSIX
	PathStyleWindows
)

// CommandOptions tunes BuildCommand.
type CommandOptions struct {
	// Binary is argv[0]; empty means "ffmpeg".
	Binary    string
	PathStyle PathStyle
}

const (
	defaultVideoCodec = "libx264"
	defaultAudioCodec = "aac"
)

var crfCodecs = map[string]struct{}{
	"libx264": {},
	"libx265": {},
}

// BuildCommand returns the full ffmpeg argument vector for req, argv[0]
// included.
func BuildCommand(req Request, opts CommandOptions) ([]string, error) {
	for _, field := range []struct{ name, value string }{
		{"video path", req.VideoPath},
		{"subtitle path", req.SubtitlePath},
		{"output path", req.OutputPath},
	} {
		if strings.TrimSpace(field.value) == "" {
			return nil, services.Wrap(services.ErrValidation, "transcode", "build command", field.name+" required", nil)
		}
	}

	style := opts.PathStyle
	if style == PathStyleHost {
		style = hostPathStyle()
	}
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	videoCodec := strings.TrimSpace(req.VideoCodec)
	if videoCodec == "" {
		videoCodec = defaultVideoCodec
	}
	audioCodec := strings.TrimSpace(req.AudioCodec)
	if audioCodec == "" {
		audioCodec = defaultAudioCodec
	}

	args := []string{
		binary, "-y",
		"-i", normalizePath(req.VideoPath, style),
		"-vf", subtitleFilter(req, style),
		"-c:v", videoCodec,
		"-c:a", audioCodec,
	}
	if _, ok := crfCodecs[strings.ToLower(videoCodec)]; ok {
		args = append(args, "-crf", strconv.Itoa(req.Quality))
	}
	args = append(args, normalizePath(req.OutputPath, style))
	return args, nil
}

func subtitleFilter(req Request, style PathStyle) string {
	subtitlePath := normalizePath(req.SubtitlePath, style)
	if style == PathStyleWindows {
		subtitlePath = strings.ReplaceAll(subtitlePath, ":", `\:`)
	}
	subtitlePath = strings.ReplaceAll(subtitlePath, "'", `'\''`)

	var b strings.Builder
	b.WriteString("subtitles='")
	b.WriteString(subtitlePath)
	b.WriteByte('\'')
	if charset := strings.TrimSpace(req.SubtitleCharset); charset != "" && !isUTF8(charset) {
		b.WriteString(":charenc=")
		b.WriteString(charset)
	}
	b.WriteString(":force_style='")
	b.WriteString(req.Style.Compile())
	b.WriteByte('\'')
	return b.String()
}

func normalizePath(value string, style PathStyle) string {
	value = strings.TrimSpace(value)
	if style == PathStyleWindows {
		return path.Clean(strings.ReplaceAll(value, `\`, "/"))
	}
	return filepath.Clean(value)
}

func isUTF8(charset string) bool {
	switch strings.ToLower(strings.ReplaceAll(charset, "-", "")) {
	case "utf8":
		return true
	default:
		return false
	}
}

func hostPathStyle() PathStyle {
	if runtime.GOOS == "windows" {
		return PathStyleWindows
	}
	return PathStylePOSIX
}
