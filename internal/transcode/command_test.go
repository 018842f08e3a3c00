package transcode

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"subforge/internal/services"
)

func baseRequest() Request {
	return Request{
		VideoPath:    "/media/in/movie.mkv",
		SubtitlePath: "/media/in/movie.zh.srt",
		OutputPath:   "/media/out/movie.mkv",
		VideoCodec:   "libx264",
		AudioCodec:   "aac",
		Quality:      23,
		Style:        baseStyle(),
	}
}

func TestBuildCommandLibx264IncludesCRF(t *testing.T) {
	args, err := BuildCommand(baseRequest(), CommandOptions{PathStyle: PathStylePOSIX})
	if err != nil {
		t.Fatalf("BuildCommand returned error: %v", err)
	}
	want := []string{
		"ffmpeg", "-y",
		"-i", "/media/in/movie.mkv",
		"-vf", "subtitles='/media/in/movie.zh.srt':force_style='" + baseStyle().Compile() + "'",
		"-c:v", "libx264",
		"-c:a", "aac",
		"-crf", "23",
		"/media/out/movie.mkv",
	}
	if !slices.Equal(args, want) {
		t.Fatalf("BuildCommand =\n%q\nwant\n%q", args, want)
	}
}

func TestBuildCommandCRFOnlyForX264AndX265(t *testing.T) {
	tests := []struct {
		codec   string
		wantCRF bool
	}{
		{"copy", false},
		{"libx264", true},
		{"libx265", true},
		{"libvpx-vp9", false},
	}
	for _, tt := range tests {
		t.Run(tt.codec, func(t *testing.T) {
			req := baseRequest()
			req.VideoCodec = tt.codec
			args, err := BuildCommand(req, CommandOptions{PathStyle: PathStylePOSIX})
			if err != nil {
				t.Fatalf("BuildCommand returned error: %v", err)
			}
			if got := slices.Contains(args, "-crf"); got != tt.wantCRF {
				t.Fatalf("-crf present = %v, want %v in %q", got, tt.wantCRF, args)
			}
		})
	}
}

func TestBuildCommandRequiresPaths(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		field  string
	}{
		{"video", func(r *Request) { r.VideoPath = "" }, "video path"},
		{"subtitle", func(r *Request) { r.SubtitlePath = "  " }, "subtitle path"},
		{"output", func(r *Request) { r.OutputPath = "" }, "output path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(&req)
			_, err := BuildCommand(req, CommandOptions{})
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Fatalf("expected error to name %q, got %v", tt.field, err)
			}
		})
	}
}

func TestBuildCommandWindowsPaths(t *testing.T) {
	req := baseRequest()
	req.VideoPath = `C:\Videos\in\movie.mkv`
	req.SubtitlePath = `C:\Videos\subs\movie.srt`
	req.OutputPath = `D:\Out\movie.mkv`

	args, err := BuildCommand(req, CommandOptions{PathStyle: PathStyleWindows})
	if err != nil {
		t.Fatalf("BuildCommand returned error: %v", err)
	}
	if args[3] != "C:/Videos/in/movie.mkv" {
		t.Fatalf("unexpected video path %q", args[3])
	}
	if !strings.HasPrefix(args[5], `subtitles='C\:/Videos/subs/movie.srt'`) {
		t.Fatalf("unexpected subtitle filter %q", args[5])
	}
	if args[len(args)-1] != "D:/Out/movie.mkv" {
		t.Fatalf("output path colon must stay unescaped, got %q", args[len(args)-1])
	}
}

func TestBuildCommandCleansPathsAndEscapesQuotes(t *testing.T) {
	req := baseRequest()
	req.SubtitlePath = "/media/in/../subs/it's.srt"
	req.VideoPath = "/media//in/./movie.mkv"

	args, err := BuildCommand(req, CommandOptions{Binary: "/opt/ffmpeg/bin/ffmpeg", PathStyle: PathStylePOSIX})
	if err != nil {
		t.Fatalf("BuildCommand returned error: %v", err)
	}
	if args[0] != "/opt/ffmpeg/bin/ffmpeg" || args[3] != "/media/in/movie.mkv" {
		t.Fatalf("unexpected argv %q", args)
	}
	if !strings.HasPrefix(args[5], `subtitles='/media/subs/it'\''s.srt'`) {
		t.Fatalf("unexpected subtitle filter %q", args[5])
	}
}

func TestBuildCommandCharset(t *testing.T) {
	tests := []struct {
		charset string
		want    string
	}{
		{"", ":force_style="},
		{"UTF-8", ":force_style="},
		{"utf8", ":force_style="},
		{"GBK", ":charenc=GBK:force_style="},
	}
	for _, tt := range tests {
		req := baseRequest()
		req.SubtitleCharset = tt.charset
		args, err := BuildCommand(req, CommandOptions{PathStyle: PathStylePOSIX})
		if err != nil {
			t.Fatalf("BuildCommand returned error: %v", err)
		}
		if !strings.Contains(args[5], "movie.zh.srt'"+tt.want) {
			t.Errorf("charset %q: unexpected filter %q", tt.charset, args[5])
		}
	}
}

func TestBuildCommandDefaultsCodecs(t *testing.T) {
	req := baseRequest()
	req.VideoCodec = ""
	req.AudioCodec = ""
	args, err := BuildCommand(req, CommandOptions{PathStyle: PathStylePOSIX})
	if err != nil {
		t.Fatalf("BuildCommand returned error: %v", err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-c:v libx264 -c:a aac -crf 23") {
		t.Fatalf("unexpected codec args %q", joined)
	}
}
