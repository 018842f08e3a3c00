// Package whisperx runs WhisperX speech recognition through uvx and exposes
// the result as an extraction engine.
//
// A transcription extracts the first audio stream to a mono 16 kHz WAV with
// ffmpeg, runs WhisperX with JSON output into a temporary directory, and
// yields the decoded segments. The temporary directory is removed before the
// segments are returned.
package whisperx
