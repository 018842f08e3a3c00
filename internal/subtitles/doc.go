// Package subtitles models SRT cue sets and the helpers the translation and
// extraction jobs share.
//
// Cues keep their index and timing untouched; only the text lines are
// replaced during translation. Batches splits a cue set into contiguous,
// order-preserving groups for the translation backend, and the SRT codec reads
// and writes the files the CLI consumes and produces.
package subtitles
