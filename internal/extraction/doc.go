// Package extraction turns speech in a video into an SRT file.
//
// The Supervisor drives an Engine (WhisperX in production), numbers the
// segments it yields, and writes them out unless the run was cancelled.
package extraction
