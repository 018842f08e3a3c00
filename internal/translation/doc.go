// Package translation runs subtitle translation jobs.
//
// A Runner walks a job's cues in fixed-size batches, flattens each batch to
// one cue per line, and hands the blob to a Translator. Replies are zipped
// back onto the batch positionally. A batch whose call fails keeps its
// original text and is reported in Result.Fallbacks; the job still completes,
// with StateCompletedWithFallback. Cancellation is honoured between batches
// only: an in-flight call always runs to completion.
package translation
