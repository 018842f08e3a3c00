package subtitles

import (
	"iter"

	"subforge/internal/services"
)

// LineBreakToken stands in for a line break inside a single cue when a batch
// is flattened to one cue per line.
const LineBreakToken = "<br>"

// Batches splits cues into contiguous groups of at most size cues. The
// returned sequence is lazy and may be ranged over more than once; each pass
// yields the zero-based batch index and the batch. Concatenating the batches
// reproduces cues in order.
func Batches(cues CueSet, size int) (iter.Seq2[int, CueSet], error) {
	if size <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "subtitles", "batch", "batch size must be positive", nil)
	}
	return func(yield func(int, CueSet) bool) {
		for i, start := 0, 0; start < len(cues); i, start = i+1, start+size {
			end := min(start+size, len(cues))
			if !yield(i, cues[start:end:end]) {
				return
			}
		}
	}, nil
}

// BatchCount reports how many batches Batches yields for n cues.
func BatchCount(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}
