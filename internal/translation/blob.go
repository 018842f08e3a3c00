package translation

import (
	"regexp"
	"strings"

	"subforge/internal/subtitles"
)

var lineBreakPattern = regexp.MustCompile(`(?i)<br\s*/?>`)

// encodeBatch flattens a batch to one cue per line.
func encodeBatch(batch subtitles.CueSet) string {
	lines := make([]string, len(batch))
	for i, cue := range batch {
		parts := make([]string, 0, len(cue.Lines))
		for _, line := range cue.Lines {
			parts = append(parts, strings.TrimSpace(line))
		}
		lines[i] = strings.Join(parts, subtitles.LineBreakToken)
	}
	return strings.Join(lines, "\n")
}

// splitReply turns a translator reply into one entry per cue of batch. The
// raw line count is checked first, so a leading blank line still lines up
// with an empty first cue. Otherwise blank reply lines are dropped and the
// rest is matched to all cues, or to the non-empty cues with empty cues
// mapped to "".
func splitReply(reply string, batch subtitles.CueSet) []string {
	want := len(batch)
	reply = strings.ReplaceAll(reply, "\r\n", "\n")
	reply = strings.ReplaceAll(reply, "\r", "\n")
	reply = stripFence(strings.TrimRight(reply, "\n"))
	if strings.TrimSpace(reply) == "" {
		return nil
	}
	lines := strings.Split(reply, "\n")
	if len(lines) == want {
		return lines
	}
	nonBlank := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			nonBlank = append(nonBlank, line)
		}
	}
	if len(nonBlank) == want {
		return nonBlank
	}
	filled := 0
	for _, cue := range batch {
		if !isBlankCue(cue) {
			filled++
		}
	}
	if filled < want && len(nonBlank) == filled {
		aligned := make([]string, want)
		next := 0
		for i, cue := range batch {
			if isBlankCue(cue) {
				continue
			}
			aligned[i] = nonBlank[next]
			next++
		}
		return aligned
	}
	return lines
}

func isBlankCue(cue subtitles.Cue) bool {
	return strings.TrimSpace(cue.Text()) == ""
}

// decodeCue splits one reply line back into cue lines.
func decodeCue(line string) []string {
	parts := lineBreakPattern.Split(line, -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

func stripFence(value string) string {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "```") {
		return value
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	} else {
		return value
	}
	trimmed = strings.TrimSuffix(strings.TrimRight(trimmed, " \n"), "```")
	return strings.TrimRight(trimmed, "\n")
}

func preview(value string, limit int) string {
	value = strings.ReplaceAll(value, "\n", " | ")
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "…"
}
