package subtitles

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrNoCues is returned when a non-empty document yields no parseable cue.
var ErrNoCues = errors.New("no subtitle cues found")

// Parse reads an SRT document. A UTF-8 byte order mark and CRLF line endings
// are tolerated. Blocks without a timing line are skipped; a block missing its
// numeric index is numbered after the previous cue.
func Parse(r io.Reader) (CueSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	content := strings.TrimPrefix(string(data), "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	if strings.TrimSpace(content) == "" {
		return CueSet{}, nil
	}

	var cues CueSet
	for _, block := range splitBlocks(content) {
		previous := 0
		if len(cues) > 0 {
			previous = cues[len(cues)-1].Index
		}
		cue, ok := parseBlock(block, previous)
		if !ok {
			continue
		}
		cues = append(cues, cue)
	}
	if len(cues) == 0 {
		return nil, ErrNoCues
	}
	return cues, nil
}

// ParseFile reads and parses the SRT file at path.
func ParseFile(path string) (CueSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open srt: %w", err)
	}
	defer f.Close()
	cues, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cues, nil
}

// Write renders cues as SRT: index line, timing line, text lines and a blank
// separator line per cue.
func Write(w io.Writer, cues CueSet) error {
	bw := bufio.NewWriter(w)
	for _, cue := range cues {
		fmt.Fprintf(bw, "%d\n", cue.Index)
		fmt.Fprintf(bw, "%s --> %s\n", FormatTimestamp(cue.Start), FormatTimestamp(cue.End))
		bw.WriteString(cue.Text())
		bw.WriteString("\n\n")
	}
	return bw.Flush()
}

// WriteFile writes cues to path, creating the parent directory. Content goes
// to a temporary sibling first and is renamed into place.
func WriteFile(path string, cues CueSet) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".subforge-*.srt")
	if err != nil {
		return fmt.Errorf("create temp srt: %w", err)
	}
	tmpName := tmp.Name()
	if err := Write(tmp, cues); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write srt: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close srt: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod srt: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename srt: %w", err)
	}
	return nil
}

func splitBlocks(content string) [][]string {
	var blocks [][]string
	var current []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

func parseBlock(lines []string, previous int) (Cue, bool) {
	index := previous + 1
	if n, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil {
		index = n
		lines = lines[1:]
	}
	if len(lines) == 0 || !strings.Contains(lines[0], "-->") {
		return Cue{}, false
	}
	parts := strings.SplitN(lines[0], "-->", 2)
	start, err := ParseTimestamp(parts[0])
	if err != nil {
		return Cue{}, false
	}
	// Position hints such as "X1:40" may trail the end timestamp.
	endFields := strings.Fields(parts[1])
	if len(endFields) == 0 {
		return Cue{}, false
	}
	end, err := ParseTimestamp(endFields[0])
	if err != nil {
		return Cue{}, false
	}
	text := lines[1:]
	if len(text) == 0 {
		text = []string{""}
	}
	return Cue{Index: index, Start: start, End: end, Lines: text}, true
}
