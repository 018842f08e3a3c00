package subtitles

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatTimestamp renders d as HH:MM:SS,mmm. Sub-millisecond precision is
// truncated, never rounded.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	seconds := ms / 1000
	ms -= seconds * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms)
}

// FormatSeconds renders fractional seconds as HH:MM:SS,mmm with truncation to
// whole milliseconds, so 3599.9996 becomes 00:59:59,999.
func FormatSeconds(seconds float64) string {
	return FormatTimestamp(SecondsToDuration(seconds))
}

// SecondsToDuration converts fractional seconds to a duration truncated to
// whole milliseconds.
func SecondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 || math.IsNaN(seconds) {
		return 0
	}
	if seconds >= float64(math.MaxInt64/int64(time.Millisecond))/1000 {
		return time.Duration(math.MaxInt64)
	}
	ms := int64(seconds * 1000)
	return time.Duration(ms) * time.Millisecond
}

// ParseTimestamp parses HH:MM:SS,mmm. A period separator is accepted as well.
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if hours < 0 || minutes < 0 || seconds < 0 || millis < 0 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	total := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
	return total, nil
}
