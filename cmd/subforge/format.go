package main

import (
	"fmt"
	"time"
)

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatUnits(units, fallback int) string {
	if fallback == 0 {
		return fmt.Sprint(units)
	}
	return fmt.Sprintf("%d (%d fallback)", units, fallback)
}
