package logging

import "strings"

// FormatSubject builds the "kind #shortid" subject shown in console output.
func FormatSubject(kind, jobID string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	jobID = strings.TrimSpace(jobID)
	if len(jobID) > 8 {
		jobID = jobID[:8]
	}
	switch {
	case kind != "" && jobID != "":
		return kind + " #" + jobID
	case jobID != "":
		return "#" + jobID
	default:
		return kind
	}
}
