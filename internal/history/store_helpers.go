package history

import (
	"database/sql"
	"time"
)

const recordColumns = "id, kind, status, input_path, output_path, detail, units, fallback_units, exit_code, error_message, started_at, finished_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id            string
		kind          string
		status        string
		inputPath     sql.NullString
		outputPath    sql.NullString
		detail        sql.NullString
		units         int
		fallbackUnits int
		exitCode      sql.NullInt64
		errorMessage  sql.NullString
		startedRaw    string
		finishedRaw   sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&kind,
		&status,
		&inputPath,
		&outputPath,
		&detail,
		&units,
		&fallbackUnits,
		&exitCode,
		&errorMessage,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	rec := &Record{
		ID:            id,
		Kind:          Kind(kind),
		Status:        Status(status),
		InputPath:     inputPath.String,
		OutputPath:    outputPath.String,
		Detail:        detail.String,
		Units:         units,
		FallbackUnits: fallbackUnits,
		ErrorMessage:  errorMessage.String,
	}
	if exitCode.Valid {
		code := int(exitCode.Int64)
		rec.ExitCode = &code
	}
	if started, err := parseTime(startedRaw); err == nil {
		rec.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTime(finishedRaw.String); err == nil {
			rec.FinishedAt = &finished
		}
	}
	return rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// formatTime uses a fixed-width layout so lexical order matches time order.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}
