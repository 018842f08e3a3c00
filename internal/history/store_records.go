package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("history record not found")

// Start inserts a running record. A blank ID is replaced with a new UUID; the
// stored record is returned.
func (s *Store) Start(ctx context.Context, rec Record) (*Record, error) {
	if _, ok := ParseKind(string(rec.Kind)); !ok {
		return nil, fmt.Errorf("start record: unknown kind %q", rec.Kind)
	}
	if strings.TrimSpace(rec.ID) == "" {
		rec.ID = uuid.NewString()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = s.now().UTC()
	}
	rec.Status = StatusRunning
	rec.FinishedAt = nil

	_, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (
            id, kind, status, input_path, output_path, detail, units, fallback_units, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Kind,
		rec.Status,
		nullableString(rec.InputPath),
		nullableString(rec.OutputPath),
		nullableString(rec.Detail),
		rec.Units,
		rec.FallbackUnits,
		formatTime(rec.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	return s.Get(ctx, rec.ID)
}

// Finish stamps the terminal outcome on a running record.
func (s *Store) Finish(ctx context.Context, id string, outcome Outcome) (*Record, error) {
	if !outcome.Status.IsTerminal() {
		return nil, fmt.Errorf("finish record: status %q is not terminal", outcome.Status)
	}
	var errText any
	if outcome.Err != nil {
		errText = outcome.Err.Error()
	}
	var exitCode any
	if outcome.ExitCode != nil {
		exitCode = *outcome.ExitCode
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, units = ?, fallback_units = ?, exit_code = ?,
            error_message = ?, finished_at = ?
        WHERE id = ? AND status = ?`,
		outcome.Status,
		outcome.Units,
		outcome.FallbackUnits,
		exitCode,
		errText,
		formatTime(s.now().UTC()),
		id,
		StatusRunning,
	)
	if err != nil {
		return nil, fmt.Errorf("finish record: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("finish record %s: already finished", id)
	}
	return s.Get(ctx, id)
}

// Get fetches a record by id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+recordColumns+` FROM jobs WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// List returns the most recent records first.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Record, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	var (
		clauses []string
		args    []any
	)
	if filter.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	query := `SELECT ` + recordColumns + ` FROM jobs`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY started_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Stats returns a count of records grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("history stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// AbandonRunning marks running records of kind as failed. Callers must hold
// the job slot for kind so no live process owns those records.
func (s *Store) AbandonRunning(ctx context.Context, kind Kind) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, error_message = ?, finished_at = ?
        WHERE kind = ? AND status = ?`,
		StatusFailed,
		AbandonedReason,
		formatTime(s.now().UTC()),
		kind,
		StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("abandon running records: %w", err)
	}
	return res.RowsAffected()
}

// Prune deletes finished records that started before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM jobs WHERE status != ? AND started_at < ?`,
		StatusRunning,
		formatTime(cutoff.UTC()),
	)
	if err != nil {
		return 0, fmt.Errorf("prune records: %w", err)
	}
	return res.RowsAffected()
}
