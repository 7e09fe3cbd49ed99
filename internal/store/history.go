package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Run is one recorded organize run.
type Run struct {
	ID            int64
	RunID         string
	StartedAt     time.Time
	FinishedAt    time.Time
	Moved         int
	FailedDeletes int
	ErrorMessage  string
	Relocations   []Relocation
}

// Relocation is one subtitle handled by a run.
type Relocation struct {
	InputPath  string
	OutputPath string
	VideoPath  string
	Score      float64
	Removed    bool
	Language   string
}

// RecordRun stores a run and its relocations in a single transaction and
// returns the new row identifier.
func (s *Store) RecordRun(ctx context.Context, run Run) (int64, error) {
	if run.RunID == "" {
		return 0, errors.New("run id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO organize_runs (
            run_id, started_at, finished_at, moved, failed_deletes, error_message
        ) VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.Moved,
		run.FailedDeletes,
		nullableString(run.ErrorMessage),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	for _, r := range run.Relocations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO relocations (
                run_row_id, input_path, output_path, video_path, score, removed, language
            ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rowID,
			r.InputPath,
			r.OutputPath,
			r.VideoPath,
			r.Score,
			boolToInt(r.Removed),
			nullableString(r.Language),
		); err != nil {
			return 0, fmt.Errorf("insert relocation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}
	return rowID, nil
}

// RecentRuns returns up to limit runs, newest first, with their relocations.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, started_at, finished_at, moved, failed_deletes, error_message
         FROM organize_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			started    string
			finished   string
			errMessage sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.RunID, &started, &finished, &run.Moved, &run.FailedDeletes, &errMessage); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		run.ErrorMessage = errMessage.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	rows.Close()

	for i := range runs {
		relocations, err := s.relocations(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Relocations = relocations
	}
	return runs, nil
}

func (s *Store) relocations(ctx context.Context, runRowID int64) ([]Relocation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT input_path, output_path, video_path, score, removed, language
         FROM relocations WHERE run_row_id = ? ORDER BY id`, runRowID)
	if err != nil {
		return nil, fmt.Errorf("query relocations: %w", err)
	}
	defer rows.Close()

	var out []Relocation
	for rows.Next() {
		var (
			r        Relocation
			removed  int
			language sql.NullString
		)
		if err := rows.Scan(&r.InputPath, &r.OutputPath, &r.VideoPath, &r.Score, &removed, &language); err != nil {
			return nil, fmt.Errorf("scan relocation: %w", err)
		}
		r.Removed = removed != 0
		r.Language = language.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relocations: %w", err)
	}
	return out, nil
}

// PruneRuns deletes runs that finished before cutoff and reports how many
// were removed. Their relocations go with them.
func (s *Store) PruneRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM organize_runs WHERE finished_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}
