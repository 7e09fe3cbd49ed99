package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetResponse returns a cached response body stored under key if it is
// younger than maxAge. A non-positive maxAge accepts any age.
func (s *Store) GetResponse(ctx context.Context, key string, maxAge time.Duration) ([]byte, bool, error) {
	var (
		body    []byte
		fetched string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT body, fetched_at FROM http_responses WHERE cache_key = ?", key,
	).Scan(&body, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached response: %w", err)
	}
	if maxAge > 0 && time.Since(parseTime(fetched)) > maxAge {
		return nil, false, nil
	}
	return body, true, nil
}

// PutResponse stores body under key, replacing any previous entry.
func (s *Store) PutResponse(ctx context.Context, key string, body []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO http_responses (cache_key, body, fetched_at) VALUES (?, ?, ?)
         ON CONFLICT(cache_key) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		key, body, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("write cached response: %w", err)
	}
	return nil
}

// PruneResponses removes cached responses fetched before cutoff.
func (s *Store) PruneResponses(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM http_responses WHERE fetched_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune cached responses: %w", err)
	}
	return res.RowsAffected()
}
