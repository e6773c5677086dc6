package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/wordfactor/internal/model"
)

// UpsertPage inserts or replaces the cached page for doc.URL.
// A zero FetchedAt is stored as the current time.
func (s *Store) UpsertPage(ctx context.Context, doc *model.Document) error {
	fetchedAt := doc.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	query := `
	INSERT INTO pages (url, title, content_type, text, hash, status_code, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		title = excluded.title,
		content_type = excluded.content_type,
		text = excluded.text,
		hash = excluded.hash,
		status_code = excluded.status_code,
		fetched_at = excluded.fetched_at
	`

	_, err := s.db.ExecContext(ctx, query,
		doc.URL,
		doc.Title,
		doc.ContentType,
		doc.Text,
		doc.Hash,
		doc.StatusCode,
		formatTimestamp(fetchedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert page: %w", err)
	}
	return nil
}

// GetPage returns the cached page for url, or nil if none is cached.
// The returned document has FromCache set.
func (s *Store) GetPage(ctx context.Context, url string) (*model.Document, error) {
	query := `
	SELECT url, title, content_type, text, hash, status_code, fetched_at
	FROM pages
	WHERE url = ?
	`

	var (
		doc         model.Document
		title       sql.NullString
		contentType sql.NullString
		hash        sql.NullString
		status      sql.NullInt64
		fetchedAt   string
	)
	err := s.db.QueryRowContext(ctx, query, url).Scan(
		&doc.URL,
		&title,
		&contentType,
		&doc.Text,
		&hash,
		&status,
		&fetchedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	doc.Title = title.String
	doc.ContentType = contentType.String
	doc.Hash = hash.String
	doc.StatusCode = int(status.Int64)
	doc.FetchedAt = parseTimestamp(fetchedAt)
	doc.FromCache = true
	return &doc, nil
}

// GetFreshPage returns the cached page for url if it was fetched within
// maxAge, or nil otherwise. A non-positive maxAge never matches.
func (s *Store) GetFreshPage(ctx context.Context, url string, maxAge time.Duration) (*model.Document, error) {
	if maxAge <= 0 {
		return nil, nil
	}
	doc, err := s.GetPage(ctx, url)
	if err != nil || doc == nil {
		return nil, err
	}
	if time.Since(doc.FetchedAt) > maxAge {
		return nil, nil
	}
	return doc, nil
}

// PruneOlderThan deletes cached pages fetched before cutoff and returns how
// many were removed.
func (s *Store) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE fetched_at < ?`, formatTimestamp(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to prune pages: %w", err)
	}
	return res.RowsAffected()
}
