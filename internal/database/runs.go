package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/wordfactor/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// RunSummary is a run history row without the full report.
type RunSummary struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	Documents int
	Words     int
	// Rank is zero when the run stopped before factorization.
	Rank     int
	Residual float64
}

// SaveRun stores run as JSON and sets run.ID to the new row id.
func (s *Store) SaveRun(ctx context.Context, run *model.Run) (int64, error) {
	reportJSON, err := json.Marshal(run)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize run: %w", err)
	}

	words, docs := run.Dims()
	var (
		rank     sql.NullInt64
		residual sql.NullFloat64
	)
	if c := run.Categorization; c != nil {
		rank = sql.NullInt64{Int64: int64(c.Rank), Valid: true}
		residual = sql.NullFloat64{Float64: c.Residual, Valid: true}
	}

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
	INSERT INTO runs (name, created_at, documents, words, rank, residual, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.db.ExecContext(ctx, query,
		run.Name,
		formatTimestamp(createdAt),
		docs,
		words,
		rank,
		residual,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}
	run.ID = id
	return id, nil
}

// ListRuns returns run summaries, newest first. A non-positive limit
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, name, created_at, documents, words, rank, residual
	FROM runs
	ORDER BY created_at DESC, id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var (
			sum       RunSummary
			createdAt string
			rank      sql.NullInt64
			residual  sql.NullFloat64
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &createdAt, &sum.Documents, &sum.Words, &rank, &residual); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		sum.CreatedAt = parseTimestamp(createdAt)
		sum.Rank = int(rank.Int64)
		sum.Residual = residual.Float64
		results = append(results, sum)
	}

	return results, rows.Err()
}

// GetRun returns the stored run with the given id. It returns ErrNotFound
// when no such run exists.
func (s *Store) GetRun(ctx context.Context, id int64) (*model.Run, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var run model.Run
	if err := json.Unmarshal([]byte(reportJSON), &run); err != nil {
		return nil, fmt.Errorf("failed to parse run: %w", err)
	}
	run.ID = id
	return &run, nil
}

// LatestRun returns the most recent run, or ErrNotFound if there is none.
func (s *Store) LatestRun(ctx context.Context) (*model.Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs: %w", ErrNotFound)
	}
	return s.GetRun(ctx, runs[0].ID)
}
