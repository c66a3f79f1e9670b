package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run kinds.
const (
	KindSchedule = "schedule"
	KindAllocate = "allocate"
)

// ErrRunNotFound is returned when a run token does not exist.
var ErrRunNotFound = errors.New("run not found")

// Run is one archived scheduling or allocation result.
type Run struct {
	Token        string
	CreatedAt    time.Time
	Kind         string
	Graph        string
	Strategy     string
	ScheduleTime int
	Hash         string
	Snapshot     string
}

// SaveRun archives a run, assigning it a time-ordered UUIDv7 token and a
// creation timestamp. The populated run is returned.
func (s *Store) SaveRun(ctx context.Context, run Run) (Run, error) {
	if run.Kind != KindSchedule && run.Kind != KindAllocate {
		return Run{}, fmt.Errorf("unknown run kind %q", run.Kind)
	}
	run.Token = uuid.Must(uuid.NewV7()).String()
	run.CreatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (token, created_at, kind, graph, strategy, schedule_time, hash, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Token, run.CreatedAt.Format(time.RFC3339), run.Kind, run.Graph,
		run.Strategy, run.ScheduleTime, run.Hash, run.Snapshot,
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// GetRun loads one run by token.
func (s *Store) GetRun(ctx context.Context, token string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT token, created_at, kind, graph, strategy, schedule_time, hash, snapshot
		FROM runs WHERE token = ?`, token)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, token)
	}
	return run, err
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// returns everything.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT token, created_at, kind, graph, strategy, schedule_time, hash, snapshot
		FROM runs ORDER BY created_at DESC, token DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var createdAt string
	err := row.Scan(&run.Token, &createdAt, &run.Kind, &run.Graph,
		&run.Strategy, &run.ScheduleTime, &run.Hash, &run.Snapshot)
	if err != nil {
		return Run{}, err
	}
	run.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at: %w", err)
	}
	return run, nil
}
