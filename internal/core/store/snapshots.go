package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/osudump/osudump/internal/core"
	"github.com/osudump/osudump/internal/core/mostplayed"
)

// ErrSnapshotNotFound is returned when no snapshot has the requested id.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is one saved most-played run.
type Snapshot struct {
	ID          string                   `json:"id"`
	UserID      string                   `json:"user_id"`
	Modes       []string                 `json:"modes"`
	Limit       int                      `json:"limit"`
	Exact       bool                     `json:"exact"`
	RecordCount int                      `json:"record_count"`
	SetCount    int                      `json:"set_count"`
	TotalPlays  int64                    `json:"total_plays"`
	FetchedAt   time.Time                `json:"fetched_at"`
	Sets        []core.BeatmapsetSummary `json:"sets,omitempty"`
}

// SaveSnapshot stores a run. A missing ID or FetchedAt is filled in; set
// count and total plays are derived from Sets.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot *Snapshot) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if snapshot == nil {
		return errors.New("snapshot is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	snapshot.UserID = strings.TrimSpace(snapshot.UserID)
	if snapshot.UserID == "" {
		return errors.New("snapshot user id is required")
	}
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	if snapshot.FetchedAt.IsZero() {
		snapshot.FetchedAt = time.Now()
	}
	snapshot.FetchedAt = snapshot.FetchedAt.UTC().Truncate(time.Millisecond)

	totals := mostplayed.ComputeTotals(snapshot.Sets)
	snapshot.SetCount = totals.Sets
	snapshot.TotalPlays = totals.Plays

	sets := snapshot.Sets
	if sets == nil {
		sets = []core.BeatmapsetSummary{}
	}
	setsJSON, err := json.Marshal(sets)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	modesJSON, err := json.Marshal(nonNil(snapshot.Modes))
	if err != nil {
		return fmt.Errorf("encode snapshot modes: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO snapshots (id, user_id, modes, result_limit, exact, record_count, set_count, total_plays, sets_json, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, snapshot.ID, snapshot.UserID, string(modesJSON), snapshot.Limit, boolToInt(snapshot.Exact),
		snapshot.RecordCount, snapshot.SetCount, snapshot.TotalPlays, string(setsJSON), snapshot.FetchedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	return nil
}

// GetSnapshot loads a snapshot including its sets.
func (s *Store) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("snapshot id is required")
	}

	row := s.DB.QueryRowContext(ctx, `
		SELECT id, user_id, modes, result_limit, exact, record_count, set_count, total_plays, fetched_at, sets_json
		FROM snapshots
		WHERE id = ?
	`, id)

	var setsJSON string
	snapshot, err := scanSnapshot(row, &setsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
		}
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(setsJSON), &snapshot.Sets); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	return snapshot, nil
}

// ListSnapshots returns snapshots newest first without their sets. An empty
// userID lists every user; limit <= 0 means no limit.
func (s *Store) ListSnapshots(ctx context.Context, userID string, limit int) ([]Snapshot, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	query := `
		SELECT id, user_id, modes, result_limit, exact, record_count, set_count, total_plays, fetched_at
		FROM snapshots`
	args := []any{}
	if userID = strings.TrimSpace(userID); userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY fetched_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var snapshots []Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows, nil)
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		snapshots = append(snapshots, *snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	return snapshots, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner, setsJSON *string) (*Snapshot, error) {
	var (
		snapshot  Snapshot
		modesJSON string
		exact     int
		fetchedAt int64
	)

	dest := []any{
		&snapshot.ID, &snapshot.UserID, &modesJSON, &snapshot.Limit, &exact,
		&snapshot.RecordCount, &snapshot.SetCount, &snapshot.TotalPlays, &fetchedAt,
	}
	if setsJSON != nil {
		dest = append(dest, setsJSON)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(modesJSON), &snapshot.Modes); err != nil {
		return nil, fmt.Errorf("decode snapshot modes: %w", err)
	}
	snapshot.Exact = exact != 0
	snapshot.FetchedAt = time.UnixMilli(fetchedAt).UTC()

	return &snapshot, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
