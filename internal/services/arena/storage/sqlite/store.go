// Package sqlite provides a SQLite-backed match archive implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/louisbranch/ludo-arena/internal/ludo/engine"
	sqlitemigrate "github.com/louisbranch/ludo-arena/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/ludo-arena/internal/services/arena/storage"
	"github.com/louisbranch/ludo-arena/internal/services/arena/storage/sqlite/migrations"
)

// Store persists match snapshots in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite match archive and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveSnapshot upserts the latest snapshot for a match. Stale writes, those
// carrying a version older than the stored row, are ignored so replayed or
// out-of-order archive attempts cannot roll the record back.
func (s *Store) SaveSnapshot(ctx context.Context, matchID string, seed int64, snap engine.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return fmt.Errorf("match id is required")
	}

	snapshotJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	now := toMillis(time.Now())
	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO matches (id, seed, player_count, snapshot_json, version, game_won, winner, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    snapshot_json = excluded.snapshot_json,
    version = excluded.version,
    game_won = excluded.game_won,
    winner = excluded.winner,
    updated_at = excluded.updated_at
WHERE excluded.version >= matches.version
`,
		matchID,
		seed,
		snap.PlayerCount,
		string(snapshotJSON),
		snap.Version,
		boolToInt(snap.GameWon),
		snap.Winner,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert match %s: %w", matchID, err)
	}
	return nil
}

// LoadMatch returns the archived record for a match.
func (s *Store) LoadMatch(ctx context.Context, matchID string) (storage.MatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.MatchRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.MatchRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, seed, snapshot_json, created_at, updated_at
FROM matches
WHERE id = ?
`, strings.TrimSpace(matchID))

	var (
		record       storage.MatchRecord
		snapshotJSON string
		createdAt    int64
		updatedAt    int64
	)
	if err := row.Scan(&record.ID, &record.Seed, &snapshotJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.MatchRecord{}, storage.ErrNotFound
		}
		return storage.MatchRecord{}, fmt.Errorf("load match %s: %w", matchID, err)
	}
	if err := json.Unmarshal([]byte(snapshotJSON), &record.Snapshot); err != nil {
		return storage.MatchRecord{}, fmt.Errorf("unmarshal snapshot for match %s: %w", matchID, err)
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

// ListMatchIDs returns up to limit match ids, most recently updated first.
func (s *Store) ListMatchIDs(ctx context.Context, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id FROM matches ORDER BY updated_at DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan match id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return ids, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
