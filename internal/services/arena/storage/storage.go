// Package storage defines the match snapshot archive contract for the arena.
//
// The game core performs no persistence of its own; the archive exists at
// the hosting boundary so a restarted server can rehost a match and a
// reconnecting client can resynchronize from the latest snapshot.
package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/ludo-arena/internal/errors"
	"github.com/louisbranch/ludo-arena/internal/ludo/engine"
)

// ErrNotFound indicates no archived match exists for the id.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "match record not found")

// MatchRecord is one archived match: its latest snapshot plus the seed the
// authoritative engine was created with.
type MatchRecord struct {
	ID        string
	Seed      int64
	Snapshot  engine.Snapshot
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MatchStore archives the latest snapshot per match.
type MatchStore interface {
	// SaveSnapshot upserts the match's latest snapshot. Writes carrying a
	// version older than the stored one are ignored.
	SaveSnapshot(ctx context.Context, matchID string, seed int64, snap engine.Snapshot) error
	// LoadMatch returns the archived record, or ErrNotFound.
	LoadMatch(ctx context.Context, matchID string) (MatchRecord, error)
	// ListMatchIDs returns up to limit archived match ids, most recently
	// updated first.
	ListMatchIDs(ctx context.Context, limit int) ([]string, error)
	// Close releases the underlying handle.
	Close() error
}
