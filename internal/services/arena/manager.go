package arena

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/ludo-arena/internal/errors"
	"github.com/louisbranch/ludo-arena/internal/ludo/engine"
	"github.com/louisbranch/ludo-arena/internal/ludo/protocol"
	"github.com/louisbranch/ludo-arena/internal/platform/random"
	"github.com/louisbranch/ludo-arena/internal/services/arena/storage"
)

// ErrMatchNotFound indicates the requested match is not hosted here.
var ErrMatchNotFound = apperrors.New(apperrors.CodeNotFound, "match not found")

// Manager creates and indexes hosted matches. Matches share nothing except
// the read-only configuration they were created with; each one runs its own
// serialization goroutine.
type Manager struct {
	ctx    context.Context
	store  storage.MatchStore
	tracer trace.Tracer

	mu      sync.RWMutex
	matches map[string]*Match
}

// NewManager creates a manager whose matches run until ctx is canceled.
// The store is optional; without one, snapshots are not archived.
func NewManager(ctx context.Context, store storage.MatchStore) *Manager {
	return &Manager{
		ctx:     ctx,
		store:   store,
		tracer:  otel.Tracer("github.com/louisbranch/ludo-arena/internal/services/arena"),
		matches: make(map[string]*Match),
	}
}

// Create starts a new match for playerCount players with a fresh
// crypto-random seed and returns it.
func (mgr *Manager) Create(ctx context.Context, playerCount int) (*Match, error) {
	ctx, span := mgr.tracer.Start(ctx, "arena.create_match")
	defer span.End()

	seed, err := random.NewSeed()
	if err != nil {
		return nil, fmt.Errorf("generate match seed: %w", err)
	}

	eng, err := engine.New(playerCount, seed)
	if err != nil {
		return nil, err
	}

	match := newMatch(uuid.NewString(), seed, protocol.NewSession(eng), mgr.store, mgr.tracer)
	mgr.register(match)
	if mgr.store != nil {
		if err := mgr.store.SaveSnapshot(ctx, match.ID, seed, eng.Snapshot()); err != nil {
			return nil, fmt.Errorf("archive initial snapshot: %w", err)
		}
	}
	go match.run(mgr.ctx)
	return match, nil
}

// Resume rehosts an archived match from its latest snapshot. The restored
// engine continues with a fresh roll seed; board, turn id, version, and
// won/winner state come from the snapshot unchanged.
func (mgr *Manager) Resume(ctx context.Context, matchID string) (*Match, error) {
	if match, ok := mgr.Get(matchID); ok {
		return match, nil
	}
	if mgr.store == nil {
		return nil, ErrMatchNotFound
	}

	ctx, span := mgr.tracer.Start(ctx, "arena.resume_match")
	defer span.End()

	record, err := mgr.store.LoadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	seed, err := random.NewSeed()
	if err != nil {
		return nil, fmt.Errorf("generate match seed: %w", err)
	}
	eng, err := engine.FromSnapshot(record.Snapshot, seed)
	if err != nil {
		return nil, fmt.Errorf("rehydrate match %s: %w", matchID, err)
	}

	match := newMatch(matchID, seed, protocol.NewSession(eng), mgr.store, mgr.tracer)
	if existing := mgr.register(match); existing != match {
		// Lost a resume race; the first rehost wins.
		return existing, nil
	}
	go match.run(mgr.ctx)
	return match, nil
}

// Get returns the hosted match with the given id.
func (mgr *Manager) Get(matchID string) (*Match, bool) {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	match, ok := mgr.matches[matchID]
	return match, ok
}

func (mgr *Manager) register(match *Match) *Match {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if existing, ok := mgr.matches[match.ID]; ok {
		return existing
	}
	mgr.matches[match.ID] = match
	return match
}
