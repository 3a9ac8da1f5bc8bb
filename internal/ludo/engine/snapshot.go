package engine

import (
	"fmt"

	"github.com/louisbranch/ludo-arena/internal/ludo/board"
	"github.com/louisbranch/ludo-arena/internal/ludo/turn"
)

// NoWinner is the wire sentinel for an undecided match. Inside the engine
// the winner is an optional value; the sentinel exists only at the
// serialization boundary.
const NoWinner = -1

// Snapshot is an immutable, self-describing copy of the engine's observable
// state. A client rehydrates a behaviorally-equivalent engine from it with
// no other side channel; no event replay is required.
type Snapshot struct {
	PlayerCount       int      `json:"playerCount"`
	CurrentPlayer     int      `json:"currentPlayer"`
	ConsecutiveSixes  int      `json:"consecutiveSixes"`
	LastDiceRoll      int      `json:"lastDiceRoll"`
	MovableTokensMask []string `json:"movableTokensMask"`
	Tokens            []int    `json:"tokens"`
	GameWon           bool     `json:"gameWon"`
	Winner            int      `json:"winner"`
	TurnID            uint64   `json:"turnId"`
	Version           int64    `json:"version"`
}

// tokenNames are the symbolic wire names for the four local token slots.
// The movable mask is serialized as names, not raw bits, for forward
// compatibility.
var tokenNames = [board.TokensPerPlayer]string{"token0", "token1", "token2", "token3"}

// MaskNames expands a movable mask into its symbolic token names.
func MaskNames(mask board.MovableMask) []string {
	names := []string{}
	for i := 0; i < board.TokensPerPlayer; i++ {
		if mask.Has(i) {
			names = append(names, tokenNames[i])
		}
	}
	return names
}

// MaskFromNames parses symbolic token names back into a movable mask.
func MaskFromNames(names []string) (board.MovableMask, error) {
	var mask board.MovableMask
	for _, name := range names {
		found := false
		for i, known := range tokenNames {
			if name == known {
				mask = mask.Set(i)
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown token name %q", name)
		}
	}
	return mask, nil
}

// Snapshot captures the engine's full observable state for transmission.
func (e *Engine) Snapshot() Snapshot {
	winner := NoWinner
	if e.winner != nil {
		winner = *e.winner
	}
	return Snapshot{
		PlayerCount:       e.board.PlayerCount(),
		CurrentPlayer:     e.turns.Current(),
		ConsecutiveSixes:  e.turns.ConsecutiveSixes(),
		LastDiceRoll:      e.turns.LastRoll(),
		MovableTokensMask: MaskNames(board.MovableMask(e.turns.Movable())),
		Tokens:            e.board.Positions(),
		GameWon:           e.won,
		Winner:            winner,
		TurnID:            e.turns.TurnID(),
		Version:           e.turns.Version(),
	}
}

// FromSnapshot rehydrates an engine from a snapshot. The rehydrated engine's
// board, turn id, version, and won/winner fields equal the source engine at
// the moment the snapshot was taken. The seed starts a fresh roll sequence;
// roll authority stays with whichever copy is authoritative.
func FromSnapshot(snap Snapshot, seed int64) (*Engine, error) {
	b, err := board.Restore(snap.PlayerCount, snap.Tokens)
	if err != nil {
		return nil, fmt.Errorf("restore board: %w", err)
	}

	mask, err := MaskFromNames(snap.MovableTokensMask)
	if err != nil {
		return nil, fmt.Errorf("restore movable mask: %w", err)
	}

	t, err := turn.Restore(snap.PlayerCount, snap.CurrentPlayer, snap.LastDiceRoll, snap.ConsecutiveSixes, turn.Mask(mask), snap.TurnID, snap.Version)
	if err != nil {
		return nil, fmt.Errorf("restore turn state: %w", err)
	}

	e := &Engine{
		board: b,
		turns: t,
		dice:  newSeededDice(seed),
		seed:  seed,
		won:   snap.GameWon,
	}
	if snap.Winner != NoWinner {
		if snap.Winner < 0 || snap.Winner >= snap.PlayerCount {
			return nil, fmt.Errorf("winner %d is out of range", snap.Winner)
		}
		winner := snap.Winner
		e.winner = &winner
	}
	if e.won && e.winner == nil {
		return nil, fmt.Errorf("snapshot marks the game won without a winner")
	}
	return e, nil
}
