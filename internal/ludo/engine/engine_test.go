package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/louisbranch/ludo-arena/internal/ludo/board"
)

// scriptedDice replays a fixed roll sequence, wrapping around at the end.
type scriptedDice struct {
	values []int
	next   int
}

func (d *scriptedDice) Roll() int {
	value := d.values[d.next%len(d.values)]
	d.next++
	return value
}

func mustEngine(t *testing.T, playerCount int, rolls ...int) *Engine {
	t.Helper()
	eng, err := NewWithDice(playerCount, &scriptedDice{values: rolls})
	if err != nil {
		t.Fatalf("NewWithDice returned error: %v", err)
	}
	return eng
}

func mustFromSnapshot(t *testing.T, snap Snapshot) *Engine {
	t.Helper()
	eng, err := FromSnapshot(snap, 1)
	if err != nil {
		t.Fatalf("FromSnapshot returned error: %v", err)
	}
	return eng
}

// TestNewRejectsInvalidPlayerCounts ensures construction fails fast.
func TestNewRejectsInvalidPlayerCounts(t *testing.T) {
	for _, count := range []int{0, 1, 5} {
		if _, err := New(count, 1); err == nil {
			t.Fatalf("New(%d) succeeded, want error", count)
		}
	}
}

// TestSeedDeterminism ensures two engines with the same seed play out
// identically under identical commands.
func TestSeedDeterminism(t *testing.T) {
	a, err := New(2, 99)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	b, err := New(2, 99)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	for i := 0; i < 50 && !a.Won(); i++ {
		rollA, errA := a.RollDice()
		rollB, errB := b.RollDice()
		if (errA == nil) != (errB == nil) {
			t.Fatalf("step %d: roll errors diverged: %v vs %v", i, errA, errB)
		}
		if errA != nil {
			t.Fatalf("step %d: roll failed: %v", i, errA)
		}
		if rollA != rollB {
			t.Fatalf("step %d: rolls diverged: %+v vs %+v", i, rollA, rollB)
		}
		if rollA.TurnAdvanced {
			continue
		}
		for local := 0; local < board.TokensPerPlayer; local++ {
			if rollA.Movable.Has(local) {
				if _, err := a.MoveToken(local); err != nil {
					t.Fatalf("step %d: move failed: %v", i, err)
				}
				if _, err := b.MoveToken(local); err != nil {
					t.Fatalf("step %d: move failed: %v", i, err)
				}
				break
			}
		}
		if !reflect.DeepEqual(a.Snapshot(), b.Snapshot()) {
			t.Fatalf("step %d: snapshots diverged", i)
		}
	}
}

// TestRollDiceGuards covers the double-roll rejection.
func TestRollDiceGuards(t *testing.T) {
	eng := mustEngine(t, 2, 6)
	result, err := eng.RollDice()
	if err != nil {
		t.Fatalf("RollDice returned error: %v", err)
	}
	if result.Value != 6 || result.TurnAdvanced {
		t.Fatalf("unexpected roll result: %+v", result)
	}
	if _, err := eng.RollDice(); !errors.Is(err, ErrNoTurnAvailable) {
		t.Fatalf("second roll error = %v, want %v", err, ErrNoTurnAvailable)
	}
}

// TestRollWithNoMovableTokensAdvancesTurn ensures a dead roll passes the
// turn without the player acting.
func TestRollWithNoMovableTokensAdvancesTurn(t *testing.T) {
	eng := mustEngine(t, 2, 3)
	result, err := eng.RollDice()
	if err != nil {
		t.Fatalf("RollDice returned error: %v", err)
	}
	if !result.TurnAdvanced {
		t.Fatal("dead roll did not advance the turn")
	}
	if result.ForfeitedTripleSix {
		t.Fatal("dead roll reported as triple-six forfeiture")
	}
	if eng.CurrentPlayer() != 1 {
		t.Fatalf("current player = %d, want 1", eng.CurrentPlayer())
	}
	if _, err := eng.MoveToken(0); !errors.Is(err, ErrNoTurnAvailable) {
		t.Fatalf("move after auto-advance error = %v, want %v", err, ErrNoTurnAvailable)
	}
}

// TestTripleSixForfeitsMove plays 6-6-6: the third roll is surfaced to the
// caller but authorizes no move and the turn passes with the run reset.
func TestTripleSixForfeitsMove(t *testing.T) {
	eng := mustEngine(t, 2, 6)

	for i := 0; i < 2; i++ {
		result, err := eng.RollDice()
		if err != nil {
			t.Fatalf("roll %d returned error: %v", i+1, err)
		}
		if result.ForfeitedTripleSix {
			t.Fatalf("roll %d reported as forfeited", i+1)
		}
		move, err := eng.MoveToken(0)
		if err != nil {
			t.Fatalf("move %d returned error: %v", i+1, err)
		}
		if !move.ExtraTurn {
			t.Fatalf("move %d did not grant an extra turn", i+1)
		}
	}

	result, err := eng.RollDice()
	if err != nil {
		t.Fatalf("third roll returned error: %v", err)
	}
	if !result.ForfeitedTripleSix {
		t.Fatal("third six not reported as forfeited")
	}
	if !result.TurnAdvanced {
		t.Fatal("forfeited roll did not advance the turn")
	}
	if result.Value != 6 {
		t.Fatalf("forfeited roll value = %d, want 6 for client display", result.Value)
	}
	if eng.CurrentPlayer() != 1 {
		t.Fatalf("current player = %d, want 1", eng.CurrentPlayer())
	}
	if got := eng.Snapshot().ConsecutiveSixes; got != 0 {
		t.Fatalf("consecutive sixes after forfeiture = %d, want 0", got)
	}
	if _, err := eng.MoveToken(0); !errors.Is(err, ErrNoTurnAvailable) {
		t.Fatalf("move after forfeiture error = %v, want %v", err, ErrNoTurnAvailable)
	}
}

// TestMoveTokenGuards covers index and movability validation.
func TestMoveTokenGuards(t *testing.T) {
	eng := mustFromSnapshot(t, Snapshot{
		PlayerCount:       2,
		CurrentPlayer:     0,
		LastDiceRoll:      2,
		MovableTokensMask: []string{"token0"},
		Tokens:            []int{10, 0, 0, 0, 30, 0, 0, 0},
		Winner:            NoWinner,
		TurnID:            4,
		Version:           6,
	})

	if _, err := eng.MoveToken(-1); !errors.Is(err, board.ErrInvalidTokenIndex) {
		t.Fatalf("MoveToken(-1) error = %v, want %v", err, board.ErrInvalidTokenIndex)
	}
	if _, err := eng.MoveToken(4); !errors.Is(err, board.ErrInvalidTokenIndex) {
		t.Fatalf("MoveToken(4) error = %v, want %v", err, board.ErrInvalidTokenIndex)
	}
	if _, err := eng.MoveToken(1); !errors.Is(err, ErrTokenNotMovable) {
		t.Fatalf("MoveToken(1) error = %v, want %v", err, ErrTokenNotMovable)
	}

	move, err := eng.MoveToken(0)
	if err != nil {
		t.Fatalf("MoveToken(0) returned error: %v", err)
	}
	if move.NewPosition != 12 {
		t.Fatalf("new position = %d, want 12", move.NewPosition)
	}
	if move.Captured != nil {
		t.Fatalf("captured = %v, want none", *move.Captured)
	}
	if !move.TurnAdvanced || move.NextPlayer != 1 {
		t.Fatalf("unexpected turn handoff: %+v", move)
	}
}

// TestMoveTokenCaptures routes a capture through the engine.
func TestMoveTokenCaptures(t *testing.T) {
	eng := mustFromSnapshot(t, Snapshot{
		PlayerCount:       2,
		CurrentPlayer:     0,
		LastDiceRoll:      3,
		MovableTokensMask: []string{"token0"},
		Tokens:            []int{25, 0, 0, 0, 2, 0, 0, 0},
		Winner:            NoWinner,
		TurnID:            8,
		Version:           11,
	})

	move, err := eng.MoveToken(0)
	if err != nil {
		t.Fatalf("MoveToken returned error: %v", err)
	}
	if move.NewPosition != 28 {
		t.Fatalf("new position = %d, want 28", move.NewPosition)
	}
	if move.Captured == nil || *move.Captured != 4 {
		t.Fatalf("captured = %v, want token 4", move.Captured)
	}
	if got := eng.Snapshot().Tokens[4]; got != 0 {
		t.Fatalf("captured token position = %d, want base", got)
	}
}

// TestWinningMoveDecidesMatch retires the last token from relative 51 with a
// six and verifies the engine refuses further commands.
func TestWinningMoveDecidesMatch(t *testing.T) {
	eng := mustFromSnapshot(t, Snapshot{
		PlayerCount:       2,
		CurrentPlayer:     0,
		ConsecutiveSixes:  1,
		LastDiceRoll:      6,
		MovableTokensMask: []string{"token3"},
		Tokens:            []int{57, 57, 57, 51, 0, 0, 0, 0},
		Winner:            NoWinner,
		TurnID:            40,
		Version:           71,
	})

	move, err := eng.MoveToken(3)
	if err != nil {
		t.Fatalf("MoveToken returned error: %v", err)
	}
	if move.NewPosition != 57 {
		t.Fatalf("new position = %d, want 57", move.NewPosition)
	}
	if !move.Won || move.Winner == nil || *move.Winner != 0 {
		t.Fatalf("unexpected win state: %+v", move)
	}
	if move.ExtraTurn || move.TurnAdvanced {
		t.Fatalf("decided match still transitioned the turn: %+v", move)
	}

	snap := eng.Snapshot()
	if !snap.GameWon || snap.Winner != 0 {
		t.Fatalf("snapshot win state = %v/%d, want true/0", snap.GameWon, snap.Winner)
	}

	if _, err := eng.RollDice(); !errors.Is(err, ErrGameAlreadyWon) {
		t.Fatalf("roll after win error = %v, want %v", err, ErrGameAlreadyWon)
	}
	if _, err := eng.MoveToken(0); !errors.Is(err, ErrGameAlreadyWon) {
		t.Fatalf("move after win error = %v, want %v", err, ErrGameAlreadyWon)
	}
}

// TestPartialHomeIsNotAWin ensures three retired tokens do not decide the match.
func TestPartialHomeIsNotAWin(t *testing.T) {
	eng := mustFromSnapshot(t, Snapshot{
		PlayerCount:       2,
		CurrentPlayer:     0,
		LastDiceRoll:      2,
		MovableTokensMask: []string{"token3"},
		Tokens:            []int{57, 57, 57, 10, 0, 0, 0, 0},
		Winner:            NoWinner,
	})

	move, err := eng.MoveToken(3)
	if err != nil {
		t.Fatalf("MoveToken returned error: %v", err)
	}
	if move.Won {
		t.Fatal("match decided with a token still racing")
	}
	if eng.Won() {
		t.Fatal("engine marked won with a token still racing")
	}
}
