package engine

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/louisbranch/ludo-arena/internal/ludo/board"
)

// TestSnapshotRoundTrip ensures a rehydrated engine matches the source
// engine's observable state exactly.
func TestSnapshotRoundTrip(t *testing.T) {
	eng := mustEngine(t, 2, 6, 2, 6, 5, 3)

	// Play a short opening so the snapshot carries non-trivial state.
	for i := 0; i < 6; i++ {
		result, err := eng.RollDice()
		if err != nil {
			t.Fatalf("roll %d returned error: %v", i, err)
		}
		if result.TurnAdvanced {
			continue
		}
		moved := false
		for local := 0; local < 4; local++ {
			if result.Movable.Has(local) {
				if _, err := eng.MoveToken(local); err != nil {
					t.Fatalf("move %d returned error: %v", i, err)
				}
				moved = true
				break
			}
		}
		if !moved {
			t.Fatalf("roll %d left no movable token without advancing", i)
		}
	}

	snap := eng.Snapshot()
	restored, err := FromSnapshot(snap, 7)
	if err != nil {
		t.Fatalf("FromSnapshot returned error: %v", err)
	}
	if !reflect.DeepEqual(restored.Snapshot(), snap) {
		t.Fatalf("round trip diverged:\n  source   %+v\n  restored %+v", snap, restored.Snapshot())
	}
	if restored.TurnID() != eng.TurnID() || restored.Version() != eng.Version() {
		t.Fatalf("counters diverged: %d/%d vs %d/%d", restored.TurnID(), restored.Version(), eng.TurnID(), eng.Version())
	}
}

// TestSnapshotJSONShape locks the camelCase wire contract.
func TestSnapshotJSONShape(t *testing.T) {
	eng := mustEngine(t, 2, 6)
	if _, err := eng.RollDice(); err != nil {
		t.Fatalf("RollDice returned error: %v", err)
	}

	data, err := json.Marshal(eng.Snapshot())
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	for _, field := range []string{
		"playerCount", "currentPlayer", "consecutiveSixes", "lastDiceRoll",
		"movableTokensMask", "tokens", "gameWon", "winner", "turnId", "version",
	} {
		if _, ok := decoded[field]; !ok {
			t.Fatalf("snapshot JSON missing field %q: %s", field, data)
		}
	}
	if decoded["winner"].(float64) != NoWinner {
		t.Fatalf("winner = %v, want the -1 wire sentinel", decoded["winner"])
	}

	mask, ok := decoded["movableTokensMask"].([]any)
	if !ok || len(mask) != 4 {
		t.Fatalf("movable mask = %v, want four symbolic names after a six", decoded["movableTokensMask"])
	}
	if mask[0] != "token0" {
		t.Fatalf("mask[0] = %v, want token0", mask[0])
	}
}

// TestMaskNamesRoundTrip covers the symbolic mask encoding.
func TestMaskNamesRoundTrip(t *testing.T) {
	mask := board.MovableMask(0b1010)
	names := MaskNames(mask)
	if !reflect.DeepEqual(names, []string{"token1", "token3"}) {
		t.Fatalf("MaskNames = %v, want [token1 token3]", names)
	}
	parsed, err := MaskFromNames(names)
	if err != nil {
		t.Fatalf("MaskFromNames returned error: %v", err)
	}
	if parsed != mask {
		t.Fatalf("round trip mask = %b, want %b", parsed, mask)
	}
	if _, err := MaskFromNames([]string{"token9"}); err == nil {
		t.Fatal("MaskFromNames accepted an unknown token name")
	}
}

// TestFromSnapshotValidation rejects inconsistent win state.
func TestFromSnapshotValidation(t *testing.T) {
	_, err := FromSnapshot(Snapshot{
		PlayerCount: 2,
		Tokens:      []int{0, 0, 0, 0, 0, 0, 0, 0},
		GameWon:     true,
		Winner:      NoWinner,
	}, 1)
	if err == nil {
		t.Fatal("FromSnapshot accepted a won game without a winner")
	}

	_, err = FromSnapshot(Snapshot{
		PlayerCount: 2,
		Tokens:      []int{0, 0, 0, 0, 0, 0, 0, 0},
		Winner:      3,
	}, 1)
	if err == nil {
		t.Fatal("FromSnapshot accepted an out-of-range winner")
	}
}
