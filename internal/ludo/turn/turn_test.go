package turn

import "testing"

// TestNewStartsAwaitingRoll ensures a fresh state begins with player 0.
func TestNewStartsAwaitingRoll(t *testing.T) {
	if _, err := New(1); err == nil {
		t.Fatal("New(1) succeeded, want error")
	}
	s, err := New(3)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if s.Phase() != AwaitingRoll {
		t.Fatalf("phase = %v, want %v", s.Phase(), AwaitingRoll)
	}
	if s.Current() != 0 || s.LastRoll() != 0 || s.ConsecutiveSixes() != 0 {
		t.Fatalf("unexpected initial state: player %d, roll %d, sixes %d", s.Current(), s.LastRoll(), s.ConsecutiveSixes())
	}
}

// TestRecordRollTracksSixes ensures the six run grows on sixes and resets otherwise.
func TestRecordRollTracksSixes(t *testing.T) {
	s, err := New(2)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if forfeited := s.RecordRoll(6, 0b0001); forfeited {
		t.Fatal("first six reported as forfeited")
	}
	if s.ConsecutiveSixes() != 1 {
		t.Fatalf("sixes = %d, want 1", s.ConsecutiveSixes())
	}
	if s.Phase() != AwaitingMove {
		t.Fatalf("phase = %v, want %v", s.Phase(), AwaitingMove)
	}
	s.ClearAfterMove()
	if forfeited := s.RecordRoll(4, 0b0001); forfeited {
		t.Fatal("a four reported as forfeited")
	}
	if s.ConsecutiveSixes() != 0 {
		t.Fatalf("sixes after a four = %d, want 0", s.ConsecutiveSixes())
	}
}

// TestThirdSixForfeitsTurn ensures the third consecutive six records no
// pending move and passes the turn with the counter reset.
func TestThirdSixForfeitsTurn(t *testing.T) {
	s, err := New(2)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	for i := 0; i < 2; i++ {
		if forfeited := s.RecordRoll(6, 0b0001); forfeited {
			t.Fatalf("six %d reported as forfeited", i+1)
		}
		if advanced := s.ClearAfterMove(); advanced {
			t.Fatalf("six %d did not grant an extra turn", i+1)
		}
	}
	if s.ConsecutiveSixes() != 2 {
		t.Fatalf("sixes = %d, want 2", s.ConsecutiveSixes())
	}

	forfeited := s.RecordRoll(6, 0b0001)
	if !forfeited {
		t.Fatal("third six not reported as forfeited")
	}
	if s.Phase() != AwaitingRoll {
		t.Fatalf("phase after forfeiture = %v, want %v", s.Phase(), AwaitingRoll)
	}
	if s.Current() != 1 {
		t.Fatalf("current player after forfeiture = %d, want 1", s.Current())
	}
	if s.ConsecutiveSixes() != 0 {
		t.Fatalf("sixes after forfeiture = %d, want 0", s.ConsecutiveSixes())
	}
	if s.LastRoll() != 0 {
		t.Fatalf("pending roll after forfeiture = %d, want none", s.LastRoll())
	}
}

// TestClearAfterMoveAdvancesOnNonSix ensures a spent non-six passes the turn.
func TestClearAfterMoveAdvancesOnNonSix(t *testing.T) {
	s, err := New(3)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	s.RecordRoll(4, 0b0010)
	if advanced := s.ClearAfterMove(); !advanced {
		t.Fatal("non-six move kept the turn")
	}
	if s.Current() != 1 {
		t.Fatalf("current player = %d, want 1", s.Current())
	}
	if s.LastRoll() != 0 || !s.Movable().Empty() {
		t.Fatalf("pending state not cleared: roll %d, mask %b", s.LastRoll(), s.Movable())
	}
}

// TestAdvanceTurnWraps ensures the turn order wraps around the player count.
func TestAdvanceTurnWraps(t *testing.T) {
	s, err := New(2)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	s.AdvanceTurn()
	if s.Current() != 1 {
		t.Fatalf("current player = %d, want 1", s.Current())
	}
	s.AdvanceTurn()
	if s.Current() != 0 {
		t.Fatalf("current player = %d, want 0", s.Current())
	}
}

// TestCountersAreMonotonic ensures version grows with every mutation and the
// turn id with every accepted command.
func TestCountersAreMonotonic(t *testing.T) {
	s, err := New(2)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if s.TurnID() != 0 || s.Version() != 0 {
		t.Fatalf("fresh counters = %d/%d, want 0/0", s.TurnID(), s.Version())
	}

	s.RecordRoll(5, 0b0001)
	s.BumpTurn()
	if s.TurnID() != 1 {
		t.Fatalf("turn id after roll = %d, want 1", s.TurnID())
	}
	version := s.Version()
	if version < 1 {
		t.Fatalf("version after roll = %d, want >= 1", version)
	}

	s.ClearAfterMove()
	s.BumpTurn()
	if s.TurnID() != 2 {
		t.Fatalf("turn id after move = %d, want 2", s.TurnID())
	}
	if s.Version() <= version {
		t.Fatalf("version did not grow: %d -> %d", version, s.Version())
	}
	if s.Version() < int64(s.TurnID()) {
		t.Fatalf("version %d fell behind turn id %d", s.Version(), s.TurnID())
	}
}

// TestRestoreRoundTrip ensures snapshot fields rebuild an equivalent state.
func TestRestoreRoundTrip(t *testing.T) {
	s, err := Restore(4, 2, 6, 1, 0b1010, 9, 14)
	if err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if s.Phase() != AwaitingMove {
		t.Fatalf("phase = %v, want %v", s.Phase(), AwaitingMove)
	}
	if s.Current() != 2 || s.LastRoll() != 6 || s.ConsecutiveSixes() != 1 {
		t.Fatalf("unexpected restored state: player %d, roll %d, sixes %d", s.Current(), s.LastRoll(), s.ConsecutiveSixes())
	}
	if s.TurnID() != 9 || s.Version() != 14 {
		t.Fatalf("restored counters = %d/%d, want 9/14", s.TurnID(), s.Version())
	}

	if _, err := Restore(2, 2, 0, 0, 0, 0, 0); err == nil {
		t.Fatal("Restore with out-of-range player succeeded, want error")
	}
	if _, err := Restore(2, 0, 7, 0, 0, 0, 0); err == nil {
		t.Fatal("Restore with roll 7 succeeded, want error")
	}
}
