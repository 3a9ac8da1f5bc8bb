// Package turn implements the dice and turn sequencing state machine.
//
// The state machine knows whose turn it is and what the last roll allows; it
// has no knowledge of the board. Illegal flag combinations are made
// unrepresentable by an explicit phase instead of ad hoc booleans.
package turn

import "fmt"

// Phase is the explicit state of the turn machine.
type Phase int

const (
	// AwaitingRoll means no roll is pending for the current player.
	AwaitingRoll Phase = iota
	// AwaitingMove means the last roll produced at least one movable token.
	AwaitingMove
)

func (p Phase) String() string {
	switch p {
	case AwaitingRoll:
		return "AwaitingRoll"
	case AwaitingMove:
		return "AwaitingMove"
	default:
		return "Unknown"
	}
}

// maxConsecutiveSixes is the forfeiture threshold: the third six in a row
// authorizes no move and passes the turn.
const maxConsecutiveSixes = 3

// Mask is the movable-token bit-set stored alongside a pending roll.
// It mirrors board.MovableMask without importing the board package.
type Mask uint8

// Empty reports whether no token is movable.
func (m Mask) Empty() bool { return m == 0 }

// State is the turn sequencing machine for one match. Created once per game
// and mutated only by roll recording and move completion.
type State struct {
	playerCount int
	phase       Phase
	current     int
	lastRoll    int
	movable     Mask
	sixRun      int
	turnID      uint64
	version     int64
}

// New creates a turn state starting with player 0 awaiting a roll.
func New(playerCount int) (*State, error) {
	if playerCount < 2 || playerCount > 4 {
		return nil, fmt.Errorf("player count must be between 2 and 4, got %d", playerCount)
	}
	return &State{playerCount: playerCount, phase: AwaitingRoll}, nil
}

// Restore rebuilds a turn state from snapshot fields.
func Restore(playerCount, current, lastRoll, consecutiveSixes int, movable Mask, turnID uint64, version int64) (*State, error) {
	s, err := New(playerCount)
	if err != nil {
		return nil, err
	}
	if current < 0 || current >= playerCount {
		return nil, fmt.Errorf("current player %d is out of range", current)
	}
	if lastRoll < 0 || lastRoll > 6 {
		return nil, fmt.Errorf("last roll %d is out of range", lastRoll)
	}
	if consecutiveSixes < 0 || consecutiveSixes > maxConsecutiveSixes {
		return nil, fmt.Errorf("consecutive six count %d is out of range", consecutiveSixes)
	}
	s.current = current
	s.lastRoll = lastRoll
	s.movable = movable
	s.sixRun = consecutiveSixes
	s.turnID = turnID
	s.version = version
	if lastRoll != 0 && !movable.Empty() {
		s.phase = AwaitingMove
	}
	return s, nil
}

// Phase returns the current machine phase.
func (s *State) Phase() Phase { return s.phase }

// Current returns the index of the player whose turn it is.
func (s *State) Current() int { return s.current }

// LastRoll returns the pending dice value, or 0 when none is pending.
func (s *State) LastRoll() int { return s.lastRoll }

// Movable returns the movable-token mask for the pending roll.
func (s *State) Movable() Mask { return s.movable }

// ConsecutiveSixes returns the current run of sixes for the current player.
func (s *State) ConsecutiveSixes() int { return s.sixRun }

// TurnID returns the optimistic-concurrency counter quoted by commands.
func (s *State) TurnID() uint64 { return s.turnID }

// Version returns the per-mutation counter. Version never decreases and is
// always at least TurnID.
func (s *State) Version() int64 { return s.version }

// BumpTurn advances the command counter after an accepted state-changing
// command (a roll or a move).
func (s *State) BumpTurn() {
	s.turnID++
}

// RecordRoll stores a roll and its movable mask. A six extends the
// consecutive-six run; anything else resets it. Returns true when the roll
// hit the forfeiture threshold: the roll is recorded for the caller to
// expose, but it authorizes no move and the turn advances immediately.
func (s *State) RecordRoll(value int, movable Mask) (forfeited bool) {
	if value == 6 {
		s.sixRun++
	} else {
		s.sixRun = 0
	}
	s.version++

	if s.sixRun >= maxConsecutiveSixes {
		s.AdvanceTurn()
		return true
	}

	s.lastRoll = value
	s.movable = movable
	if !movable.Empty() {
		s.phase = AwaitingMove
	}
	return false
}

// ClearAfterMove applies the post-move transition. The same player keeps
// the turn when the spent roll was a six below the forfeiture threshold;
// otherwise the turn advances. Returns true when the turn advanced.
func (s *State) ClearAfterMove() (advanced bool) {
	s.version++
	if s.lastRoll == 6 && s.sixRun < maxConsecutiveSixes {
		// Extra turn: pending roll cleared, six run preserved.
		s.lastRoll = 0
		s.movable = 0
		s.phase = AwaitingRoll
		return false
	}
	s.AdvanceTurn()
	return true
}

// AdvanceTurn passes the turn to the next player, wrapping around, and
// clears the pending roll, the movable mask, and the six run.
func (s *State) AdvanceTurn() {
	s.current = (s.current + 1) % s.playerCount
	s.lastRoll = 0
	s.movable = 0
	s.sixRun = 0
	s.phase = AwaitingRoll
	s.version++
}
