// Package board implements the positional rules of the four-token race game.
//
// The board owns the token coordinates and nothing else: it has no concept of
// turns or dice sequencing. Each player sees the 52-cell main ring through a
// private relative coordinate system starting at their own entry cell; the
// shared absolute ring coordinate is only needed to detect captures between
// different players' tokens.
package board

import (
	"fmt"

	apperrors "github.com/louisbranch/ludo-arena/internal/errors"
)

const (
	// TokensPerPlayer is the number of tokens each player races.
	TokensPerPlayer = 4
	// RingSize is the number of cells on the shared main track.
	RingSize = 52
	// TrackEnd is the last relative cell on the main track.
	TrackEnd = 51
	// StretchStart is the first relative cell of the home stretch.
	StretchStart = 52
	// Home is the terminal relative position; a token there is retired.
	Home = 57
	// Base is the relative position of a token not yet in play.
	Base = 0

	// MinPlayers and MaxPlayers bound the supported player counts.
	MinPlayers = 2
	MaxPlayers = 4
)

var (
	// ErrInvalidTokenIndex indicates a token index outside the board.
	ErrInvalidTokenIndex = apperrors.New(apperrors.CodeInvalidTokenIndex, "token index is out of range")
	// ErrInvalidPlayerIndex indicates a player index outside the game.
	ErrInvalidPlayerIndex = apperrors.New(apperrors.CodeInvalidPlayerIndex, "player index is out of range")
	// ErrInvalidDiceRoll indicates a dice value outside 1-6.
	ErrInvalidDiceRoll = apperrors.New(apperrors.CodeInvalidDiceRoll, "dice value must be between 1 and 6")
	// ErrTokenAlreadyHome indicates a move attempt on a retired token.
	ErrTokenAlreadyHome = apperrors.New(apperrors.CodeTokenAlreadyHome, "token is already home")
	// ErrCannotLeaveBase indicates a base exit attempt without a six.
	ErrCannotLeaveBase = apperrors.New(apperrors.CodeCannotLeaveBaseWithoutSix, "a six is required to leave base")
	// ErrWouldOvershootHome indicates a move past the home cell.
	ErrWouldOvershootHome = apperrors.New(apperrors.CodeWouldOvershootHome, "move would overshoot home")
)

// safeRingCells are the absolute ring cells where a token cannot be captured.
var safeRingCells = map[int]bool{1: true, 14: true, 27: true, 40: true}

// MovableMask is a bit-set over a player's four tokens by local index 0-3.
type MovableMask uint8

// Set returns the mask with the bit for local index i set.
func (m MovableMask) Set(i int) MovableMask { return m | 1<<uint(i) }

// Has reports whether the bit for local index i is set.
func (m MovableMask) Has(i int) bool { return m&(1<<uint(i)) != 0 }

// Empty reports whether no token is movable.
func (m MovableMask) Empty() bool { return m == 0 }

// Board owns the relative positions of every token in a match.
type Board struct {
	playerCount int
	positions   []uint8
}

// New creates a board for playerCount players with all tokens at base.
// Player counts outside 2-4 are a programming error and fail construction.
func New(playerCount int) (*Board, error) {
	if playerCount < MinPlayers || playerCount > MaxPlayers {
		return nil, fmt.Errorf("player count must be between %d and %d, got %d", MinPlayers, MaxPlayers, playerCount)
	}
	return &Board{
		playerCount: playerCount,
		positions:   make([]uint8, playerCount*TokensPerPlayer),
	}, nil
}

// Restore creates a board from previously captured token positions.
func Restore(playerCount int, positions []int) (*Board, error) {
	b, err := New(playerCount)
	if err != nil {
		return nil, err
	}
	if len(positions) != len(b.positions) {
		return nil, fmt.Errorf("expected %d token positions, got %d", len(b.positions), len(positions))
	}
	for i, pos := range positions {
		if !validPosition(pos) {
			return nil, fmt.Errorf("token %d has invalid position %d", i, pos)
		}
		b.positions[i] = uint8(pos)
	}
	return b, nil
}

func validPosition(pos int) bool {
	return pos >= Base && pos <= Home
}

// PlayerCount returns the number of players on the board.
func (b *Board) PlayerCount() int { return b.playerCount }

// TokenCount returns the total number of tokens on the board.
func (b *Board) TokenCount() int { return len(b.positions) }

// Positions returns a copy of all token positions in absolute token order.
func (b *Board) Positions() []int {
	out := make([]int, len(b.positions))
	for i, pos := range b.positions {
		out[i] = int(pos)
	}
	return out
}

// Position returns the relative position of the token at tokenIndex.
func (b *Board) Position(tokenIndex int) (int, error) {
	if tokenIndex < 0 || tokenIndex >= len(b.positions) {
		return 0, ErrInvalidTokenIndex
	}
	return int(b.positions[tokenIndex]), nil
}

// Owner returns the player index owning the token at tokenIndex.
func (b *Board) Owner(tokenIndex int) int {
	return tokenIndex / TokensPerPlayer
}

// AtBase reports whether the token has not yet entered play.
func AtBase(pos int) bool { return pos == Base }

// OnTrack reports whether the position is on the shared main track.
func OnTrack(pos int) bool { return pos >= 1 && pos <= TrackEnd }

// OnHomeStretch reports whether the position is in the private home stretch.
func OnHomeStretch(pos int) bool { return pos >= StretchStart && pos < Home }

// AtHome reports whether the token is retired.
func AtHome(pos int) bool { return pos == Home }

// RingPosition maps a player-relative main-track position to the shared
// 1-based absolute ring coordinate. For exactly two players the per-seat
// offset doubles so the players sit opposite each other.
func (b *Board) RingPosition(playerIndex, relative int) int {
	offset := 13 * playerIndex
	if b.playerCount == MinPlayers {
		offset = 26 * playerIndex
	}
	return (relative-1+offset)%RingSize + 1
}

// OnSafeTile reports whether the token at tokenIndex cannot be captured
// where it currently rests. Base, the home stretch, and home are always
// safe; main-track safety is looked up by absolute ring coordinate.
func (b *Board) OnSafeTile(tokenIndex int) (bool, error) {
	pos, err := b.Position(tokenIndex)
	if err != nil {
		return false, err
	}
	if !OnTrack(pos) {
		return true, nil
	}
	return safeRingCells[b.RingPosition(b.Owner(tokenIndex), pos)], nil
}

// MoveToken advances the token at tokenIndex by diceValue and returns the
// new relative position.
//
// A token at base enters the track at relative cell 1, and only on a six.
// A token crossing the end of the main track turns into its home stretch;
// landing exactly on the home cell retires it. Any move that would pass the
// home cell is rejected outright, never clamped or bounced.
func (b *Board) MoveToken(tokenIndex, diceValue int) (int, error) {
	target, err := b.moveTarget(tokenIndex, diceValue)
	if err != nil {
		return 0, err
	}
	b.positions[tokenIndex] = uint8(target)
	return target, nil
}

// moveTarget computes the destination of a hypothetical move without
// mutating the board.
func (b *Board) moveTarget(tokenIndex, diceValue int) (int, error) {
	if tokenIndex < 0 || tokenIndex >= len(b.positions) {
		return 0, ErrInvalidTokenIndex
	}
	if diceValue < 1 || diceValue > 6 {
		return 0, ErrInvalidDiceRoll
	}

	current := int(b.positions[tokenIndex])
	switch {
	case AtHome(current):
		return 0, ErrTokenAlreadyHome

	case AtBase(current):
		if diceValue != 6 {
			return 0, ErrCannotLeaveBase
		}
		return 1, nil

	case OnTrack(current):
		target := current + diceValue
		if target <= TrackEnd {
			return target, nil
		}
		stepsIntoHome := target - TrackEnd
		target = StretchStart + stepsIntoHome - 1
		if target > Home {
			return 0, ErrWouldOvershootHome
		}
		return target, nil

	default: // home stretch
		target := current + diceValue
		if target > Home {
			return 0, ErrWouldOvershootHome
		}
		return target, nil
	}
}

// TryCapture resolves a capture after the token at movedTokenIndex has
// landed. It returns the absolute index of the captured opposing token, or
// nil when nothing is captured.
//
// Capture only applies on the shared main track and never on a safe ring
// cell. When two or more opposing tokens already occupy the landing cell
// they form a blockade and the arrival captures nothing; exactly one
// opposing occupant is sent back to base. "No capture" is a normal outcome,
// not an error.
func (b *Board) TryCapture(movedTokenIndex int) (*int, error) {
	pos, err := b.Position(movedTokenIndex)
	if err != nil {
		return nil, err
	}
	if !OnTrack(pos) {
		return nil, nil
	}

	mover := b.Owner(movedTokenIndex)
	ring := b.RingPosition(mover, pos)
	if safeRingCells[ring] {
		return nil, nil
	}

	var occupants []int
	for i, other := range b.positions {
		if b.Owner(i) == mover {
			continue
		}
		if !OnTrack(int(other)) {
			continue
		}
		if b.RingPosition(b.Owner(i), int(other)) == ring {
			occupants = append(occupants, i)
		}
	}
	if len(occupants) != 1 {
		// Empty cell or a blockade of two or more opposing tokens.
		return nil, nil
	}

	captured := occupants[0]
	b.positions[captured] = Base
	return &captured, nil
}

// MovableTokens returns the bit-set of the player's tokens that could
// legally move with diceValue, including the base-exit special case.
func (b *Board) MovableTokens(playerIndex, diceValue int) (MovableMask, error) {
	if playerIndex < 0 || playerIndex >= b.playerCount {
		return 0, ErrInvalidPlayerIndex
	}
	if diceValue < 1 || diceValue > 6 {
		return 0, ErrInvalidDiceRoll
	}

	var mask MovableMask
	for local := 0; local < TokensPerPlayer; local++ {
		if _, err := b.moveTarget(playerIndex*TokensPerPlayer+local, diceValue); err == nil {
			mask = mask.Set(local)
		}
	}
	return mask, nil
}

// PlayerWon reports whether all of the player's tokens are home.
func (b *Board) PlayerWon(playerIndex int) (bool, error) {
	if playerIndex < 0 || playerIndex >= b.playerCount {
		return false, ErrInvalidPlayerIndex
	}
	for local := 0; local < TokensPerPlayer; local++ {
		if !AtHome(int(b.positions[playerIndex*TokensPerPlayer+local])) {
			return false, nil
		}
	}
	return true, nil
}
