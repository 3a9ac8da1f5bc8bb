// Package engine orchestrates the board, the turn machine, and a seeded
// random source into the authoritative game engine for one match.
//
// # Determinism
//
// An Engine created with an explicit seed reproduces an identical sequence
// of rolls. The random source is owned exclusively by the engine instance
// and never shared across matches, so seeded reproducibility holds for
// replay and tests.
package engine

import (
	"fmt"
	"math/rand"

	apperrors "github.com/louisbranch/ludo-arena/internal/errors"
	"github.com/louisbranch/ludo-arena/internal/ludo/board"
	"github.com/louisbranch/ludo-arena/internal/ludo/turn"
)

var (
	// ErrGameAlreadyWon indicates a command arrived after the match was decided.
	ErrGameAlreadyWon = apperrors.New(apperrors.CodeGameAlreadyWon, "game is already won")
	// ErrNoTurnAvailable indicates the turn machine is not in the phase the
	// command requires (rolling while a roll is pending, or moving without one).
	ErrNoTurnAvailable = apperrors.New(apperrors.CodeNoTurnAvailable, "no turn available for this command")
	// ErrTokenNotMovable indicates the chosen token is not in the movable set.
	ErrTokenNotMovable = apperrors.New(apperrors.CodeTokenNotMovable, "token is not movable with the last roll")
)

// DiceSource draws dice values for an engine. Roll must return a value in
// 1-6. The default source is a seeded *rand.Rand; tests and replays may
// inject a scripted source.
type DiceSource interface {
	Roll() int
}

type seededDice struct {
	rng *rand.Rand
}

func (d *seededDice) Roll() int {
	return d.rng.Intn(6) + 1
}

func newSeededDice(seed int64) DiceSource {
	return &seededDice{rng: rand.New(rand.NewSource(seed))}
}

// Engine is the authoritative state machine for one match. All mutation
// happens synchronously within RollDice and MoveToken; the engine performs
// no I/O and has no internal concurrency. Hosting many matches requires one
// serialization domain per engine (see the arena service).
type Engine struct {
	board  *board.Board
	turns  *turn.State
	dice   DiceSource
	seed   int64
	won    bool
	winner *int
}

// New creates an engine for playerCount players with all tokens at base.
// The seed fully determines the roll sequence.
func New(playerCount int, seed int64) (*Engine, error) {
	eng, err := NewWithDice(playerCount, newSeededDice(seed))
	if err != nil {
		return nil, err
	}
	eng.seed = seed
	return eng, nil
}

// NewWithDice creates an engine with an injected dice source.
func NewWithDice(playerCount int, dice DiceSource) (*Engine, error) {
	b, err := board.New(playerCount)
	if err != nil {
		return nil, err
	}
	t, err := turn.New(playerCount)
	if err != nil {
		return nil, err
	}
	return &Engine{
		board: b,
		turns: t,
		dice:  dice,
	}, nil
}

// RollResult captures the outcome of a dice roll.
type RollResult struct {
	// Player is the player who rolled.
	Player int
	// Value is the rolled dice value, 1-6.
	Value int
	// Movable is the bit-set of the player's tokens that can act on Value.
	Movable board.MovableMask
	// ForfeitedTripleSix is true when this roll was the third six in a row:
	// the value is exposed for display but authorizes no move and the turn
	// has already passed.
	ForfeitedTripleSix bool
	// TurnAdvanced is true when the roll ended the player's turn, either by
	// forfeiture or because no token could move.
	TurnAdvanced bool
}

// MoveResult captures the outcome of a token move.
type MoveResult struct {
	// Player is the player who moved.
	Player int
	// TokenLocalIndex is the moved token's index within the player's four.
	TokenLocalIndex int
	// NewPosition is the token's relative position after the move.
	NewPosition int
	// Captured is the absolute index of the captured opposing token, or nil.
	Captured *int
	// ExtraTurn is true when the player keeps the turn for rolling a six.
	ExtraTurn bool
	// TurnAdvanced is true when the turn passed to NextPlayer.
	TurnAdvanced bool
	// NextPlayer is the player on turn after the move.
	NextPlayer int
	// Won is true when the move retired the player's last token.
	Won bool
	// Winner is the winning player index, or nil while the match is open.
	Winner *int
}

// RollDice draws the next dice value for the current player and feeds it
// into the turn machine. A roll with no movable tokens advances the turn
// immediately; the third consecutive six forfeits the move outright.
func (e *Engine) RollDice() (RollResult, error) {
	if e.won {
		return RollResult{}, ErrGameAlreadyWon
	}
	if e.turns.Phase() == turn.AwaitingMove {
		return RollResult{}, ErrNoTurnAvailable
	}

	player := e.turns.Current()
	value := e.dice.Roll()
	movable, err := e.board.MovableTokens(player, value)
	if err != nil {
		return RollResult{}, fmt.Errorf("movable tokens for player %d: %w", player, err)
	}

	forfeited := e.turns.RecordRoll(value, turn.Mask(movable))
	advanced := forfeited
	if !forfeited && movable.Empty() {
		e.turns.AdvanceTurn()
		advanced = true
	}
	e.turns.BumpTurn()

	return RollResult{
		Player:             player,
		Value:              value,
		Movable:            movable,
		ForfeitedTripleSix: forfeited,
		TurnAdvanced:       advanced,
	}, nil
}

// MoveToken moves the current player's token at local index 0-3 using the
// pending roll. Capture resolution never fails; "no capture" is a valid
// outcome. A failed move leaves state untouched.
func (e *Engine) MoveToken(local int) (MoveResult, error) {
	if e.won {
		return MoveResult{}, ErrGameAlreadyWon
	}
	if e.turns.Phase() != turn.AwaitingMove {
		return MoveResult{}, ErrNoTurnAvailable
	}
	if local < 0 || local >= board.TokensPerPlayer {
		return MoveResult{}, board.ErrInvalidTokenIndex
	}
	if !board.MovableMask(e.turns.Movable()).Has(local) {
		return MoveResult{}, ErrTokenNotMovable
	}

	player := e.turns.Current()
	tokenIndex := player*board.TokensPerPlayer + local
	newPos, err := e.board.MoveToken(tokenIndex, e.turns.LastRoll())
	if err != nil {
		return MoveResult{}, err
	}

	captured, err := e.board.TryCapture(tokenIndex)
	if err != nil {
		return MoveResult{}, fmt.Errorf("capture check for token %d: %w", tokenIndex, err)
	}

	result := MoveResult{
		Player:          player,
		TokenLocalIndex: local,
		NewPosition:     newPos,
		Captured:        captured,
		NextPlayer:      player,
	}

	won, err := e.board.PlayerWon(player)
	if err != nil {
		return MoveResult{}, fmt.Errorf("win check for player %d: %w", player, err)
	}
	if won {
		// The match is decided; the turn machine freezes in place.
		e.won = true
		winner := player
		e.winner = &winner
		result.Won = true
		result.Winner = e.winner
	} else {
		advanced := e.turns.ClearAfterMove()
		result.TurnAdvanced = advanced
		result.ExtraTurn = !advanced
		result.NextPlayer = e.turns.Current()
	}
	e.turns.BumpTurn()

	return result, nil
}

// PlayerCount returns the number of players in the match.
func (e *Engine) PlayerCount() int { return e.board.PlayerCount() }

// CurrentPlayer returns the player on turn.
func (e *Engine) CurrentPlayer() int { return e.turns.Current() }

// TurnID returns the optimistic-concurrency counter commands must quote.
func (e *Engine) TurnID() uint64 { return e.turns.TurnID() }

// Version returns the per-mutation state counter.
func (e *Engine) Version() int64 { return e.turns.Version() }

// Won reports whether the match is decided.
func (e *Engine) Won() bool { return e.won }

// Winner returns the winning player index, or nil while the match is open.
func (e *Engine) Winner() *int { return e.winner }

// Seed returns the seed the engine's roll sequence is derived from.
func (e *Engine) Seed() int64 { return e.seed }
