package protocol

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/louisbranch/ludo-arena/internal/errors"
	"github.com/louisbranch/ludo-arena/internal/ludo/engine"
)

// Session binds one engine to the protocol. It is a single-writer state
// machine: the hosting layer must serialize Apply calls per match in arrival
// order. The expectTurnId check is a cheap idempotent guard against stale or
// retransmitted commands, not a substitute for that serialization.
type Session struct {
	engine *engine.Engine
}

// NewSession wraps an engine for command handling.
func NewSession(eng *engine.Engine) *Session {
	return &Session{engine: eng}
}

// Engine exposes the underlying engine for snapshot queries.
func (s *Session) Engine() *engine.Engine {
	return s.engine
}

// Snapshot returns the engine's current snapshot.
func (s *Session) Snapshot() engine.Snapshot {
	return s.engine.Snapshot()
}

// Apply decodes a raw command and handles it, returning the events to
// broadcast. Malformed input never touches the engine.
func (s *Session) Apply(raw []byte) []Event {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return []Event{s.errorEvent(apperrors.Wrap(apperrors.CodeInvalidCommand, "malformed command payload", err))}
	}
	return s.Handle(cmd)
}

// Handle applies a decoded command against the engine and returns the
// resulting events. A rule violation produces a single ErrorEvent and
// leaves engine state untouched.
func (s *Session) Handle(cmd Command) []Event {
	if cmd.ExpectTurnID != s.engine.TurnID() {
		err := apperrors.WithMetadata(apperrors.CodeInvalidCommandForTurn,
			fmt.Sprintf("command expects turn %d but the current turn is %d", cmd.ExpectTurnID, s.engine.TurnID()),
			map[string]string{
				"expectedTurnId": fmt.Sprintf("%d", cmd.ExpectTurnID),
				"currentTurnId":  fmt.Sprintf("%d", s.engine.TurnID()),
			})
		return []Event{s.errorEvent(err)}
	}

	switch cmd.Type {
	case CommandRollDice:
		return s.handleRoll()
	case CommandMoveToken:
		return s.handleMove(cmd)
	default:
		return []Event{s.errorEvent(apperrors.New(apperrors.CodeInvalidCommand,
			fmt.Sprintf("unknown command type %q", cmd.Type)))}
	}
}

func (s *Session) handleRoll() []Event {
	result, err := s.engine.RollDice()
	if err != nil {
		return []Event{s.errorEvent(err)}
	}

	return []Event{DiceRolledEvent{
		Type:                  EventDiceRolled,
		Player:                result.Player,
		TurnID:                s.engine.TurnID(),
		DiceValue:             result.Value,
		MovableMask:           engine.MaskNames(result.Movable),
		ForfeitedForTripleSix: result.ForfeitedTripleSix,
		Snapshot:              s.engine.Snapshot(),
	}}
}

func (s *Session) handleMove(cmd Command) []Event {
	if cmd.TokenLocalIndex == nil {
		return []Event{s.errorEvent(apperrors.New(apperrors.CodeInvalidCommand, "moveToken requires tokenLocalIndex"))}
	}

	result, err := s.engine.MoveToken(*cmd.TokenLocalIndex)
	if err != nil {
		return []Event{s.errorEvent(err)}
	}

	snap := s.engine.Snapshot()
	captured := noneIndex
	if result.Captured != nil {
		captured = *result.Captured
	}
	winner := engine.NoWinner
	if result.Winner != nil {
		winner = *result.Winner
	}

	events := []Event{TokenMovedEvent{
		Type:               EventTokenMoved,
		Player:             result.Player,
		TurnID:             s.engine.TurnID(),
		TokenLocalIndex:    result.TokenLocalIndex,
		NewPosition:        result.NewPosition,
		CapturedTokenIndex: captured,
		ExtraTurn:          result.ExtraTurn,
		Won:                result.Won,
		Winner:             winner,
		Snapshot:           snap,
	}}

	if result.TurnAdvanced {
		events = append(events, TurnAdvancedEvent{
			Type:           EventTurnAdvanced,
			PreviousPlayer: result.Player,
			NextPlayer:     result.NextPlayer,
			TurnID:         s.engine.TurnID(),
			Snapshot:       snap,
		})
	}
	return events
}

func (s *Session) errorEvent(err error) ErrorEvent {
	return ErrorEvent{
		Type:      EventError,
		ErrorKind: apperrors.GetCode(err),
		Message:   err.Error(),
		Snapshot:  s.engine.Snapshot(),
	}
}
