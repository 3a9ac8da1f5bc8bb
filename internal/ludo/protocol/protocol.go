// Package protocol defines the command and event vocabulary that keeps the
// authoritative engine and remote clients synchronized.
//
// Clients propose actions through commands and never dictate outcomes. Every
// command quotes the turn id it was issued against; a stale id is rejected
// before touching the engine. Every outbound event carries a trailing
// snapshot so a client can resynchronize from any single event, including
// failures, with no replay of prior events.
//
// Wire payloads are JSON with camelCase field names. Enumerated fields
// (error kinds, the movable-token mask) travel as symbolic names rather
// than raw integers for forward compatibility; the -1 "none" sentinel for
// winner and captured token exists only at this boundary.
package protocol

import (
	apperrors "github.com/louisbranch/ludo-arena/internal/errors"
	"github.com/louisbranch/ludo-arena/internal/ludo/engine"
)

// noneIndex is the wire sentinel for "no captured token".
const noneIndex = -1

// CommandType identifies an inbound command.
type CommandType string

const (
	// CommandRollDice asks the engine to roll for the current player.
	CommandRollDice CommandType = "rollDice"
	// CommandMoveToken asks the engine to move one of the current player's tokens.
	CommandMoveToken CommandType = "moveToken"
)

// Command is the inbound message envelope. TokenLocalIndex is only present
// for moveToken commands.
type Command struct {
	Type            CommandType `json:"type"`
	ExpectTurnID    uint64      `json:"expectTurnId"`
	TokenLocalIndex *int        `json:"tokenLocalIndex,omitempty"`
}

// EventType identifies an outbound event.
type EventType string

const (
	// EventDiceRolled reports a successful roll.
	EventDiceRolled EventType = "diceRolled"
	// EventTokenMoved reports a successful move.
	EventTokenMoved EventType = "tokenMoved"
	// EventTurnAdvanced reports that the turn passed to another player.
	EventTurnAdvanced EventType = "turnAdvanced"
	// EventError reports a rejected command.
	EventError EventType = "error"
)

// Event is implemented by every outbound message.
type Event interface {
	EventType() EventType
}

// DiceRolledEvent reports a roll to all clients. On a triple-six forfeiture
// the value is still present so clients can animate the roll, but no move
// follows and the snapshot already shows the next player on turn.
type DiceRolledEvent struct {
	Type                  EventType       `json:"type"`
	Player                int             `json:"player"`
	TurnID                uint64          `json:"turnId"`
	DiceValue             int             `json:"diceValue"`
	MovableMask           []string        `json:"movableMask"`
	ForfeitedForTripleSix bool            `json:"forfeitedForTripleSix"`
	Snapshot              engine.Snapshot `json:"snapshot"`
}

// EventType implements Event.
func (e DiceRolledEvent) EventType() EventType { return e.Type }

// TokenMovedEvent reports a completed move, including any capture and the
// win state it produced.
type TokenMovedEvent struct {
	Type               EventType       `json:"type"`
	Player             int             `json:"player"`
	TurnID             uint64          `json:"turnId"`
	TokenLocalIndex    int             `json:"tokenLocalIndex"`
	NewPosition        int             `json:"newPosition"`
	CapturedTokenIndex int             `json:"capturedTokenIndex"`
	ExtraTurn          bool            `json:"extraTurn"`
	Won                bool            `json:"won"`
	Winner             int             `json:"winner"`
	Snapshot           engine.Snapshot `json:"snapshot"`
}

// EventType implements Event.
func (e TokenMovedEvent) EventType() EventType { return e.Type }

// TurnAdvancedEvent reports a turn handoff after a move that did not earn
// an extra turn.
type TurnAdvancedEvent struct {
	Type           EventType       `json:"type"`
	PreviousPlayer int             `json:"previousPlayer"`
	NextPlayer     int             `json:"nextPlayer"`
	TurnID         uint64          `json:"turnId"`
	Snapshot       engine.Snapshot `json:"snapshot"`
}

// EventType implements Event.
func (e TurnAdvancedEvent) EventType() EventType { return e.Type }

// ErrorEvent reports a rejected command. The snapshot is always attached so
// a client can resynchronize even on failure.
type ErrorEvent struct {
	Type      EventType       `json:"type"`
	ErrorKind apperrors.Code  `json:"errorKind"`
	Message   string          `json:"message"`
	Snapshot  engine.Snapshot `json:"snapshot"`
}

// EventType implements Event.
func (e ErrorEvent) EventType() EventType { return e.Type }
