package errors

import (
	stderrors "errors"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code. The string value is the symbolic
// name used on the wire by the synchronization protocol, so the set below is
// a closed enumeration shared with clients.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "Unknown"

	// Board errors
	CodeInvalidTokenIndex         Code = "InvalidTokenIndex"
	CodeInvalidPlayerIndex        Code = "InvalidPlayerIndex"
	CodeInvalidDiceRoll           Code = "InvalidDiceRoll"
	CodeTokenAlreadyHome          Code = "TokenAlreadyHome"
	CodeCannotLeaveBaseWithoutSix Code = "CannotLeaveBaseWithoutSix"
	CodeWouldOvershootHome        Code = "WouldOvershootHome"

	// Engine errors
	CodeTokenNotMovable Code = "TokenNotMovable"
	CodeNoTurnAvailable Code = "NoTurnAvailable"
	CodeGameAlreadyWon  Code = "GameAlreadyWon"

	// Protocol errors
	CodeInvalidCommandForTurn Code = "InvalidCommandForTurn"
	CodeInvalidCommand        Code = "InvalidCommand"

	// Storage errors
	CodeNotFound Code = "NotFound"
)

// GRPCCode maps domain codes to gRPC status codes for the ops surface.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeInvalidTokenIndex,
		CodeInvalidPlayerIndex,
		CodeInvalidDiceRoll,
		CodeInvalidCommand:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeTokenAlreadyHome,
		CodeCannotLeaveBaseWithoutSix,
		CodeWouldOvershootHome,
		CodeTokenNotMovable,
		CodeNoTurnAvailable,
		CodeGameAlreadyWon:
		return codes.FailedPrecondition

	// Aborted - optimistic concurrency conflict
	case CodeInvalidCommandForTurn:
		return codes.Aborted

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}
