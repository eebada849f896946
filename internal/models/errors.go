package models

import (
	"errors"
	"fmt"
)

// ErrorCode is a machine readable rejection reason sent alongside every error message
type ErrorCode string

const (
	ErrRoomNotFound       ErrorCode = "room.notFound"
	ErrRoomFull           ErrorCode = "room.full"
	ErrRoomAlreadyStarted ErrorCode = "room.alreadyStarted"
	ErrRoomNotHost        ErrorCode = "room.notHost"
	ErrRoomTooFewPlayers  ErrorCode = "room.tooFewPlayers"

	ErrMoveNotYourTurn      ErrorCode = "move.notYourTurn"
	ErrMoveInvalidFrom      ErrorCode = "move.invalidFrom"
	ErrMoveUnknownStation   ErrorCode = "move.unknownStation"
	ErrMoveSameStation      ErrorCode = "move.sameStation"
	ErrMoveNoTicket         ErrorCode = "move.noTicket"
	ErrMoveNotConnected     ErrorCode = "move.notConnected"
	ErrMoveOccupied         ErrorCode = "move.occupied"
	ErrMoveBlackNotAllowed  ErrorCode = "move.blackNotAllowed"
	ErrMoveDoubleNotAllowed ErrorCode = "move.doubleNotAllowed"

	ErrBusy ErrorCode = "internal.busy"

	// Transport and operator errors; the game engine never produces these.
	ErrInvalidRequest ErrorCode = "request.invalid"
	ErrPlayerNotFound ErrorCode = "player.notFound"
	ErrUnauthorized   ErrorCode = "admin.unauthorized"
	ErrInternal       ErrorCode = "internal.error"
)

// Error is a typed command rejection. It is only ever returned to the
// command's originator.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds a typed rejection
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the error code from err, or ErrInternal for untyped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrInternal
}
