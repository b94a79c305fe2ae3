package client

import (
	"errors"
	"fmt"
)

var (
	ErrRoomFull     = errors.New("room is full")
	ErrTimeout      = errors.New("timeout")
	ErrServerClosed = errors.New("signaling server closed the connection")
	ErrNotConnected = errors.New("not connected")
	ErrProtocol     = errors.New("unexpected message from server")
)

// OpError describes a failed client operation.
type OpError struct {
	Op      string
	Err     error
	Details string
}

func (e *OpError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *OpError {
	return &OpError{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *OpError {
	return &OpError{Op: op, Err: err, Details: details}
}
