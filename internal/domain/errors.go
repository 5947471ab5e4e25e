package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument signals a rejected builder or request value.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrProtocol signals a reply whose shape does not match the request.
	ErrProtocol = errors.New("protocol error")
	// ErrIndexNotFound signals an unknown index name.
	ErrIndexNotFound = errors.New("index not found")
	// ErrCursorNotFound signals an expired or already released cursor.
	ErrCursorNotFound = errors.New("cursor not found")
)

// ProtocolError wraps ErrProtocol with the command and the mismatch found.
type ProtocolError struct {
	Command string
	Reason  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s reply: %s", ErrProtocol.Error(), e.Command, e.Reason)
}

func (e *ProtocolError) Unwrap() error { return ErrProtocol }

// NewProtocolError creates a protocol error for command.
func NewProtocolError(command, format string, args ...any) error {
	return &ProtocolError{Command: command, Reason: fmt.Sprintf(format, args...)}
}
