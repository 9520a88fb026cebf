package models

import "errors"

// Common errors. Call sites wrap with fmt.Errorf("...: %w", err) to add
// context; boundaries test with errors.Is to map onto status codes.
var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrOutOfRange        = errors.New("position out of range")
	ErrDuplicateShot     = errors.New("duplicate shot")
	ErrCorruptSnapshot   = errors.New("corrupt snapshot")
	ErrVersionMismatch   = errors.New("snapshot version mismatch")
	ErrIndexNotReady     = errors.New("index not ready")
	ErrVideoNotFound     = errors.New("video not found")
	ErrInvalidArgument   = errors.New("invalid argument")
)
