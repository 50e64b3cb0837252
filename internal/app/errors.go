package app

import "errors"

// ErrUndoStackEmpty and related errors describe session and service failures.
var (
	ErrUndoStackEmpty  = errors.New("nothing to undo")
	ErrNoStore         = errors.New("no store configured")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)
