package domain

import "errors"

// ErrInvalidID and related errors describe rejected board mutations.
var (
	ErrInvalidID              = errors.New("invalid id")
	ErrInvalidName            = errors.New("invalid name")
	ErrInvalidKind            = errors.New("invalid item kind")
	ErrInvalidScope           = errors.New("invalid calibration scope")
	ErrInvalidDateRange       = errors.New("invalid date range")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrItemNotFound           = errors.New("item not found")
	ErrLaneNotFound           = errors.New("lane not found")
	ErrLaneInUse              = errors.New("lane in use")
	ErrDuplicateLane          = errors.New("duplicate lane")
	ErrDuplicateItem          = errors.New("duplicate item")
	ErrSyntheticLane          = errors.New("synthetic lane cannot be changed")
	ErrIllegalLane            = errors.New("lane does not accept item")
	ErrIncompatibleSwap       = errors.New("items cannot swap dates")
)
