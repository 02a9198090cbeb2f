package util

import "errors"

// Sentinel errors for the per-file failure taxonomy
var (
	// ErrUnreadable indicates a file could not be opened or read
	ErrUnreadable = errors.New("unreadable file")

	// ErrUnsupported indicates the container format is not supported
	ErrUnsupported = errors.New("unsupported container")

	// ErrCorrupt indicates a corrupt or truncated audio stream
	ErrCorrupt = errors.New("corrupt stream")

	// ErrTooShort indicates a track below the format's duration threshold
	ErrTooShort = errors.New("below duration threshold")

	// ErrNotFound indicates a required resource or tool was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)
