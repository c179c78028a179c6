package csrf

import "errors"

// Sentinel kinds for guard errors.
var (
	ErrAlreadyInitialized = errors.New("csrf guard already initialized")
	ErrNilHost            = errors.New("csrf guard host is nil")
)
