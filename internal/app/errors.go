package app

import "errors"

// ErrTestingMode is returned when a listener is requested while testing
// mode is on.
var ErrTestingMode = errors.New("app: testing mode does not bind a listener")
