package sheet

import "errors"

// Sentinel kinds for sheet errors.
var (
	ErrOpen  = errors.New("open csv failed")
	ErrParse = errors.New("parse csv failed")
)
