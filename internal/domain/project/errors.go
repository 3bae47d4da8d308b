package project

import "errors"

// ErrInvalidInput indicates invalid project input.
var ErrInvalidInput = errors.New("invalid project input")
