package schema

import "errors"

// ErrInvalid indicates a configuration document that is missing required
// keys or carries invalid column definitions.
var ErrInvalid = errors.New("invalid schema configuration")
