package dataset

import "errors"

var (
	// ErrRowNotFound indicates an update targeting a uid absent from the
	// master table.
	ErrRowNotFound = errors.New("row not found")
	// ErrColumnExists indicates an attempt to create a column that is
	// already part of the project.
	ErrColumnExists = errors.New("column already exists")
	// ErrInvalidInput indicates invalid column or row inputs.
	ErrInvalidInput = errors.New("invalid input")
)
