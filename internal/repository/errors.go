package repository

import "errors"

var (
	// ErrProjectNotFound is returned for operations on a nonexistent
	// project id. A missing project directory is never silently created.
	ErrProjectNotFound = errors.New("project not found")

	// ErrProjectExists is returned when creating a project whose id is
	// already taken.
	ErrProjectExists = errors.New("project already exists")

	// ErrViewNotFound is returned by mutations targeting a nonexistent
	// custom view. Queries of unknown views are not an error; they resolve
	// to zero rows.
	ErrViewNotFound = errors.New("view not found")

	// ErrInvalidConfiguration is returned when a schema document is
	// missing required keys or carries invalid column definitions.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrCorruptData is returned when durable storage is unreadable by
	// every supported decoder. Callers must never see a half-deserialized
	// table.
	ErrCorruptData = errors.New("corrupt data")
)
