package database

import "errors"

// Sentinel errors returned by every repository. Services translate them into AppErrors.
var (
	ErrNotFound        = errors.New("document not found")
	ErrDuplicate       = errors.New("duplicate key")
	ErrVersionConflict = errors.New("document was modified concurrently")
)
