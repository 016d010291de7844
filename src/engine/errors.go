package engine

import "errors"

var (
	// ErrNotFound is returned when a referenced resource id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrMalformedQuery covers bad command shapes, operators and ranges.
	ErrMalformedQuery         = errors.New("malformed query")
	ErrInvalidCollection      = errors.New("invalid collection")
	ErrCollectionExists       = errors.New("collection already exists")
	ErrPersistence            = errors.New("persistence error")
	ErrRootNotFound           = errors.New("storage root not found")
	ErrNotImplemented         = errors.New("not implemented")
	ErrInvalidNumberOfResults = errors.New("number of results must be greater than zero")
)
