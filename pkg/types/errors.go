package types

import "errors"

// Gateway errors.
var (
	ErrInvalidMethod     = errors.New("unsupported HTTP method")
	ErrConflict          = errors.New("entity may already exist")
	ErrAttemptsExhausted = errors.New("request attempts exhausted")
)

// Import errors.
var (
	ErrMissingID               = errors.New("response has no id")
	ErrCacheInconsistent       = errors.New("processed entry has no id")
	ErrStoreLocationUnresolved = errors.New("store location could not be resolved")
	ErrSourceRead              = errors.New("cannot read source file")
	ErrSourceDecode            = errors.New("cannot decode source file")
)

// Store errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidData   = errors.New("invalid entity data")
	ErrDuplicateName = errors.New("duplicate name")
	ErrDetached      = errors.New("store is detached")
	ErrAttached      = errors.New("store is already attached")
)
