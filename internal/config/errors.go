package config

import "errors"

// Errors.
var (
	ErrConfigCorrupt   = errors.New("config document is corrupt")
	ErrConfigInvariant = errors.New("config invariant violated")
	ErrFilesystem      = errors.New("filesystem error")
	ErrUnknownNetwork  = errors.New("unknown network")
)
