package config

import "github.com/google/renameio/v2"

// SetReplace replaces the commit step of atomic writes with fn, which
// receives the pending file's path and the destination. It returns a
// function restoring the original.
func SetReplace(fn func(pending, path string) error) (restore func()) {
	prev := replace
	replace = func(f *renameio.PendingFile, path string) error {
		return fn(f.Name(), path)
	}
	return func() { replace = prev }
}
