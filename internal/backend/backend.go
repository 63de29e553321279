// Package backend selects and constructs the record store implementation
// from configuration.
package backend

import (
	"fatura/internal/store"
)

// Type identifies a store implementation.
type Type string

const (
	MemoryBackend Type = "memory"
	SQLiteBackend Type = "sqlite"
)

func (t Type) String() string {
	return string(t)
}

// IsValid reports whether the type names a known backend.
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend:
		return true
	}
	return false
}

// CleanupFunc releases resources held by a store.
type CleanupFunc func() error

// Result holds a constructed store plus its optional cleanup.
type Result struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// Close runs the cleanup when one exists.
func (r *Result) Close() error {
	if r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}
