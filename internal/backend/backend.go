// Package backend selects and constructs the record store implementation.
package backend

import (
	"context"

	"farmstead/internal/store"
)

// CleanupFunc releases resources owned by a backend.
type CleanupFunc func() error

// Result contains the constructed store and an optional cleanup function.
type Result struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// Factory creates record stores based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Remote record service specific
	RemoteBaseURL string

	// Memory backend specific
	DataDirectory string
}

// Type represents the kind of record store backing the application.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	RemoteBackend Type = "remote"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, RemoteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{SQLiteBackend, RemoteBackend, MemoryBackend}
}
