// Package store holds the local state containers for the user's profile and
// practice session history. Stores are dependency-injected, persist every
// mutation through a snapshot repository, and know nothing about the
// persistence mechanism behind it.
package store

// Repository is the durable snapshot boundary a store persists through
type Repository interface {
	// Load returns the last saved snapshot, or ok=false on first use
	Load() ([]byte, bool, error)

	// Save durably replaces the snapshot
	Save(snapshot []byte) error
}
