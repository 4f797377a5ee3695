// Package store wraps the key-value store the dashboard polls and the
// pub/sub channels it publishes control commands to.
package store

import "context"

// Store defines the read and publish operations the dashboard needs.
// All reads are best-effort and non-transactional: a missing key is a
// normal state (device not yet registered, or deregistered) and comes
// back as absent, never as an error.
type Store interface {
	// Get returns the string value at key. ok is false when the key is
	// absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// List returns the elements of the list at key, oldest first. An
	// absent key yields an empty slice.
	List(ctx context.Context, key string) ([]string, error)
	// ListTail returns at most n elements from the end of the list at key.
	ListTail(ctx context.Context, key string, n int) ([]string, error)
	// Scan returns all keys matching a glob-style pattern.
	Scan(ctx context.Context, pattern string) ([]string, error)
	// Publish sends payload on the named channel. It returns an error
	// only on transport failure; delivery is not confirmed.
	Publish(ctx context.Context, channel string, payload []byte) error
	// Ping verifies the connection.
	Ping(ctx context.Context) error
	Close() error
}
