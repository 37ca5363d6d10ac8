// Package kvstore provides the persistent key-value surface the state stores
// write through. Values are plain JSON text under string keys.
//
// Three drivers are available out of the box:
//   - "file"   — one JSON document per key on the local filesystem (default)
//   - "redis"  — shared storage for multi-device setups
//   - "memory" — process-local, for tests
//
// Reads never error: a miss, a malformed document, or an unavailable backend
// all report a miss, and callers fall back to their zero value. Writes are
// best effort; the in-memory state of the calling store remains the source
// of truth when a write fails.
//
// Quick start:
//
//	kvstore.Connect()
//	kv := kvstore.Default()
//	kv.Set("cart_guest", lines, 0)
//	var lines []models.CartLine
//	hit := kv.Get("cart_guest", &lines)
package kvstore

import "time"

// Store is the key-value driver interface. Every driver must implement this.
type Store interface {
	// Get retrieves the value under key and unmarshals it into dest.
	// Returns true on a hit, false on miss, decode failure, or backend error.
	Get(key string, dest interface{}) bool

	// Set stores value under key as JSON. A zero ttl means no expiry.
	Set(key string, value interface{}, ttl time.Duration) error

	// Delete removes one or more keys. Absent keys are not an error.
	Delete(keys ...string) error

	// Has reports whether key currently holds a value.
	Has(key string) bool
}
