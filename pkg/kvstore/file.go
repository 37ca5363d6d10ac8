package kvstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shopfront/pkg/metrics"
)

// fileStore keeps one JSON document per key under a root directory.
// This is the client analog of origin-scoped browser storage: durable across
// process restarts, owned by the local user, no expiry.
type fileStore struct {
	root string
}

// NewFile returns a file-backed Store rooted at root.
// The directory is created lazily on the first write.
func NewFile(root string) Store {
	if !filepath.IsAbs(root) {
		cwd, _ := os.Getwd()
		root = filepath.Join(cwd, root)
	}
	return &fileStore{root: root}
}

// path maps a key to its document path. Keys are flat identifiers
// (token, user, cart_<id>); anything resembling a path is flattened.
func (s *fileStore) path(key string) string {
	key = strings.ReplaceAll(key, string(os.PathSeparator), "_")
	key = strings.ReplaceAll(key, "..", "_")
	return filepath.Join(s.root, key+".json")
}

func (s *fileStore) Get(key string, dest interface{}) bool {
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		metrics.KVMisses.WithLabelValues("file").Inc()
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// Malformed document: treat as a miss, callers fall back to empty.
		metrics.KVMisses.WithLabelValues("file").Inc()
		return false
	}
	metrics.KVHits.WithLabelValues("file").Inc()
	return true
}

func (s *fileStore) Set(key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kvstore/file: marshal %s: %w", key, err)
	}

	if err := os.MkdirAll(s.root, 0o700); err != nil {
		return fmt.Errorf("kvstore/file: mkdir: %w", err)
	}

	// Write-and-rename so a crash mid-write never leaves a torn document.
	full := s.path(key)
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("kvstore/file: write %s: %w", key, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		return fmt.Errorf("kvstore/file: rename %s: %w", key, err)
	}
	return nil
}

func (s *fileStore) Delete(keys ...string) error {
	for _, key := range keys {
		if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("kvstore/file: delete %s: %w", key, err)
		}
	}
	return nil
}

func (s *fileStore) Has(key string) bool {
	_, err := os.Stat(s.path(key))
	return err == nil
}
