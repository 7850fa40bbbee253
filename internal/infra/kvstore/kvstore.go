// Package kvstore provides a small file-backed key/value store used to
// persist session artifacts (token, profile snapshot, menu envelope, UI
// preferences) across gateway restarts. Writes are best-effort: a failed
// write never fails the caller. Reads recover from a missing or corrupt
// file by treating every key as absent.
package kvstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Store is a concurrency-safe key/value store with JSON values.
type Store struct {
	mu     sync.RWMutex
	items  map[string]json.RawMessage
	path   string // empty means memory-only (tests)
	logger *zap.Logger
}

// Open loads the store from path. A missing or undecodable file yields an
// empty store, never an error.
func Open(path string, logger *zap.Logger) *Store {
	s := &Store{
		items:  make(map[string]json.RawMessage),
		path:   path,
		logger: logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	if err := json.Unmarshal(data, &s.items); err != nil {
		logger.Warn("kvstore: discarding corrupt store file",
			zap.String("path", path),
			zap.Error(err),
		)
		s.items = make(map[string]json.RawMessage)
	}
	return s
}

// NewMemory creates a store that is never persisted.
func NewMemory() *Store {
	return &Store{
		items:  make(map[string]json.RawMessage),
		logger: zap.NewNop(),
	}
}

// Get returns the raw value stored under key.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[key]
	if !ok {
		return nil, false
	}
	return v, true
}

// GetJSON decodes the value under key into out. A decode failure is
// recovered locally: the key is reported absent.
func (s *Store) GetJSON(key string, out any) bool {
	raw, ok := s.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Debug("kvstore: malformed value treated as absent",
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}
	return true
}

// Set stores v under key and flushes to disk. Marshal or write failures
// are swallowed — persistence is best-effort only.
func (s *Store) Set(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("kvstore: failed to encode value", zap.String("key", key), zap.Error(err))
		return
	}

	s.mu.Lock()
	s.items[key] = raw
	s.flushLocked()
	s.mu.Unlock()
}

// Delete removes the given keys in a single flush, so a multi-key clear
// (logout) is never partially persisted.
func (s *Store) Delete(keys ...string) {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.items, k)
	}
	s.flushLocked()
	s.mu.Unlock()
}

// DeletePrefix removes every key with the given prefix in a single flush.
func (s *Store) DeletePrefix(prefix string) {
	s.mu.Lock()
	for k := range s.items {
		if strings.HasPrefix(k, prefix) {
			delete(s.items, k)
		}
	}
	s.flushLocked()
	s.mu.Unlock()
}

// Keys returns all keys with the given prefix.
func (s *Store) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k := range s.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

// flushLocked writes the store to disk via rename so readers never observe
// a half-written file. Callers must hold mu.
func (s *Store) flushLocked() {
	if s.path == "" {
		return
	}

	data, err := json.Marshal(s.items)
	if err != nil {
		s.logger.Warn("kvstore: failed to encode store", zap.Error(err))
		return
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		s.logger.Warn("kvstore: failed to create store dir", zap.Error(err))
		return
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		s.logger.Warn("kvstore: failed to write store file", zap.Error(err))
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.logger.Warn("kvstore: failed to replace store file", zap.Error(err))
	}
}
