package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrNotJSON is returned by the memory store for values that are not JSON
// documents; the snapshot holds every value inline as JSON.
var ErrNotJSON = errors.New("memory store: value is not valid JSON")

// memoryStore keeps compacted JSON blobs in a map. With a snapshot path every
// mutation rewrites the JSON snapshot so a restart picks the data back up.
type memoryStore struct {
	mu       sync.RWMutex
	data     map[string][]byte
	snapshot string
}

func NewMemoryStore() Store {
	return &memoryStore{data: map[string][]byte{}}
}

// NewMemoryStoreFromPath loads the snapshot at path when present.
func NewMemoryStoreFromPath(path string) (Store, error) {
	s := &memoryStore{data: map[string][]byte{}, snapshot: path}
	if path == "" {
		return s, nil
	}
	snap, err := LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	s.data = snap
	return s, nil
}

// LoadSnapshot reads a snapshot file; a missing file is an empty snapshot.
func LoadSnapshot(path string) (map[string][]byte, error) {
	out := map[string][]byte{}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(b) == 0 {
		return out, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	for k, v := range raw {
		c, err := compactJSON(v)
		if err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", k, err)
		}
		out[k] = c
	}
	return out, nil
}

func compactJSON(v []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return nil, ErrNotJSON
	}
	return buf.Bytes(), nil
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *memoryStore) Put(_ context.Context, key string, value []byte) error {
	c, err := compactJSON(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = c
	return s.persistLocked()
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.persistLocked()
}

func (s *memoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *memoryStore) Close() error { return nil }

// persistLocked writes the snapshot through a temp file and rename.
func (s *memoryStore) persistLocked() error {
	if s.snapshot == "" {
		return nil
	}
	out := make(map[string]json.RawMessage, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if dir := filepath.Dir(s.snapshot); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	tmp := s.snapshot + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.snapshot); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
