// Package seenset persists the set of already-processed external IDs
// across runs so items are not re-scored on every poll.
package seenset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// DefaultCap bounds the persisted set size.
const DefaultCap = 10000

// Set is a capped, file-backed set of external IDs. It is only ever
// touched from the single ingestion goroutine; the mutex exists for
// the HTTP trigger path.
type Set struct {
	mu   sync.Mutex
	path string
	cap  int
	ids  map[string]struct{}
}

// Load reads the set from path. A missing file yields an empty set; a
// corrupt file is an error so a truncated seen-set does not silently
// reprocess everything.
func Load(path string, capacity int) (*Set, error) {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	s := &Set{path: path, cap: capacity, ids: make(map[string]struct{})}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read seen-set %s: %w", path, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to parse seen-set %s: %w", path, err)
	}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s, nil
}

// Contains reports whether id has already been processed.
func (s *Set) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Add records id as processed. Call only after the item has been
// persisted, so a failed write is retried on a later cycle.
func (s *Set) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

// Len returns the current set size.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Save writes the set to disk, truncating to the cap. IDs sort
// lexicographically and truncation keeps the largest ones; Reddit IDs
// are monotonically increasing base36, so that retains the most recent.
func (s *Set) Save() error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	sort.Strings(ids)
	if len(ids) > s.cap {
		ids = ids[len(ids)-s.cap:]
	}

	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write seen-set: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace seen-set: %w", err)
	}
	return nil
}
