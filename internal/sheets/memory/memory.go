// Package memory is an in-memory HistoryAppender used in tests and when
// no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "envelopes/internal/sheets"
)

type Store struct {
	mu    sync.Mutex
	items []ports.HistoryEntry
}

var _ ports.HistoryAppender = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Append stores the entry and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e ports.HistoryEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Entries returns a copy of the appended rows.
func (s *Store) Entries() []ports.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.HistoryEntry(nil), s.items...)
}
