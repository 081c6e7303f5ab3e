// Package history keeps the append-only log of accepted reply outcomes
// and the statistics derived from it.
package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/playreply/pkg/models"
)

// PersistentLog is the durable backend behind the in-memory store.
// Implementations must keep append order.
type PersistentLog interface {
	Append(ctx context.Context, entry models.HistoryEntry) error
	Load(ctx context.Context) ([]models.HistoryEntry, error)
}

// Stats aggregates the reply history.
type Stats struct {
	TotalReplies  int            `json:"total_replies"`
	Languages     map[string]int `json:"languages"`
	Ratings       map[int]int    `json:"ratings"`
	AverageLength float64        `json:"average_length"`
}

// Store is the serialized writer over a PersistentLog. Entries are never
// mutated or reordered after append. Appends from concurrent runs are
// serialized by the store's mutex; reads take a consistent snapshot.
type Store struct {
	mu      sync.Mutex
	log     PersistentLog
	entries []models.HistoryEntry
}

// NewStore opens a store over the given log, loading the existing
// entries into memory. A nil log yields a memory-only store.
func NewStore(ctx context.Context, log PersistentLog) (*Store, error) {
	s := &Store{log: log}
	if log != nil {
		entries, err := log.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load reply history: %w", err)
		}
		s.entries = entries
	}
	return s, nil
}

// Append adds one immutable entry, preserving chronological order. The
// durable write happens before the in-memory append so a failed write
// never leaves a phantom entry.
func (s *Store) Append(ctx context.Context, entry models.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.log != nil {
		if err := s.log.Append(ctx, entry); err != nil {
			return fmt.Errorf("failed to persist history entry: %w", err)
		}
	}
	s.entries = append(s.entries, entry)
	return nil
}

// Len returns the number of recorded entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats computes totals, per-language and per-rating counts, and the
// average validated-reply length. An empty history yields zero totals
// and empty maps; no arithmetic errors.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		Languages: make(map[string]int),
		Ratings:   make(map[int]int),
	}
	if len(s.entries) == 0 {
		return stats
	}

	total := 0
	for _, entry := range s.entries {
		stats.Languages[entry.Language]++
		stats.Ratings[entry.Rating]++
		total += entry.CharacterCount
	}
	stats.TotalReplies = len(s.entries)
	stats.AverageLength = float64(total) / float64(len(s.entries))
	return stats
}

// History returns the most recent limit entries, newest first. A
// non-positive limit returns everything.
func (s *Store) History(limit int) []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]models.HistoryEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.entries[i])
	}
	return out
}
