// Package memory is an in-memory mail store used by tests and the memory
// backend. Threads can be seeded with messages or with an enumeration error
// to exercise thread-level failure handling.
package memory

import (
	"context"
	"sync"
	"time"

	"tally/internal/mail"
)

type Thread struct {
	ThreadID string
	Activity time.Time
	Msgs     []mail.Message
	// EnumerateErr, when set, makes Messages fail.
	EnumerateErr error
}

func (t *Thread) ID() string                 { return t.ThreadID }
func (t *Thread) LastActivity() time.Time    { return t.Activity }
func (t *Thread) Messages(_ context.Context) ([]mail.Message, error) {
	if t.EnumerateErr != nil {
		return nil, t.EnumerateErr
	}
	return append([]mail.Message(nil), t.Msgs...), nil
}

type Store struct {
	mu        sync.Mutex
	threads   []*Thread
	processed map[string]int
}

func New(threads ...*Thread) *Store {
	return &Store{threads: threads, processed: make(map[string]int)}
}

func (s *Store) Search(_ context.Context, _ string, start, max int64) ([]mail.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if start < 0 || start >= int64(len(s.threads)) {
		return nil, nil
	}
	end := int64(len(s.threads))
	if max > 0 && start+max < end {
		end = start + max
	}
	out := make([]mail.Thread, 0, end-start)
	for _, t := range s.threads[start:end] {
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) MarkProcessed(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[threadID]++
	return nil
}

// Processed reports how many times a thread was marked, for assertions.
func (s *Store) Processed(threadID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed[threadID]
}
