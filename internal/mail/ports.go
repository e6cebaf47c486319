// Package mail defines the ports onto the external message store. The core
// only ever reads messages; labeling a thread processed is the single write.
package mail

import (
	"context"
	"time"
)

// Message is one notification message, read-only. Bodies are plain text as
// delivered by the store adapter.
type Message struct {
	ID          string
	ThreadID    string
	Sender      string
	Destination string
	Subject     string
	Body        string
	Date        time.Time
}

// Ports for the message store.
type (
	// Thread is an ordered conversation. Messages enumerates in arrival
	// order; enumeration itself may fail, which callers record as a
	// thread-level error.
	Thread interface {
		ID() string
		LastActivity() time.Time
		Messages(ctx context.Context) ([]Message, error)
	}

	// Store retrieves threads and marks them handled.
	Store interface {
		// Search returns threads matching the store's query syntax.
		// start/max page the result; max <= 0 means the adapter default.
		Search(ctx context.Context, query string, start, max int64) ([]Thread, error)

		// MarkProcessed labels the thread processed and archives it.
		// Idempotent: marking an already-marked thread is not an error.
		MarkProcessed(ctx context.Context, threadID string) error
	}
)
