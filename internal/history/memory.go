// Package history provides an in-memory implementation of the extraction
// history collaborator. Durable storage lives outside this service; this sink
// keeps the contract exercised for the local server and for tests.
package history

import (
	"context"
	"sync"

	"github.com/acordkit/acord-extract/internal/extraction"
)

// DefaultMaxPerUser bounds how many records are retained per identity.
const DefaultMaxPerUser = 100

// MemorySink retains the most recent extraction records per identity. Safe
// for concurrent use.
type MemorySink struct {
	mu         sync.Mutex
	maxPerUser int
	records    map[string][]extraction.Record
}

// NewMemorySink creates a sink retaining up to maxPerUser records per
// identity; zero or negative means DefaultMaxPerUser.
func NewMemorySink(maxPerUser int) *MemorySink {
	if maxPerUser <= 0 {
		maxPerUser = DefaultMaxPerUser
	}
	return &MemorySink{
		maxPerUser: maxPerUser,
		records:    make(map[string][]extraction.Record),
	}
}

// Record appends an extraction outcome for the identity, evicting the oldest
// entry once the per-user bound is reached.
func (m *MemorySink) Record(_ context.Context, identity extraction.Identity, rec extraction.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := append(m.records[identity.Subject], rec)
	if len(list) > m.maxPerUser {
		list = list[len(list)-m.maxPerUser:]
	}
	m.records[identity.Subject] = list
	return nil
}

// History returns the retained records for an identity, oldest first.
func (m *MemorySink) History(identity extraction.Identity) []extraction.Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.records[identity.Subject]
	out := make([]extraction.Record, len(list))
	copy(out, list)
	return out
}
