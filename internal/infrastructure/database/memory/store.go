// internal/infrastructure/database/memory/store.go
package memory

import (
	"context"
	"sync"

	"github.com/your-org/storefront/internal/domain/cart"
)

// SnapshotStore keeps cart snapshots in process memory. It backs the
// "memory" storage driver and the tests; nothing survives a restart.
type SnapshotStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	writes int
}

// NewSnapshotStore creates an empty in-memory snapshot store
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{data: make(map[string][]byte)}
}

// Get returns a copy of the snapshot stored under key
func (s *SnapshotStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[key]
	if !ok {
		return nil, cart.ErrSnapshotNotFound
	}
	return append([]byte(nil), data...), nil
}

// Put stores a copy of data under key
func (s *SnapshotStore) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), data...)
	s.writes++
	return nil
}

// Delete removes key; deleting a missing key is not an error
func (s *SnapshotStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; ok {
		delete(s.data, key)
		s.writes++
	}
	return nil
}

// Has reports whether a snapshot exists for key
func (s *SnapshotStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}

// Writes returns how many effective writes and deletes happened
func (s *SnapshotStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Ledger remembers reconciled checkout sessions in process memory
type Ledger struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewLedger creates an empty in-memory reconciliation ledger
func NewLedger() *Ledger {
	return &Ledger{seen: make(map[string]struct{})}
}

// Reconciled reports whether id was already marked
func (l *Ledger) Reconciled(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[id]
	return ok, nil
}

// MarkReconciled records id and reports whether this was the first time
func (l *Ledger) MarkReconciled(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[id]; ok {
		return false, nil
	}
	l.seen[id] = struct{}{}
	return true, nil
}
