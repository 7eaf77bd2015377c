// internal/domain/cart/registry.go
package cart

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Registry hands out one Store per browser session. A store is loaded from
// its snapshot the first time its session is seen and then kept in memory,
// so every tab of a session shares the same cart. Idle stores are dropped by
// Evict; their snapshots stay and are loaded again on the next request.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*entry

	snapshots SnapshotStore
	keyPrefix string
	opts      []Option
	log       *logrus.Entry
}

type entry struct {
	store    *Store
	lastUsed time.Time
}

// NewRegistry creates a registry whose stores persist under keyPrefix+sessionID
func NewRegistry(snapshots SnapshotStore, keyPrefix string, logger *logrus.Logger, opts ...Option) *Registry {
	return &Registry{
		stores:    make(map[string]*entry),
		snapshots: snapshots,
		keyPrefix: keyPrefix,
		opts:      append([]Option{WithLogger(logger)}, opts...),
		log:       logger.WithField("component", "cart_registry"),
	}
}

// Key returns the snapshot key for a session
func (r *Registry) Key(sessionID string) string {
	return r.keyPrefix + sessionID
}

// Get returns the store for sessionID, creating and loading it on first use.
// Concurrent callers for a new session block until the load finishes.
func (r *Registry) Get(ctx context.Context, sessionID string) *Store {
	r.mu.Lock()
	if e, ok := r.stores[sessionID]; ok {
		e.lastUsed = time.Now()
		r.mu.Unlock()
		return e.store
	}

	s := NewStore(sessionID, r.Key(sessionID), r.snapshots, r.opts...)
	s.mu.Lock()
	r.stores[sessionID] = &entry{store: s, lastUsed: time.Now()}
	r.mu.Unlock()

	s.loadLocked(ctx)
	s.mu.Unlock()
	return s
}

// Lookup returns the store for sessionID only if it is already loaded
func (r *Registry) Lookup(sessionID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.stores[sessionID]
	if !ok {
		return nil, false
	}
	return e.store, true
}

// StoreForKey returns the store behind a snapshot key, loading it if needed
func (r *Registry) StoreForKey(ctx context.Context, key string) (*Store, bool) {
	if !strings.HasPrefix(key, r.keyPrefix) || key == r.keyPrefix {
		return nil, false
	}
	return r.Get(ctx, strings.TrimPrefix(key, r.keyPrefix)), true
}

// Evict drops stores not requested for at least idle. Stores with live
// subscribers stay loaded. The snapshots are kept.
func (r *Registry) Evict(idle time.Duration) int {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, e := range r.stores {
		if now.Sub(e.lastUsed) < idle || e.store.observed() {
			continue
		}
		delete(r.stores, id)
		evicted++
	}
	return evicted
}

// RunEviction calls Evict every interval until ctx is done
func (r *Registry) RunEviction(ctx context.Context, idle, interval time.Duration) {
	if idle <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(idle); n > 0 {
				r.log.WithFields(logrus.Fields{
					"evicted": n,
					"loaded":  r.Len(),
				}).Debug("evicted idle carts")
			}
		}
	}
}

// Len returns the number of loaded stores
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Invalidate reloads the store of sessionID from its snapshot, if loaded.
// It reports whether a store was reloaded.
func (r *Registry) Invalidate(ctx context.Context, sessionID string) bool {
	s, ok := r.Lookup(sessionID)
	if !ok {
		return false
	}

	r.log.WithField("session_id", sessionID).Debug("reloading cart after remote write")
	s.Reload(ctx)
	return true
}

// HandleRemoteChange maps a snapshot key written by another process back to
// its session and invalidates it
func (r *Registry) HandleRemoteChange(ctx context.Context, key string) {
	if !strings.HasPrefix(key, r.keyPrefix) {
		return
	}
	r.Invalidate(ctx, strings.TrimPrefix(key, r.keyPrefix))
}
