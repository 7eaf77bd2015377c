// internal/domain/cart/store.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/pkg/apierror"
)

// ErrSnapshotNotFound is returned by a SnapshotStore when no snapshot exists for a key
var ErrSnapshotNotFound = errors.New("cart snapshot not found")

// QuantityLimit caps every line quantity, whatever WithMaxQuantity says
const QuantityLimit = 9999

const opAdd = "cart.add"

// SnapshotStore is the durable key-value storage behind a cart
type SnapshotStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// ChangeNotifier is told about every snapshot this process wrote, so other
// processes sharing the key can reload
type ChangeNotifier interface {
	Notify(ctx context.Context, key string) error
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for swallowed persistence failures
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Store) {
		s.log = logger.WithField("component", "cart_store")
	}
}

// WithNotifier publishes a change notification after each successful write
func WithNotifier(n ChangeNotifier) Option {
	return func(s *Store) {
		s.notifier = n
	}
}

// WithPersistTimeout bounds every snapshot read and write
func WithPersistTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.persistTimeout = d
		}
	}
}

// WithMaxQuantity clamps line quantities below QuantityLimit; zero keeps
// QuantityLimit
func WithMaxQuantity(max int) Option {
	return func(s *Store) {
		if max > 0 && max < QuantityLimit {
			s.maxQuantity = max
		}
	}
}

// Store is the single owner of one cart. Every mutation updates memory and
// then writes the snapshot before returning; a failed write is logged and
// the in-memory state stays authoritative.
type Store struct {
	mu    sync.Mutex
	items []LineItem

	sessionID      string
	key            string
	snapshots      SnapshotStore
	notifier       ChangeNotifier
	log            *logrus.Entry
	persistTimeout time.Duration
	maxQuantity    int

	observerMu   sync.Mutex
	observers    map[int]Observer
	nextObserver int
}

// NewStore creates an empty, unloaded store bound to one snapshot key
func NewStore(sessionID, key string, snapshots SnapshotStore, opts ...Option) *Store {
	s := &Store{
		items:          []LineItem{},
		sessionID:      sessionID,
		key:            key,
		snapshots:      snapshots,
		persistTimeout: 2 * time.Second,
		maxQuantity:    QuantityLimit,
		observers:      make(map[int]Observer),
	}
	WithLogger(logrus.StandardLogger())(s)
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"key":        key,
	})
	return s
}

// SessionID returns the session this cart belongs to
func (s *Store) SessionID() string {
	return s.sessionID
}

// Key returns the snapshot key
func (s *Store) Key() string {
	return s.key
}

// Load replaces the in-memory cart with the persisted snapshot.
// It never fails: a missing snapshot yields an empty cart, a corrupt one is
// deleted and yields an empty cart, and a read error yields an empty cart.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
}

// Reload re-reads the snapshot and notifies observers. Used when another
// process wrote the same key.
func (s *Store) Reload(ctx context.Context) {
	s.mu.Lock()
	s.loadLocked(ctx)
	event := s.eventLocked(EventReloaded, 0)
	s.mu.Unlock()

	s.publish(event)
}

// Items returns a copy of the current line items in insertion order
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// Count returns the sum of quantities
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Count(s.items)
}

// Total returns the exact cart total
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Total(s.items)
}

// IsEmpty reports whether the cart has no line items
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

// Add increments the quantity of an existing line or appends a new line
// with quantity one. Product details are refreshed on merge.
func (s *Store) Add(ctx context.Context, p Product) (LineItem, error) {
	return s.AddQuantity(ctx, p, 1)
}

// AddQuantity is Add for n units in a single mutation. The resulting
// quantity saturates at the store's maximum. A product that could not be
// read back from a snapshot is rejected and the cart is left unchanged.
func (s *Store) AddQuantity(ctx context.Context, p Product, n int) (LineItem, error) {
	if n < 1 {
		return LineItem{}, apierror.Validation(opAdd, fmt.Sprintf("quantity must be at least 1, got %d", n))
	}
	if err := (LineItem{ProductID: p.ID, UnitPrice: p.Price, Quantity: 1}).validate(); err != nil {
		return LineItem{}, apierror.Validation(opAdd, err.Error())
	}

	s.mu.Lock()

	idx := s.indexLocked(p.ID)
	if idx >= 0 {
		item := &s.items[idx]
		item.Quantity = s.addClamped(item.Quantity, n)
		item.Description = p.Description
		item.UnitPrice = p.Price
		item.Images = append([]string(nil), p.Images...)
	} else {
		s.items = append(s.items, LineItem{
			ProductID:   p.ID,
			Description: p.Description,
			UnitPrice:   p.Price,
			Quantity:    s.clamp(n),
			Images:      append([]string(nil), p.Images...),
		})
		idx = len(s.items) - 1
	}
	added := s.items[idx].clone()

	s.persistLocked(ctx)
	event := s.eventLocked(EventItemAdded, p.ID)
	s.mu.Unlock()

	s.publish(event)
	return added, nil
}

// Remove deletes the line for productID. It reports whether a line existed;
// removing an absent product is a no-op.
func (s *Store) Remove(ctx context.Context, productID int64) bool {
	s.mu.Lock()

	idx := s.indexLocked(productID)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)

	s.persistLocked(ctx)
	event := s.eventLocked(EventItemRemoved, productID)
	s.mu.Unlock()

	s.publish(event)
	return true
}

// SetQuantity overwrites the quantity for productID. A quantity of zero or
// less removes the line. It reports whether the product was in the cart.
func (s *Store) SetQuantity(ctx context.Context, productID int64, quantity int) bool {
	if quantity <= 0 {
		return s.Remove(ctx, productID)
	}

	s.mu.Lock()

	idx := s.indexLocked(productID)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.items[idx].Quantity = s.clamp(quantity)

	s.persistLocked(ctx)
	event := s.eventLocked(EventQuantityChanged, productID)
	s.mu.Unlock()

	s.publish(event)
	return true
}

// Clear empties the cart and deletes the snapshot key entirely. Calling it
// on an empty cart is a no-op apart from the idempotent delete.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()

	wasEmpty := len(s.items) == 0
	s.items = []LineItem{}

	pctx, cancel := s.persistContext(ctx)
	if err := s.snapshots.Delete(pctx, s.key); err != nil {
		s.log.WithError(apierror.Persistence("cart.clear", err)).Warn("failed to delete cart snapshot, keeping in-memory cart only")
	} else {
		s.notify(pctx)
	}
	cancel()

	event := s.eventLocked(EventCleared, 0)
	s.mu.Unlock()

	if !wasEmpty {
		s.publish(event)
	}
}

// Subscribe registers an observer and returns a function that removes it
func (s *Store) Subscribe(fn Observer) func() {
	s.observerMu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = fn
	s.observerMu.Unlock()

	return func() {
		s.observerMu.Lock()
		delete(s.observers, id)
		s.observerMu.Unlock()
	}
}

// Private helper methods

func (s *Store) observed() bool {
	s.observerMu.Lock()
	defer s.observerMu.Unlock()
	return len(s.observers) > 0
}

func (s *Store) loadLocked(ctx context.Context) {
	s.items = []LineItem{}

	pctx, cancel := s.persistContext(ctx)
	defer cancel()

	data, err := s.snapshots.Get(pctx, s.key)
	if errors.Is(err, ErrSnapshotNotFound) {
		return
	}
	if err != nil {
		s.log.WithError(apierror.Persistence("cart.load", err)).Warn("failed to read cart snapshot, starting empty")
		return
	}

	items, err := decodeSnapshot(data)
	if err != nil {
		s.log.WithError(err).Warn("discarding corrupt cart snapshot")
		if err := s.snapshots.Delete(pctx, s.key); err != nil {
			s.log.WithError(err).Warn("failed to delete corrupt cart snapshot")
		}
		return
	}
	s.items = items
}

func (s *Store) persistLocked(ctx context.Context) {
	data, err := json.Marshal(s.items)
	if err != nil {
		s.log.WithError(err).Error("failed to encode cart snapshot")
		return
	}

	pctx, cancel := s.persistContext(ctx)
	defer cancel()

	if err := s.snapshots.Put(pctx, s.key, data); err != nil {
		s.log.WithError(apierror.Persistence("cart.persist", err)).Warn("failed to persist cart snapshot, keeping in-memory cart only")
		return
	}
	s.notify(pctx)
}

func (s *Store) notify(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, s.key); err != nil {
		s.log.WithError(err).Debug("failed to publish cart change")
	}
}

// persistContext detaches snapshot I/O from request cancellation so a
// client disconnect cannot leave memory and storage out of step
func (s *Store) persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
}

func (s *Store) indexLocked(productID int64) int {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) clamp(quantity int) int {
	if quantity > s.maxQuantity {
		return s.maxQuantity
	}
	return quantity
}

// addClamped adds n to a quantity already within bounds without overflowing
func (s *Store) addClamped(quantity, n int) int {
	if n > s.maxQuantity-quantity {
		return s.maxQuantity
	}
	return quantity + n
}

func (s *Store) eventLocked(t EventType, productID int64) Event {
	return Event{
		Type:      t,
		SessionID: s.sessionID,
		ProductID: productID,
		Count:     Count(s.items),
		Total:     Total(s.items),
	}
}

func (s *Store) publish(event Event) {
	s.observerMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.observerMu.Unlock()

	for _, fn := range observers {
		fn(event)
	}
}

func decodeSnapshot(data []byte) ([]LineItem, error) {
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}

	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if err := item.validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[item.ProductID]; dup {
			return nil, fmt.Errorf("duplicate line for product %d", item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
	}

	if items == nil {
		items = []LineItem{}
	}
	return items, nil
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		out[i] = item.clone()
	}
	return out
}
