package payment

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/cart"
)

const attributionPrefix = "checkout:cart:"

type attribution struct {
	CartKey string `json:"cart_key"`
}

// Attributions remembers which cart each checkout session was started from.
// Records live in the cart snapshot storage so every process sees them.
type Attributions struct {
	store cart.SnapshotStore
	carts *cart.Registry
	log   *logrus.Entry
}

// NewAttributions creates attributions stored next to the cart snapshots
func NewAttributions(store cart.SnapshotStore, carts *cart.Registry, logger *logrus.Logger) *Attributions {
	return &Attributions{
		store: store,
		carts: carts,
		log:   logger.WithField("component", "checkout_attributions"),
	}
}

// Record links a checkout session to the snapshot key of its cart
func (a *Attributions) Record(ctx context.Context, checkoutSession, cartKey string) error {
	data, err := json.Marshal(attribution{CartKey: cartKey})
	if err != nil {
		return err
	}
	return a.store.Put(ctx, attributionPrefix+checkoutSession, data)
}

// PayingCart returns the cart recorded for checkoutSession
func (a *Attributions) PayingCart(ctx context.Context, checkoutSession string) (Cart, bool) {
	data, err := a.store.Get(ctx, attributionPrefix+checkoutSession)
	if err != nil {
		if !errors.Is(err, cart.ErrSnapshotNotFound) {
			a.log.WithError(err).Warn("failed to read checkout attribution")
		}
		return nil, false
	}

	var record attribution
	if err := json.Unmarshal(data, &record); err != nil {
		a.log.WithError(err).Warn("discarding unreadable checkout attribution")
		return nil, false
	}

	store, ok := a.carts.StoreForKey(ctx, record.CartKey)
	if !ok {
		return nil, false
	}
	return store, true
}
