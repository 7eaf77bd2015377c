package redis

import (
	"context"
	"fmt"
	"time"
)

const ledgerKeyPrefix = "checkout:reconciled:"

// Ledger records reconciled checkout sessions with SETNX so only the first
// verification of a session clears the cart, across every process. Ids are
// checkout session plus cart key.
type Ledger struct {
	client *Client
	ttl    time.Duration
}

// NewLedger creates a Redis reconciliation ledger
func NewLedger(client *Client, ttl time.Duration) *Ledger {
	return &Ledger{client: client, ttl: ttl}
}

// Reconciled reports whether id was already marked
func (l *Ledger) Reconciled(ctx context.Context, id string) (bool, error) {
	n, err := l.client.Redis.Exists(ctx, ledgerKeyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read reconciliation ledger: %w", err)
	}
	return n == 1, nil
}

// MarkReconciled reports whether id was reconciled for the first time
func (l *Ledger) MarkReconciled(ctx context.Context, id string) (bool, error) {
	first, err := l.client.Redis.SetNX(ctx, ledgerKeyPrefix+id, time.Now().Unix(), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark checkout session reconciled: %w", err)
	}
	return first, nil
}
