// internal/domain/payment/entity.go
package payment

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// State is the lifecycle of one payment verification
type State string

const (
	StatePending   State = "pending"
	StateVerifying State = "verifying"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

var transitions = map[State][]State{
	StatePending:   {StateVerifying, StateFailed},
	StateVerifying: {StateSucceeded, StateFailed},
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// VerificationResult is the backend's answer for a checkout session.
// PaymentSucceeded is a pointer so a missing field can be told apart from false.
type VerificationResult struct {
	PaymentSucceeded *bool               `json:"payment_succeeded"`
	OrderID          *int64              `json:"order_id,omitempty"`
	PaymentID        *int64              `json:"payment_id,omitempty"`
	TotalAmount      decimal.NullDecimal `json:"total_amount"`
	CustomerEmail    string              `json:"customer_email,omitempty"`
	CustomerName     string              `json:"customer_name,omitempty"`
	Message          string              `json:"message,omitempty"`
}

// Succeeded is true only for an explicit payment_succeeded=true
func (r *VerificationResult) Succeeded() bool {
	return r != nil && r.PaymentSucceeded != nil && *r.PaymentSucceeded
}

// Outcome is what a verification ended with
type Outcome struct {
	SessionID string              `json:"session_id"`
	State     State               `json:"state"`
	History   []State             `json:"-"`
	Result    *VerificationResult `json:"result,omitempty"`
	Message   string              `json:"message,omitempty"`

	// CartKey is the cart that paid, which may differ from the caller's
	CartKey string `json:"-"`
	// CartCleared is set when this verification emptied the cart
	CartCleared bool `json:"cart_cleared"`
	// AlreadyReconciled is set when an earlier verification of the same
	// session already emptied the cart
	AlreadyReconciled bool `json:"already_reconciled"`
}

func newOutcome(sessionID string) *Outcome {
	return &Outcome{
		SessionID: sessionID,
		State:     StatePending,
		History:   []State{StatePending},
	}
}

func (o *Outcome) advance(to State) {
	for _, allowed := range transitions[o.State] {
		if allowed == to {
			o.State = to
			o.History = append(o.History, to)
			return
		}
	}
	panic(fmt.Sprintf("payment: illegal transition %s -> %s", o.State, to))
}
