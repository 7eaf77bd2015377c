// internal/domain/checkout/entity.go
package checkout

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCheckoutFailed is matched by every failure after local validation passed
var ErrCheckoutFailed = errors.New("checkout could not be created")

// FailedError carries the most specific message available for a failed
// checkout. It matches ErrCheckoutFailed and unwraps to the underlying
// apierror.
type FailedError struct {
	Message string
	Err     error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCheckoutFailed, e.Message)
}

func (e *FailedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCheckoutFailed}
	}
	return []error{ErrCheckoutFailed, e.Err}
}

// Item is one checkout line as the backend expects it
type Item struct {
	ProductID int64       `json:"product_id"`
	Name      string      `json:"name"`
	UnitPrice json.Number `json:"unit_price"`
	Quantity  int         `json:"quantity"`
}

// Request is the body of a checkout session creation
type Request struct {
	Description string `json:"description"`
	Items       []Item `json:"items"`
	UserID      *uint  `json:"user_id,omitempty"`
}

// Session is the redirect target returned by the backend. SessionID is the
// correlation key used later to verify payment.
type Session struct {
	CheckoutURL     string `json:"checkout_url"`
	SessionID       string `json:"session_id"`
	PaymentRecordID *int64 `json:"payment_record_id,omitempty"`
}
