// internal/domain/payment/service.go
package payment

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/infrastructure/backend"
	"github.com/your-org/storefront/internal/pkg/apierror"
	"github.com/your-org/storefront/internal/pkg/auth"
)

const (
	opVerify          = "payment.verify"
	verifyPaymentPath = "/verify-payment/"

	messageDeclined  = "payment was not completed"
	messageAmbiguous = "payment status could not be confirmed"
)

// Backend is the part of the REST client verification needs
type Backend interface {
	DoJSON(ctx context.Context, req backend.Request, out interface{}) error
}

// Cart is cleared once a payment is confirmed
type Cart interface {
	Key() string
	Clear(ctx context.Context)
}

// ReconcileLedger remembers which (checkout session, cart) pairs were
// already cleared
type ReconcileLedger interface {
	Reconciled(ctx context.Context, id string) (bool, error)
	MarkReconciled(ctx context.Context, id string) (first bool, err error)
}

// PayingCarts finds the cart a checkout session was started from
type PayingCarts interface {
	PayingCart(ctx context.Context, checkoutSession string) (Cart, bool)
}

// VerifierOption configures a Verifier
type VerifierOption func(*Verifier)

// WithPayingCarts reconciles the cart that started the checkout instead of
// the one the confirmation page was opened with
func WithPayingCarts(p PayingCarts) VerifierOption {
	return func(v *Verifier) {
		v.paying = p
	}
}

// Verifier confirms payments and reconciles the cart afterwards
type Verifier struct {
	backend Backend
	ledger  ReconcileLedger
	paying  PayingCarts
	log     *logrus.Entry
}

// NewVerifier creates a payment verifier
func NewVerifier(b Backend, ledger ReconcileLedger, logger *logrus.Logger, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		backend: b,
		ledger:  ledger,
		log:     logger.WithField("component", "payment_verifier"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify asks the backend whether the checkout session was paid. On an
// explicit success the cart is cleared, once per session. Any other answer,
// including an ambiguous one, ends in StateFailed with the cart untouched.
// The returned error is non-nil only when the call itself failed.
func (v *Verifier) Verify(ctx context.Context, c Cart, sessionID string, identity auth.Identity) (*Outcome, error) {
	outcome := newOutcome(sessionID)
	log := v.log.WithField("checkout_session", sessionID)

	if sessionID == "" {
		outcome.advance(StateFailed)
		outcome.Message = "missing checkout session id"
		return outcome, apierror.Validation(opVerify, outcome.Message)
	}

	outcome.advance(StateVerifying)

	query := url.Values{"session_id": {sessionID}}
	if identity.UserID != 0 {
		query.Set("user_id", strconv.FormatUint(uint64(identity.UserID), 10))
	}

	var result VerificationResult
	err := v.backend.DoJSON(ctx, backend.Request{
		Op:     opVerify,
		Method: http.MethodGet,
		Path:   verifyPaymentPath,
		Query:  query,
		Token:  identity.Token,
	}, &result)
	if err != nil {
		outcome.advance(StateFailed)
		outcome.Message = apierror.UserMessage(err)
		log.WithError(err).Warn("payment verification failed")
		return outcome, err
	}
	outcome.Result = &result

	switch {
	case result.PaymentSucceeded == nil:
		outcome.advance(StateFailed)
		outcome.Message = messageAmbiguous
		log.Warn("verification response has no payment_succeeded field")
		return outcome, nil
	case !*result.PaymentSucceeded:
		outcome.advance(StateFailed)
		outcome.Message = firstNonEmpty(result.Message, messageDeclined)
		log.Info("payment not completed")
		return outcome, nil
	}

	outcome.advance(StateSucceeded)
	outcome.Message = result.Message
	v.reconcile(ctx, c, outcome, log)
	return outcome, nil
}

// reconcile clears the paying cart unless this pair was reconciled before.
// The clear happens before the mark, so a crash in between only repeats an
// idempotent clear.
func (v *Verifier) reconcile(ctx context.Context, c Cart, outcome *Outcome, log *logrus.Entry) {
	target := c
	if v.paying != nil {
		if paying, ok := v.paying.PayingCart(ctx, outcome.SessionID); ok {
			target = paying
		}
	}
	outcome.CartKey = target.Key()
	log = log.WithField("cart", outcome.CartKey)
	id := outcome.SessionID + ":" + outcome.CartKey

	if v.ledger != nil {
		done, err := v.ledger.Reconciled(ctx, id)
		switch {
		case err != nil:
			log.WithError(err).Warn("reconciliation ledger unavailable, clearing cart")
		case done:
			outcome.AlreadyReconciled = true
			log.Debug("checkout session already reconciled")
			return
		}
	}

	target.Clear(ctx)
	outcome.CartCleared = true
	log.Info("payment confirmed, cart cleared")

	if v.ledger != nil {
		if _, err := v.ledger.MarkReconciled(ctx, id); err != nil {
			log.WithError(err).Warn("failed to record reconciliation")
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
