// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/infrastructure/backend"
	"github.com/your-org/storefront/internal/pkg/apierror"
	"github.com/your-org/storefront/internal/pkg/auth"
)

const (
	opStart             = "checkout.start"
	checkoutSessionPath = "/checkout-session/"
)

// Backend is the part of the REST client checkout needs
type Backend interface {
	DoJSON(ctx context.Context, req backend.Request, out interface{}) error
}

// Cart is a read-only view of the cart being checked out
type Cart interface {
	Key() string
	Items() []cart.LineItem
}

// Recorder remembers which cart a checkout session belongs to, so the
// verification can clear that cart wherever it is opened
type Recorder interface {
	Record(ctx context.Context, checkoutSession, cartKey string) error
}

// Service creates checkout sessions. It only reads the cart.
type Service struct {
	backend  Backend
	recorder Recorder
	log      *logrus.Entry
}

// NewService creates a new checkout service. recorder may be nil.
func NewService(b Backend, recorder Recorder, logger *logrus.Logger) *Service {
	return &Service{
		backend:  b,
		recorder: recorder,
		log:      logger.WithField("component", "checkout"),
	}
}

// Start asks the backend for a hosted checkout session for the current cart.
// An empty cart or a missing identity fails locally without a network call.
func (s *Service) Start(ctx context.Context, c Cart, identity auth.Identity) (*Session, error) {
	items := c.Items()
	if len(items) == 0 {
		return nil, apierror.Validation(opStart, "cart is empty")
	}
	if !identity.Authenticated() {
		return nil, apierror.Unauthenticated(opStart, "sign in to check out")
	}

	req := BuildRequest(items, identity)
	log := s.log.WithFields(logrus.Fields{
		"user_id": identity.UserID,
		"items":   len(req.Items),
	})

	var session Session
	err := s.backend.DoJSON(ctx, backend.Request{
		Op:     opStart,
		Method: http.MethodPost,
		Path:   checkoutSessionPath,
		Token:  identity.Token,
		Body:   req,
	}, &session)
	if err != nil {
		log.WithError(err).Warn("checkout session creation failed")
		return nil, &FailedError{Message: apierror.UserMessage(err), Err: err}
	}

	if session.CheckoutURL == "" || session.SessionID == "" {
		err := &apierror.Error{Kind: apierror.KindTransport, Op: opStart, Message: "checkout session response is missing checkout_url or session_id"}
		log.Warn(err.Message)
		return nil, &FailedError{Message: err.Message, Err: err}
	}

	log = log.WithField("checkout_session", session.SessionID)
	if s.recorder != nil {
		if err := s.recorder.Record(ctx, session.SessionID, c.Key()); err != nil {
			// verification falls back to the cart it is opened with
			log.WithError(err).Warn("failed to record checkout cart")
		}
	}

	log.Info("checkout session created")
	return &session, nil
}

// BuildRequest derives the checkout body from the cart lines
func BuildRequest(items []cart.LineItem, identity auth.Identity) Request {
	count := cart.Count(items)
	noun := "items"
	if count == 1 {
		noun = "item"
	}

	req := Request{
		Description: fmt.Sprintf("Purchase of %d %s", count, noun),
		Items:       make([]Item, 0, len(items)),
	}
	for _, item := range items {
		req.Items = append(req.Items, Item{
			ProductID: item.ProductID,
			Name:      item.Description,
			UnitPrice: json.Number(item.UnitPrice.StringFixed(2)),
			Quantity:  item.Quantity,
		})
	}
	if identity.UserID != 0 {
		userID := identity.UserID
		req.UserID = &userID
	}
	return req
}
