// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/payment"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

// CheckoutHandler starts hosted checkouts and reconciles the cart when the
// shopper comes back from the payment page
type CheckoutHandler struct {
	sessions *Sessions
	checkout *checkout.Service
	verifier *payment.Verifier
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(sessions *Sessions, checkoutService *checkout.Service, verifier *payment.Verifier) *CheckoutHandler {
	return &CheckoutHandler{
		sessions: sessions,
		checkout: checkoutService,
		verifier: verifier,
	}
}

// CreateCheckout handles POST /checkout. The cart is left untouched; it is
// only cleared once the payment is verified.
func (h *CheckoutHandler) CreateCheckout(c *gin.Context) {
	store := h.sessions.Cart(c)

	session, err := h.checkout.Start(c.Request.Context(), store, middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Checkout session created",
		"data":    session,
	})
}

// VerifyPayment handles GET /checkout/verify?session_id=...
func (h *CheckoutHandler) VerifyPayment(c *gin.Context) {
	store := h.sessions.Cart(c)

	outcome, err := h.verifier.Verify(c.Request.Context(), store, c.Query("session_id"), middleware.GetIdentity(c))
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error": messageFor(err),
			"data":  outcome,
		})
		return
	}

	if outcome.State != payment.StateSucceeded {
		c.JSON(http.StatusOK, gin.H{
			"message": outcome.Message,
			"data":    outcome,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment verified successfully",
		"data":    outcome,
	})
}
