package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
)

const sessionIDKey = "cart_session_id"

// Sessions binds browser sessions to carts through a cookie. Every tab of a
// browser sends the same cookie and therefore shares one cart store.
type Sessions struct {
	registry   *cart.Registry
	cookieName string
	maxAge     int
	secure     bool
}

// NewSessions creates the session binder
func NewSessions(registry *cart.Registry, cfg *config.Config) *Sessions {
	return &Sessions{
		registry:   registry,
		cookieName: cfg.Cart.CookieName,
		maxAge:     cfg.Cart.CookieMaxAge,
		secure:     cfg.IsProduction(),
	}
}

// ID gets the session id from the cookie or issues a new one
func (s *Sessions) ID(c *gin.Context) string {
	if id := c.GetString(sessionIDKey); id != "" {
		return id
	}

	sessionID, err := c.Cookie(s.cookieName)
	if err == nil {
		if _, parseErr := uuid.Parse(sessionID); parseErr == nil {
			c.Set(sessionIDKey, sessionID)
			return sessionID
		}
	}

	sessionID = uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookieName, sessionID, s.maxAge, "/", "", s.secure, true)
	c.Set(sessionIDKey, sessionID)
	return sessionID
}

// Cart returns the cart store of the caller's session
func (s *Sessions) Cart(c *gin.Context) *cart.Store {
	return s.registry.Get(c.Request.Context(), s.ID(c))
}
