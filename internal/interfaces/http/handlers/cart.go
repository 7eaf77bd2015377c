// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/product"
)

// AddToCartRequest is the body of POST /cart/items
type AddToCartRequest struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
	Quantity  int   `json:"quantity" binding:"omitempty,gte=1"`
}

// UpdateCartItemRequest is the body of PUT /cart/items/:id
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// CartResponse is the cart as the browser renders it
type CartResponse struct {
	Items  []cart.LineItem `json:"items"`
	Totals cart.Totals     `json:"totals"`
}

// CartHandler handles cart endpoints
type CartHandler struct {
	sessions  *Sessions
	catalog   *product.Service
	heartbeat time.Duration
}

// NewCartHandler creates a new cart handler
func NewCartHandler(sessions *Sessions, catalog *product.Service) *CartHandler {
	return &CartHandler{
		sessions:  sessions,
		catalog:   catalog,
		heartbeat: 25 * time.Second,
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	store := h.sessions.Cart(c)

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    newCartResponse(store),
	})
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	store := h.sessions.Cart(c)

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart count retrieved successfully",
		"data": gin.H{
			"count": store.Count(),
		},
	})
}

// AddToCart handles POST /cart/items. The product is resolved against the
// live catalog so the cart stores current details.
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	p, err := h.catalog.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !p.IsAvailable() {
		c.JSON(http.StatusConflict, gin.H{
			"error": fmt.Sprintf("%s is out of stock", p.Description),
		})
		return
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	store := h.sessions.Cart(c)
	if _, err := store.AddQuantity(c.Request.Context(), p.ToCartProduct(), quantity); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    newCartResponse(store),
	})
}

// UpdateCartItem handles PUT /cart/items/:id. A quantity of zero removes the line.
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	store := h.sessions.Cart(c)
	if !store.SetQuantity(c.Request.Context(), productID, *req.Quantity) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Item not in cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    newCartResponse(store),
	})
}

// RemoveFromCart handles DELETE /cart/items/:id. Removing an absent product
// succeeds without changing anything.
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	store := h.sessions.Cart(c)
	store.Remove(c.Request.Context(), productID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    newCartResponse(store),
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	h.sessions.Cart(c).Clear(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}

// ValidateCart handles POST /cart/validate - compares cart lines with the catalog before checkout
func (h *CartHandler) ValidateCart(c *gin.Context) {
	store := h.sessions.Cart(c)

	validation, err := h.catalog.ValidateCart(c.Request.Context(), store.Items())
	if err != nil {
		respondError(c, err)
		return
	}

	if !validation.IsValid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "Cart validation failed",
			"validation_errors": validation.Errors,
			"data":              validation,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart validation successful",
		"data":    validation,
	})
}

// StreamEvents handles GET /cart/events. Every tab of the session gets a
// server-sent event for each cart change, starting with the current totals.
func (h *CartHandler) StreamEvents(c *gin.Context) {
	store := h.sessions.Cart(c)

	events := make(chan cart.Event, 16)
	unsubscribe := store.Subscribe(func(e cart.Event) {
		select {
		case events <- e:
		default:
			// slow client; it resyncs from the next event's totals
		}
	})
	defer unsubscribe()

	// the server write timeout does not apply to streams
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	send := func(name string, data interface{}) {
		c.SSEvent(name, data)
		c.Writer.Flush()
	}
	send("snapshot", newCartResponse(store))

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case e := <-events:
			send(string(e.Type), gin.H{
				"product_id": e.ProductID,
				"count":      e.Count,
				"total":      e.Total.StringFixed(2),
			})
		case <-ticker.C:
			send("ping", gin.H{"time": time.Now().UTC()})
		case <-c.Request.Context().Done():
			return
		}
	}
}

func newCartResponse(store *cart.Store) CartResponse {
	items := store.Items()
	return CartResponse{
		Items:  items,
		Totals: cart.Summarize(items),
	}
}

func parseProductID(c *gin.Context) (int64, bool) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || productID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return 0, false
	}
	return productID, true
}
