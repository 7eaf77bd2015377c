// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/interfaces/http/handlers"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

// CartEventsPath is the server-sent events stream; it is exempt from the
// request timeout
const CartEventsPath = "/api/v1/cart/events"

// Handlers groups every handler the API exposes
type Handlers struct {
	Cart      *handlers.CartHandler
	Checkout  *handlers.CheckoutHandler
	Product   *handlers.ProductHandler
	Order     *handlers.OrderHandler
	Promotion *handlers.PromotionHandler
	Warranty  *handlers.WarrantyHandler
}

// SetupProductRoutes sets up catalog routes
func SetupProductRoutes(rg *gin.RouterGroup, h Handlers, cfg *config.Config) {
	products := rg.Group("/products")
	products.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		products.GET("", h.Product.GetProducts)
		products.GET("/:id", h.Product.GetProduct)
		products.GET("/:id/warranties", h.Warranty.GetProductWarranties)
	}
}

// SetupCartRoutes sets up cart routes. Carts belong to the browser session,
// so anonymous shoppers can use them.
func SetupCartRoutes(rg *gin.RouterGroup, h Handlers, cfg *config.Config) {
	cart := rg.Group("/cart")
	cart.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		cart.GET("", h.Cart.GetCart)
		cart.GET("/count", h.Cart.GetCartCount)
		cart.GET("/events", h.Cart.StreamEvents)
		cart.POST("/items", h.Cart.AddToCart)
		cart.PUT("/items/:id", h.Cart.UpdateCartItem)
		cart.DELETE("/items/:id", h.Cart.RemoveFromCart)
		cart.DELETE("", h.Cart.ClearCart)
		cart.POST("/validate", h.Cart.ValidateCart)
	}
}

// SetupCheckoutRoutes sets up checkout routes. Identity is checked by the
// checkout service so an empty cart is reported before a missing login.
func SetupCheckoutRoutes(rg *gin.RouterGroup, h Handlers, cfg *config.Config) {
	checkout := rg.Group("/checkout")
	checkout.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		checkout.POST("", h.Checkout.CreateCheckout)
		checkout.GET("/verify", h.Checkout.VerifyPayment)
	}
}

// SetupOrderRoutes sets up order related routes
func SetupOrderRoutes(rg *gin.RouterGroup, h Handlers, cfg *config.Config) {
	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg)) // All order routes require authentication
	{
		orders.GET("", h.Order.GetUserOrders)
	}
}

// SetupAdminRoutes sets up admin related routes
func SetupAdminRoutes(rg *gin.RouterGroup, h Handlers, cfg *config.Config) {
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg)) // Require authentication
	admin.Use(middleware.AdminMiddleware())   // Require admin privileges
	{
		admin.POST("/promotions", h.Promotion.CreatePromotion)

		admin.GET("/warranties", h.Warranty.GetWarranties)
		admin.POST("/warranties", h.Warranty.CreateWarranty)
		admin.GET("/warranties/:id", h.Warranty.GetWarranty)
		admin.PATCH("/warranties/:id", h.Warranty.UpdateWarranty)
		admin.DELETE("/warranties/:id", h.Warranty.DeleteWarranty)
	}
}

// SetupRoutes registers every API route on rg
func SetupRoutes(rg *gin.RouterGroup, h Handlers, cfg *config.Config) {
	SetupProductRoutes(rg, h, cfg)
	SetupCartRoutes(rg, h, cfg)
	SetupCheckoutRoutes(rg, h, cfg)
	SetupOrderRoutes(rg, h, cfg)
	SetupAdminRoutes(rg, h, cfg)
}
