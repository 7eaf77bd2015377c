package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/promotion"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

// PromotionHandler handles admin promotion endpoints
type PromotionHandler struct {
	promotionService *promotion.Service
}

// NewPromotionHandler creates a new promotion handler
func NewPromotionHandler(promotionService *promotion.Service) *PromotionHandler {
	return &PromotionHandler{
		promotionService: promotionService,
	}
}

// CreatePromotion handles POST /admin/promotions
func (h *PromotionHandler) CreatePromotion(c *gin.Context) {
	var req promotion.CreatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	result, err := h.promotionService.CreateWithProducts(c.Request.Context(), &req, middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	message := "Promotion created successfully"
	if len(result.FailedLinks) > 0 {
		status = http.StatusMultiStatus
		message = "Promotion created, some products could not be linked"
	}

	c.JSON(status, gin.H{
		"message": message,
		"data":    result,
	})
}
