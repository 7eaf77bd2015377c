// internal/interfaces/http/handlers/warranty.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/warranty"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

// WarrantyHandler handles warranty endpoints
type WarrantyHandler struct {
	warrantyService *warranty.Service
}

// NewWarrantyHandler creates a new warranty handler
func NewWarrantyHandler(warrantyService *warranty.Service) *WarrantyHandler {
	return &WarrantyHandler{
		warrantyService: warrantyService,
	}
}

// GetWarranties handles GET /admin/warranties
func (h *WarrantyHandler) GetWarranties(c *gin.Context) {
	filter, err := warrantyFilterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.warrantyService.List(c.Request.Context(), filter, middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Warranties retrieved successfully",
		"data":    response,
	})
}

// GetWarranty handles GET /admin/warranties/:id
func (h *WarrantyHandler) GetWarranty(c *gin.Context) {
	id, ok := parseWarrantyID(c)
	if !ok {
		return
	}

	w, err := h.warrantyService.Get(c.Request.Context(), id, middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Warranty retrieved successfully",
		"data":    w,
	})
}

// CreateWarranty handles POST /admin/warranties
func (h *WarrantyHandler) CreateWarranty(c *gin.Context) {
	var req warranty.CreateWarrantyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	w, err := h.warrantyService.Create(c.Request.Context(), &req, middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Warranty created successfully",
		"data":    w,
	})
}

// UpdateWarranty handles PATCH /admin/warranties/:id
func (h *WarrantyHandler) UpdateWarranty(c *gin.Context) {
	id, ok := parseWarrantyID(c)
	if !ok {
		return
	}

	var req warranty.UpdateWarrantyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	w, err := h.warrantyService.Update(c.Request.Context(), id, &req, middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Warranty updated successfully",
		"data":    w,
	})
}

// DeleteWarranty handles DELETE /admin/warranties/:id
func (h *WarrantyHandler) DeleteWarranty(c *gin.Context) {
	id, ok := parseWarrantyID(c)
	if !ok {
		return
	}

	if err := h.warrantyService.Delete(c.Request.Context(), id, middleware.GetIdentity(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Warranty deleted successfully",
	})
}

// GetProductWarranties handles GET /products/:id/warranties
func (h *WarrantyHandler) GetProductWarranties(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	warranties, err := h.warrantyService.ListByProduct(c.Request.Context(), productID, middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Warranties retrieved successfully",
		"data":    warranties,
	})
}

func parseWarrantyID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid warranty ID",
		})
		return 0, false
	}
	return id, true
}

func warrantyFilterFromQuery(c *gin.Context) (warranty.Filter, error) {
	filter := warranty.Filter{Search: c.Query("search")}

	if v := c.Query("product_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, err
		}
		filter.ProductID = id
	}
	for name, target := range map[string]*int{
		"months_min": &filter.MinMonths,
		"months_max": &filter.MaxMonths,
		"page":       &filter.Page,
		"page_size":  &filter.PageSize,
	} {
		v := c.Query(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, err
		}
		*target = n
	}

	return filter, nil
}
