// internal/interfaces/http/handlers/product.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/domain/product"
)

// ProductHandler handles product endpoints
type ProductHandler struct {
	productService *product.Service
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *product.Service) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// GetProducts handles GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	filter, err := productFilterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.productService.GetProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products retrieved successfully",
		"data":    response,
	})
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	p, err := h.productService.GetProduct(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product retrieved successfully",
		"data":    p,
	})
}

func productFilterFromQuery(c *gin.Context) (product.ProductFilter, error) {
	filter := product.ProductFilter{
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		Ordering: c.Query("ordering"),
	}

	if v := c.Query("subcategory"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, err
		}
		filter.SubcategoryID = id
	}
	if v := c.Query("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return filter, err
		}
		filter.Page = page
	}
	for name, target := range map[string]**decimal.Decimal{
		"min_price": &filter.MinPrice,
		"max_price": &filter.MaxPrice,
	} {
		v := c.Query(name)
		if v == "" {
			continue
		}
		price, err := decimal.NewFromString(v)
		if err != nil {
			return filter, err
		}
		*target = &price
	}

	return filter, nil
}
