// internal/domain/product/entity.go
package product

import (
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/domain/cart"
)

// ProductStatus as reported by the catalog
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is a catalog entry
type Product struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Images      []string        `json:"images"`
	Status      ProductStatus   `json:"status"`
	Subcategory *Subcategory    `json:"subcategory,omitempty"`
}

// Subcategory groups products in the catalog
type Subcategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// IsAvailable reports whether the product can be bought at all
func (p *Product) IsAvailable() bool {
	return p.Status != ProductStatusInactive && p.Stock > 0
}

// ToCartProduct converts a catalog entry into what the cart stores
func (p *Product) ToCartProduct() cart.Product {
	return cart.Product{
		ID:          p.ID,
		Description: p.Description,
		Price:       p.Price,
		Images:      append([]string(nil), p.Images...),
	}
}

// ProductFilter narrows a catalog listing
type ProductFilter struct {
	Search        string
	SubcategoryID int64
	Status        string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	Ordering      string
	Page          int
}

// Query encodes the filter as backend query parameters
func (f ProductFilter) Query() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.SubcategoryID > 0 {
		q.Set("subcategory", strconv.FormatInt(f.SubcategoryID, 10))
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.MinPrice != nil {
		q.Set("min_price", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		q.Set("max_price", f.MaxPrice.String())
	}
	if f.Ordering != "" {
		q.Set("ordering", f.Ordering)
	}
	if f.Page > 1 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	return q
}

// ProductListResponse is a normalized catalog page
type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Next     *string   `json:"next,omitempty"`
	Previous *string   `json:"previous,omitempty"`
}

// CartValidation compares cart lines with the live catalog
type CartValidation struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	// PriceChanges maps product id to the current catalog price
	PriceChanges map[int64]decimal.Decimal `json:"price_changes,omitempty"`
}
