// internal/domain/warranty/entity.go
package warranty

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/your-org/storefront/internal/infrastructure/backend"
)

// Warranty is the coverage offered on a product, in months
type Warranty struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Months      int    `json:"months"`
	ProductID   int64  `json:"product_id"`
}

// record is the backend shape; the product may be an id or a nested object
type record struct {
	ID          int64       `json:"id"`
	Description string      `json:"description"`
	Months      int         `json:"months"`
	Product     backend.Ref `json:"product"`
	ProductID   backend.Ref `json:"product_id"`
}

func (r record) warranty() Warranty {
	return Warranty{
		ID:          r.ID,
		Description: r.Description,
		Months:      r.Months,
		ProductID:   backend.FirstRef(r.ProductID, r.Product),
	}
}

// CreateWarrantyRequest creates a warranty for a product
type CreateWarrantyRequest struct {
	Description string `json:"description"`
	Months      int    `json:"months"`
	ProductID   int64  `json:"product_id"`
}

// Validate returns every field problem; an empty slice means valid
func (r *CreateWarrantyRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(r.Description) == "" {
		errs = append(errs, "description is required")
	}
	if r.Months <= 0 {
		errs = append(errs, "months must be greater than 0")
	}
	if r.ProductID <= 0 {
		errs = append(errs, "product_id is required")
	}
	return errs
}

// UpdateWarrantyRequest changes only the fields that are set
type UpdateWarrantyRequest struct {
	Description *string `json:"description,omitempty"`
	Months      *int    `json:"months,omitempty"`
	ProductID   *int64  `json:"product_id,omitempty"`
}

// Validate returns every field problem; an empty slice means valid
func (r *UpdateWarrantyRequest) Validate() []string {
	if r.Description == nil && r.Months == nil && r.ProductID == nil {
		return []string{"nothing to update"}
	}

	var errs []string
	if r.Description != nil && strings.TrimSpace(*r.Description) == "" {
		errs = append(errs, "description cannot be empty")
	}
	if r.Months != nil && *r.Months <= 0 {
		errs = append(errs, "months must be greater than 0")
	}
	if r.ProductID != nil && *r.ProductID <= 0 {
		errs = append(errs, "invalid product id")
	}
	return errs
}

// Filter narrows a warranty listing
type Filter struct {
	Search    string
	ProductID int64
	MinMonths int
	MaxMonths int
	Page      int
	PageSize  int
}

// Query encodes the filter as backend query parameters
func (f Filter) Query() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.ProductID > 0 {
		q.Set("product_id", strconv.FormatInt(f.ProductID, 10))
	}
	if f.MinMonths > 0 {
		q.Set("months_min", strconv.Itoa(f.MinMonths))
	}
	if f.MaxMonths > 0 {
		q.Set("months_max", strconv.Itoa(f.MaxMonths))
	}
	if f.Page > 1 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(f.PageSize))
	}
	return q
}

// ListResponse is a normalized warranty page
type ListResponse struct {
	Warranties []Warranty `json:"warranties"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	PageSize   int        `json:"page_size"`
}
