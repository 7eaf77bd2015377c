// internal/domain/promotion/entity.go
package promotion

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Promotion is a discount campaign
type Promotion struct {
	ID          int64           `json:"id"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Active      bool            `json:"active"`
}

// CreatePromotionRequest creates a promotion and links it to products
type CreatePromotionRequest struct {
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Active      *bool           `json:"active,omitempty"`
	ProductIDs  []int64         `json:"product_ids"`
}

// Validate returns every field problem; an empty slice means valid
func (r *CreatePromotionRequest) Validate() []string {
	var errs []string

	if strings.TrimSpace(r.Description) == "" {
		errs = append(errs, "description is required")
	}

	start, startErr := parseDate(r.StartDate)
	end, endErr := parseDate(r.EndDate)
	switch {
	case r.StartDate == "":
		errs = append(errs, "start_date is required")
	case startErr != nil:
		errs = append(errs, "start_date must be a date (YYYY-MM-DD)")
	}
	switch {
	case r.EndDate == "":
		errs = append(errs, "end_date is required")
	case endErr != nil:
		errs = append(errs, "end_date must be a date (YYYY-MM-DD)")
	}
	if startErr == nil && endErr == nil && !end.After(start) {
		errs = append(errs, "end_date must be after start_date")
	}

	if !r.Amount.IsPositive() {
		errs = append(errs, "amount must be greater than 0")
	}

	for _, id := range r.ProductIDs {
		if id <= 0 {
			errs = append(errs, fmt.Sprintf("invalid product id %d", id))
			break
		}
	}

	return errs
}

func (r *CreatePromotionRequest) active() bool {
	return r.Active == nil || *r.Active
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// promotionBody is the backend payload; Products is only sent by the
// single-request strategy
type promotionBody struct {
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Active      bool            `json:"active"`
	Products    []int64         `json:"products,omitempty"`
}

type productLinkBody struct {
	ProductID   int64 `json:"product_id"`
	PromotionID int64 `json:"promotion_id"`
}

// LinkFailure reports a product that could not be attached
type LinkFailure struct {
	ProductID int64  `json:"product_id"`
	Message   string `json:"message"`
}

// CreateResult is what CreateWithProducts produced
type CreateResult struct {
	Promotion      Promotion     `json:"promotion"`
	Strategy       string        `json:"strategy"`
	LinkedProducts []int64       `json:"linked_products"`
	FailedLinks    []LinkFailure `json:"failed_links,omitempty"`
	// Attempts lists the strategies tried, in order
	Attempts []string `json:"attempts"`
}
