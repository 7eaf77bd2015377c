// internal/domain/cart/entity.go
package cart

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// LineItem is one product entry in the cart. The JSON shape is the persisted
// snapshot format, so field names must stay stable.
type LineItem struct {
	ProductID   int64           `json:"product_id"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Images      []string        `json:"images,omitempty"`
}

// Subtotal returns unit price times quantity
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

func (li LineItem) validate() error {
	if li.ProductID <= 0 {
		return fmt.Errorf("invalid product id %d", li.ProductID)
	}
	if li.Quantity < 1 {
		return fmt.Errorf("product %d has quantity %d", li.ProductID, li.Quantity)
	}
	if li.UnitPrice.IsNegative() {
		return fmt.Errorf("product %d has negative price", li.ProductID)
	}
	return nil
}

func (li LineItem) clone() LineItem {
	if li.Images != nil {
		li.Images = append([]string(nil), li.Images...)
	}
	return li
}

// Product is what gets added to the cart
type Product struct {
	ID          int64
	Description string
	Price       decimal.Decimal
	Images      []string
}

// EventType identifies what changed in a cart
type EventType string

const (
	EventItemAdded       EventType = "item_added"
	EventItemRemoved     EventType = "item_removed"
	EventQuantityChanged EventType = "quantity_changed"
	EventCleared         EventType = "cleared"
	EventReloaded        EventType = "reloaded"
)

// Event is delivered to observers after every effective cart mutation
type Event struct {
	Type      EventType       `json:"type"`
	SessionID string          `json:"session_id"`
	ProductID int64           `json:"product_id,omitempty"`
	Count     int             `json:"count"`
	Total     decimal.Decimal `json:"total"`
}

// Observer receives cart events. Observers run synchronously on the
// mutating goroutine and must not call back into the store.
type Observer func(Event)
