// internal/domain/order/entity.go
package order

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/infrastructure/backend"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a completed or pending sale as reported by the backend
type Order struct {
	ID       int64           `json:"id"`
	Date     time.Time       `json:"date"`
	Total    decimal.Decimal `json:"total"`
	Status   OrderStatus     `json:"status"`
	User     *OrderUser      `json:"user,omitempty"`
	UserID   *uint           `json:"user_id,omitempty"`
	Details  []OrderDetail   `json:"details"`
	Payments []Payment       `json:"payments"`
}

// OrderUser is the nested owner some endpoints return
type OrderUser struct {
	ID    uint   `json:"id"`
	Email string `json:"email,omitempty"`
}

// OwnerID returns the owning user from either the nested user or user_id
func (o *Order) OwnerID() (uint, bool) {
	if o.User != nil && o.User.ID != 0 {
		return o.User.ID, true
	}
	if o.UserID != nil {
		return *o.UserID, true
	}
	return 0, false
}

// DetailProduct is the product of an order line. Only ID is set when the
// API sent a bare id and the catalog could not fill in the rest.
type DetailProduct struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

func (p *DetailProduct) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		var id backend.Ref
		if err := id.UnmarshalJSON(data); err != nil {
			return err
		}
		*p = DetailProduct{ID: int64(id)}
		return nil
	}

	// some endpoints wrap the whole product inside "id"
	var wrapped struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	if inner := bytes.TrimSpace(wrapped.ID); len(inner) > 0 && inner[0] == '{' {
		data = inner
	}

	type plain DetailProduct
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*p = DetailProduct(out)
	return nil
}

func (p *DetailProduct) complete() bool {
	return p.Description != ""
}

// OrderDetail is one product line of an order
type OrderDetail struct {
	ID       int64           `json:"id"`
	OrderID  int64           `json:"order_id"`
	Product  DetailProduct   `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type detailRecord struct {
	ID       int64           `json:"id"`
	Order    backend.Ref     `json:"order"`
	OrderID  backend.Ref     `json:"order_id"`
	Product  DetailProduct   `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func (r detailRecord) detail() OrderDetail {
	return OrderDetail{
		ID:       r.ID,
		OrderID:  backend.FirstRef(r.Order, r.OrderID),
		Product:  r.Product,
		Quantity: r.Quantity,
		Subtotal: r.Subtotal,
	}
}

// Payment is a payment recorded against an order
type Payment struct {
	ID      int64               `json:"id"`
	OrderID int64               `json:"order_id"`
	Amount  decimal.NullDecimal `json:"amount"`
	Method  string              `json:"method,omitempty"`
	Status  string              `json:"status,omitempty"`
	Date    *time.Time          `json:"date,omitempty"`
}

type paymentRecord struct {
	ID      int64               `json:"id"`
	Order   backend.Ref         `json:"order"`
	OrderID backend.Ref         `json:"order_id"`
	Amount  decimal.NullDecimal `json:"amount"`
	Method  string              `json:"method"`
	Status  string              `json:"status"`
	Date    *time.Time          `json:"date"`
}

func (r paymentRecord) payment() Payment {
	return Payment{
		ID:      r.ID,
		OrderID: backend.FirstRef(r.Order, r.OrderID),
		Amount:  r.Amount,
		Method:  r.Method,
		Status:  r.Status,
		Date:    r.Date,
	}
}

// OrderResponse is the caller's order history
type OrderResponse struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
}
