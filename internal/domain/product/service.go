// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/infrastructure/backend"
	"github.com/your-org/storefront/internal/pkg/apierror"
)

const productsPath = "/products/"

// ErrProductNotFound is returned when the catalog has no such product
var ErrProductNotFound = errors.New("product not found")

// Backend is the part of the REST client the catalog needs
type Backend interface {
	backend.Doer
	DoJSON(ctx context.Context, req backend.Request, out interface{}) error
}

// Service reads the remote product catalog
type Service struct {
	backend Backend
	log     *logrus.Entry
}

// NewService creates a new catalog service
func NewService(b Backend, logger *logrus.Logger) *Service {
	return &Service{
		backend: b,
		log:     logger.WithField("component", "catalog"),
	}
}

// GetProducts lists products, accepting flat and paginated replies
func (s *Service) GetProducts(ctx context.Context, filter ProductFilter) (*ProductListResponse, error) {
	list, err := backend.GetList[Product](ctx, s.backend, backend.Request{
		Op:     "catalog.list",
		Method: http.MethodGet,
		Path:   productsPath,
		Query:  filter.Query(),
	})
	if err != nil {
		return nil, err
	}

	return &ProductListResponse{
		Products: list.Items,
		Total:    list.Total(),
		Next:     list.Meta.Next,
		Previous: list.Meta.Previous,
	}, nil
}

// GetProduct fetches one product
func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	if id <= 0 {
		return nil, apierror.Validation("catalog.get", "invalid product id")
	}

	var p Product
	err := s.backend.DoJSON(ctx, backend.Request{
		Op:     "catalog.get",
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s%d/", productsPath, id),
	}, &p)
	if err != nil {
		if apiErr, ok := apierror.As(err); ok && apiErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %d", ErrProductNotFound, id)
		}
		return nil, err
	}
	if p.ID == 0 {
		p.ID = id
	}
	return &p, nil
}

// ValidateCart re-reads every cart line from the catalog. Missing or
// unavailable products are errors; price changes and short stock are warnings.
func (s *Service) ValidateCart(ctx context.Context, items []cart.LineItem) (*CartValidation, error) {
	validation := &CartValidation{
		IsValid:  true,
		Errors:   []string{},
		Warnings: []string{},
	}

	if len(items) == 0 {
		validation.IsValid = false
		validation.Errors = append(validation.Errors, "cart is empty")
		return validation, nil
	}

	for _, item := range items {
		p, err := s.GetProduct(ctx, item.ProductID)
		if errors.Is(err, ErrProductNotFound) {
			validation.IsValid = false
			validation.Errors = append(validation.Errors,
				fmt.Sprintf("%s is no longer available", item.Description))
			continue
		}
		if err != nil {
			return nil, err
		}

		if !p.IsAvailable() {
			validation.IsValid = false
			validation.Errors = append(validation.Errors,
				fmt.Sprintf("%s is out of stock", p.Description))
			continue
		}

		if p.Stock < item.Quantity {
			validation.Warnings = append(validation.Warnings,
				fmt.Sprintf("Limited stock for %s. Available: %d", p.Description, p.Stock))
		}

		if !p.Price.Equal(item.UnitPrice) {
			if validation.PriceChanges == nil {
				validation.PriceChanges = make(map[int64]decimal.Decimal)
			}
			validation.PriceChanges[p.ID] = p.Price
			validation.Warnings = append(validation.Warnings,
				fmt.Sprintf("Price of %s changed from %s to %s",
					p.Description, item.UnitPrice.StringFixed(2), p.Price.StringFixed(2)))
		}
	}

	s.log.WithFields(logrus.Fields{
		"items":    len(items),
		"errors":   len(validation.Errors),
		"warnings": len(validation.Warnings),
	}).Debug("cart validated against catalog")

	return validation, nil
}
