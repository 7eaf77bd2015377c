// internal/domain/order/service.go
package order

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/infrastructure/backend"
	"github.com/your-org/storefront/internal/pkg/apierror"
	"github.com/your-org/storefront/internal/pkg/auth"
	"golang.org/x/sync/errgroup"
)

const (
	opListMine     = "orders.list_mine"
	opListDetails  = "orders.list_details"
	opListPayments = "orders.list_payments"

	ordersPath       = "/orders/"
	orderDetailsPath = "/order-details/"
	paymentsPath     = "/payments/"
)

// Catalog fills in products that order lines only reference by id
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*product.Product, error)
}

// Service reads order history from the backend
type Service struct {
	backend backend.Doer
	catalog Catalog
	log     *logrus.Entry
}

// NewService creates a new order service. catalog may be nil, in which
// case id-only products get a placeholder description.
func NewService(b backend.Doer, catalog Catalog, logger *logrus.Logger) *Service {
	return &Service{
		backend: b,
		catalog: catalog,
		log:     logger.WithField("component", "orders"),
	}
}

// GetUserOrders returns the caller's orders with their lines and payments.
// The backend may list every order, so results are filtered by owner here.
// Lines and payments are best effort: when they cannot be read the orders
// are still returned.
func (s *Service) GetUserOrders(ctx context.Context, identity auth.Identity) (*OrderResponse, error) {
	if !identity.Authenticated() || identity.UserID == 0 {
		return nil, apierror.Unauthenticated(opListMine, "sign in to see your orders")
	}

	list, err := backend.GetList[Order](ctx, s.backend, backend.Request{
		Op:     opListMine,
		Method: http.MethodGet,
		Path:   ordersPath,
		Token:  identity.Token,
	})
	if err != nil {
		return nil, err
	}

	mine := make([]Order, 0, len(list.Items))
	for _, o := range list.Items {
		if owner, ok := o.OwnerID(); ok && owner == identity.UserID {
			mine = append(mine, o)
		}
	}

	log := s.log.WithFields(logrus.Fields{
		"user_id": identity.UserID,
		"fetched": len(list.Items),
		"kept":    len(mine),
	})
	log.Debug("orders filtered by owner")

	if len(mine) > 0 {
		s.attach(ctx, mine, identity, log)
	}

	return &OrderResponse{Orders: mine, Total: len(mine)}, nil
}

// attach joins order lines and payments onto orders
func (s *Service) attach(ctx context.Context, orders []Order, identity auth.Identity, log *logrus.Entry) {
	var (
		details  []detailRecord
		payments []paymentRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		details = fetchAll[detailRecord](gctx, s, opListDetails, orderDetailsPath, identity, log)
		return nil
	})
	g.Go(func() error {
		payments = fetchAll[paymentRecord](gctx, s, opListPayments, paymentsPath, identity, log)
		return nil
	})
	_ = g.Wait()

	index := make(map[int64]int, len(orders))
	for i := range orders {
		orders[i].Details = []OrderDetail{}
		orders[i].Payments = []Payment{}
		index[orders[i].ID] = i
	}

	owned := details[:0]
	for _, r := range details {
		if _, ok := index[r.detail().OrderID]; ok {
			owned = append(owned, r)
		}
	}
	s.completeProducts(ctx, owned, log)

	for _, r := range owned {
		d := r.detail()
		orders[index[d.OrderID]].Details = append(orders[index[d.OrderID]].Details, d)
	}
	for _, r := range payments {
		p := r.payment()
		if i, ok := index[p.OrderID]; ok {
			orders[i].Payments = append(orders[i].Payments, p)
		}
	}
}

func fetchAll[T any](ctx context.Context, s *Service, op, path string, identity auth.Identity, log *logrus.Entry) []T {
	list, err := backend.GetList[T](ctx, s.backend, backend.Request{
		Op:     op,
		Method: http.MethodGet,
		Path:   path,
		Token:  identity.Token,
	})
	if err != nil {
		log.WithError(err).WithField("op", op).Warn("order enrichment unavailable")
		return nil
	}
	return list.Items
}

// completeProducts looks up products that lines only reference by id, once
// per product
func (s *Service) completeProducts(ctx context.Context, details []detailRecord, log *logrus.Entry) {
	resolved := make(map[int64]DetailProduct)
	for i := range details {
		p := &details[i].Product
		if p.complete() || p.ID == 0 {
			continue
		}

		found, ok := resolved[p.ID]
		if !ok {
			found = s.lookupProduct(ctx, p.ID, log)
			resolved[p.ID] = found
		}
		*p = found
	}
}

func (s *Service) lookupProduct(ctx context.Context, id int64, log *logrus.Entry) DetailProduct {
	placeholder := DetailProduct{ID: id, Description: fmt.Sprintf("Product #%d", id)}
	if s.catalog == nil {
		return placeholder
	}

	p, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		log.WithError(err).WithField("product_id", id).Debug("order line product unavailable")
		return placeholder
	}
	return DetailProduct{ID: p.ID, Description: p.Description, Price: p.Price}
}
