// internal/domain/warranty/service.go
package warranty

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/infrastructure/backend"
	"github.com/your-org/storefront/internal/pkg/apierror"
	"github.com/your-org/storefront/internal/pkg/auth"
)

const (
	warrantiesPath  = "/warranties/"
	defaultPageSize = 10
)

// ErrWarrantyNotFound is returned when the backend has no such warranty
var ErrWarrantyNotFound = errors.New("warranty not found")

// Backend is the part of the REST client warranties need
type Backend interface {
	backend.Doer
	DoJSON(ctx context.Context, req backend.Request, out interface{}) error
}

// Service manages product warranties for admins
type Service struct {
	backend Backend
	log     *logrus.Entry
}

// NewService creates a new warranty service
func NewService(b Backend, logger *logrus.Logger) *Service {
	return &Service{
		backend: b,
		log:     logger.WithField("component", "warranties"),
	}
}

// List returns warranties matching filter, accepting flat and paginated replies
func (s *Service) List(ctx context.Context, filter Filter, identity auth.Identity) (*ListResponse, error) {
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}

	list, err := backend.GetList[record](ctx, s.backend, backend.Request{
		Op:     "warranties.list",
		Method: http.MethodGet,
		Path:   warrantiesPath,
		Query:  filter.Query(),
		Token:  identity.Token,
	})
	if err != nil {
		return nil, err
	}

	resp := &ListResponse{
		Warranties: make([]Warranty, 0, len(list.Items)),
		Total:      list.Total(),
		Page:       1,
		PageSize:   filter.PageSize,
	}
	for _, r := range list.Items {
		resp.Warranties = append(resp.Warranties, r.warranty())
	}
	if list.Kind == backend.ListPaginated && filter.Page > 1 {
		resp.Page = filter.Page
	}
	resp.TotalPages = (resp.Total + resp.PageSize - 1) / resp.PageSize
	if resp.TotalPages < 1 {
		resp.TotalPages = 1
	}
	return resp, nil
}

// ListByProduct returns every warranty of one product
func (s *Service) ListByProduct(ctx context.Context, productID int64, identity auth.Identity) ([]Warranty, error) {
	if productID <= 0 {
		return nil, apierror.Validation("warranties.by_product", "invalid product id")
	}

	list, err := backend.GetList[record](ctx, s.backend, backend.Request{
		Op:     "warranties.by_product",
		Method: http.MethodGet,
		Path:   warrantiesPath,
		Query:  Filter{ProductID: productID}.Query(),
		Token:  identity.Token,
	})
	if err != nil {
		return nil, err
	}

	warranties := make([]Warranty, 0, len(list.Items))
	for _, r := range list.Items {
		w := r.warranty()
		// the filter is advisory on some deployments
		if w.ProductID != 0 && w.ProductID != productID {
			continue
		}
		warranties = append(warranties, w)
	}
	return warranties, nil
}

// Get fetches one warranty
func (s *Service) Get(ctx context.Context, id int64, identity auth.Identity) (*Warranty, error) {
	const op = "warranties.get"
	if id <= 0 {
		return nil, apierror.Validation(op, "invalid warranty id")
	}

	var r record
	err := s.backend.DoJSON(ctx, backend.Request{
		Op:     op,
		Method: http.MethodGet,
		Path:   itemPath(id),
		Token:  identity.Token,
	}, &r)
	if err != nil {
		return nil, notFound(err, id)
	}

	w := r.warranty()
	return &w, nil
}

// Create validates and creates a warranty
func (s *Service) Create(ctx context.Context, req *CreateWarrantyRequest, identity auth.Identity) (*Warranty, error) {
	const op = "warranties.create"
	if err := checkRequest(op, identity, req.Validate()); err != nil {
		return nil, err
	}

	var r record
	err := s.backend.DoJSON(ctx, backend.Request{
		Op:     op,
		Method: http.MethodPost,
		Path:   warrantiesPath,
		Token:  identity.Token,
		Body:   req,
	}, &r)
	if err != nil {
		return nil, err
	}

	w := r.warranty()
	s.log.WithFields(logrus.Fields{
		"warranty_id": w.ID,
		"product_id":  w.ProductID,
	}).Info("warranty created")
	return &w, nil
}

// Update patches the fields set in req
func (s *Service) Update(ctx context.Context, id int64, req *UpdateWarrantyRequest, identity auth.Identity) (*Warranty, error) {
	const op = "warranties.update"
	if id <= 0 {
		return nil, apierror.Validation(op, "invalid warranty id")
	}
	if err := checkRequest(op, identity, req.Validate()); err != nil {
		return nil, err
	}

	var r record
	err := s.backend.DoJSON(ctx, backend.Request{
		Op:     op,
		Method: http.MethodPatch,
		Path:   itemPath(id),
		Token:  identity.Token,
		Body:   req,
	}, &r)
	if err != nil {
		return nil, notFound(err, id)
	}

	w := r.warranty()
	if w.ID == 0 {
		w.ID = id
	}
	s.log.WithField("warranty_id", id).Info("warranty updated")
	return &w, nil
}

// Delete removes a warranty
func (s *Service) Delete(ctx context.Context, id int64, identity auth.Identity) error {
	const op = "warranties.delete"
	if id <= 0 {
		return apierror.Validation(op, "invalid warranty id")
	}
	if err := checkRequest(op, identity, nil); err != nil {
		return err
	}

	err := s.backend.DoJSON(ctx, backend.Request{
		Op:     op,
		Method: http.MethodDelete,
		Path:   itemPath(id),
		Token:  identity.Token,
	}, nil)
	if err != nil {
		return notFound(err, id)
	}

	s.log.WithField("warranty_id", id).Info("warranty deleted")
	return nil
}

func checkRequest(op string, identity auth.Identity, errs []string) error {
	if !identity.Authenticated() {
		return apierror.Unauthenticated(op, "sign in to manage warranties")
	}
	if len(errs) > 0 {
		return apierror.Validation(op, strings.Join(errs, "; "))
	}
	return nil
}

func itemPath(id int64) string {
	return fmt.Sprintf("%s%d/", warrantiesPath, id)
}

func notFound(err error, id int64) error {
	if apiErr, ok := apierror.As(err); ok && apiErr.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %d", ErrWarrantyNotFound, id)
	}
	return err
}
