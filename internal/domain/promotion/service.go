// internal/domain/promotion/service.go
package promotion

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/infrastructure/backend"
	"github.com/your-org/storefront/internal/pkg/apierror"
	"github.com/your-org/storefront/internal/pkg/auth"
)

const opCreate = "promotions.create_with_products"

// Backend is the part of the REST client promotions need
type Backend interface {
	DoJSON(ctx context.Context, req backend.Request, out interface{}) error
}

// Service manages promotions for admins
type Service struct {
	backend    Backend
	strategies []Strategy
	log        *logrus.Entry
}

// NewService creates a promotion service. With no strategies given,
// DefaultStrategies is used.
func NewService(b Backend, logger *logrus.Logger, strategies ...Strategy) *Service {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	return &Service{
		backend:    b,
		strategies: strategies,
		log:        logger.WithField("component", "promotions"),
	}
}

// CreateWithProducts validates the request and runs the strategies in order.
// The next strategy is only tried when the backend rejected the previous one
// with a 4xx; anything else stops immediately since the POST may have landed.
func (s *Service) CreateWithProducts(ctx context.Context, req *CreatePromotionRequest, identity auth.Identity) (*CreateResult, error) {
	if !identity.Authenticated() {
		return nil, apierror.Unauthenticated(opCreate, "sign in to manage promotions")
	}
	if errs := req.Validate(); len(errs) > 0 {
		return nil, apierror.Validation(opCreate, strings.Join(errs, "; "))
	}

	strategies := s.strategies
	if len(req.ProductIDs) == 0 {
		// nothing to link, a plain create is enough
		strategies = []Strategy{TwoStep{}}
	}

	var attempts []string
	var lastErr error
	for _, strategy := range strategies {
		attempts = append(attempts, strategy.Name())
		log := s.log.WithField("strategy", strategy.Name())

		result, err := strategy.Create(ctx, s.backend, req, identity)
		if err == nil {
			result.Attempts = attempts
			log.WithFields(logrus.Fields{
				"promotion_id": result.Promotion.ID,
				"linked":       len(result.LinkedProducts),
				"failed_links": len(result.FailedLinks),
			}).Info("promotion created")
			return result, nil
		}

		lastErr = err
		if !rejected(err) {
			log.WithError(err).Warn("promotion strategy failed, not retrying")
			break
		}
		log.WithError(err).Info("promotion strategy rejected, trying next")
	}

	return nil, lastErr
}

func rejected(err error) bool {
	apiErr, ok := apierror.As(err)
	return ok && apiErr.Kind == apierror.KindServerReported &&
		apiErr.Status >= 400 && apiErr.Status < 500
}
