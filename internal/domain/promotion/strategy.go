package promotion

import (
	"context"
	"net/http"

	"github.com/your-org/storefront/internal/infrastructure/backend"
	"github.com/your-org/storefront/internal/pkg/apierror"
	"github.com/your-org/storefront/internal/pkg/auth"
)

const (
	promotionsPath        = "/promotions/"
	productPromotionsPath = "/product-promotions/"
)

// Strategy is one way of creating a promotion together with its products
type Strategy interface {
	Name() string
	Create(ctx context.Context, b Backend, req *CreatePromotionRequest, identity auth.Identity) (*CreateResult, error)
}

// DefaultStrategies is tried in order until one succeeds
var DefaultStrategies = []Strategy{SingleRequest{}, TwoStep{}}

// SingleRequest sends the promotion and its product ids in one POST
type SingleRequest struct{}

func (SingleRequest) Name() string { return "single_request" }

func (s SingleRequest) Create(ctx context.Context, b Backend, req *CreatePromotionRequest, identity auth.Identity) (*CreateResult, error) {
	body := newPromotionBody(req)
	body.Products = req.ProductIDs

	var created Promotion
	err := b.DoJSON(ctx, backend.Request{
		Op:     "promotions.create_single",
		Method: http.MethodPost,
		Path:   promotionsPath,
		Token:  identity.Token,
		Body:   body,
	}, &created)
	if err != nil {
		return nil, err
	}

	return &CreateResult{
		Promotion:      created,
		Strategy:       s.Name(),
		LinkedProducts: append([]int64{}, req.ProductIDs...),
	}, nil
}

// TwoStep creates the promotion first, then links each product with its own
// POST. A failed link is reported but does not undo the promotion.
type TwoStep struct{}

func (TwoStep) Name() string { return "two_step" }

func (s TwoStep) Create(ctx context.Context, b Backend, req *CreatePromotionRequest, identity auth.Identity) (*CreateResult, error) {
	var created Promotion
	err := b.DoJSON(ctx, backend.Request{
		Op:     "promotions.create",
		Method: http.MethodPost,
		Path:   promotionsPath,
		Token:  identity.Token,
		Body:   newPromotionBody(req),
	}, &created)
	if err != nil {
		return nil, err
	}

	result := &CreateResult{
		Promotion:      created,
		Strategy:       s.Name(),
		LinkedProducts: []int64{},
	}

	for _, productID := range req.ProductIDs {
		err := b.DoJSON(ctx, backend.Request{
			Op:     "promotions.link_product",
			Method: http.MethodPost,
			Path:   productPromotionsPath,
			Token:  identity.Token,
			Body:   productLinkBody{ProductID: productID, PromotionID: created.ID},
		}, nil)
		if err != nil {
			result.FailedLinks = append(result.FailedLinks, LinkFailure{
				ProductID: productID,
				Message:   apierror.UserMessage(err),
			})
			continue
		}
		result.LinkedProducts = append(result.LinkedProducts, productID)
	}

	return result, nil
}

func newPromotionBody(req *CreatePromotionRequest) promotionBody {
	return promotionBody{
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Description: req.Description,
		Amount:      req.Amount,
		Active:      req.active(),
	}
}
