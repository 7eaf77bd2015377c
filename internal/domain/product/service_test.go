package product_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/infrastructure/backend"
	"github.com/your-org/storefront/internal/pkg/apierror"
	"github.com/your-org/storefront/internal/pkg/logger"
)

var catalog = map[int64]string{
	1: `{"id":1,"description":"Lamp","price":"10.50","stock":4,"images":["lamp.png"],"status":"active"}`,
	2: `{"id":2,"description":"Bulb","price":3.99,"stock":1,"images":[],"status":"active"}`,
	3: `{"id":3,"description":"Shade","price":"7.00","stock":0,"images":[],"status":"active"}`,
}

func newService(t *testing.T, listBody string) *product.Service {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/products/" {
			assert.Equal(t, "lamp", r.URL.Query().Get("search"))
			_, _ = w.Write([]byte(listBody))
			return
		}
		var id int64
		if _, err := fmt.Sscanf(r.URL.Path, "/products/%d/", &id); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		body, ok := catalog[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Not found."}`))
			return
		}
		_, _ = w.Write([]byte(body))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := backend.NewClient(config.BackendConfig{
		BaseURL:             srv.URL,
		Timeout:             2 * time.Second,
		AuthScheme:          "Bearer",
		BreakerMaxRequests:  1,
		BreakerInterval:     time.Minute,
		BreakerOpenTimeout:  time.Minute,
		BreakerFailureRatio: 1,
		BreakerMinRequests:  100,
	}, logger.Discard())
	return product.NewService(client, logger.Discard())
}

func TestGetProducts_BothShapes(t *testing.T) {
	flat := newService(t, `[`+catalog[1]+`,`+catalog[2]+`]`)
	list, err := flat.GetProducts(context.Background(), product.ProductFilter{Search: "lamp"})
	require.NoError(t, err)
	assert.Len(t, list.Products, 2)
	assert.Equal(t, 2, list.Total)

	paged := newService(t, `{"count":30,"next":"http://x/?page=2","previous":null,"results":[`+catalog[1]+`]}`)
	list, err = paged.GetProducts(context.Background(), product.ProductFilter{Search: "lamp"})
	require.NoError(t, err)
	assert.Len(t, list.Products, 1)
	assert.Equal(t, 30, list.Total)
	assert.NotNil(t, list.Next)
	assert.True(t, decimal.RequireFromString("10.5").Equal(list.Products[0].Price))
}

func TestGetProduct(t *testing.T) {
	service := newService(t, `[]`)
	ctx := context.Background()

	p, err := service.GetProduct(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Bulb", p.Description)
	assert.True(t, p.IsAvailable())

	cp := p.ToCartProduct()
	assert.Equal(t, int64(2), cp.ID)
	assert.Equal(t, "3.99", cp.Price.String())

	_, err = service.GetProduct(ctx, 99)
	assert.True(t, errors.Is(err, product.ErrProductNotFound))

	_, err = service.GetProduct(ctx, 0)
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))
}

func TestValidateCart(t *testing.T) {
	service := newService(t, `[]`)

	validation, err := service.ValidateCart(context.Background(), []cart.LineItem{
		{ProductID: 1, Description: "Lamp", UnitPrice: decimal.RequireFromString("10.50"), Quantity: 1},
		{ProductID: 2, Description: "Bulb", UnitPrice: decimal.RequireFromString("3.50"), Quantity: 2},
		{ProductID: 3, Description: "Shade", UnitPrice: decimal.RequireFromString("7.00"), Quantity: 1},
		{ProductID: 99, Description: "Ghost", UnitPrice: decimal.NewFromInt(1), Quantity: 1},
	})
	require.NoError(t, err)
	assert.False(t, validation.IsValid)
	assert.Equal(t, []string{"Shade is out of stock", "Ghost is no longer available"}, validation.Errors)
	assert.Equal(t, []string{
		"Limited stock for Bulb. Available: 1",
		"Price of Bulb changed from 3.50 to 3.99",
	}, validation.Warnings)
	assert.Equal(t, "3.99", validation.PriceChanges[2].String())

	empty, err := service.ValidateCart(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, empty.IsValid)
}

func TestProductFilterQuery(t *testing.T) {
	min := decimal.NewFromInt(5)
	q := product.ProductFilter{Search: "desk", SubcategoryID: 3, MinPrice: &min, Page: 2}.Query()
	assert.Equal(t, "desk", q.Get("search"))
	assert.Equal(t, "3", q.Get("subcategory"))
	assert.Equal(t, "5", q.Get("min_price"))
	assert.Equal(t, "2", q.Get("page"))
	assert.Empty(t, q.Get("max_price"))
	assert.Empty(t, product.ProductFilter{Page: 1}.Query())
}
