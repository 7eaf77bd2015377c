package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/warranty"
	"github.com/your-org/storefront/internal/pkg/apierror"
)

func TestStatusAndMessageFor(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", apierror.Validation("op", "cart is empty"), http.StatusBadRequest, "cart is empty"},
		{"unauthenticated", apierror.Unauthenticated("op", "sign in"), http.StatusUnauthorized, "sign in"},
		{"transport", apierror.Transport("op", errors.New("dial tcp: refused")), http.StatusServiceUnavailable, "could not reach server"},
		{"upstream rejection", apierror.ServerReported("op", http.StatusBadRequest, "amount: too small"), http.StatusUnprocessableEntity, "amount: too small"},
		{"upstream forbidden", apierror.ServerReported("op", http.StatusForbidden, "not allowed"), http.StatusForbidden, "not allowed"},
		{"upstream fault", apierror.ServerReported("op", http.StatusInternalServerError, "boom"), http.StatusBadGateway, "boom"},
		{"not found", fmt.Errorf("%w: 4", product.ErrProductNotFound), http.StatusNotFound, "Product not found"},
		{"warranty not found", fmt.Errorf("%w: 9", warranty.ErrWarrantyNotFound), http.StatusNotFound, "Warranty not found"},
		{
			"failed checkout keeps underlying kind",
			&checkout.FailedError{Message: "could not reach server", Err: apierror.Transport("op", errors.New("timeout"))},
			http.StatusServiceUnavailable, "could not reach server",
		},
		{"unknown", errors.New("bug"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, statusFor(tc.err))
			assert.Equal(t, tc.message, messageFor(tc.err))
		})
	}
}
