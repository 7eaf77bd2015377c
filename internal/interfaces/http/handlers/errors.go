package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/warranty"
	"github.com/your-org/storefront/internal/pkg/apierror"
)

// statusFor maps a service error to the HTTP status shown to the browser
func statusFor(err error) int {
	if errors.Is(err, product.ErrProductNotFound) || errors.Is(err, warranty.ErrWarrantyNotFound) {
		return http.StatusNotFound
	}

	apiErr, ok := apierror.As(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch apiErr.Kind {
	case apierror.KindValidation:
		if apiErr.Unauthenticated {
			return http.StatusUnauthorized
		}
		return http.StatusBadRequest
	case apierror.KindTransport:
		return http.StatusServiceUnavailable
	case apierror.KindServerReported:
		switch {
		case apiErr.Status == http.StatusUnauthorized, apiErr.Status == http.StatusForbidden:
			return apiErr.Status
		case apiErr.Status >= 400 && apiErr.Status < 500:
			return http.StatusUnprocessableEntity
		default:
			return http.StatusBadGateway
		}
	default:
		return http.StatusInternalServerError
	}
}

// messageFor picks the most specific user-facing message for err
func messageFor(err error) string {
	var failed *checkout.FailedError
	if errors.As(err, &failed) && failed.Message != "" {
		return failed.Message
	}
	if errors.Is(err, product.ErrProductNotFound) {
		return "Product not found"
	}
	if errors.Is(err, warranty.ErrWarrantyNotFound) {
		return "Warranty not found"
	}
	if _, ok := apierror.As(err); ok {
		return apierror.UserMessage(err)
	}
	return "Internal server error"
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), gin.H{
		"error": messageFor(err),
	})
}
