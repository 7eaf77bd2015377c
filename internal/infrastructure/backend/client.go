// internal/infrastructure/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/pkg/apierror"
)

// maxResponseBody caps how much of an upstream response is read
const maxResponseBody = 4 << 20

// Request describes one call to the storefront REST API
type Request struct {
	Op     string
	Method string
	Path   string
	Query  url.Values
	Token  string
	Body   interface{}
}

// Response is a raw upstream reply
type Response struct {
	Status int
	Body   []byte
}

// serverFault marks a 5xx reply so the breaker counts it as a failure
type serverFault struct {
	resp *Response
}

func (e *serverFault) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.resp.Status)
}

// Client talks to the remote REST API behind a circuit breaker
type Client struct {
	baseURL    string
	authScheme string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*Response]
	log        *logrus.Entry
}

// NewClient creates a backend client from configuration
func NewClient(cfg config.BackendConfig, logger *logrus.Logger) *Client {
	return NewClientWithHTTP(cfg, &http.Client{Timeout: cfg.Timeout}, logger)
}

// NewClientWithHTTP is NewClient with an explicit http.Client
func NewClientWithHTTP(cfg config.BackendConfig, httpClient *http.Client, logger *logrus.Logger) *Client {
	log := logger.WithField("component", "backend_client")

	minRequests := cfg.BreakerMinRequests
	ratio := cfg.BreakerFailureRatio

	settings := gobreaker.Settings{
		Name:        "storefront-backend",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// Caller-side cancellation says nothing about upstream health
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("backend circuit breaker changed state")
		},
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		authScheme: cfg.AuthScheme,
		httpClient: httpClient,
		breaker:    gobreaker.NewCircuitBreaker[*Response](settings),
		log:        log,
	}
}

// Do sends the request and returns the raw reply for any HTTP status.
// Only transport failures and an open breaker return an error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.breaker.Execute(func() (*Response, error) {
		resp, err := c.send(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.Status >= http.StatusInternalServerError {
			return nil, &serverFault{resp: resp}
		}
		return resp, nil
	})

	var fault *serverFault
	switch {
	case err == nil:
		return resp, nil
	case errors.As(err, &fault):
		return fault.resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.log.WithField("op", req.Op).Debug("backend call rejected by circuit breaker")
		return nil, apierror.Transport(req.Op, err)
	default:
		return nil, apierror.Transport(req.Op, err)
	}
}

// DoJSON sends the request and decodes a 2xx JSON reply into out.
// Non-2xx replies become normalized apierror values.
func (c *Client) DoJSON(ctx context.Context, req Request, out interface{}) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return apierror.ParseServerError(req.Op, resp.Status, resp.Body)
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &apierror.Error{
			Kind:    apierror.KindTransport,
			Op:      req.Op,
			Status:  resp.Status,
			Message: "malformed response",
			Err:     err,
		}
	}
	return nil
}

// BreakerState exposes the breaker state for readiness checks
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", c.authScheme+" "+req.Token)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"op":       req.Op,
		"method":   method,
		"path":     req.Path,
		"status":   httpResp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("backend call completed")

	return &Response{Status: httpResp.StatusCode, Body: respBody}, nil
}
