package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/payment"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/promotion"
	"github.com/your-org/storefront/internal/domain/warranty"
	"github.com/your-org/storefront/internal/infrastructure/backend"
	"github.com/your-org/storefront/internal/infrastructure/database/memory"
	"github.com/your-org/storefront/internal/pkg/auth"
	"github.com/your-org/storefront/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type upstreamCounters struct {
	checkouts int32
	verifies  int32
}

// fakeUpstream stands in for the REST API behind the storefront
func fakeUpstream(t *testing.T) (*httptest.Server, *upstreamCounters) {
	t.Helper()
	counters := &upstreamCounters{}

	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}

	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/":
			reply(w, http.StatusOK, `{"count":1,"next":null,"previous":null,"results":[
				{"id":1,"description":"Lamp","price":"19.99","stock":5,"status":"active"}]}`)
		case "/products/1/":
			reply(w, http.StatusOK, `{"id":1,"description":"Lamp","price":"19.99","stock":5,"status":"active"}`)
		case "/products/2/":
			reply(w, http.StatusOK, `{"id":2,"description":"Rug","price":"80.00","stock":0,"status":"active"}`)
		default:
			reply(w, http.StatusNotFound, `{"detail":"Not found."}`)
		}
	})
	mux.HandleFunc("/checkout-session/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&counters.checkouts, 1)
		reply(w, http.StatusOK, `{"checkout_url":"https://pay.example.com/cs_1","session_id":"cs_1"}`)
	})
	mux.HandleFunc("/verify-payment/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&counters.verifies, 1)
		reply(w, http.StatusOK, `{"payment_succeeded":true,"order_id":31,"total_amount":"39.98"}`)
	})
	mux.HandleFunc("/orders/", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `[
			{"id":1,"date":"2026-01-02T10:00:00Z","total":"10.00","status":"paid","user_id":7},
			{"id":2,"date":"2026-01-03T10:00:00Z","total":"20.00","status":"paid","user":{"id":8}}]`)
	})
	mux.HandleFunc("/order-details/", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `[
			{"id":10,"order":2,"product":1,"quantity":1,"subtotal":"19.99"},
			{"id":11,"order":1,"product":2,"quantity":1,"subtotal":"80.00"}]`)
	})
	mux.HandleFunc("/payments/", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `[{"id":40,"order":{"id":2},"amount":"20.00","method":"card","status":"completed"}]`)
	})
	mux.HandleFunc("/warranties/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/warranties/" && r.Method == http.MethodGet:
			reply(w, http.StatusOK, `[
				{"id":3,"description":"Bulb cover","months":12,"product":1},
				{"id":4,"description":"Weave","months":24,"product":{"id":2}}]`)
		case r.URL.Path == "/warranties/" && r.Method == http.MethodPost:
			reply(w, http.StatusCreated, `{"id":5,"description":"Motor","months":6,"product_id":1}`)
		case r.URL.Path == "/warranties/3/" && r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			reply(w, http.StatusNotFound, `{"detail":"Not found."}`)
		}
	})
	mux.HandleFunc("/promotions/", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusCreated, `{"id":5,"start_date":"2026-11-01","end_date":"2026-11-30",
			"description":"Winter","amount":"10.50","active":true}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, counters
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		App:    config.AppConfig{Name: "Storefront", Version: "test", Environment: "test"},
		Server: config.ServerConfig{Port: "0", RequestTimeout: 5 * time.Second},
		JWT: config.JWTConfig{
			Secret:            "0123456789abcdef0123456789abcdef",
			AccessTokenExpiry: time.Hour,
		},
		Security: config.SecurityConfig{
			CORSAllowedOrigins: []string{"http://localhost:3000"},
			CORSAllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
			CORSAllowedHeaders: []string{"Content-Type", "Authorization"},
		},
		Backend: config.BackendConfig{
			BaseURL:             baseURL,
			Timeout:             2 * time.Second,
			AuthScheme:          "Bearer",
			BreakerMaxRequests:  1,
			BreakerInterval:     time.Minute,
			BreakerOpenTimeout:  time.Minute,
			BreakerFailureRatio: 1,
			BreakerMinRequests:  100,
		},
		Cart: config.CartConfig{
			KeyPrefix:    "cart:session:",
			CookieName:   "session_id",
			CookieMaxAge: 3600,
		},
	}
}

type testApp struct {
	t         *testing.T
	cfg       *config.Config
	server    *Server
	handler   http.Handler
	registry  *cart.Registry
	snapshots *memory.SnapshotStore
	upstream  *upstreamCounters
}

func newTestApp(t *testing.T, checks map[string]HealthChecker) *testApp {
	t.Helper()
	srv, counters := fakeUpstream(t)
	cfg := testConfig(srv.URL)
	log := logger.Discard()

	client := backend.NewClient(cfg.Backend, log)
	snapshots := memory.NewSnapshotStore()
	registry := cart.NewRegistry(snapshots, cfg.Cart.KeyPrefix, log)
	attributions := payment.NewAttributions(snapshots, registry, log)
	products := product.NewService(client, log)

	server := NewServer(cfg, log, Dependencies{
		Registry:     registry,
		Products:     products,
		Checkout:     checkout.NewService(client, attributions, log),
		Verifier:     payment.NewVerifier(client, memory.NewLedger(), log, payment.WithPayingCarts(attributions)),
		Orders:       order.NewService(client, products, log),
		Promotions:   promotion.NewService(client, log),
		Warranties:   warranty.NewService(client, log),
		HealthChecks: checks,
		Backend:      client,
	})

	return &testApp{
		t:         t,
		cfg:       cfg,
		server:    server,
		handler:   server.Handler(),
		registry:  registry,
		snapshots: snapshots,
		upstream:  counters,
	}
}

func (a *testApp) token(userID uint, isAdmin bool) string {
	a.t.Helper()
	token, err := auth.NewJWTManager(a.cfg).GenerateAccessToken(userID, "shopper@example.com", isAdmin)
	require.NoError(a.t, err)
	return token
}

type envelope struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type call struct {
	method string
	path   string
	body   string
	cookie *http.Cookie
	token  string
}

func (a *testApp) do(c call) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	req := httptest.NewRequest(c.method, c.path, strings.NewReader(c.body))
	if c.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "session_id" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

type cartData struct {
	Items  []cart.LineItem `json:"items"`
	Totals cart.Totals     `json:"totals"`
}

func decodeCart(t *testing.T, env envelope) cartData {
	t.Helper()
	var data cartData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data
}

func TestCartEndpoints(t *testing.T) {
	app := newTestApp(t, nil)

	w, env := app.do(call{method: http.MethodPost, path: "/api/v1/cart/items", body: `{"product_id":1}`})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookie := sessionCookie(t, w)
	assert.True(t, cookie.HttpOnly)

	_, env = app.do(call{method: http.MethodPost, path: "/api/v1/cart/items", body: `{"product_id":1}`, cookie: cookie})
	data := decodeCart(t, env)
	require.Len(t, data.Items, 1)
	assert.Equal(t, 2, data.Items[0].Quantity)
	assert.Equal(t, "39.98", data.Totals.Display)

	w, env = app.do(call{method: http.MethodGet, path: "/api/v1/cart/count", cookie: cookie})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":2}`, string(env.Data))

	w, _ = app.do(call{method: http.MethodPut, path: "/api/v1/cart/items/1", body: `{"quantity":5}`, cookie: cookie})
	assert.Equal(t, http.StatusOK, w.Code)
	store, ok := app.registry.Lookup(cookie.Value)
	require.True(t, ok)
	assert.Equal(t, 5, store.Count())
	assert.True(t, app.snapshots.Has("cart:session:"+cookie.Value))

	w, _ = app.do(call{method: http.MethodPut, path: "/api/v1/cart/items/99", body: `{"quantity":1}`, cookie: cookie})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = app.do(call{method: http.MethodDelete, path: "/api/v1/cart/items/99", cookie: cookie})
	assert.Equal(t, http.StatusOK, w.Code, "removing an absent product is not an error")

	w, _ = app.do(call{method: http.MethodPut, path: "/api/v1/cart/items/1", body: `{"quantity":0}`, cookie: cookie})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.IsEmpty())

	w, _ = app.do(call{method: http.MethodDelete, path: "/api/v1/cart", cookie: cookie})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, app.snapshots.Has("cart:session:"+cookie.Value))
}

func TestCartEndpoints_Rejections(t *testing.T) {
	app := newTestApp(t, nil)

	cases := []struct {
		name   string
		call   call
		status int
		error  string
	}{
		{"out of stock", call{method: http.MethodPost, path: "/api/v1/cart/items", body: `{"product_id":2}`}, http.StatusConflict, "Rug is out of stock"},
		{"unknown product", call{method: http.MethodPost, path: "/api/v1/cart/items", body: `{"product_id":9}`}, http.StatusNotFound, "Product not found"},
		{"missing product id", call{method: http.MethodPost, path: "/api/v1/cart/items", body: `{}`}, http.StatusBadRequest, "Invalid request data"},
		{"bad path id", call{method: http.MethodDelete, path: "/api/v1/cart/items/abc"}, http.StatusBadRequest, "Invalid product ID"},
		{"missing quantity", call{method: http.MethodPut, path: "/api/v1/cart/items/1", body: `{}`}, http.StatusBadRequest, "Invalid request data"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, env := app.do(tc.call)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.error, env.Error)
		})
	}
}

func TestCart_TabsShareSessionStore(t *testing.T) {
	app := newTestApp(t, nil)

	w, _ := app.do(call{method: http.MethodGet, path: "/api/v1/cart"})
	cookie := sessionCookie(t, w)

	// a second tab sends the same cookie
	app.do(call{method: http.MethodPost, path: "/api/v1/cart/items", body: `{"product_id":1}`, cookie: cookie})
	_, env := app.do(call{method: http.MethodGet, path: "/api/v1/cart", cookie: cookie})
	assert.Len(t, decodeCart(t, env).Items, 1)

	// a different browser does not
	_, env = app.do(call{method: http.MethodGet, path: "/api/v1/cart"})
	assert.Empty(t, decodeCart(t, env).Items)

	// a forged cookie is replaced rather than used as a storage key
	w, _ = app.do(call{method: http.MethodGet, path: "/api/v1/cart", cookie: &http.Cookie{Name: "session_id", Value: "../../etc"}})
	assert.NotEqual(t, "../../etc", sessionCookie(t, w).Value)
}

func TestCart_ValidateAgainstCatalog(t *testing.T) {
	app := newTestApp(t, nil)

	w, _ := app.do(call{method: http.MethodPost, path: "/api/v1/cart/validate"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty cart is invalid")
	cookie := sessionCookie(t, w)

	app.do(call{method: http.MethodPost, path: "/api/v1/cart/items", body: `{"product_id":1}`, cookie: cookie})
	w, env := app.do(call{method: http.MethodPost, path: "/api/v1/cart/validate", cookie: cookie})
	assert.Equal(t, http.StatusOK, w.Code)

	var validation product.CartValidation
	require.NoError(t, json.Unmarshal(env.Data, &validation))
	assert.True(t, validation.IsValid)
}

func TestCheckoutAndVerify(t *testing.T) {
	app := newTestApp(t, nil)
	token := app.token(7, false)

	w, env := app.do(call{method: http.MethodPost, path: "/api/v1/checkout", token: token})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "cart is empty", env.Error)
	cookie := sessionCookie(t, w)

	app.do(call{method: http.MethodPost, path: "/api/v1/cart/items", body: `{"product_id":1}`, cookie: cookie})

	w, env = app.do(call{method: http.MethodPost, path: "/api/v1/checkout", cookie: cookie})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "sign in to check out", env.Error)
	assert.Zero(t, atomic.LoadInt32(&app.upstream.checkouts), "local preconditions make no network call")

	w, env = app.do(call{method: http.MethodPost, path: "/api/v1/checkout", cookie: cookie, token: token})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var session checkout.Session
	require.NoError(t, json.Unmarshal(env.Data, &session))
	assert.Equal(t, "cs_1", session.SessionID)
	assert.Equal(t, "https://pay.example.com/cs_1", session.CheckoutURL)

	store, _ := app.registry.Lookup(cookie.Value)
	assert.Equal(t, 1, store.Count(), "starting a checkout leaves the cart alone")

	w, env = app.do(call{method: http.MethodGet, path: "/api/v1/checkout/verify?session_id=cs_1", cookie: cookie, token: token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var outcome payment.Outcome
	require.NoError(t, json.Unmarshal(env.Data, &outcome))
	assert.Equal(t, payment.StateSucceeded, outcome.State)
	assert.True(t, outcome.CartCleared)
	assert.True(t, store.IsEmpty())

	// reloading the return page does not clear a refilled cart
	app.do(call{method: http.MethodPost, path: "/api/v1/cart/items", body: `{"product_id":1}`, cookie: cookie})
	_, env = app.do(call{method: http.MethodGet, path: "/api/v1/checkout/verify?session_id=cs_1", cookie: cookie, token: token})
	require.NoError(t, json.Unmarshal(env.Data, &outcome))
	assert.True(t, outcome.AlreadyReconciled)
	assert.Equal(t, 1, store.Count())

	w, env = app.do(call{method: http.MethodGet, path: "/api/v1/checkout/verify", cookie: cookie})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing checkout session id", env.Error)
}

func TestVerifyFromAnotherBrowserClearsPayingCart(t *testing.T) {
	app := newTestApp(t, nil)
	token := app.token(7, false)

	w, _ := app.do(call{method: http.MethodPost, path: "/api/v1/cart/items", body: `{"product_id":1}`})
	cookie := sessionCookie(t, w)
	w, _ = app.do(call{method: http.MethodPost, path: "/api/v1/checkout", cookie: cookie, token: token})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// the payment page returns into a browser without the cart cookie
	w, env := app.do(call{method: http.MethodGet, path: "/api/v1/checkout/verify?session_id=cs_1", token: token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var outcome payment.Outcome
	require.NoError(t, json.Unmarshal(env.Data, &outcome))
	assert.True(t, outcome.CartCleared)

	store, ok := app.registry.Lookup(cookie.Value)
	require.True(t, ok)
	assert.True(t, store.IsEmpty())

	_, env = app.do(call{method: http.MethodGet, path: "/api/v1/checkout/verify?session_id=cs_1", cookie: cookie, token: token})
	require.NoError(t, json.Unmarshal(env.Data, &outcome))
	assert.True(t, outcome.AlreadyReconciled)
}

func TestAddQuantityIsBounded(t *testing.T) {
	app := newTestApp(t, nil)

	w, env := app.do(call{method: http.MethodPost, path: "/api/v1/cart/items", body: `{"product_id":1,"quantity":3}`})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookie := sessionCookie(t, w)
	assert.Equal(t, 3, decodeCart(t, env).Items[0].Quantity)

	w, _ = app.do(call{method: http.MethodPut, path: "/api/v1/cart/items/1", body: `{"quantity":9223372036854775807}`, cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, env = app.do(call{method: http.MethodPost, path: "/api/v1/cart/items", body: `{"product_id":1,"quantity":9223372036854775807}`, cookie: cookie})

	data := decodeCart(t, env)
	require.Len(t, data.Items, 1)
	assert.Equal(t, cart.QuantityLimit, data.Items[0].Quantity)
	assert.Equal(t, cart.QuantityLimit, data.Totals.Count)
}

func TestOrders(t *testing.T) {
	app := newTestApp(t, nil)

	w, _ := app.do(call{method: http.MethodGet, path: "/api/v1/orders"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := app.do(call{method: http.MethodGet, path: "/api/v1/orders", token: app.token(8, false)})
	require.Equal(t, http.StatusOK, w.Code)
	var orders order.OrderResponse
	require.NoError(t, json.Unmarshal(env.Data, &orders))
	require.Len(t, orders.Orders, 1)
	assert.Equal(t, int64(2), orders.Orders[0].ID)
	require.Len(t, orders.Orders[0].Details, 1)
	assert.Equal(t, "Lamp", orders.Orders[0].Details[0].Product.Description)
	require.Len(t, orders.Orders[0].Payments, 1)
	assert.Equal(t, "card", orders.Orders[0].Payments[0].Method)
}

func TestProducts(t *testing.T) {
	app := newTestApp(t, nil)

	w, env := app.do(call{method: http.MethodGet, path: "/api/v1/products?search=lamp&min_price=5"})
	require.Equal(t, http.StatusOK, w.Code)
	var list product.ProductListResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Total)

	w, _ = app.do(call{method: http.MethodGet, path: "/api/v1/products?min_price=cheap"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(call{method: http.MethodGet, path: "/api/v1/products/42"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminPromotions(t *testing.T) {
	app := newTestApp(t, nil)
	body := `{"start_date":"2026-11-01","end_date":"2026-11-30","description":"Winter","amount":"10.5","product_ids":[1]}`

	w, _ := app.do(call{method: http.MethodPost, path: "/api/v1/admin/promotions", body: body, token: app.token(7, false)})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := app.do(call{method: http.MethodPost, path: "/api/v1/admin/promotions", body: body, token: app.token(1, true)})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var result promotion.CreateResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "single_request", result.Strategy)
	assert.Equal(t, []int64{1}, result.LinkedProducts)

	w, env = app.do(call{method: http.MethodPost, path: "/api/v1/admin/promotions",
		body: `{"description":"","amount":"0"}`, token: app.token(1, true)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "description is required")
}

type checkerFunc func() error

func (f checkerFunc) Health() error { return f() }

func TestWarranties(t *testing.T) {
	app := newTestApp(t, nil)
	admin := app.token(1, true)

	w, _ := app.do(call{method: http.MethodGet, path: "/api/v1/admin/warranties", token: app.token(7, false)})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := app.do(call{method: http.MethodGet, path: "/api/v1/admin/warranties?months_min=6", token: admin})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page warranty.ListResponse
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Warranties, 2)

	w, _ = app.do(call{method: http.MethodGet, path: "/api/v1/admin/warranties?page=x", token: admin})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = app.do(call{method: http.MethodGet, path: "/api/v1/products/2/warranties"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var forRug []warranty.Warranty
	require.NoError(t, json.Unmarshal(env.Data, &forRug))
	require.Len(t, forRug, 1)
	assert.Equal(t, "Weave", forRug[0].Description)

	w, env = app.do(call{method: http.MethodPost, path: "/api/v1/admin/warranties",
		body: `{"description":"Motor","months":6,"product_id":1}`, token: admin})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created warranty.Warranty
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, int64(5), created.ID)

	w, env = app.do(call{method: http.MethodPost, path: "/api/v1/admin/warranties",
		body: `{"description":"Motor","months":0,"product_id":1}`, token: admin})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "months must be greater than 0")

	w, _ = app.do(call{method: http.MethodDelete, path: "/api/v1/admin/warranties/3", token: admin})
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = app.do(call{method: http.MethodGet, path: "/api/v1/admin/warranties/9", token: admin})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Warranty not found", env.Error)
}

func TestHealthAndReadiness(t *testing.T) {
	healthy := newTestApp(t, map[string]HealthChecker{"redis": checkerFunc(func() error { return nil })})
	w, _ := healthy.do(call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = healthy.do(call{method: http.MethodGet, path: "/ready"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"backend_breaker":"closed"`)

	broken := newTestApp(t, map[string]HealthChecker{"database": checkerFunc(func() error { return errors.New("down") })})
	w, env := broken.do(call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "database ping failed", env.Error)
}

func TestCartEventsStream(t *testing.T) {
	app := newTestApp(t, nil)

	w, _ := app.do(call{method: http.MethodGet, path: "/api/v1/cart"})
	cookie := sessionCookie(t, w)
	store, ok := app.registry.Lookup(cookie.Value)
	require.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/events", nil).WithContext(ctx)
	req.AddCookie(cookie)
	stream := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		app.handler.ServeHTTP(stream, req)
	}()

	// another tab changes the cart while the stream is open
	time.Sleep(100 * time.Millisecond)
	store.Add(context.Background(), cart.Product{ID: 1, Description: "Lamp"})
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after the client went away")
	}

	body := stream.Body.String()
	assert.Contains(t, body, "event:snapshot")
	assert.Contains(t, body, "event:item_added")
	assert.Contains(t, body, `"count":1`)
	assert.Equal(t, "text/event-stream", stream.Header().Get("Content-Type"))
}
