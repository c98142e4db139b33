package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/masterdata/products"
	"github.com/printdesk/printdesk/internal/production"
	"github.com/printdesk/printdesk/internal/sales/orders"
	"github.com/printdesk/printdesk/jobs"
	pdtesting "github.com/printdesk/printdesk/testing"
)

func testConfig() *Config {
	return &Config{
		AppEnv:            "test",
		AppRequestTimeout: 5 * time.Second,
		SessionTTL:        time.Hour,
		SessionSecret:     "session",
		CSRFSecret:        "csrf",
		DemoPassword:      "printdesk",
		PhaseRoleMatching: "strict",
		OrderSyncMode:     SyncInline,
		Currency:          "IDR",
		DashboardCacheTTL: time.Minute,
		IdempotencyTTL:    time.Hour,
	}
}

func newContainer(t *testing.T) *Container {
	t.Helper()
	_, client := pdtesting.Redis(t)
	c, err := NewContainer(testConfig(), nil, Deps{Redis: client})
	require.NoError(t, err)
	return c
}

type apiClient struct {
	t     *testing.T
	base  string
	http  *http.Client
	token string
}

func newAPIClient(t *testing.T, handler http.Handler) *apiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &apiClient{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
}

func (c *apiClient) do(method, path string, body any, out any) int {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("X-CSRF-Token", c.token)
	}
	res, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer res.Body.Close()
	if out != nil && res.StatusCode < 300 {
		require.NoError(c.t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func (c *apiClient) login(email string) {
	c.t.Helper()
	var identity struct {
		CSRFToken string `json:"csrf_token"`
	}
	status := c.do(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": "printdesk"}, &identity)
	require.Equal(c.t, http.StatusOK, status)
	require.NotEmpty(c.t, identity.CSRFToken)
	c.token = identity.CSRFToken
}

func TestHealthAndMetricsAreOpen(t *testing.T) {
	api := newAPIClient(t, newContainer(t).Router())
	var health Health
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", nil, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, Version, health.Version)
	assert.Equal(t, SyncInline, health.OrderSyncMode)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/metrics", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/orders", nil, nil))
}

func TestMutationsRequireCSRFToken(t *testing.T) {
	c := newContainer(t)
	api := newAPIClient(t, c.Router())
	api.login("admin@printdesk.local")

	token := api.token
	api.token = ""
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/clients", map[string]string{"name": "A", "phone": "1"}, nil))

	api.token = "forged"
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/clients", map[string]string{"name": "A", "phone": "1"}, nil))

	api.token = token
	assert.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/clients", map[string]string{"name": "A", "phone": "1"}, nil))
}

func TestOrderLifecycleAcrossModules(t *testing.T) {
	c := newContainer(t)
	ctx := context.Background()
	tee, err := c.Products.Create(ctx, products.ProductForm{Name: "Tee", Category: "t-shirt", BasePrice: 50000, Stock: 100})
	require.NoError(t, err)

	api := newAPIClient(t, c.Router())
	api.login("admin@printdesk.local")

	var order orders.Order
	status := api.do(http.MethodPost, "/orders", map[string]any{
		"job_name":   "Finisher tees",
		"new_client": map[string]string{"name": "Harbor Running Club", "phone": "0812"},
		"lines":      []map[string]any{{"product_id": tee.ID, "quantity": 30}},
	}, &order)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, orders.StatusPending, order.Status)
	assert.InDelta(t, 1500000, order.Subtotal, 0.001)

	var job production.JobView
	status = api.do(http.MethodPost, "/jobs", map[string]any{"order_id": order.ID, "type": "print"}, &job)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, job.Phases)

	for _, phase := range job.Phases {
		require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/jobs/"+job.ID+"/phases/"+phase.ID+"/start", nil, nil), phase.Name)
		require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/jobs/"+job.ID+"/phases/"+phase.ID+"/end", nil, &job), phase.Name)
	}
	assert.Equal(t, production.JobCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)

	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/orders/"+order.ID, nil, &order))
	assert.Equal(t, orders.StatusReadyForDelivery, order.Status)

	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/deliveries/"+order.ID+"/deliver", nil, nil))
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/orders/"+order.ID, nil, &order))
	assert.Equal(t, orders.StatusCompleted, order.Status)

	stock, err := c.Products.Get(ctx, tee.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, stock.Stock)

	var summary struct {
		Orders struct {
			Total int `json:"total"`
		} `json:"orders"`
	}
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/dashboard", nil, &summary))
	assert.Equal(t, 1, summary.Orders.Total)

	assert.Equal(t, http.StatusNotImplemented, api.do(http.MethodGet, "/receipts/"+order.ID+"?format=pdf", nil, nil))
}

func TestProductionStaffCannotTouchOrders(t *testing.T) {
	api := newAPIClient(t, newContainer(t).Router())
	api.login("sew@printdesk.local")

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/orders", nil, nil))
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/jobs", nil, nil))
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/jobs", map[string]any{"order_id": "x", "type": "print"}, nil))
}

func TestSeedDemo(t *testing.T) {
	c := newContainer(t)
	require.NoError(t, c.Seed(context.Background()))

	list, err := c.Orders.List(context.Background(), orders.ListOrdersRequest{})
	require.NoError(t, err)
	assert.Len(t, list, 3)

	jobList, err := c.Production.List(context.Background(), production.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, jobList, 2)
}

func TestQueueModeNeedsClient(t *testing.T) {
	cfg := testConfig()
	cfg.OrderSyncMode = SyncQueue
	_, client := pdtesting.Redis(t)
	_, err := NewContainer(cfg, nil, Deps{Redis: client})
	assert.Error(t, err)
}

type eventSink struct{ types []string }

func (s *eventSink) Publish(_ context.Context, _, eventType string, _ any) error {
	s.types = append(s.types, eventType)
	return nil
}

func TestOrderEventsReachPublisher(t *testing.T) {
	_, client := pdtesting.Redis(t)
	sink := &eventSink{}
	c, err := NewContainer(testConfig(), nil, Deps{Redis: client, Events: sink})
	require.NoError(t, err)

	require.NoError(t, c.Seed(context.Background()))
	assert.Contains(t, sink.types, "order.create")
}

func TestWorkerConfigRegistersTasks(t *testing.T) {
	c := newContainer(t)
	wc := c.WorkerConfig(jobs.WorkerConfig{})
	require.Len(t, wc.Handlers, 2)
	assert.Empty(t, wc.Cron, "no cron without DASHBOARD_WARMUP_CRON")

	c.Config.DashboardWarmupCron = "*/5 * * * *"
	wc = c.WorkerConfig(jobs.WorkerConfig{})
	require.Len(t, wc.Cron, 1)
	assert.NotNil(t, wc.Logger)
}
