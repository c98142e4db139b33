package dashboard

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/production"
	"github.com/printdesk/printdesk/internal/sales/orders"
	"github.com/printdesk/printdesk/internal/shared"
)

type stubOrders struct {
	list  []orders.Order
	calls int32
}

func (s *stubOrders) List(context.Context, orders.ListOrdersRequest) ([]orders.Order, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.list, nil
}

func (s *stubOrders) Get(_ context.Context, id string) (orders.Order, error) {
	for _, o := range s.list {
		if o.ID == id {
			return o, nil
		}
	}
	return orders.Order{}, orders.ErrNotFound
}

type stubJobs struct{ list []production.JobView }

func (s stubJobs) List(context.Context, production.ListFilter) ([]production.JobView, error) {
	return s.list, nil
}

func minutes(n int) *int { return &n }

func sampleData() (*stubOrders, stubJobs) {
	base := time.Date(2024, 5, 14, 9, 0, 0, 0, time.UTC)
	ords := &stubOrders{list: []orders.Order{
		{ID: "o1", OrderNumber: "PD-20240514-0001", JobName: "Company Shirts", ClientName: "Acme", Status: orders.StatusInProduction,
			Subtotal: 450000, TotalPaid: 100000, BalanceToPay: 350000, CreatedAt: base},
		{ID: "o2", OrderNumber: "PD-20240514-0002", JobName: "Event Tees", ClientName: "Rivets", Status: orders.StatusReadyForDelivery,
			Subtotal: 200000, TotalPaid: 200000, BalanceToPay: 0, CreatedAt: base.Add(time.Hour)},
		{ID: "o3", OrderNumber: "PD-20240514-0003", JobName: "Cancelled Run", ClientName: "Acme", Status: orders.StatusCancelled,
			Subtotal: 999999, CreatedAt: base.Add(2 * time.Hour)},
	}}
	jobs := stubJobs{list: []production.JobView{
		{Job: production.Job{ID: "j1", Status: production.JobInProgress, Phases: []production.Phase{
			{Kind: production.KindPrint, Status: production.PhaseCompleted, DurationMinutes: minutes(40)},
			{Kind: production.KindPress, Status: production.PhaseInProgress},
		}}, Progress: 50},
		{Job: production.Job{ID: "j2", Status: production.JobCompleted, Phases: []production.Phase{
			{Kind: production.KindPrint, Status: production.PhaseCompleted, DurationMinutes: minutes(20)},
		}}, Progress: 100},
		{Job: production.Job{ID: "j3", Status: production.JobPending}},
	}}
	return ords, jobs
}

func newService(t *testing.T, cache *Cache, ords OrderSource, jobs JobSource) *Service {
	t.Helper()
	money, err := NewMoney("USD")
	require.NoError(t, err)
	svc := NewService(ords, jobs, cache, money, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 15, 8, 0, 0, 0, time.UTC) }
	return svc
}

func TestSummaryAggregatesSections(t *testing.T) {
	ords, jobs := sampleData()
	svc := newService(t, nil, ords, jobs)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Orders.Total)
	assert.Equal(t, 2, summary.Orders.Open)
	assert.Equal(t, 1, summary.Orders.ByStatus["cancelled"])
	assert.Equal(t, 0, summary.Orders.ByStatus["pending"])

	assert.Equal(t, 650000.0, summary.Revenue.Booked)
	assert.Equal(t, 300000.0, summary.Revenue.Collected)
	assert.Equal(t, 350000.0, summary.Revenue.Outstanding)
	assert.Equal(t, "USD 650,000.00", summary.Revenue.BookedText)

	assert.Equal(t, 1, summary.Jobs.Active)
	assert.Equal(t, 1, summary.Jobs.Completed)
	assert.Equal(t, 1, summary.Jobs.Pending)
	assert.Equal(t, 50, summary.Jobs.AverageProgress)
	assert.Equal(t, 30.0, summary.Jobs.PhaseMinutes["print"])

	assert.Equal(t, 1, summary.Deliveries.ReadyForDelivery)
	require.Len(t, summary.RecentOrders, 3)
	assert.Equal(t, "o3", summary.RecentOrders[0].ID)
}

func TestSummaryIsCachedUntilBump(t *testing.T) {
	cache, _ := newRedisCache(t)
	ords, jobs := sampleData()
	svc := newService(t, cache, ords, jobs)
	ctx := context.Background()

	_, err := svc.Summary(ctx)
	require.NoError(t, err)
	_, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ords.calls))

	require.NoError(t, cache.Bump(ctx))
	_, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&ords.calls))
}

func TestReceiptFormatsAmounts(t *testing.T) {
	ords := &stubOrders{list: []orders.Order{{
		ID: "o1", OrderNumber: "PD-20240514-0001", JobName: "Company Shirts", ClientName: "Acme",
		Lines:    []orders.Line{{ProductName: "Cotton Tee", Quantity: 10, UnitPrice: 45000, LineTotal: 450000}},
		Payments: orders.Payments{DesignDeposit: orders.Payment{Amount: 100000, Approved: true}},
		Subtotal: 450000, TotalPaid: 100000, BalanceToPay: 350000,
	}}}
	svc := newService(t, nil, ords, stubJobs{})

	receipt, err := svc.Receipt(context.Background(), "o1")
	require.NoError(t, err)
	require.Len(t, receipt.Lines, 1)
	assert.Equal(t, "USD 45,000.00", receipt.Lines[0].UnitPrice)
	require.Len(t, receipt.Payments, 1)
	assert.Equal(t, "Design deposit", receipt.Payments[0].Kind)
	assert.Equal(t, "USD 350,000.00", receipt.BalanceToPay)

	page, err := RenderHTML(receipt)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Receipt PD-20240514-0001")
	assert.Contains(t, string(page), "Cotton Tee")

	_, err = svc.Receipt(context.Background(), "missing")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRupiahUsesIndonesianGrouping(t *testing.T) {
	money, err := NewMoney("idr")
	require.NoError(t, err)
	assert.Equal(t, "IDR", money.Code())
	assert.Equal(t, "IDR 450.000,00", money.Format(450000))

	_, err = NewMoney("XXXX")
	require.Error(t, err)
}

func TestPDFExporterPostsHTMLToGotenberg(t *testing.T) {
	var gotHTML string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		reader := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			if part.FormName() == "files" {
				data, _ := io.ReadAll(part)
				gotHTML = string(data)
			}
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	exporter := NewPDFExporter(srv.URL, srv.Client())
	doc, err := exporter.RenderReceipt(context.Background(), Receipt{OrderNumber: "PD-1", JobName: "Tees"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(doc), "%PDF"))
	assert.Contains(t, gotHTML, "Receipt PD-1")

	assert.Nil(t, NewPDFExporter("", nil))
}
