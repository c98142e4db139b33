package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/masterdata/products"
	"github.com/printdesk/printdesk/internal/platform/latency"
	"github.com/printdesk/printdesk/internal/sales/clients"
	"github.com/printdesk/printdesk/internal/shared"
)

type fixture struct {
	svc      *Service
	clients  *clients.Service
	products *products.Service
	tee      products.Product
	client   clients.Client
	audit    *shared.MemoryAuditTrail
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	sim := latency.New(0)
	clientSvc := clients.NewService(clients.NewMemoryRepository(sim), nil, nil)
	productSvc := products.NewService(products.NewMemoryRepository(sim), nil)
	audit := shared.NewMemoryAuditTrail()
	svc := NewService(NewMemoryRepository(sim), clientSvc, productSvc, audit, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 14, 9, 0, 0, 0, time.UTC) }
	clientSvc.UseOrderCounter(svc)

	tee, err := productSvc.Create(ctx, products.ProductForm{Name: "Cotton Tee", Category: "T-Shirt", BasePrice: 45000, Stock: 100})
	require.NoError(t, err)
	client, err := clientSvc.Create(ctx, clients.CreateClientRequest{Name: "Acme Corp", Phone: "0812000111"})
	require.NoError(t, err)
	return fixture{svc: svc, clients: clientSvc, products: productSvc, tee: tee, client: client, audit: audit}
}

func (f fixture) createOrder(t *testing.T, name string, qty int) Order {
	t.Helper()
	order, err := f.svc.Create(context.Background(), CreateOrderRequest{
		JobName:  name,
		ClientID: f.client.ID,
		Lines:    []LineRequest{{ProductID: f.tee.ID, Quantity: qty}},
	}, "u-sales")
	require.NoError(t, err)
	return order
}

func TestCreateOrderCopiesCatalogPriceAndNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.createOrder(t, "Company Shirts", 10)
	assert.Equal(t, "PD-20240514-0001", first.OrderNumber)
	assert.Equal(t, StatusPending, first.Status)
	assert.Equal(t, DeliverySelfCollect, first.DeliveryMethod)
	assert.Equal(t, "Acme Corp", first.ClientName)
	require.Len(t, first.Lines, 1)
	assert.Equal(t, 45000.0, first.Lines[0].UnitPrice)
	assert.Equal(t, 450000.0, first.Subtotal)
	assert.Equal(t, 450000.0, first.BalanceToPay)

	second := f.createOrder(t, "Event Tees", 1)
	assert.Equal(t, "PD-20240514-0002", second.OrderNumber)

	// catalog edits never reach historical orders
	_, err := f.products.Update(ctx, f.tee.ID, products.ProductForm{Name: "Cotton Tee", Category: "T-Shirt", BasePrice: 99000})
	require.NoError(t, err)
	reloaded, err := f.svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 45000.0, reloaded.Lines[0].UnitPrice)
}

func TestCreateOrderWithInlineClient(t *testing.T) {
	f := newFixture(t)
	order, err := f.svc.Create(context.Background(), CreateOrderRequest{
		JobName:   "Band Merch",
		NewClient: &NewClientRequest{Name: "The Rivets", Phone: "0813999000"},
	}, "u-sales")
	require.NoError(t, err)
	assert.Equal(t, "The Rivets", order.ClientName)

	client, err := f.clients.Get(context.Background(), order.ClientID)
	require.NoError(t, err)
	assert.Equal(t, "0813999000", client.Phone)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateOrderRequest{ClientID: f.client.ID}, "u")
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.svc.Create(ctx, CreateOrderRequest{JobName: "No Client"}, "u")
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Contains(t, err.(shared.FieldErrors), "client_id")

	_, err = f.svc.Create(ctx, CreateOrderRequest{JobName: "Ghost", ClientID: "missing"}, "u")
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.svc.Create(ctx, CreateOrderRequest{
		JobName:  "Bad Line",
		ClientID: f.client.ID,
		Lines:    []LineRequest{{ProductID: "nope", Quantity: 1}},
	}, "u")
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Contains(t, err.(shared.FieldErrors), "lines[0].product_id")
}

func TestTotalsCountOnlyApprovedPayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t, "Company Shirts", 10)

	updated, err := f.svc.Update(ctx, order.ID, UpdateOrderRequest{Payments: &PaymentsRequest{
		DesignDeposit: &PaymentRequest{Amount: 100000},
	}}, "u-sales")
	require.NoError(t, err)
	assert.Equal(t, 0.0, updated.TotalPaid)
	assert.Equal(t, 450000.0, updated.BalanceToPay)

	approved, err := f.svc.ApprovePayment(ctx, order.ID, "design_deposit", "u-manager")
	require.NoError(t, err)
	assert.True(t, approved.Payments.DesignDeposit.Approved)
	assert.NotNil(t, approved.Payments.DesignDeposit.PaidAt)
	assert.Equal(t, 100000.0, approved.TotalPaid)
	assert.Equal(t, 350000.0, approved.BalanceToPay)

	_, err = f.svc.ApprovePayment(ctx, order.ID, "design_deposit", "u-manager")
	require.ErrorIs(t, err, shared.ErrConflict)

	_, err = f.svc.ApprovePayment(ctx, order.ID, "balance_payment", "u-manager")
	require.ErrorIs(t, err, shared.ErrIllegalTransition)

	// a changed amount withdraws the approval
	changed, err := f.svc.Update(ctx, order.ID, UpdateOrderRequest{Payments: &PaymentsRequest{
		DesignDeposit: &PaymentRequest{Amount: 150000},
	}}, "u-sales")
	require.NoError(t, err)
	assert.False(t, changed.Payments.DesignDeposit.Approved)
	assert.Equal(t, 0.0, changed.TotalPaid)
	assert.Equal(t, changed.Subtotal-changed.TotalPaid, changed.BalanceToPay)
}

func TestChangeStatusFollowsTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t, "Company Shirts", 2)

	_, err := f.svc.ChangeStatus(ctx, order.ID, "in_delivery", "u")
	require.ErrorIs(t, err, shared.ErrIllegalTransition)

	_, err = f.svc.ChangeStatus(ctx, order.ID, "bogus", "u")
	require.ErrorIs(t, err, shared.ErrValidation)

	for _, step := range []string{"approved", "in_production", "ready_for_delivery", "delivered"} {
		order, err = f.svc.ChangeStatus(ctx, order.ID, step, "u")
		require.NoError(t, err, step)
	}
	assert.Equal(t, StatusCompleted, order.Status)

	_, err = f.svc.Update(ctx, order.ID, UpdateOrderRequest{}, "u")
	require.ErrorIs(t, err, shared.ErrIllegalTransition)

	history, err := f.svc.History(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, history, 5)
	assert.Equal(t, "order.create", history[0].Action)
}

func TestSyncProductionIsForwardOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t, "Company Shirts", 2)

	require.NoError(t, f.svc.SyncProduction(ctx, order.ID, "design", "in_progress"))
	got, _ := f.svc.Get(ctx, order.ID)
	assert.Equal(t, StatusInDesign, got.Status)

	require.NoError(t, f.svc.SyncProduction(ctx, order.ID, "print", "in_progress"))
	got, _ = f.svc.Get(ctx, order.ID)
	assert.Equal(t, StatusInProduction, got.Status)

	// a late design completion does not move the order backwards
	require.NoError(t, f.svc.SyncProduction(ctx, order.ID, "design", "completed"))
	got, _ = f.svc.Get(ctx, order.ID)
	assert.Equal(t, StatusInProduction, got.Status)

	require.NoError(t, f.svc.SyncProduction(ctx, order.ID, "print", "completed"))
	got, _ = f.svc.Get(ctx, order.ID)
	assert.Equal(t, StatusReadyForDelivery, got.Status)

	require.NoError(t, f.svc.SyncProduction(ctx, order.ID, "print", "pending"))
	require.ErrorIs(t, f.svc.SyncProduction(ctx, "missing", "print", "completed"), shared.ErrNotFound)
}

func TestSyncProductionLeavesCancelledOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t, "Company Shirts", 2)
	_, err := f.svc.ChangeStatus(ctx, order.ID, "cancelled", "u")
	require.NoError(t, err)

	require.NoError(t, f.svc.SyncProduction(ctx, order.ID, "print", "completed"))
	got, _ := f.svc.Get(ctx, order.ID)
	assert.Equal(t, StatusCancelled, got.Status)

	_, err = f.svc.OrderRef(ctx, order.ID)
	require.ErrorIs(t, err, shared.ErrIllegalTransition)
}

func TestListSearchAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirts := f.createOrder(t, "Company Shirts", 2)
	f.createOrder(t, "Event Tees", 3)
	_, err := f.svc.ChangeStatus(ctx, shirts.ID, "approved", "u")
	require.NoError(t, err)

	all, err := f.svc.List(ctx, ListOrdersRequest{Status: "all"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bySearch, err := f.svc.List(ctx, ListOrdersRequest{Search: "EVENT"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "Event Tees", bySearch[0].JobName)

	byNumber, err := f.svc.List(ctx, ListOrdersRequest{Search: shirts.OrderNumber})
	require.NoError(t, err)
	assert.Len(t, byNumber, 1)

	byClient, err := f.svc.List(ctx, ListOrdersRequest{Search: "acme"})
	require.NoError(t, err)
	assert.Len(t, byClient, 2)

	approved, err := f.svc.List(ctx, ListOrdersRequest{Status: "approved"})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, shirts.ID, approved[0].ID)

	_, err = f.svc.List(ctx, ListOrdersRequest{Status: "shipped"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestClientWithOrdersCannotBeDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t, "Company Shirts", 2)

	err := f.clients.Delete(ctx, f.client.ID)
	require.ErrorIs(t, err, shared.ErrConflict)

	require.NoError(t, f.svc.Delete(ctx, order.ID, "u-admin"))
	require.NoError(t, f.clients.Delete(ctx, f.client.ID))
}

func TestClientDeleteRacingOrderCreate(t *testing.T) {
	ctx := context.Background()
	sim := latency.New(5 * time.Millisecond)
	clientSvc := clients.NewService(clients.NewMemoryRepository(sim), nil, nil)
	productSvc := products.NewService(products.NewMemoryRepository(sim), nil)
	svc := NewService(NewMemoryRepository(sim), clientSvc, productSvc, nil, nil, nil)
	clientSvc.UseOrderCounter(svc)

	for i := 0; i < 10; i++ {
		client, err := clientSvc.Create(ctx, clients.CreateClientRequest{Name: "Racer", Phone: "0800"})
		require.NoError(t, err)

		var (
			wg        sync.WaitGroup
			createErr error
			deleteErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, createErr = svc.Create(ctx, CreateOrderRequest{JobName: "Race tees", ClientID: client.ID}, "u-sales")
		}()
		go func() {
			defer wg.Done()
			deleteErr = clientSvc.Delete(ctx, client.ID)
		}()
		wg.Wait()

		n, err := svc.CountByClient(ctx, client.ID)
		require.NoError(t, err)
		if deleteErr == nil {
			assert.Error(t, createErr, "order stored for a deleted client")
			assert.Zero(t, n)
		} else {
			require.ErrorIs(t, deleteErr, shared.ErrConflict)
			require.NoError(t, createErr)
			assert.Equal(t, 1, n)
		}
	}
}

func TestUpdateRejectsBlankJobName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t, "Company Shirts", 1)

	blank := "   "
	_, err := f.svc.Update(ctx, order.ID, UpdateOrderRequest{JobName: &blank}, "u-sales")
	var fields shared.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "is required", fields["job_name"])

	stored, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Company Shirts", stored.JobName)

	renamed := "  Company Polos "
	updated, err := f.svc.Update(ctx, order.ID, UpdateOrderRequest{JobName: &renamed}, "u-sales")
	require.NoError(t, err)
	assert.Equal(t, "Company Polos", updated.JobName)
}

type capturedEvent struct {
	key   string
	kind  string
	event Event
}

type fakePublisher struct {
	events []capturedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, key, eventType string, payload any) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, capturedEvent{key: key, kind: eventType, event: payload.(Event)})
	return nil
}

func TestOrderChangesArePublished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pub := &fakePublisher{}
	f.svc.WithEvents(pub)

	order := f.createOrder(t, "Company Shirts", 2)
	_, err := f.svc.ChangeStatus(ctx, order.ID, "approved", "u-sales")
	require.NoError(t, err)
	require.NoError(t, f.svc.SyncProduction(ctx, order.ID, "print", "in_progress"))

	require.Len(t, pub.events, 3)
	assert.Equal(t, "order.create", pub.events[0].kind)
	assert.Equal(t, order.ID, pub.events[0].key)
	assert.Equal(t, order.OrderNumber, pub.events[0].event.OrderNumber)
	assert.Equal(t, "order.status", pub.events[1].kind)
	assert.Equal(t, StatusApproved, pub.events[1].event.Status)
	assert.Equal(t, "order.sync", pub.events[2].kind)
	assert.Equal(t, "system", pub.events[2].event.Actor)
	assert.Equal(t, StatusInProduction, pub.events[2].event.Status)
}

func TestPublishFailureDoesNotFailTheWrite(t *testing.T) {
	f := newFixture(t)
	f.svc.WithEvents(&fakePublisher{err: errors.New("broker down")})

	order := f.createOrder(t, "Company Shirts", 2)
	stored, err := f.svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)
}
