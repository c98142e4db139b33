package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/printdesk/printdesk/internal/masterdata/products"
	"github.com/printdesk/printdesk/internal/production"
	"github.com/printdesk/printdesk/internal/sales/clients"
	salesshared "github.com/printdesk/printdesk/internal/sales/shared"
	"github.com/printdesk/printdesk/internal/shared"
)

// AuditEntity names orders in the audit trail.
const AuditEntity = "order"

// ClientDirectory resolves or registers the client of an order.
type ClientDirectory interface {
	Get(ctx context.Context, id string) (clients.Client, error)
	Create(ctx context.Context, req clients.CreateClientRequest) (clients.Client, error)
	Hold(ctx context.Context, id string, fn func(clients.Client) error) error
}

// Catalog resolves products for order lines.
type Catalog interface {
	Get(ctx context.Context, id string) (products.Product, error)
}

// Invalidator drops cached read models after a write.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// EventPublisher emits order lifecycle events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, key, eventType string, payload any) error
}

// Event is the payload published for every recorded order change.
type Event struct {
	OrderID      string         `json:"order_id"`
	OrderNumber  string         `json:"order_number"`
	Status       OrderStatus    `json:"status"`
	BalanceToPay float64        `json:"balance_to_pay"`
	Actor        string         `json:"actor"`
	Meta         map[string]any `json:"meta,omitempty"`
}

var errUnchanged = errors.New("order unchanged")

// Service manages order intake, payments and status.
type Service struct {
	repo    Repository
	clients ClientDirectory
	catalog Catalog
	audit   shared.AuditTrail
	cache   Invalidator
	events  EventPublisher
	logger  *slog.Logger
	now     func() time.Time
}

// NewService constructs the order service.
func NewService(repo Repository, clientDir ClientDirectory, catalog Catalog, audit shared.AuditTrail, cache Invalidator, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NewMemoryAuditTrail()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		clients: clientDir,
		catalog: catalog,
		audit:   audit,
		cache:   cache,
		logger:  logger.With(slog.String("module", "orders")),
		now:     time.Now,
	}
}

// WithEvents attaches an event publisher. Publish failures are logged only.
func (s *Service) WithEvents(p EventPublisher) *Service {
	s.events = p
	return s
}

func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	return s.repo.Get(ctx, id)
}

// List filters orders by search term and status. An empty status or "all"
// matches every order.
func (s *Service) List(ctx context.Context, req ListOrdersRequest) ([]Order, error) {
	filter := Filter{Search: req.Search, ClientID: req.ClientID}
	raw := strings.TrimSpace(req.Status)
	if raw != "" && !strings.EqualFold(raw, "all") {
		status, ok := ParseStatus(raw)
		if !ok {
			return nil, shared.FieldErrors{"status": "is not a known order status"}
		}
		filter.Statuses = []OrderStatus{status}
	}
	return s.repo.List(ctx, filter)
}

// ListByStatus returns orders in any of statuses, optionally restricted to a
// delivery method.
func (s *Service) ListByStatus(ctx context.Context, method DeliveryMethod, statuses ...OrderStatus) ([]Order, error) {
	return s.repo.List(ctx, Filter{Statuses: statuses, Method: method})
}

func (s *Service) Create(ctx context.Context, req CreateOrderRequest, actor string) (Order, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return Order{}, err
	}
	if strings.TrimSpace(req.JobName) == "" {
		return Order{}, shared.FieldErrors{"job_name": "is required"}
	}
	client, err := s.resolveClient(ctx, req)
	if err != nil {
		return Order{}, err
	}
	lines, err := s.buildLines(ctx, req.Lines)
	if err != nil {
		return Order{}, err
	}

	now := s.now().UTC()
	number, err := s.repo.NextNumber(ctx, now)
	if err != nil {
		return Order{}, err
	}
	method := req.DeliveryMethod
	if method == "" {
		method = DeliverySelfCollect
	}
	order := Order{
		ID:             uuid.NewString(),
		OrderNumber:    number,
		JobName:        strings.TrimSpace(req.JobName),
		ClientID:       client.ID,
		ClientName:     client.Name,
		DeliveryMethod: method,
		Lines:          lines,
		Status:         StatusPending,
		Notes:          strings.TrimSpace(req.Notes),
		CreatedBy:      actor,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	applyPayments(&order.Payments, req.Payments)
	recalculate(&order)
	err = s.clients.Hold(ctx, client.ID, func(clients.Client) error {
		return s.repo.Create(ctx, order)
	})
	if errors.Is(err, clients.ErrNotFound) {
		return Order{}, shared.FieldErrors{"client_id": "does not exist"}
	}
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	s.logger.Info("order created", slog.String("order", order.OrderNumber), slog.String("client", client.ID))
	s.record(ctx, actor, "order.create", order, map[string]any{"lines": len(order.Lines), "subtotal": order.Subtotal})
	s.invalidate(ctx)
	return order, nil
}

func (s *Service) resolveClient(ctx context.Context, req CreateOrderRequest) (clients.Client, error) {
	if id := strings.TrimSpace(req.ClientID); id != "" {
		client, err := s.clients.Get(ctx, id)
		if errors.Is(err, shared.ErrNotFound) {
			return clients.Client{}, shared.FieldErrors{"client_id": "does not exist"}
		}
		return client, err
	}
	if req.NewClient != nil {
		return s.clients.Create(ctx, clients.CreateClientRequest{
			Name:  req.NewClient.Name,
			Phone: req.NewClient.Phone,
			Email: req.NewClient.Email,
		})
	}
	return clients.Client{}, shared.FieldErrors{"client_id": "is required"}
}

// buildLines snapshots product name and price so catalog edits never reach
// existing orders.
func (s *Service) buildLines(ctx context.Context, reqs []LineRequest) ([]Line, error) {
	lines := make([]Line, 0, len(reqs))
	for i, lr := range reqs {
		product, err := s.catalog.Get(ctx, lr.ProductID)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.FieldErrors{fmt.Sprintf("lines[%d].product_id", i): "does not exist"}
		}
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, shared.FieldErrors{fmt.Sprintf("lines[%d].product_id", i): "is inactive"}
		}
		price := product.BasePrice
		if lr.UnitPrice != nil {
			price = *lr.UnitPrice
		}
		lines = append(lines, Line{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    lr.Quantity,
			UnitPrice:   salesshared.RoundMoney(price),
		})
	}
	return lines, nil
}

// Update edits an open order. Changing a payment amount withdraws its approval.
func (s *Service) Update(ctx context.Context, id string, req UpdateOrderRequest, actor string) (Order, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return Order{}, err
	}
	var jobName string
	if req.JobName != nil {
		jobName = strings.TrimSpace(*req.JobName)
		if jobName == "" {
			return Order{}, shared.FieldErrors{"job_name": "is required"}
		}
	}
	var lines []Line
	if req.Lines != nil {
		built, err := s.buildLines(ctx, *req.Lines)
		if err != nil {
			return Order{}, err
		}
		lines = built
	}
	return s.Mutate(ctx, id, actor, "order.update", func(o *Order) error {
		if o.Status.Terminal() {
			return fmt.Errorf("%w: order %s is %s", shared.ErrIllegalTransition, o.OrderNumber, o.Status)
		}
		if req.JobName != nil {
			o.JobName = jobName
		}
		if req.DeliveryMethod != nil {
			o.DeliveryMethod = *req.DeliveryMethod
		}
		if req.Lines != nil {
			o.Lines = lines
		}
		if req.Notes != nil {
			o.Notes = strings.TrimSpace(*req.Notes)
		}
		applyPayments(&o.Payments, req.Payments)
		return nil
	})
}

// ChangeStatus moves the order along the status table.
func (s *Service) ChangeStatus(ctx context.Context, id, raw, actor string) (Order, error) {
	target, ok := ParseStatus(raw)
	if !ok {
		return Order{}, shared.FieldErrors{"status": "is not a known order status"}
	}
	var from OrderStatus
	order, err := s.Mutate(ctx, id, actor, "order.status", func(o *Order) error {
		from = o.Status
		if !CanTransition(o.Status, target) {
			return fmt.Errorf("%w: order cannot move from %s to %s", shared.ErrIllegalTransition, o.Status, target)
		}
		o.Status = target
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	s.logger.Info("order status changed",
		slog.String("order", order.OrderNumber),
		slog.String("from", string(from)),
		slog.String("to", string(target)))
	return order, nil
}

// ApprovePayment confirms one payment so it counts toward total_paid.
func (s *Service) ApprovePayment(ctx context.Context, id, rawKind, actor string) (Order, error) {
	kind, ok := ParsePaymentKind(rawKind)
	if !ok {
		return Order{}, shared.FieldErrors{"kind": "must be design_deposit, production_deposit or balance_payment"}
	}
	return s.Mutate(ctx, id, actor, "payment.approve", func(o *Order) error {
		if o.Status == StatusCancelled {
			return fmt.Errorf("%w: order %s is cancelled", shared.ErrIllegalTransition, o.OrderNumber)
		}
		p := o.Payments.Get(kind)
		if p.Amount <= 0 {
			return fmt.Errorf("%w: %s has no amount to approve", shared.ErrIllegalTransition, kind)
		}
		if p.Approved {
			return fmt.Errorf("%w: %s already approved", shared.ErrConflict, kind)
		}
		p.Approved = true
		if p.PaidAt == nil {
			paid := s.now().UTC()
			p.PaidAt = &paid
		}
		return nil
	})
}

func (s *Service) Delete(ctx context.Context, id, actor string) error {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("order deleted", slog.String("order", order.OrderNumber), slog.String("user", actor))
	s.record(ctx, actor, "order.delete", order, nil)
	s.invalidate(ctx)
	return nil
}

// Mutate applies fn to the stored order, recomputes totals, audits the change
// under action and invalidates cached read models.
func (s *Service) Mutate(ctx context.Context, id, actor, action string, fn func(*Order) error) (Order, error) {
	order, err := s.repo.Update(ctx, id, func(o *Order) error {
		if err := fn(o); err != nil {
			return err
		}
		recalculate(o)
		o.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	s.record(ctx, actor, action, order, map[string]any{"status": order.Status, "balance_to_pay": order.BalanceToPay})
	s.invalidate(ctx)
	return order, nil
}

// SyncProduction advances the order when one of its jobs starts or completes.
// It only ever moves forward and leaves completed or cancelled orders alone.
func (s *Service) SyncProduction(ctx context.Context, orderID, jobType, jobStatus string) error {
	target := syncTarget(jobType, jobStatus)
	if target == "" {
		return nil
	}
	var from OrderStatus
	_, err := s.Mutate(ctx, orderID, "system", "order.sync", func(o *Order) error {
		from = o.Status
		if o.Status.Terminal() || rank(target) <= rank(o.Status) {
			return errUnchanged
		}
		o.Status = target
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}
	s.logger.Info("order synced from production",
		slog.String("order", orderID),
		slog.String("from", string(from)),
		slog.String("to", string(target)))
	return nil
}

func syncTarget(jobType, jobStatus string) OrderStatus {
	design := production.JobType(jobType) == production.JobTypeDesign
	switch production.JobStatus(jobStatus) {
	case production.JobInProgress:
		if design {
			return StatusInDesign
		}
		return StatusInProduction
	case production.JobCompleted:
		if design {
			return StatusDesignCompleted
		}
		return StatusReadyForDelivery
	default:
		return ""
	}
}

// OrderRef hands production the order fields a job copies.
func (s *Service) OrderRef(ctx context.Context, id string) (production.OrderRef, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return production.OrderRef{}, err
	}
	if order.Status == StatusCancelled {
		return production.OrderRef{}, fmt.Errorf("%w: order %s is cancelled", shared.ErrIllegalTransition, order.OrderNumber)
	}
	return production.OrderRef{
		ID:         order.ID,
		Number:     order.OrderNumber,
		JobName:    order.JobName,
		ClientName: order.ClientName,
	}, nil
}

// CountByClient reports how many orders reference clientID.
func (s *Service) CountByClient(ctx context.Context, clientID string) (int, error) {
	list, err := s.repo.List(ctx, Filter{ClientID: clientID})
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

// History returns the audit trail of an order, oldest first.
func (s *Service) History(ctx context.Context, id string) ([]shared.AuditLog, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.audit.List(ctx, AuditEntity, id)
}

func applyPayments(dst *Payments, req *PaymentsRequest) {
	if req == nil {
		return
	}
	set := func(p *Payment, in *PaymentRequest) {
		if in == nil {
			return
		}
		amount := salesshared.RoundMoney(in.Amount)
		if amount != p.Amount {
			p.Approved = false
		}
		p.Amount = amount
		if in.PaidAt != nil {
			paid := in.PaidAt.UTC()
			p.PaidAt = &paid
		}
		if in.DueDate != nil {
			due := in.DueDate.UTC()
			p.DueDate = &due
		}
	}
	set(&dst.DesignDeposit, req.DesignDeposit)
	set(&dst.ProductionDeposit, req.ProductionDeposit)
	set(&dst.BalancePayment, req.BalancePayment)
}

// recalculate derives line totals, subtotal, total_paid and balance_to_pay.
// Only approved payments count as paid.
func recalculate(o *Order) {
	subtotal := 0.0
	for i := range o.Lines {
		o.Lines[i].LineTotal = salesshared.CalculateLineTotal(o.Lines[i].Quantity, o.Lines[i].UnitPrice)
		subtotal += o.Lines[i].LineTotal
	}
	o.Subtotal = salesshared.RoundMoney(subtotal)
	paid := 0.0
	for _, p := range []Payment{o.Payments.DesignDeposit, o.Payments.ProductionDeposit, o.Payments.BalancePayment} {
		if p.Approved {
			paid += p.Amount
		}
	}
	o.TotalPaid = salesshared.RoundMoney(paid)
	o.BalanceToPay = salesshared.CalculateBalance(o.Subtotal, o.TotalPaid)
}

func (s *Service) record(ctx context.Context, actor, action string, order Order, meta map[string]any) {
	entry := shared.AuditLog{
		Actor:    actor,
		Action:   action,
		Entity:   AuditEntity,
		EntityID: order.ID,
		Meta:     meta,
		At:       order.UpdatedAt,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record failed", slog.String("order", order.ID), slog.Any("error", err))
	}
	s.publish(ctx, actor, action, order, meta)
}

func (s *Service) publish(ctx context.Context, actor, action string, order Order, meta map[string]any) {
	if s.events == nil {
		return
	}
	event := Event{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		Status:       order.Status,
		BalanceToPay: order.BalanceToPay,
		Actor:        actor,
		Meta:         meta,
	}
	if err := s.events.Publish(ctx, order.ID, action, event); err != nil {
		s.logger.Warn("order event publish failed",
			slog.String("order", order.OrderNumber),
			slog.String("event", action),
			slog.Any("error", err))
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("cache bump failed", slog.Any("error", err))
	}
}
