package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/printdesk/printdesk/internal/masterdata/products"
	"github.com/printdesk/printdesk/internal/sales/orders"
	"github.com/printdesk/printdesk/internal/shared"
)

// OrderStore is the slice of the order registry delivery needs.
type OrderStore interface {
	Get(ctx context.Context, id string) (orders.Order, error)
	ListByStatus(ctx context.Context, method orders.DeliveryMethod, statuses ...orders.OrderStatus) ([]orders.Order, error)
	Mutate(ctx context.Context, id, actor, action string, fn func(*orders.Order) error) (orders.Order, error)
}

// StockKeeper defines interface for stock operations.
type StockKeeper interface {
	AdjustStock(ctx context.Context, id string, adj products.StockAdjustment) (products.Product, error)
}

// Service provides business logic for delivery operations.
type Service struct {
	orders OrderStore
	stock  StockKeeper
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a delivery service.
func NewService(store OrderStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{orders: store, logger: logger.With(slog.String("module", "delivery")), now: time.Now}
}

// SetStockKeeper enables stock decrements when goods leave the shop.
func (s *Service) SetStockKeeper(stock StockKeeper) {
	s.stock = stock
}

// List returns orders on the delivery board, optionally narrowed by method and
// status.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Delivery, error) {
	var method orders.DeliveryMethod
	switch m := orders.DeliveryMethod(strings.ToLower(strings.TrimSpace(req.Method))); m {
	case "", "all":
	case orders.DeliverySelfCollect, orders.DeliveryShipping:
		method = m
	default:
		return nil, shared.FieldErrors{"method": "must be self_collect or shipping"}
	}
	statuses := trackedStatuses
	if raw := strings.TrimSpace(req.Status); raw != "" && !strings.EqualFold(raw, "all") {
		status, ok := orders.ParseStatus(raw)
		if !ok || !tracked(status) {
			return nil, shared.FieldErrors{"status": "must be ready_for_delivery, in_delivery or completed"}
		}
		statuses = []orders.OrderStatus{status}
	}
	list, err := s.orders.ListByStatus(ctx, method, statuses...)
	if err != nil {
		return nil, err
	}
	out := make([]Delivery, 0, len(list))
	for _, o := range list {
		out = append(out, fromOrder(o))
	}
	return out, nil
}

// Get returns one order as a delivery.
func (s *Service) Get(ctx context.Context, id string) (Delivery, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return Delivery{}, err
	}
	return fromOrder(o), nil
}

// Dispatch moves a shipping order from ready_for_delivery to in_delivery.
func (s *Service) Dispatch(ctx context.Context, id string, req DispatchRequest, actor string) (Delivery, error) {
	req.Courier = strings.TrimSpace(req.Courier)
	req.TrackingNumber = strings.TrimSpace(req.TrackingNumber)
	if err := shared.ValidateStruct(req); err != nil {
		return Delivery{}, err
	}
	order, err := s.orders.Mutate(ctx, id, actor, "delivery.dispatch", func(o *orders.Order) error {
		if o.DeliveryMethod != orders.DeliveryShipping {
			return fmt.Errorf("%w: order %s is collected by the client", shared.ErrIllegalTransition, o.OrderNumber)
		}
		if o.Status != orders.StatusReadyForDelivery {
			return fmt.Errorf("%w: order %s is %s, not ready for delivery", shared.ErrIllegalTransition, o.OrderNumber, o.Status)
		}
		now := s.now().UTC()
		o.Status = orders.StatusInDelivery
		o.Delivery.Courier = req.Courier
		o.Delivery.TrackingNumber = req.TrackingNumber
		o.Delivery.DispatchedAt = &now
		return nil
	})
	if err != nil {
		return Delivery{}, err
	}
	s.logger.Info("order dispatched",
		slog.String("order", order.OrderNumber),
		slog.String("courier", req.Courier),
		slog.String("tracking", req.TrackingNumber))
	s.releaseStock(ctx, order)
	return fromOrder(order), nil
}

// MarkDelivered completes an order: in_delivery for shipping, ready_for_delivery
// for self collect.
func (s *Service) MarkDelivered(ctx context.Context, id, actor string) (Delivery, error) {
	order, err := s.orders.Mutate(ctx, id, actor, "delivery.complete", func(o *orders.Order) error {
		want := orders.StatusInDelivery
		if o.DeliveryMethod == orders.DeliverySelfCollect {
			want = orders.StatusReadyForDelivery
		}
		if o.Status != want {
			return fmt.Errorf("%w: %s order %s must be %s to be delivered, got %s",
				shared.ErrIllegalTransition, o.DeliveryMethod, o.OrderNumber, want, o.Status)
		}
		now := s.now().UTC()
		o.Status = orders.StatusCompleted
		o.Delivery.DeliveredAt = &now
		return nil
	})
	if err != nil {
		return Delivery{}, err
	}
	s.logger.Info("order delivered", slog.String("order", order.OrderNumber), slog.String("method", string(order.DeliveryMethod)))
	if order.DeliveryMethod == orders.DeliverySelfCollect {
		s.releaseStock(ctx, order)
	}
	return fromOrder(order), nil
}

// releaseStock books the outbound quantities against the catalog. Shortfalls
// are logged; the delivery itself already happened.
func (s *Service) releaseStock(ctx context.Context, order orders.Order) {
	if s.stock == nil {
		return
	}
	for _, line := range order.Lines {
		_, err := s.stock.AdjustStock(ctx, line.ProductID, products.StockAdjustment{
			Delta:  -line.Quantity,
			Reason: "delivery " + order.OrderNumber,
		})
		if err != nil {
			s.logger.Warn("stock release failed",
				slog.String("order", order.OrderNumber),
				slog.String("product", line.ProductID),
				slog.Any("error", err))
		}
	}
}

func tracked(status orders.OrderStatus) bool {
	for _, s := range trackedStatuses {
		if s == status {
			return true
		}
	}
	return false
}
