// Package delivery tracks finished orders from the shop floor to the client.
package delivery

import (
	"time"

	"github.com/printdesk/printdesk/internal/sales/orders"
)

// Statuses an order passes through once production is done.
var trackedStatuses = []orders.OrderStatus{
	orders.StatusReadyForDelivery,
	orders.StatusInDelivery,
	orders.StatusCompleted,
}

// Delivery is the delivery-centric view of an order.
type Delivery struct {
	OrderID         string                `json:"order_id"`
	OrderNumber     string                `json:"order_number"`
	JobName         string                `json:"job_name"`
	ClientName      string                `json:"client_name"`
	Method          orders.DeliveryMethod `json:"method"`
	Status          orders.OrderStatus    `json:"status"`
	Courier         string                `json:"courier,omitempty"`
	TrackingNumber  string                `json:"tracking_number,omitempty"`
	DispatchedAt    *time.Time            `json:"dispatched_at,omitempty"`
	DeliveredAt     *time.Time            `json:"delivered_at,omitempty"`
	BalanceToPay    float64               `json:"balance_to_pay"`
	AwaitingPayment bool                  `json:"awaiting_payment"`
}

func fromOrder(o orders.Order) Delivery {
	return Delivery{
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		JobName:         o.JobName,
		ClientName:      o.ClientName,
		Method:          o.DeliveryMethod,
		Status:          o.Status,
		Courier:         o.Delivery.Courier,
		TrackingNumber:  o.Delivery.TrackingNumber,
		DispatchedAt:    o.Delivery.DispatchedAt,
		DeliveredAt:     o.Delivery.DeliveredAt,
		BalanceToPay:    o.BalanceToPay,
		AwaitingPayment: o.BalanceToPay > 0,
	}
}

// DispatchRequest hands a shipping order to a courier.
type DispatchRequest struct {
	Courier        string `json:"courier" validate:"required,max=80"`
	TrackingNumber string `json:"tracking_number" validate:"required,max=80"`
}

// ListRequest filters the delivery board.
type ListRequest struct {
	Method string
	Status string
}
