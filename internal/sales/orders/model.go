package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/printdesk/printdesk/internal/shared"
)

var ErrNotFound = fmt.Errorf("order %w", shared.ErrNotFound)

type OrderStatus string

const (
	StatusPending          OrderStatus = "pending"
	StatusPaymentPending   OrderStatus = "payment_pending"
	StatusApproved         OrderStatus = "approved"
	StatusInDesign         OrderStatus = "in_design"
	StatusDesignCompleted  OrderStatus = "design_completed"
	StatusInProduction     OrderStatus = "in_production"
	StatusInQC             OrderStatus = "in_qc"
	StatusReadyForDelivery OrderStatus = "ready_for_delivery"
	StatusInDelivery       OrderStatus = "in_delivery"
	StatusCompleted        OrderStatus = "completed"
	StatusCancelled        OrderStatus = "cancelled"
)

// Statuses lists every canonical status in workflow order.
var Statuses = []OrderStatus{
	StatusPending, StatusPaymentPending, StatusApproved, StatusInDesign, StatusDesignCompleted,
	StatusInProduction, StatusInQC, StatusReadyForDelivery, StatusInDelivery, StatusCompleted,
	StatusCancelled,
}

// ParseStatus normalises free-text input. "delivered" is an alias of completed.
func ParseStatus(raw string) (OrderStatus, bool) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if s == "delivered" {
		return StatusCompleted, true
	}
	for _, known := range Statuses {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:          {StatusPaymentPending, StatusApproved, StatusCancelled},
	StatusPaymentPending:   {StatusApproved, StatusCancelled},
	StatusApproved:         {StatusInDesign, StatusInProduction, StatusCancelled},
	StatusInDesign:         {StatusDesignCompleted, StatusCancelled},
	StatusDesignCompleted:  {StatusInProduction, StatusCancelled},
	StatusInProduction:     {StatusInQC, StatusReadyForDelivery, StatusCancelled},
	StatusInQC:             {StatusInProduction, StatusReadyForDelivery, StatusCancelled},
	StatusReadyForDelivery: {StatusInDelivery, StatusCompleted, StatusCancelled},
	StatusInDelivery:       {StatusCompleted},
}

// CanTransition consults the order status table.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func rank(s OrderStatus) int {
	for i, known := range Statuses {
		if known == s {
			return i
		}
	}
	return -1
}

type DeliveryMethod string

const (
	DeliverySelfCollect DeliveryMethod = "self_collect"
	DeliveryShipping    DeliveryMethod = "shipping"
)

type PaymentKind string

const (
	PaymentDesignDeposit     PaymentKind = "design_deposit"
	PaymentProductionDeposit PaymentKind = "production_deposit"
	PaymentBalance           PaymentKind = "balance_payment"
)

func ParsePaymentKind(raw string) (PaymentKind, bool) {
	switch k := PaymentKind(strings.ToLower(strings.TrimSpace(raw))); k {
	case PaymentDesignDeposit, PaymentProductionDeposit, PaymentBalance:
		return k, true
	default:
		return "", false
	}
}

type Payment struct {
	Amount   float64    `json:"amount"`
	PaidAt   *time.Time `json:"paid_at,omitempty"`
	DueDate  *time.Time `json:"due_date,omitempty"`
	Approved bool       `json:"approved"`
}

type Payments struct {
	DesignDeposit     Payment `json:"design_deposit"`
	ProductionDeposit Payment `json:"production_deposit"`
	BalancePayment    Payment `json:"balance_payment"`
}

func (p *Payments) Get(kind PaymentKind) *Payment {
	switch kind {
	case PaymentDesignDeposit:
		return &p.DesignDeposit
	case PaymentProductionDeposit:
		return &p.ProductionDeposit
	case PaymentBalance:
		return &p.BalancePayment
	default:
		return nil
	}
}

type Line struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
}

type DeliveryInfo struct {
	Courier        string     `json:"courier,omitempty"`
	TrackingNumber string     `json:"tracking_number,omitempty"`
	DispatchedAt   *time.Time `json:"dispatched_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
}

type Order struct {
	ID             string         `json:"id"`
	OrderNumber    string         `json:"order_number"`
	JobName        string         `json:"job_name"`
	ClientID       string         `json:"client_id"`
	ClientName     string         `json:"client_name"`
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
	Lines          []Line         `json:"lines"`
	Payments       Payments       `json:"payments"`
	Subtotal       float64        `json:"subtotal"`
	TotalPaid      float64        `json:"total_paid"`
	BalanceToPay   float64        `json:"balance_to_pay"`
	Status         OrderStatus    `json:"status"`
	Delivery       DeliveryInfo   `json:"delivery"`
	Notes          string         `json:"notes,omitempty"`
	CreatedBy      string         `json:"created_by,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (o Order) Clone() Order {
	out := o
	out.Lines = append([]Line(nil), o.Lines...)
	return out
}
