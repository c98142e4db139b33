package orders

import "time"

type NewClientRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Phone string `json:"phone" validate:"required,max=40"`
	Email string `json:"email" validate:"omitempty,email"`
}

type LineRequest struct {
	ProductID string   `json:"product_id" validate:"required"`
	Quantity  int      `json:"quantity" validate:"gt=0"`
	UnitPrice *float64 `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
}

type PaymentRequest struct {
	Amount  float64    `json:"amount" validate:"gte=0"`
	PaidAt  *time.Time `json:"paid_at,omitempty"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

type PaymentsRequest struct {
	DesignDeposit     *PaymentRequest `json:"design_deposit,omitempty"`
	ProductionDeposit *PaymentRequest `json:"production_deposit,omitempty"`
	BalancePayment    *PaymentRequest `json:"balance_payment,omitempty"`
}

type CreateOrderRequest struct {
	JobName        string            `json:"job_name" validate:"required,max=120"`
	ClientID       string            `json:"client_id"`
	NewClient      *NewClientRequest `json:"new_client,omitempty"`
	DeliveryMethod DeliveryMethod    `json:"delivery_method" validate:"omitempty,oneof=self_collect shipping"`
	Lines          []LineRequest     `json:"lines" validate:"omitempty,dive"`
	Payments       *PaymentsRequest  `json:"payments,omitempty"`
	Notes          string            `json:"notes" validate:"max=1000"`
}

type UpdateOrderRequest struct {
	JobName        *string          `json:"job_name,omitempty" validate:"omitempty,min=1,max=120"`
	DeliveryMethod *DeliveryMethod  `json:"delivery_method,omitempty" validate:"omitempty,oneof=self_collect shipping"`
	Lines          *[]LineRequest   `json:"lines,omitempty" validate:"omitempty,dive"`
	Payments       *PaymentsRequest `json:"payments,omitempty"`
	Notes          *string          `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type ListOrdersRequest struct {
	Search   string
	Status   string
	ClientID string
}
