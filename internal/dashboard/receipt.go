package dashboard

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/printdesk/printdesk/internal/sales/orders"
)

//go:embed templates/*.html
var templateFS embed.FS

var receiptTemplate = template.Must(template.New("receipt.html").Funcs(template.FuncMap{
	"formatDate": func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format("2 Jan 2006")
	},
}).ParseFS(templateFS, "templates/receipt.html"))

// ReceiptLine is one printed line item.
type ReceiptLine struct {
	Product   string `json:"product"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

// ReceiptPayment is one payment row.
type ReceiptPayment struct {
	Kind     string     `json:"kind"`
	Amount   string     `json:"amount"`
	Approved bool       `json:"approved"`
	PaidAt   *time.Time `json:"paid_at,omitempty"`
	DueDate  *time.Time `json:"due_date,omitempty"`
}

// Receipt is the printable summary of one order.
type Receipt struct {
	OrderID        string           `json:"order_id"`
	OrderNumber    string           `json:"order_number"`
	JobName        string           `json:"job_name"`
	ClientName     string           `json:"client_name"`
	Status         string           `json:"status"`
	DeliveryMethod string           `json:"delivery_method"`
	IssuedAt       time.Time        `json:"issued_at"`
	Lines          []ReceiptLine    `json:"lines"`
	Payments       []ReceiptPayment `json:"payments"`
	Subtotal       string           `json:"subtotal"`
	TotalPaid      string           `json:"total_paid"`
	BalanceToPay   string           `json:"balance_to_pay"`
	Notes          string           `json:"notes,omitempty"`
}

var paymentLabels = []struct {
	kind  orders.PaymentKind
	label string
}{
	{orders.PaymentDesignDeposit, "Design deposit"},
	{orders.PaymentProductionDeposit, "Production deposit"},
	{orders.PaymentBalance, "Balance payment"},
}

// Receipt builds the receipt of an order.
func (s *Service) Receipt(ctx context.Context, orderID string) (Receipt, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return Receipt{}, err
	}
	r := Receipt{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		JobName:        o.JobName,
		ClientName:     o.ClientName,
		Status:         string(o.Status),
		DeliveryMethod: string(o.DeliveryMethod),
		IssuedAt:       s.now().UTC(),
		Subtotal:       s.money.Format(o.Subtotal),
		TotalPaid:      s.money.Format(o.TotalPaid),
		BalanceToPay:   s.money.Format(o.BalanceToPay),
		Notes:          o.Notes,
	}
	for _, l := range o.Lines {
		r.Lines = append(r.Lines, ReceiptLine{
			Product:   l.ProductName,
			Quantity:  l.Quantity,
			UnitPrice: s.money.Format(l.UnitPrice),
			LineTotal: s.money.Format(l.LineTotal),
		})
	}
	for _, pl := range paymentLabels {
		p := o.Payments.Get(pl.kind)
		if p.Amount == 0 {
			continue
		}
		r.Payments = append(r.Payments, ReceiptPayment{
			Kind:     pl.label,
			Amount:   s.money.Format(p.Amount),
			Approved: p.Approved,
			PaidAt:   p.PaidAt,
			DueDate:  p.DueDate,
		})
	}
	return r, nil
}

// RenderHTML renders the receipt as a standalone HTML page.
func RenderHTML(r Receipt) ([]byte, error) {
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
