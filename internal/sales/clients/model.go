package clients

import (
	"fmt"
	"time"

	"github.com/printdesk/printdesk/internal/shared"
)

var ErrNotFound = fmt.Errorf("client %w", shared.ErrNotFound)

type Client struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	ContactPerson   string    `json:"contact_person,omitempty"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email,omitempty"`
	BillingAddress  string    `json:"billing_address,omitempty"`
	ShippingAddress string    `json:"shipping_address,omitempty"`
	SameAsBilling   bool      `json:"same_as_billing"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
