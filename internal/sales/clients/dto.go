package clients

type CreateClientRequest struct {
	Name            string `json:"name" validate:"required,max=120"`
	ContactPerson   string `json:"contact_person" validate:"max=120"`
	Phone           string `json:"phone" validate:"required,max=40"`
	Email           string `json:"email" validate:"omitempty,email"`
	BillingAddress  string `json:"billing_address" validate:"max=500"`
	ShippingAddress string `json:"shipping_address" validate:"max=500"`
	SameAsBilling   bool   `json:"same_as_billing"`
}

type UpdateClientRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	ContactPerson   *string `json:"contact_person,omitempty" validate:"omitempty,max=120"`
	Phone           *string `json:"phone,omitempty" validate:"omitempty,min=1,max=40"`
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	BillingAddress  *string `json:"billing_address,omitempty" validate:"omitempty,max=500"`
	ShippingAddress *string `json:"shipping_address,omitempty" validate:"omitempty,max=500"`
	SameAsBilling   *bool   `json:"same_as_billing,omitempty"`
}

type ListClientsRequest struct {
	Search string `json:"search"`
}
