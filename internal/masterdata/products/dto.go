package products

type ProductForm struct {
	Name      string  `json:"name" validate:"required,max=120"`
	Category  string  `json:"category" validate:"required,max=60"`
	BasePrice float64 `json:"base_price" validate:"gte=0"`
	Stock     int     `json:"stock" validate:"gte=0"`
	IsActive  *bool   `json:"is_active"`
}

type StockAdjustment struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"max=200"`
}
