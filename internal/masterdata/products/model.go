package products

import (
	"fmt"
	"time"

	"github.com/printdesk/printdesk/internal/shared"
)

var ErrNotFound = fmt.Errorf("product %w", shared.ErrNotFound)

// Product represents a catalog item
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	BasePrice float64   `json:"base_price"`
	Stock     int       `json:"stock"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
