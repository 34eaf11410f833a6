// internal/models/stock.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// StockLevel is the per-product on-hand quantity, keyed 1:1 by product id.
// Rows are created lazily at zero the first time a product moves and are
// mutated only when a purchase arrives or an order is delivered. Quantity
// is never allowed to go negative.
type StockLevel struct {
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;primary_key"`
	Quantity  int       `json:"quantity" gorm:"not null;default:0"`
	UpdatedAt time.Time `json:"updated_at"`
}
