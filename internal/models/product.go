// internal/models/product.go
package models

import (
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is master data referenced by purchase and order line items.
// Line items snapshot the name, unit label and the relevant price at
// pricing time, so later edits here never touch existing transactions.
type Product struct {
	BaseModel
	Name          string          `json:"name" gorm:"size:255;not null;index"`
	UnitLabel     string          `json:"unit_label" gorm:"size:50;not null"`
	PurchasePrice decimal.Decimal `json:"purchase_price" gorm:"type:decimal(12,2);not null"`
	SalePrice     decimal.Decimal `json:"sale_price" gorm:"type:decimal(12,2);not null"`
	Tags          pq.StringArray  `json:"tags" gorm:"type:text[]"`
}
