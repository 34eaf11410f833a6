// internal/models/purchase.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/erp-backend/internal/apperrors"
)

// Purchase is an inbound order to a supplier. It owns its line items as
// one consistency unit: items are replaced wholesale on update and never
// loaded or saved independently of the purchase. Once a purchase has
// arrived it is a permanent financial record and becomes immutable.
type Purchase struct {
	BaseModel
	SupplierID uuid.UUID       `json:"supplier_id" gorm:"type:uuid;not null;index"`
	Items      []PurchaseItem  `json:"items" gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE"`
	Total      decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	Arrived    bool            `json:"arrived" gorm:"not null;default:false;index"`
	ArrivedAt  *time.Time      `json:"arrived_at"`

	Supplier *Supplier `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
}

// PurchaseItem is one product+quantity row within a purchase. Name, unit
// label and unit price are snapshots taken at pricing time; the line is
// immutable once stored and only ever replaced together with its siblings.
type PurchaseItem struct {
	ID               uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	PurchaseID       uuid.UUID       `json:"purchase_id" gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	ProductName      string          `json:"product_name" gorm:"size:255;not null"`
	ProductUnitLabel string          `json:"product_unit_label" gorm:"size:50;not null"`
	Quantity         int             `json:"quantity" gorm:"not null"`
	UnitPrice        decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	LineTotal        decimal.Decimal `json:"line_total" gorm:"type:decimal(12,2);not null"`
}

// NewPurchase builds an open purchase with its priced items. The creation
// timestamp comes from the caller's clock so it is deterministic in tests.
func NewPurchase(supplierID uuid.UUID, items []PurchaseItem, now time.Time) (*Purchase, error) {
	if len(items) == 0 {
		return nil, &apperrors.InvalidLineItemError{Reason: "at least one line item is required"}
	}
	p := &Purchase{
		SupplierID: supplierID,
		Items:      items,
	}
	p.CreatedAt = now
	p.recomputeTotal()
	return p, nil
}

// SetItems replaces the full line item set and recomputes the total. The
// old items are discarded, not merged. Fails once the purchase has arrived.
func (p *Purchase) SetItems(items []PurchaseItem) error {
	if p.Arrived {
		return &apperrors.AlreadyFinalizedError{Kind: "purchase", ID: p.ID}
	}
	if len(items) == 0 {
		return &apperrors.InvalidLineItemError{Reason: "at least one line item is required"}
	}
	for i := range items {
		items[i].PurchaseID = p.ID
	}
	p.Items = items
	p.recomputeTotal()
	return nil
}

// MarkArrived flips the arrived flag exactly once. It only mutates the
// aggregate's own state; the coordinator is responsible for moving stock
// in the same unit of work.
func (p *Purchase) MarkArrived(at time.Time) error {
	if p.Arrived {
		return &apperrors.AlreadyFinalizedError{Kind: "purchase", ID: p.ID}
	}
	p.Arrived = true
	p.ArrivedAt = &at
	return nil
}

// EnsureMutable guards update and delete: an arrived purchase cannot be
// changed or removed.
func (p *Purchase) EnsureMutable() error {
	if p.Arrived {
		return &apperrors.AlreadyFinalizedError{Kind: "purchase", ID: p.ID}
	}
	return nil
}

// Total is always the recomputed sum of the current items; there is no
// independently settable total. Summation follows item order.
func (p *Purchase) recomputeTotal() {
	total := decimal.Zero
	for _, item := range p.Items {
		total = total.Add(item.LineTotal)
	}
	p.Total = total.Round(2)
}
