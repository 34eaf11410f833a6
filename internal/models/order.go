// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/erp-backend/internal/apperrors"
)

// Order is an outbound order to a customer, the stock-outflow mirror of
// Purchase. A delivered order is immutable.
type Order struct {
	BaseModel
	CustomerID  uuid.UUID       `json:"customer_id" gorm:"type:uuid;not null;index"`
	Items       []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Total       decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	Delivered   bool            `json:"delivered" gorm:"not null;default:false;index"`
	OrderedAt   time.Time       `json:"ordered_at" gorm:"not null"`
	DeliveredAt *time.Time      `json:"delivered_at"`

	Customer *Customer `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
}

// OrderItem snapshots the product's name, unit label and sale price.
type OrderItem struct {
	ID               uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderID          uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	ProductName      string          `json:"product_name" gorm:"size:255;not null"`
	ProductUnitLabel string          `json:"product_unit_label" gorm:"size:50;not null"`
	Quantity         int             `json:"quantity" gorm:"not null"`
	UnitPrice        decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	LineTotal        decimal.Decimal `json:"line_total" gorm:"type:decimal(12,2);not null"`
}

func NewOrder(customerID uuid.UUID, items []OrderItem, now time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, &apperrors.InvalidLineItemError{Reason: "at least one line item is required"}
	}
	o := &Order{
		CustomerID: customerID,
		Items:      items,
		OrderedAt:  now,
	}
	o.CreatedAt = now
	o.recomputeTotal()
	return o, nil
}

// SetItems replaces the full line item set and recomputes the total.
// Fails once the order has been delivered.
func (o *Order) SetItems(items []OrderItem) error {
	if o.Delivered {
		return &apperrors.AlreadyFinalizedError{Kind: "order", ID: o.ID}
	}
	if len(items) == 0 {
		return &apperrors.InvalidLineItemError{Reason: "at least one line item is required"}
	}
	for i := range items {
		items[i].OrderID = o.ID
	}
	o.Items = items
	o.recomputeTotal()
	return nil
}

// MarkDelivered flips the delivered flag exactly once; the coordinator
// decrements stock in the same unit of work.
func (o *Order) MarkDelivered(at time.Time) error {
	if o.Delivered {
		return &apperrors.AlreadyFinalizedError{Kind: "order", ID: o.ID}
	}
	o.Delivered = true
	o.DeliveredAt = &at
	return nil
}

func (o *Order) EnsureMutable() error {
	if o.Delivered {
		return &apperrors.AlreadyFinalizedError{Kind: "order", ID: o.ID}
	}
	return nil
}

func (o *Order) recomputeTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal)
	}
	o.Total = total.Round(2)
}
