// internal/services/pricing.go
package services

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/erp-backend/internal/apperrors"
	"github.com/javajoker/erp-backend/internal/models"
)

// PriceSelector picks which of the product's prices a line item snapshots:
// the purchase price for inbound transactions, the sale price for outbound.
type PriceSelector func(p *models.Product) decimal.Decimal

func PurchasePriceOf(p *models.Product) decimal.Decimal { return p.PurchasePrice }

func SalePriceOf(p *models.Product) decimal.Decimal { return p.SalePrice }

// PricedLine is an immutable priced row produced by PriceLines. The
// coordinators convert it into a PurchaseItem or OrderItem.
type PricedLine struct {
	ProductID        uuid.UUID
	ProductName      string
	ProductUnitLabel string
	Quantity         int
	UnitPrice        decimal.Decimal
	LineTotal        decimal.Decimal
}

// PriceLines builds one priced line per requested product. Lines are
// ordered by product id so totals and persistence order are deterministic.
// Every quantity key must resolve to a product and be positive; violations
// surface as InvalidLineItemError naming the offending product. Pure
// function, no side effects.
func PriceLines(products map[uuid.UUID]*models.Product, quantities map[uuid.UUID]int, sel PriceSelector) ([]PricedLine, error) {
	if len(quantities) == 0 {
		return nil, &apperrors.InvalidLineItemError{Reason: "at least one line item is required"}
	}

	ids := sortedProductIDs(quantities)
	lines := make([]PricedLine, 0, len(ids))

	for _, id := range ids {
		quantity := quantities[id]
		if quantity <= 0 {
			return nil, &apperrors.InvalidLineItemError{
				ProductID: id,
				Reason:    fmt.Sprintf("quantity must be positive, got %d", quantity),
			}
		}

		product, ok := products[id]
		if !ok || product == nil {
			return nil, &apperrors.InvalidLineItemError{ProductID: id, Reason: "product could not be resolved"}
		}

		unitPrice := sel(product)
		if !unitPrice.IsPositive() {
			return nil, &apperrors.InvalidLineItemError{ProductID: id, Reason: "unit price must be positive"}
		}

		lines = append(lines, PricedLine{
			ProductID:        product.ID,
			ProductName:      product.Name,
			ProductUnitLabel: product.UnitLabel,
			Quantity:         quantity,
			UnitPrice:        unitPrice,
			// Round half up to two places.
			LineTotal: unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
		})
	}

	return lines, nil
}

func sortedProductIDs(quantities map[uuid.UUID]int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}
