// internal/services/pricing_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/erp-backend/internal/apperrors"
	"github.com/javajoker/erp-backend/internal/models"
)

func testProduct(name, purchasePrice, salePrice string) *models.Product {
	p := &models.Product{
		Name:          name,
		UnitLabel:     "pcs",
		PurchasePrice: decimal.RequireFromString(purchasePrice),
		SalePrice:     decimal.RequireFromString(salePrice),
	}
	p.ID = uuid.New()
	return p
}

func productMap(products ...*models.Product) map[uuid.UUID]*models.Product {
	m := make(map[uuid.UUID]*models.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}

func TestPriceLinesSnapshotsSelectedPrice(t *testing.T) {
	beans := testProduct("Arabica Beans", "8.50", "14.90")
	cups := testProduct("Paper Cups", "0.04", "0.10")
	products := productMap(beans, cups)
	quantities := map[uuid.UUID]int{beans.ID: 10, cups.ID: 200}

	lines, err := PriceLines(products, quantities, PurchasePriceOf)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	byProduct := make(map[uuid.UUID]PricedLine, len(lines))
	for _, line := range lines {
		byProduct[line.ProductID] = line
	}

	assert.Equal(t, "Arabica Beans", byProduct[beans.ID].ProductName)
	assert.Equal(t, "8.50", byProduct[beans.ID].UnitPrice.StringFixed(2))
	assert.Equal(t, "85.00", byProduct[beans.ID].LineTotal.StringFixed(2))
	assert.Equal(t, "8.00", byProduct[cups.ID].LineTotal.StringFixed(2))

	saleLines, err := PriceLines(products, quantities, SalePriceOf)
	require.NoError(t, err)
	for _, line := range saleLines {
		if line.ProductID == beans.ID {
			assert.Equal(t, "14.90", line.UnitPrice.StringFixed(2))
		}
	}
}

func TestPriceLinesRoundsHalfUp(t *testing.T) {
	p := testProduct("Odd Priced", "0.125", "0.125")

	lines, err := PriceLines(productMap(p), map[uuid.UUID]int{p.ID: 1}, PurchasePriceOf)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	assert.Equal(t, "0.13", lines[0].LineTotal.StringFixed(2))
}

func TestPriceLinesDeterministicOrder(t *testing.T) {
	a := testProduct("A", "1.00", "2.00")
	b := testProduct("B", "1.00", "2.00")
	c := testProduct("C", "1.00", "2.00")
	products := productMap(a, b, c)
	quantities := map[uuid.UUID]int{a.ID: 1, b.ID: 2, c.ID: 3}

	first, err := PriceLines(products, quantities, SalePriceOf)
	require.NoError(t, err)

	// Map iteration order varies, the output order must not.
	for i := 0; i < 10; i++ {
		again, err := PriceLines(products, quantities, SalePriceOf)
		require.NoError(t, err)
		require.Len(t, again, len(first))
		for j := range first {
			assert.Equal(t, first[j].ProductID, again[j].ProductID)
		}
	}

	for i := 1; i < len(first); i++ {
		assert.Less(t, first[i-1].ProductID.String(), first[i].ProductID.String())
	}
}

func TestPriceLinesRejectsEmptySet(t *testing.T) {
	_, err := PriceLines(nil, map[uuid.UUID]int{}, PurchasePriceOf)

	var invalidItem *apperrors.InvalidLineItemError
	require.ErrorAs(t, err, &invalidItem)
	assert.Equal(t, uuid.Nil, invalidItem.ProductID)
}

func TestPriceLinesRejectsNonPositiveQuantity(t *testing.T) {
	p := testProduct("A", "1.00", "2.00")

	for _, quantity := range []int{0, -5} {
		_, err := PriceLines(productMap(p), map[uuid.UUID]int{p.ID: quantity}, PurchasePriceOf)

		var invalidItem *apperrors.InvalidLineItemError
		require.ErrorAs(t, err, &invalidItem)
		assert.Equal(t, p.ID, invalidItem.ProductID)
	}
}

func TestPriceLinesRejectsUnresolvedProduct(t *testing.T) {
	p := testProduct("A", "1.00", "2.00")
	unknown := uuid.New()
	quantities := map[uuid.UUID]int{p.ID: 1, unknown: 1}

	_, err := PriceLines(productMap(p), quantities, PurchasePriceOf)

	var invalidItem *apperrors.InvalidLineItemError
	require.ErrorAs(t, err, &invalidItem)
	assert.Equal(t, unknown, invalidItem.ProductID)
}

func TestPriceLinesRejectsNonPositivePrice(t *testing.T) {
	p := testProduct("Freebie", "0.00", "1.00")

	_, err := PriceLines(productMap(p), map[uuid.UUID]int{p.ID: 1}, PurchasePriceOf)

	var invalidItem *apperrors.InvalidLineItemError
	require.ErrorAs(t, err, &invalidItem)
	assert.Equal(t, p.ID, invalidItem.ProductID)
}

func TestPriceLinesDoesNotMutateInputs(t *testing.T) {
	p := testProduct("A", "3.00", "5.00")
	products := productMap(p)
	quantities := map[uuid.UUID]int{p.ID: 2}

	lines, err := PriceLines(products, quantities, SalePriceOf)
	require.NoError(t, err)

	assert.Equal(t, "3.00", p.PurchasePrice.StringFixed(2))
	assert.Equal(t, 2, quantities[p.ID])

	// A later catalog price change must not leak into an already priced line.
	p.SalePrice = decimal.RequireFromString("99.00")
	assert.Equal(t, "5.00", lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "10.00", lines[0].LineTotal.StringFixed(2))
}
