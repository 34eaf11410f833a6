// internal/services/inventory_flow_test.go
//
// Integration tests for the transaction coordinators. They need a real
// Postgres because the services rely on row locks and rollbacks; set
// TEST_DATABASE_DSN to run them, otherwise they are skipped.
package services

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/erp-backend/internal/apperrors"
	"github.com/javajoker/erp-backend/internal/database"
	"github.com/javajoker/erp-backend/internal/models"
	"github.com/javajoker/erp-backend/internal/utils"
)

type InventoryFlowSuite struct {
	suite.Suite
	db        *gorm.DB
	stock     *StockService
	purchases *PurchaseService
	orders    *OrderService

	beans *models.Product
	cups  *models.Product

	supplier *models.Supplier
	customer *models.Customer
}

func TestInventoryFlowSuite(t *testing.T) {
	if os.Getenv("TEST_DATABASE_DSN") == "" {
		t.Skip("TEST_DATABASE_DSN not set, skipping database integration tests")
	}
	suite.Run(t, new(InventoryFlowSuite))
}

func (s *InventoryFlowSuite) SetupSuite() {
	db, err := gorm.Open(postgres.Open(os.Getenv("TEST_DATABASE_DSN")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	s.Require().NoError(database.RunMigrations(db))
	s.db = db
}

func (s *InventoryFlowSuite) SetupTest() {
	err := s.db.Exec(
		"TRUNCATE purchase_items, purchases, order_items, orders, stock_levels, products, suppliers, customers CASCADE",
	).Error
	s.Require().NoError(err)

	s.stock = NewStockService(s.db)
	s.purchases = NewPurchaseService(s.db, s.stock)
	s.orders = NewOrderService(s.db, s.stock)

	s.beans = s.createProduct("Arabica Beans", "8.50", "14.90")
	s.cups = s.createProduct("Paper Cups", "0.04", "0.10")
	s.supplier = s.createSupplier("Highland Roasters")
	s.customer = s.createCustomer("Corner Cafe")
}

func (s *InventoryFlowSuite) createProduct(name, purchasePrice, salePrice string) *models.Product {
	p := &models.Product{
		Name:          name,
		UnitLabel:     "pcs",
		PurchasePrice: decimal.RequireFromString(purchasePrice),
		SalePrice:     decimal.RequireFromString(salePrice),
	}
	s.Require().NoError(s.db.Create(p).Error)
	return p
}

func (s *InventoryFlowSuite) createSupplier(name string) *models.Supplier {
	sup := &models.Supplier{Name: name}
	s.Require().NoError(s.db.Create(sup).Error)
	return sup
}

func (s *InventoryFlowSuite) createCustomer(name string) *models.Customer {
	c := &models.Customer{Name: name}
	s.Require().NoError(s.db.Create(c).Error)
	return c
}

func (s *InventoryFlowSuite) quantityOf(productID uuid.UUID) int {
	quantity, err := s.stock.QuantityOf(productID)
	s.Require().NoError(err)
	return quantity
}

func (s *InventoryFlowSuite) receiveStock(productID uuid.UUID, quantity int) {
	purchase, err := s.purchases.Create(&CreatePurchaseRequest{
		SupplierID: s.supplier.ID,
		Items:      map[uuid.UUID]int{productID: quantity},
	})
	s.Require().NoError(err)
	_, err = s.purchases.MarkArrived(purchase.ID)
	s.Require().NoError(err)
}

func (s *InventoryFlowSuite) TestCreatePurchaseSnapshotsPricesAndTotals() {
	purchase, err := s.purchases.Create(&CreatePurchaseRequest{
		SupplierID: s.supplier.ID,
		Items:      map[uuid.UUID]int{s.beans.ID: 10, s.cups.ID: 200},
	})
	s.Require().NoError(err)

	s.False(purchase.Arrived)
	s.Nil(purchase.ArrivedAt)
	s.Equal("93.00", purchase.Total.StringFixed(2))
	s.Len(purchase.Items, 2)

	for _, item := range purchase.Items {
		if item.ProductID == s.beans.ID {
			s.Equal("Arabica Beans", item.ProductName)
			s.Equal("8.50", item.UnitPrice.StringFixed(2))
			s.Equal("85.00", item.LineTotal.StringFixed(2))
		}
	}

	// Creation never moves stock.
	s.Equal(0, s.quantityOf(s.beans.ID))
	s.Equal(0, s.quantityOf(s.cups.ID))
}

func (s *InventoryFlowSuite) TestCreatePurchaseUnknownProductPersistsNothing() {
	unknown := uuid.New()
	_, err := s.purchases.Create(&CreatePurchaseRequest{
		SupplierID: s.supplier.ID,
		Items:      map[uuid.UUID]int{s.beans.ID: 1, unknown: 1},
	})

	var notFound *apperrors.NotFoundError
	s.Require().ErrorAs(err, &notFound)
	s.Equal("product", notFound.Resource)

	var count int64
	s.db.Model(&models.Purchase{}).Count(&count)
	s.Zero(count)
	s.db.Model(&models.PurchaseItem{}).Count(&count)
	s.Zero(count)
}

func (s *InventoryFlowSuite) TestCreatePurchaseUnknownSupplier() {
	_, err := s.purchases.Create(&CreatePurchaseRequest{
		SupplierID: uuid.New(),
		Items:      map[uuid.UUID]int{s.beans.ID: 1},
	})

	var notFound *apperrors.NotFoundError
	s.Require().ErrorAs(err, &notFound)
	s.Equal("supplier", notFound.Resource)
}

func (s *InventoryFlowSuite) TestMarkArrivedIncrementsStockExactlyOnce() {
	arrivedAt := time.Date(2025, 3, 2, 8, 30, 0, 0, time.UTC)
	s.purchases.WithClock(func() time.Time { return arrivedAt })

	purchase, err := s.purchases.Create(&CreatePurchaseRequest{
		SupplierID: s.supplier.ID,
		Items:      map[uuid.UUID]int{s.beans.ID: 10, s.cups.ID: 5},
	})
	s.Require().NoError(err)

	arrived, err := s.purchases.MarkArrived(purchase.ID)
	s.Require().NoError(err)
	s.True(arrived.Arrived)
	s.Require().NotNil(arrived.ArrivedAt)
	s.WithinDuration(arrivedAt, *arrived.ArrivedAt, time.Second)
	s.Equal(10, s.quantityOf(s.beans.ID))
	s.Equal(5, s.quantityOf(s.cups.ID))

	_, err = s.purchases.MarkArrived(purchase.ID)
	var finalized *apperrors.AlreadyFinalizedError
	s.Require().ErrorAs(err, &finalized)
	s.Equal("purchase", finalized.Kind)

	// The failed repeat must not move stock again.
	s.Equal(10, s.quantityOf(s.beans.ID))
	s.Equal(5, s.quantityOf(s.cups.ID))
}

func (s *InventoryFlowSuite) TestDeliverOrderDecrementsStock() {
	s.receiveStock(s.beans.ID, 10)

	order, err := s.orders.Create(&CreateOrderRequest{
		CustomerID: s.customer.ID,
		Items:      map[uuid.UUID]int{s.beans.ID: 3},
	})
	s.Require().NoError(err)
	s.Equal("44.70", order.Total.StringFixed(2))
	s.Equal(10, s.quantityOf(s.beans.ID))

	delivered, err := s.orders.MarkDelivered(order.ID)
	s.Require().NoError(err)
	s.True(delivered.Delivered)
	s.Equal(7, s.quantityOf(s.beans.ID))
}

func (s *InventoryFlowSuite) TestDeliveryRejectedWhenStockShort() {
	s.receiveStock(s.beans.ID, 7)

	order, err := s.orders.Create(&CreateOrderRequest{
		CustomerID: s.customer.ID,
		Items:      map[uuid.UUID]int{s.beans.ID: 50},
	})
	s.Require().NoError(err)

	_, err = s.orders.MarkDelivered(order.ID)
	var short *apperrors.InsufficientStockError
	s.Require().ErrorAs(err, &short)
	s.Equal(s.beans.ID, short.ProductID)
	s.Equal(7, short.Available)
	s.Equal(50, short.Requested)

	// The order stays open and stock stays put, so a later restock can
	// complete the delivery.
	s.Equal(7, s.quantityOf(s.beans.ID))
	reloaded, err := s.orders.GetOrder(order.ID)
	s.Require().NoError(err)
	s.False(reloaded.Delivered)

	s.receiveStock(s.beans.ID, 50)
	_, err = s.orders.MarkDelivered(order.ID)
	s.Require().NoError(err)
	s.Equal(7, s.quantityOf(s.beans.ID))
}

func (s *InventoryFlowSuite) TestDeliveryIsAtomicAcrossLines() {
	s.receiveStock(s.beans.ID, 10)

	order, err := s.orders.Create(&CreateOrderRequest{
		CustomerID: s.customer.ID,
		Items:      map[uuid.UUID]int{s.beans.ID: 5, s.cups.ID: 5},
	})
	s.Require().NoError(err)

	_, err = s.orders.MarkDelivered(order.ID)
	var short *apperrors.InsufficientStockError
	s.Require().ErrorAs(err, &short)
	s.Equal(s.cups.ID, short.ProductID)

	// No partial delivery: the beans decrement rolled back with the rest.
	s.Equal(10, s.quantityOf(s.beans.ID))
	s.Equal(0, s.quantityOf(s.cups.ID))
	reloaded, err := s.orders.GetOrder(order.ID)
	s.Require().NoError(err)
	s.False(reloaded.Delivered)
}

func (s *InventoryFlowSuite) TestUpdateReplacesItemsAtCurrentPrices() {
	purchase, err := s.purchases.Create(&CreatePurchaseRequest{
		SupplierID: s.supplier.ID,
		Items:      map[uuid.UUID]int{s.beans.ID: 10},
	})
	s.Require().NoError(err)
	s.Equal("85.00", purchase.Total.StringFixed(2))

	err = s.db.Model(s.beans).Update("purchase_price", decimal.RequireFromString("9.00")).Error
	s.Require().NoError(err)

	updated, err := s.purchases.Update(purchase.ID, &UpdatePurchaseRequest{
		Items: map[uuid.UUID]int{s.beans.ID: 4, s.cups.ID: 100},
	})
	s.Require().NoError(err)

	s.Len(updated.Items, 2)
	s.Equal("40.00", updated.Total.StringFixed(2))

	var itemCount int64
	s.db.Model(&models.PurchaseItem{}).Where("purchase_id = ?", purchase.ID).Count(&itemCount)
	s.EqualValues(2, itemCount)
}

func (s *InventoryFlowSuite) TestPriceChangesDoNotTouchExistingDocuments() {
	order, err := s.orders.Create(&CreateOrderRequest{
		CustomerID: s.customer.ID,
		Items:      map[uuid.UUID]int{s.beans.ID: 2},
	})
	s.Require().NoError(err)
	s.Equal("29.80", order.Total.StringFixed(2))

	err = s.db.Model(s.beans).Update("sale_price", decimal.RequireFromString("20.00")).Error
	s.Require().NoError(err)

	reloaded, err := s.orders.GetOrder(order.ID)
	s.Require().NoError(err)
	s.Equal("29.80", reloaded.Total.StringFixed(2))
	s.Equal("14.90", reloaded.Items[0].UnitPrice.StringFixed(2))
}

func (s *InventoryFlowSuite) TestFinalizedDocumentsAreImmutable() {
	purchase, err := s.purchases.Create(&CreatePurchaseRequest{
		SupplierID: s.supplier.ID,
		Items:      map[uuid.UUID]int{s.beans.ID: 1},
	})
	s.Require().NoError(err)
	_, err = s.purchases.MarkArrived(purchase.ID)
	s.Require().NoError(err)

	var finalized *apperrors.AlreadyFinalizedError

	_, err = s.purchases.Update(purchase.ID, &UpdatePurchaseRequest{
		Items: map[uuid.UUID]int{s.beans.ID: 5},
	})
	s.Require().ErrorAs(err, &finalized)

	err = s.purchases.Delete(purchase.ID)
	s.Require().ErrorAs(err, &finalized)

	reloaded, err := s.purchases.GetPurchase(purchase.ID)
	s.Require().NoError(err)
	s.Len(reloaded.Items, 1)
	s.Equal(1, reloaded.Items[0].Quantity)
}

func (s *InventoryFlowSuite) TestDeleteOpenPurchaseRemovesItems() {
	purchase, err := s.purchases.Create(&CreatePurchaseRequest{
		SupplierID: s.supplier.ID,
		Items:      map[uuid.UUID]int{s.beans.ID: 1},
	})
	s.Require().NoError(err)

	s.Require().NoError(s.purchases.Delete(purchase.ID))

	_, err = s.purchases.GetPurchase(purchase.ID)
	var notFound *apperrors.NotFoundError
	s.Require().ErrorAs(err, &notFound)

	var itemCount int64
	s.db.Model(&models.PurchaseItem{}).Where("purchase_id = ?", purchase.ID).Count(&itemCount)
	s.Zero(itemCount)
}

func (s *InventoryFlowSuite) TestConcurrentFinalizeHasSingleWinner() {
	purchase, err := s.purchases.Create(&CreatePurchaseRequest{
		SupplierID: s.supplier.ID,
		Items:      map[uuid.UUID]int{s.beans.ID: 10},
	})
	s.Require().NoError(err)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.purchases.MarkArrived(purchase.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var finalized *apperrors.AlreadyFinalizedError
		s.Require().ErrorAs(err, &finalized)
		conflicts++
	}

	s.Equal(1, successes)
	s.Equal(1, conflicts)
	s.Equal(10, s.quantityOf(s.beans.ID))
}

func (s *InventoryFlowSuite) TestStockLevelsListing() {
	s.receiveStock(s.beans.ID, 10)
	s.receiveStock(s.cups.ID, 200)

	params := utils.PaginationParams{Page: 1, Limit: 20, Sort: "updated_at", Order: "desc"}
	levels, total, err := s.stock.ListLevels(params)
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.Len(levels, 2)
}
