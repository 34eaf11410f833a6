// internal/services/purchase_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/erp-backend/internal/apperrors"
	"github.com/javajoker/erp-backend/internal/models"
	"github.com/javajoker/erp-backend/internal/utils"
)

// PurchaseService coordinates the inbound transaction flow: it resolves
// the supplier and products, prices line items at the purchase price and
// runs every mutation inside a single database transaction. Stock moves
// exclusively in MarkArrived; create and update never touch the ledger.
type PurchaseService struct {
	db    *gorm.DB
	stock *StockService
	now   func() time.Time
}

type CreatePurchaseRequest struct {
	SupplierID uuid.UUID         `json:"supplier_id" validate:"required"`
	Items      map[uuid.UUID]int `json:"items" validate:"required,min=1"`
}

type UpdatePurchaseRequest struct {
	Items map[uuid.UUID]int `json:"items" validate:"required,min=1"`
}

type PurchaseSearchParams struct {
	utils.PaginationParams
	SupplierID *uuid.UUID
	Arrived    *bool
}

func NewPurchaseService(db *gorm.DB, stock *StockService) *PurchaseService {
	return &PurchaseService{
		db:    db,
		stock: stock,
		now:   time.Now,
	}
}

// WithClock overrides the service's time source for deterministic tests.
func (s *PurchaseService) WithClock(now func() time.Time) *PurchaseService {
	s.now = now
	return s
}

func (s *PurchaseService) Create(req *CreatePurchaseRequest) (*models.Purchase, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var purchase *models.Purchase
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var supplier models.Supplier
		if err := tx.First(&supplier, "id = ?", req.SupplierID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFound("supplier", req.SupplierID)
			}
			return fmt.Errorf("database error: %w", err)
		}

		products, err := resolveProducts(tx, req.Items)
		if err != nil {
			return err
		}

		lines, err := PriceLines(products, req.Items, PurchasePriceOf)
		if err != nil {
			return err
		}

		p, err := models.NewPurchase(req.SupplierID, purchaseItemsFrom(lines), s.now())
		if err != nil {
			return err
		}

		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("failed to create purchase: %w", err)
		}

		purchase = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.db.Preload("Items").Preload("Supplier").First(purchase, "id = ?", purchase.ID)
	return purchase, nil
}

// Update fully replaces the line item set: the old rows are deleted, the
// repriced rows inserted and the total recomputed. Fails with
// AlreadyFinalizedError once the purchase has arrived.
func (s *PurchaseService) Update(id uuid.UUID, req *UpdatePurchaseRequest) (*models.Purchase, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		purchase, err := lockPurchase(tx, id)
		if err != nil {
			return err
		}

		products, err := resolveProducts(tx, req.Items)
		if err != nil {
			return err
		}

		lines, err := PriceLines(products, req.Items, PurchasePriceOf)
		if err != nil {
			return err
		}

		if err := purchase.SetItems(purchaseItemsFrom(lines)); err != nil {
			return err
		}

		if err := tx.Where("purchase_id = ?", purchase.ID).Delete(&models.PurchaseItem{}).Error; err != nil {
			return fmt.Errorf("failed to replace purchase items: %w", err)
		}
		if err := tx.Create(&purchase.Items).Error; err != nil {
			return fmt.Errorf("failed to replace purchase items: %w", err)
		}

		if err := tx.Model(purchase).Update("total", purchase.Total).Error; err != nil {
			return fmt.Errorf("failed to update purchase: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetPurchase(id)
}

// MarkArrived is the atomic boundary of the purchasing flow: the arrived
// flip and every stock increment commit together or not at all. The
// purchase row is locked so a concurrent caller observes arrived == true
// and fails with AlreadyFinalizedError instead of double-incrementing.
func (s *PurchaseService) MarkArrived(id uuid.UUID) (*models.Purchase, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		purchase, err := lockPurchase(tx, id)
		if err != nil {
			return err
		}

		if err := purchase.MarkArrived(s.now()); err != nil {
			return err
		}

		for _, item := range purchase.Items {
			if err := s.stock.Increase(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{
			"arrived":    true,
			"arrived_at": purchase.ArrivedAt,
		}
		if err := tx.Model(purchase).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update purchase: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetPurchase(id)
}

// Delete removes an open purchase together with its items. An arrived
// purchase is a permanent financial record and cannot be removed.
func (s *PurchaseService) Delete(id uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		purchase, err := lockPurchase(tx, id)
		if err != nil {
			return err
		}

		if err := purchase.EnsureMutable(); err != nil {
			return err
		}

		if err := tx.Where("purchase_id = ?", purchase.ID).Delete(&models.PurchaseItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete purchase items: %w", err)
		}
		if err := tx.Delete(purchase).Error; err != nil {
			return fmt.Errorf("failed to delete purchase: %w", err)
		}
		return nil
	})
}

func (s *PurchaseService) GetPurchase(id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := s.db.Preload("Items").Preload("Supplier").First(&purchase, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("purchase", id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &purchase, nil
}

func (s *PurchaseService) GetPurchases(params PurchaseSearchParams) ([]models.Purchase, int64, error) {
	query := s.db.Model(&models.Purchase{})

	if params.SupplierID != nil {
		query = query.Where("supplier_id = ?", *params.SupplierID)
	}
	if params.Arrived != nil {
		query = query.Where("arrived = ?", *params.Arrived)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count purchases: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "total", "arrived_at"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var purchases []models.Purchase
	if err := query.Preload("Items").Preload("Supplier").Find(&purchases).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch purchases: %w", err)
	}

	return purchases, total, nil
}

// lockPurchase loads the purchase and its items with the row locked for
// the remainder of the transaction.
func lockPurchase(tx *gorm.DB, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		First(&purchase, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("purchase", id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &purchase, nil
}

func purchaseItemsFrom(lines []PricedLine) []models.PurchaseItem {
	items := make([]models.PurchaseItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.PurchaseItem{
			ProductID:        line.ProductID,
			ProductName:      line.ProductName,
			ProductUnitLabel: line.ProductUnitLabel,
			Quantity:         line.Quantity,
			UnitPrice:        line.UnitPrice,
			LineTotal:        line.LineTotal,
		})
	}
	return items
}

// resolveProducts loads every product referenced by the quantity map and
// fails with NotFound naming the first missing id (in id order).
func resolveProducts(tx *gorm.DB, quantities map[uuid.UUID]int) (map[uuid.UUID]*models.Product, error) {
	ids := sortedProductIDs(quantities)

	var products []models.Product
	if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, apperrors.NewNotFound("product", id)
		}
	}

	return byID, nil
}
