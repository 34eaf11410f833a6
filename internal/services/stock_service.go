// internal/services/stock_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/erp-backend/internal/apperrors"
	"github.com/javajoker/erp-backend/internal/models"
	"github.com/javajoker/erp-backend/internal/utils"
)

// StockService owns the per-product stock ledger. The mutating methods
// take the caller's open transaction so a coordinator can flip its
// aggregate and move stock in one atomic unit of work. Each mutation
// locks the product's row, so concurrent checks never run against a
// stale quantity.
type StockService struct {
	db *gorm.DB
}

func NewStockService(db *gorm.DB) *StockService {
	return &StockService{db: db}
}

// Increase adds quantity to the product's on-hand stock, creating the
// ledger row at zero on first touch.
func (s *StockService) Increase(tx *gorm.DB, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("stock increase quantity must be positive, got %d", quantity)
	}

	level, err := lockLevel(tx, productID)
	if err != nil {
		return err
	}

	level.Quantity += quantity
	if err := tx.Save(level).Error; err != nil {
		return fmt.Errorf("failed to update stock level: %w", err)
	}
	return nil
}

// Decrease subtracts quantity from the product's on-hand stock. The
// floor-at-zero invariant is enforced here, not by callers: when the
// available quantity is short the stored value is left untouched and
// InsufficientStockError is returned.
func (s *StockService) Decrease(tx *gorm.DB, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("stock decrease quantity must be positive, got %d", quantity)
	}

	level, err := lockLevel(tx, productID)
	if err != nil {
		return err
	}

	if level.Quantity < quantity {
		return &apperrors.InsufficientStockError{
			ProductID: productID,
			Available: level.Quantity,
			Requested: quantity,
		}
	}

	level.Quantity -= quantity
	if err := tx.Save(level).Error; err != nil {
		return fmt.Errorf("failed to update stock level: %w", err)
	}
	return nil
}

// QuantityOf reports the on-hand quantity, zero for products that have
// never moved. Read-only, no locking.
func (s *StockService) QuantityOf(productID uuid.UUID) (int, error) {
	var level models.StockLevel
	if err := s.db.First(&level, "product_id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("database error: %w", err)
	}
	return level.Quantity, nil
}

// ListLevels returns stock levels for reporting, paginated and sorted.
func (s *StockService) ListLevels(params utils.PaginationParams) ([]models.StockLevel, int64, error) {
	query := s.db.Model(&models.StockLevel{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count stock levels: %w", err)
	}

	allowedSortFields := []string{"updated_at", "quantity", "product_id"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var levels []models.StockLevel
	if err := query.Find(&levels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch stock levels: %w", err)
	}

	return levels, total, nil
}

// lockLevel loads the product's ledger row FOR UPDATE, creating it lazily
// at zero when the product has never moved.
func lockLevel(tx *gorm.DB, productID uuid.UUID) (*models.StockLevel, error) {
	var level models.StockLevel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&level, "product_id = ?", productID).Error
	if err == nil {
		return &level, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	level = models.StockLevel{ProductID: productID, Quantity: 0}
	if err := tx.Create(&level).Error; err != nil {
		return nil, fmt.Errorf("failed to create stock level: %w", err)
	}
	return &level, nil
}
