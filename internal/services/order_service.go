// internal/services/order_service.go
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

// OrderService is the outbound mirror of PurchaseService: customers in
// place of suppliers, sale prices in place of purchase prices, and
// MarkDelivered decrementing stock instead of incrementing it. A delivery
// that would drive any product negative is rejected as a whole; there is
// no partial delivery.
type OrderService struct {
	db    *gorm.DB
	stock *StockService
	now   func() time.Time
}

type CreateOrderRequest struct {
	CustomerID uuid.UUID         `json:"customer_id" validate:"required"`
	Items      map[uuid.UUID]int `json:"items" validate:"required,min=1"`
}

type UpdateOrderRequest struct {
	Items map[uuid.UUID]int `json:"items" validate:"required,min=1"`
}

type OrderSearchParams struct {
	utils.PaginationParams
	CustomerID *uuid.UUID
	Delivered  *bool
}

func NewOrderService(db *gorm.DB, stock *StockService) *OrderService {
	return &OrderService{
		db:    db,
		stock: stock,
		now:   time.Now,
	}
}

// WithClock overrides the service's time source for deterministic tests.
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

func (s *OrderService) Create(req *CreateOrderRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var order *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, "id = ?", req.CustomerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFound("customer", req.CustomerID)
			}
			return fmt.Errorf("database error: %w", err)
		}

		products, err := resolveProducts(tx, req.Items)
		if err != nil {
			return err
		}

		lines, err := PriceLines(products, req.Items, SalePriceOf)
		if err != nil {
			return err
		}

		o, err := models.NewOrder(req.CustomerID, orderItemsFrom(lines), s.now())
		if err != nil {
			return err
		}

		if err := tx.Create(o).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.db.Preload("Items").Preload("Customer").First(order, "id = ?", order.ID)
	return order, nil
}

func (s *OrderService) Update(id uuid.UUID, req *UpdateOrderRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, id)
		if err != nil {
			return err
		}

		products, err := resolveProducts(tx, req.Items)
		if err != nil {
			return err
		}

		lines, err := PriceLines(products, req.Items, SalePriceOf)
		if err != nil {
			return err
		}

		if err := order.SetItems(orderItemsFrom(lines)); err != nil {
			return err
		}

		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("failed to replace order items: %w", err)
		}
		if err := tx.Create(&order.Items).Error; err != nil {
			return fmt.Errorf("failed to replace order items: %w", err)
		}

		if err := tx.Model(order).Update("total", order.Total).Error; err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(id)
}

// MarkDelivered flips the delivered flag and decrements stock for every
// line item in one unit of work. When any product is short the whole
// transaction rolls back and InsufficientStockError surfaces with the
// available and requested quantities.
func (s *OrderService) MarkDelivered(id uuid.UUID) (*models.Order, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, id)
		if err != nil {
			return err
		}

		if err := order.MarkDelivered(s.now()); err != nil {
			return err
		}

		for _, item := range order.Items {
			if err := s.stock.Decrease(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{
			"delivered":    true,
			"delivered_at": order.DeliveredAt,
		}
		if err := tx.Model(order).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(id)
}

func (s *OrderService) Delete(id uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, id)
		if err != nil {
			return err
		}

		if err := order.EnsureMutable(); err != nil {
			return err
		}

		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}
		if err := tx.Delete(order).Error; err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		return nil
	})
}

func (s *OrderService) GetOrder(id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items").Preload("Customer").First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("order", id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

func (s *OrderService) GetOrders(params OrderSearchParams) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{})

	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}
	if params.Delivered != nil {
		query = query.Where("delivered = ?", *params.Delivered)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	allowedSortFields := []string{"ordered_at", "created_at", "updated_at", "total", "delivered_at"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var orders []models.Order
	if err := query.Preload("Items").Preload("Customer").Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

func lockOrder(tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("order", id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

func orderItemsFrom(lines []PricedLine) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
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
