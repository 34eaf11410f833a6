// internal/services/catalog_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/javajoker/erp-backend/internal/apperrors"
	"github.com/javajoker/erp-backend/internal/models"
	"github.com/javajoker/erp-backend/internal/utils"
)

// CatalogService manages product master data. Price edits here only
// affect future transactions; existing line items keep their snapshots.
type CatalogService struct {
	db *gorm.DB
}

type CreateProductRequest struct {
	Name          string          `json:"name" validate:"required,min=2,max=255"`
	UnitLabel     string          `json:"unit_label" validate:"required,max=50"`
	PurchasePrice decimal.Decimal `json:"purchase_price" validate:"required,gt=0"`
	SalePrice     decimal.Decimal `json:"sale_price" validate:"required,gt=0"`
	Tags          []string        `json:"tags,omitempty"`
}

type UpdateProductRequest struct {
	Name          string           `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	UnitLabel     string           `json:"unit_label,omitempty" validate:"omitempty,max=50"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty" validate:"omitempty,gt=0"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty" validate:"omitempty,gt=0"`
	Tags          []string         `json:"tags,omitempty"`
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) CreateProduct(req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product := &models.Product{
		Name:          req.Name,
		UnitLabel:     req.UnitLabel,
		PurchasePrice: req.PurchasePrice,
		SalePrice:     req.SalePrice,
		Tags:          req.Tags,
	}

	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

func (s *CatalogService) GetProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("product", id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *CatalogService) GetProducts(params utils.PaginationParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{})

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ?", searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "purchase_price", "sale_price"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

func (s *CatalogService) UpdateProduct(id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.UnitLabel != "" {
		updates["unit_label"] = req.UnitLabel
	}
	if req.PurchasePrice != nil {
		updates["purchase_price"] = *req.PurchasePrice
	}
	if req.SalePrice != nil {
		updates["sale_price"] = *req.SalePrice
	}
	if req.Tags != nil {
		updates["tags"] = pq.StringArray(req.Tags)
	}

	if len(updates) > 0 {
		if err := s.db.Model(product).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}

	return s.GetProduct(id)
}

// DeleteProduct refuses to remove a product that any transaction line
// item still references; those snapshots stay resolvable by id.
func (s *CatalogService) DeleteProduct(id uuid.UUID) error {
	product, err := s.GetProduct(id)
	if err != nil {
		return err
	}

	var referenced int64
	if err := s.db.Model(&models.PurchaseItem{}).Where("product_id = ?", id).Count(&referenced).Error; err != nil {
		return fmt.Errorf("failed to check purchase references: %w", err)
	}
	if referenced == 0 {
		if err := s.db.Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&referenced).Error; err != nil {
			return fmt.Errorf("failed to check order references: %w", err)
		}
	}
	if referenced > 0 {
		return errors.New("cannot delete product referenced by transactions")
	}

	if err := s.db.Delete(product).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}
