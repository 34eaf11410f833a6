// internal/handlers/stock.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/erp-backend/internal/services"
	"github.com/javajoker/erp-backend/internal/utils"
)

// StockHandler exposes read-only views of the stock ledger. Stock is
// only ever mutated through purchase arrivals and order deliveries.
type StockHandler struct {
	stockService *services.StockService
}

func NewStockHandler(stockService *services.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// GET /stock
func (h *StockHandler) GetStockLevels(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	levels, total, err := h.stockService.ListLevels(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(levels, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /stock/:productId
func (h *StockHandler) GetProductStock(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	quantity, err := h.stockService.QuantityOf(productID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product_id": productID,
		"quantity":   quantity,
	})
}
