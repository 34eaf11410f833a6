// internal/utils/response_test.go
package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/javajoker/erp-backend/internal/apperrors"
)

func domainErrorStatus(t *testing.T, err error) (int, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	DomainErrorResponse(c, err)
	return w.Code, w.Body.String()
}

func TestDomainErrorResponseNotFound(t *testing.T) {
	id := uuid.New()
	code, body := domainErrorStatus(t, apperrors.NewNotFound("product", id))

	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body, id.String())
}

func TestDomainErrorResponseInvalidLineItem(t *testing.T) {
	code, body := domainErrorStatus(t, &apperrors.InvalidLineItemError{
		ProductID: uuid.New(),
		Reason:    "quantity must be positive, got -1",
	})

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body, "quantity must be positive")
}

func TestDomainErrorResponseAlreadyFinalized(t *testing.T) {
	code, body := domainErrorStatus(t, &apperrors.AlreadyFinalizedError{Kind: "order", ID: uuid.New()})

	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, body, "already finalized")
}

func TestDomainErrorResponseInsufficientStock(t *testing.T) {
	code, body := domainErrorStatus(t, &apperrors.InsufficientStockError{
		ProductID: uuid.New(),
		Available: 7,
		Requested: 50,
	})

	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, body, `"available":7`)
	assert.Contains(t, body, `"requested":50`)
}

func TestDomainErrorResponseUnwrapsWrappedDomainErrors(t *testing.T) {
	wrapped := fmt.Errorf("marking arrived: %w", &apperrors.AlreadyFinalizedError{Kind: "purchase", ID: uuid.New()})
	code, _ := domainErrorStatus(t, wrapped)

	assert.Equal(t, http.StatusConflict, code)
}

func TestDomainErrorResponseFallsBackToInternalError(t *testing.T) {
	code, _ := domainErrorStatus(t, errors.New("connection refused"))

	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestDomainErrorResponseValidation(t *testing.T) {
	form := struct {
		Name string `validate:"required"`
	}{}
	err := fmt.Errorf("validation failed: %w", ValidateStruct(&form))

	code, body := domainErrorStatus(t, err)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body, "VALIDATION_ERROR")
}
