package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/rmejia/cobranza-api/internal/services"
)

func TestRespondError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{
			name:           "validation error maps to 400",
			err:            &services.ValidationError{Field: "amount", Message: "el monto debe ser positivo"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "authorization error maps to 403",
			err:            &services.AuthorizationError{Capability: "delete"},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "not found maps to 404",
			err:            services.ErrNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid state maps to 409",
			err:            services.ErrInvalidState,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "persistence error maps to 500",
			err:            &services.PersistenceError{Step: "update_order", Err: errors.New("timeout")},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "unknown error maps to 500",
			err:            errors.New("algo salió mal"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tt.err)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRespondError_PersistenceIncludesFailedStep(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, &services.PersistenceError{Step: "insert_cheques", Err: errors.New("timeout")})

	assert.Contains(t, w.Body.String(), `"failed_step":"insert_cheques"`)
}

func TestParseDate(t *testing.T) {
	got, ok := parseDate("2026-08-20")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), got)

	_, ok = parseDate("")
	assert.False(t, ok)

	_, ok = parseDate("20/08/2026")
	assert.False(t, ok)
}
