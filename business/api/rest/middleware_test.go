package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCorrelationIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name                 string
		requestCorrelationID string
		expectNewID          bool
	}{
		{name: "new ID generated when header not present", expectNewID: true},
		{name: "existing ID preserved", requestCorrelationID: "corr-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CorrelationIDMiddleware(&mockLogger{}))

			var fromCtx string
			router.GET("/test", func(c *gin.Context) {
				fromCtx = CorrelationIDFromContext(c.Request.Context())
				c.JSON(http.StatusOK, gin.H{"correlation_id": GetCorrelationID(c)})
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.requestCorrelationID != "" {
				req.Header.Set(CorrelationIDHeader, tt.requestCorrelationID)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			got := w.Header().Get(CorrelationIDHeader)
			assert.NotEmpty(t, got)
			assert.Equal(t, got, fromCtx)
			if !tt.expectNewID {
				assert.Equal(t, tt.requestCorrelationID, got)
			}
		})
	}
}
