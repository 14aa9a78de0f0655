package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fd1az/gas-genie/internal/apperror"
)

func (s *Server) handleRecommendation(c *gin.Context) {
	rec, err := s.gas.FetchAndRecommend(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleSpeedUp(c *gin.Context) {
	raw := c.Query("current_price")
	price, err := strconv.ParseFloat(raw, 64)
	if raw == "" || err != nil {
		s.respondError(c, apperror.Validation(apperror.CodeInvalidInput, "current_price must be a number in Gwei"))
		return
	}

	report, err := s.gas.SpeedUpOptions(c.Request.Context(), price)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleHistory(c *gin.Context) {
	observations := s.gas.History()
	c.JSON(http.StatusOK, gin.H{
		"count":        len(observations),
		"observations": observations,
	})
}

// respondError writes err as an AppError body with its status code.
func (s *Server) respondError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal(apperror.CodeInternalError, "unexpected error", err)
	}
	if id := GetCorrelationID(c); id != "" {
		appErr.WithTraceID(id)
	}

	s.logger.Warn(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(appErr.StatusCode, appErr.ToResponse())
}
