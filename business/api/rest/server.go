// Package rest exposes the assistant and gas services over HTTP.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	assistantdomain "github.com/fd1az/gas-genie/business/assistant/domain"
	gasdomain "github.com/fd1az/gas-genie/business/gas/domain"
	"github.com/fd1az/gas-genie/internal/health"
	"github.com/fd1az/gas-genie/internal/logger"
)

// Assistant streams answers to free-form queries.
type Assistant interface {
	Assist(ctx context.Context, query, queryID string) <-chan assistantdomain.Fragment
}

// GasService serves recommendations, speed-up options and the price history.
type GasService interface {
	FetchAndRecommend(ctx context.Context) (*gasdomain.Recommendation, error)
	SpeedUpOptions(ctx context.Context, currentGwei float64) (*gasdomain.SpeedUpReport, error)
	History() []gasdomain.Observation
}

// Config holds HTTP server settings.
type Config struct {
	Port              int
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	AllowedOrigins    []string
}

// Server is the HTTP API.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	assistant  Assistant
	gas        GasService
	health     *health.Registry
	logger     logger.LoggerInterface
}

// NewServer builds the router and registers every route.
func NewServer(cfg Config, assistant Assistant, gas GasService, checks *health.Registry, log logger.LoggerInterface) *Server {
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		config:    cfg,
		router:    gin.New(),
		assistant: assistant,
		gas:       gas,
		health:    checks,
		logger:    log,
	}

	s.router.Use(gin.Recovery())
	s.router.Use(configureCORS(cfg.AllowedOrigins))
	s.router.Use(CorrelationIDMiddleware(log))
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ready", gin.WrapF(s.health.HandleReady))
	s.router.GET("/live", gin.WrapF(s.health.HandleLive))

	s.router.POST("/assist", s.handleAssist)
	s.router.GET("/ws/assist", s.handleAssistWS)

	gas := s.router.Group("/gas")
	gas.GET("", s.handleRecommendation)
	gas.GET("/speedup", s.handleSpeedUp)
	gas.GET("/history", s.handleHistory)
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "gas-genie-api")
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "api server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown drains open requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// handleHealth keeps the plain liveness body and adds check details.
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := s.health.Run(ctx)
	code := http.StatusOK
	if status.Status != health.StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
