// Package api implements the HTTP surface: server-sent and WebSocket assist
// streams, gas endpoints and health probes.
package api

import (
	"context"

	apiDI "github.com/fd1az/gas-genie/business/api/di"
	"github.com/fd1az/gas-genie/business/api/rest"
	assistantDI "github.com/fd1az/gas-genie/business/assistant/di"
	gasDI "github.com/fd1az/gas-genie/business/gas/di"
	"github.com/fd1az/gas-genie/internal/config"
	"github.com/fd1az/gas-genie/internal/di"
	"github.com/fd1az/gas-genie/internal/health"
	"github.com/fd1az/gas-genie/internal/logger"
	"github.com/fd1az/gas-genie/internal/monolith"
)

// Module implements the api bounded context.
type Module struct{}

// RegisterServices registers the server and its health registry.
func (m *Module) RegisterServices(c di.Container) error {
	// Register HealthRegistry (private - checks are added at startup)
	di.RegisterToken(c, apiDI.HealthRegistry, func(sr di.ServiceRegistry) *health.Registry {
		cfg := sr.Get("config").(*config.Config)
		return health.NewRegistry(cfg.App.Name)
	})

	// Register Server (public - started by the entrypoint)
	di.RegisterToken(c, apiDI.Server, func(sr di.ServiceRegistry) *rest.Server {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return rest.NewServer(
			rest.Config{
				Port:              cfg.Server.Port,
				ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
				ShutdownTimeout:   cfg.Server.ShutdownTimeout,
				AllowedOrigins:    cfg.Server.CORSAllowedOrigins,
			},
			assistantDI.GetAssistant(sr),
			gasDI.GetGasService(sr),
			apiDI.GetHealthRegistry(sr),
			log,
		)
	})

	return nil
}

// Startup registers health checks. The entrypoint starts the server.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	checks := apiDI.GetHealthRegistry(mono.Services())
	gasSvc := gasDI.GetGasService(mono.Services())

	checks.RegisterCheck("gas_source", gasSvc.SourceHealth)

	apiDI.GetServer(mono.Services())
	mono.Logger().Info(ctx, "api module started", "port", mono.Config().Server.Port)
	return nil
}
