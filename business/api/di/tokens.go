// Package di contains dependency injection tokens for the api context.
package di

import (
	"github.com/fd1az/gas-genie/business/api/rest"
	"github.com/fd1az/gas-genie/internal/di"
	"github.com/fd1az/gas-genie/internal/health"
)

// Public service tokens - exposed to other modules
var (
	Server = di.NewToken[*rest.Server]("api.Server")
)

// Private dependency tokens - internal to api module
var (
	HealthRegistry = di.NewToken[*health.Registry]("api:healthRegistry")
)

// Helper functions for type-safe access
func GetServer(c di.ServiceRegistry) *rest.Server {
	return di.GetToken(c, Server)
}

func GetHealthRegistry(c di.ServiceRegistry) *health.Registry {
	return di.GetToken(c, HealthRegistry)
}
