// Package di contains dependency injection tokens for the gas context.
package di

import (
	"github.com/fd1az/gas-genie/business/gas/app"
	"github.com/fd1az/gas-genie/internal/di"
)

// Public service tokens - exposed to other modules
var (
	GasService = di.NewToken[*app.GasService]("gas.GasService")
)

// Private dependency tokens - internal to gas module
var (
	GasPriceSource = di.NewToken[app.GasPriceSource]("gas:gasPriceSource")
)

// Helper functions for type-safe access
func GetGasService(c di.ServiceRegistry) *app.GasService {
	return di.GetToken(c, GasService)
}

func GetGasPriceSource(c di.ServiceRegistry) app.GasPriceSource {
	return di.GetToken(c, GasPriceSource)
}
