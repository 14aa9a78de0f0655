// Package app contains application services and port definitions for the gas context.
package app

import (
	"context"

	"github.com/fd1az/gas-genie/business/gas/domain"
)

// GasPriceSource fetches one fresh gas-price observation.
type GasPriceSource interface {
	// Fetch returns the current observation or an upstream error.
	Fetch(ctx context.Context) (*domain.Observation, error)

	// Name identifies the source in logs and metrics.
	Name() string
}
