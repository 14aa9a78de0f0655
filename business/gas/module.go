// Package gas implements the gas bounded context: price observations, trend
// analysis and send/wait recommendations.
package gas

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/gas-genie/business/gas/app"
	gasDI "github.com/fd1az/gas-genie/business/gas/di"
	"github.com/fd1az/gas-genie/business/gas/domain"
	"github.com/fd1az/gas-genie/business/gas/infra/ethereum"
	"github.com/fd1az/gas-genie/business/gas/infra/etherscan"
	"github.com/fd1az/gas-genie/internal/config"
	"github.com/fd1az/gas-genie/internal/di"
	"github.com/fd1az/gas-genie/internal/logger"
	"github.com/fd1az/gas-genie/internal/monolith"
)

// Module implements the gas bounded context.
type Module struct{}

// RegisterServices registers all gas services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register GasPriceSource (private - selected by gas.source)
	di.RegisterToken(c, gasDI.GasPriceSource, func(sr di.ServiceRegistry) app.GasPriceSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if cfg.Gas.Source == config.SourceRPC {
			srcCfg := ethereum.DefaultConfig(cfg.Gas.RPCURL)
			srcCfg.BlockCount = cfg.Gas.FeeHistoryBlocks
			srcCfg.Timeout = cfg.Gas.Timeout

			// Leave the reader nil so Startup dials when no shared client exists.
			var reader ethereum.FeeHistoryReader
			if client, ok := sr.Get("ethClient").(*ethclient.Client); ok && client != nil {
				reader = client
			}
			return ethereum.NewFeeHistorySource(srcCfg, reader, log)
		}

		srcCfg := etherscan.DefaultConfig(cfg.Gas.EtherscanAPIKey)
		srcCfg.BaseURL = cfg.Gas.EtherscanURL
		srcCfg.Timeout = cfg.Gas.Timeout
		srcCfg.RequestsPerSecond = cfg.Gas.RequestsPerSecond
		src, err := etherscan.NewSource(srcCfg, log)
		if err != nil {
			panic("failed to create etherscan source: " + err.Error())
		}
		return src
	})

	// Register GasService (public - exposed to other modules)
	di.RegisterToken(c, gasDI.GasService, func(sr di.ServiceRegistry) *app.GasService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		history := domain.NewPriceHistory(cfg.Gas.HistoryCapacity)
		svc, err := app.NewGasService(gasDI.GetGasPriceSource(sr), history, log)
		if err != nil {
			panic("failed to create gas service: " + err.Error())
		}
		return svc
	})

	return nil
}

// Startup initializes the gas module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	src := gasDI.GetGasPriceSource(mono.Services())

	// Sources backed by a node connection dial here.
	if connector, ok := src.(interface{ Connect(context.Context) error }); ok {
		if err := connector.Connect(ctx); err != nil {
			log.Error(ctx, "failed to connect gas source", "source", src.Name(), "error", err)
			// Don't fail - Fetch reports the connection error per request
		}
	}

	svc := gasDI.GetGasService(mono.Services())
	log.Info(ctx, "gas module started", "source", svc.SourceName())
	return nil
}
