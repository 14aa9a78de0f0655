// Package assistant implements the assistant bounded context: query routing,
// prompt rendering and streamed model answers.
package assistant

import (
	"context"

	"github.com/fd1az/gas-genie/business/assistant/app"
	assistantDI "github.com/fd1az/gas-genie/business/assistant/di"
	"github.com/fd1az/gas-genie/business/assistant/domain"
	"github.com/fd1az/gas-genie/business/assistant/infra/fireworks"
	gasDI "github.com/fd1az/gas-genie/business/gas/di"
	"github.com/fd1az/gas-genie/internal/config"
	"github.com/fd1az/gas-genie/internal/di"
	"github.com/fd1az/gas-genie/internal/logger"
	"github.com/fd1az/gas-genie/internal/monolith"
)

// Module implements the assistant bounded context.
type Module struct{}

// RegisterServices registers all assistant services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register ChatCompletionStream (private - internal dependency)
	di.RegisterToken(c, assistantDI.ChatCompletionStream, func(sr di.ServiceRegistry) app.ChatCompletionStream {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		fwCfg := fireworks.DefaultConfig(cfg.LLM.APIKey)
		fwCfg.BaseURL = cfg.LLM.BaseURL
		fwCfg.Model = cfg.LLM.Model
		client, err := fireworks.NewClient(fwCfg, log)
		if err != nil {
			panic("failed to create fireworks client: " + err.Error())
		}
		return client
	})

	// Register Assistant (public - exposed to other modules)
	di.RegisterToken(c, assistantDI.Assistant, func(sr di.ServiceRegistry) *app.Assistant {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		a, err := app.NewAssistant(
			gasDI.GetGasService(sr),
			assistantDI.GetChatCompletionStream(sr),
			domain.DefaultPresets(cfg.LLM.Timeout),
			log,
		)
		if err != nil {
			panic("failed to create assistant: " + err.Error())
		}
		return a
	})

	return nil
}

// Startup resolves the assistant so wiring errors surface at boot.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	assistantDI.GetAssistant(mono.Services())
	mono.Logger().Info(ctx, "assistant module started", "model", mono.Config().LLM.Model)
	return nil
}
