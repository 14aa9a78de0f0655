// Package di contains dependency injection tokens for the assistant context.
package di

import (
	"github.com/fd1az/gas-genie/business/assistant/app"
	"github.com/fd1az/gas-genie/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Assistant = di.NewToken[*app.Assistant]("assistant.Assistant")
)

// Private dependency tokens - internal to assistant module
var (
	ChatCompletionStream = di.NewToken[app.ChatCompletionStream]("assistant:chatCompletionStream")
)

// Helper functions for type-safe access
func GetAssistant(c di.ServiceRegistry) *app.Assistant {
	return di.GetToken(c, Assistant)
}

func GetChatCompletionStream(c di.ServiceRegistry) app.ChatCompletionStream {
	return di.GetToken(c, ChatCompletionStream)
}
