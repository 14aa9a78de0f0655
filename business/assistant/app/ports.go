// Package app contains application services and port definitions for the assistant context.
package app

import (
	"context"

	"github.com/fd1az/gas-genie/business/assistant/domain"
	gasdomain "github.com/fd1az/gas-genie/business/gas/domain"
)

// ChatCompletionStream streams a model completion for one prompt. The channel
// is closed after the last fragment; failures arrive as a terminal error
// fragment and never as a panic or a dropped channel.
type ChatCompletionStream interface {
	Stream(ctx context.Context, prompt string, opts domain.ModelOptions) <-chan domain.Fragment
}

// GasDataProvider produces a fresh gas recommendation.
type GasDataProvider interface {
	FetchAndRecommend(ctx context.Context) (*gasdomain.Recommendation, error)
}
