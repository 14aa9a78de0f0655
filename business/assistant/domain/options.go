package domain

import (
	"fmt"
	"time"

	"github.com/fd1az/gas-genie/internal/apperror"
)

// ModelOptions are the sampling settings for one completion.
type ModelOptions struct {
	MaxTokens        int
	TopP             float64
	TopK             int
	PresencePenalty  float64
	FrequencyPenalty float64
	Temperature      float64
	Timeout          time.Duration
}

// StandardOptions is the preset for substantive questions.
func StandardOptions() ModelOptions {
	return ModelOptions{
		MaxTokens:        2048,
		TopP:             0.8,
		TopK:             10,
		PresencePenalty:  0,
		FrequencyPenalty: 0,
		Temperature:      0.7,
		Timeout:          10 * time.Second,
	}
}

// CasualOptions is the smaller preset used for small talk.
func CasualOptions() ModelOptions {
	o := StandardOptions()
	o.MaxTokens = 256
	o.TopP = 0.6
	o.TopK = 3
	return o
}

// Validate checks every option against its accepted range.
func (o ModelOptions) Validate() error {
	switch {
	case o.Temperature < 0 || o.Temperature > 2:
		return invalidOption(fmt.Sprintf("temperature must be between 0 and 2, got %v", o.Temperature))
	case o.TopP < 0 || o.TopP > 1:
		return invalidOption(fmt.Sprintf("top_p must be between 0 and 1, got %v", o.TopP))
	case o.TopK < 0:
		return invalidOption(fmt.Sprintf("top_k must be non-negative, got %d", o.TopK))
	case o.PresencePenalty < -2 || o.PresencePenalty > 2:
		return invalidOption(fmt.Sprintf("presence_penalty must be between -2 and 2, got %v", o.PresencePenalty))
	case o.FrequencyPenalty < -2 || o.FrequencyPenalty > 2:
		return invalidOption(fmt.Sprintf("frequency_penalty must be between -2 and 2, got %v", o.FrequencyPenalty))
	case o.MaxTokens <= 0:
		return invalidOption(fmt.Sprintf("max_tokens must be positive, got %d", o.MaxTokens))
	case o.Timeout <= 0:
		return invalidOption(fmt.Sprintf("timeout must be positive, got %s", o.Timeout))
	}
	return nil
}

// Presets pairs the two option sets and picks one per prompt.
type Presets struct {
	Standard ModelOptions
	Casual   ModelOptions
}

// DefaultPresets returns the standard and casual presets with timeout applied
// to both. A zero timeout keeps the default.
func DefaultPresets(timeout time.Duration) Presets {
	p := Presets{Standard: StandardOptions(), Casual: CasualOptions()}
	if timeout > 0 {
		p.Standard.Timeout = timeout
		p.Casual.Timeout = timeout
	}
	return p
}

// Validate validates both presets.
func (p Presets) Validate() error {
	if err := p.Standard.Validate(); err != nil {
		return err
	}
	return p.Casual.Validate()
}

// For selects the casual preset when prompt reads as small talk.
func (p Presets) For(prompt string) ModelOptions {
	if IsCasualConversation(prompt) {
		return p.Casual
	}
	return p.Standard
}

func invalidOption(context string) error {
	return apperror.New(apperror.CodeConfigurationError, apperror.WithContext(context))
}
