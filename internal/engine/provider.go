package engine

import (
	"fmt"

	"prompt-forge/server/internal/config"
	"prompt-forge/server/internal/interfaces"
)

// NewTextGenerator returns the client for the configured provider
func NewTextGenerator(cfg config.AIConfig) (interfaces.TextGenerator, error) {
	switch cfg.Provider {
	case config.ProviderGemini, "":
		return NewGeminiClient(cfg.Gemini), nil
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAI), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %s", cfg.Provider)
	}
}
