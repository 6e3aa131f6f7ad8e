package sentiment

import (
	"fmt"

	"car_dealership/internal/domain"
	"car_dealership/internal/shared"
)

// FromConfig builds the analyzer selected by SENTIMENT_BACKEND.
func FromConfig(cfg shared.Config) (domain.SentimentAnalyzer, error) {
	switch cfg.SentimentBackend {
	case "", "http":
		return New(cfg.SentimentURL, cfg.SentimentTimeout)
	case "openai":
		return NewLLM(cfg.OpenAIBaseURL, cfg.OpenAIKey, cfg.OpenAIModel)
	default:
		return nil, fmt.Errorf("unknown sentiment backend %q", cfg.SentimentBackend)
	}
}
