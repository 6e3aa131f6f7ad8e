package sentiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"car_dealership/internal/adapters/observability"
	"car_dealership/internal/domain"
)

const classifyPrompt = `You classify the sentiment of customer reviews of car dealerships.
Answer with exactly one lowercase word: positive, negative or neutral.`

// LLM classifies text through an OpenAI-compatible chat completions endpoint
// (OpenAI itself, llama.cpp, vLLM, ...).
type LLM struct {
	client openai.Client
	model  string
}

func NewLLM(baseURL, apiKey, model string) (*LLM, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("openai base URL is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if apiKey == "" {
		// local OpenAI-compatible servers accept any key
		apiKey = "dummy"
	}
	return &LLM{
		client: openai.NewClient(option.WithBaseURL(baseURL), option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (l *LLM) Analyze(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrNoSentiment
	}

	ctx, span := observability.Tracer().Start(ctx, "sentiment.llm")
	defer span.End()

	start := time.Now()
	completion, err := l.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(classifyPrompt),
			openai.UserMessage(text),
		},
		Model:       shared.ChatModel(l.model),
		Temperature: openai.Float(0),
	})
	if err != nil {
		observability.ObserveExternal("sentiment_llm", "chat", 0, time.Since(start))
		span.RecordError(err)
		return "", err
	}
	observability.ObserveExternal("sentiment_llm", "chat", 200, time.Since(start))
	if len(completion.Choices) == 0 {
		return "", domain.ErrNoSentiment
	}
	return normalizeLabel(completion.Choices[0].Message.Content)
}

// normalizeLabel maps a free-form model reply onto positive|negative|neutral.
func normalizeLabel(reply string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(reply))
	s = strings.Trim(s, ".!\"' \n")
	for _, label := range []string{"positive", "negative", "neutral"} {
		if s == label || strings.HasPrefix(s, label) {
			return label, nil
		}
	}
	return "", domain.ErrNoSentiment
}
