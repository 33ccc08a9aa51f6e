package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/Deehands24/laymen-terms/internal/metrics"
)

const systemPrompt = `You are an expert in medical terminology. Your task is to translate complex medical terms and explanations into simple, easy-to-understand language for patients.

Guidelines:
1. Explain medical terms in plain language a 12-year-old could understand
2. Avoid technical jargon unless absolutely necessary
3. Use analogies and examples where helpful
4. Keep explanations concise but complete
5. Maintain medical accuracy while simplifying
6. Format the response in clear paragraphs
7. Clearly highlight any action items or important warnings`

// OpenAI talks to any OpenAI-compatible chat completions API; Groq by default.
// Each model gets its own circuit breaker so a failing primary model does not
// block the fallback.
type OpenAI struct {
	client *openai.Client

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewOpenAI(apiKey, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAI{
		client:   openai.NewClientWithConfig(cfg),
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (g *OpenAI) breaker(model string) *gobreaker.CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	cb, ok := g.breakers[model]
	if !ok {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "inference-" + model,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		})
		g.breakers[model] = cb
	}
	return cb
}

func (g *OpenAI) Translate(ctx context.Context, text string, opts Options) (string, error) {
	if strings.TrimSpace(text) == "" {
		return NoTranslation, nil
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	temperature := opts.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: temperature,
		MaxTokens:   opts.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Translate the following medical text into simple language: %q", text),
			},
		},
	}

	start := time.Now()
	result, err := g.breaker(model).Execute(func() (interface{}, error) {
		return g.client.CreateChatCompletion(ctx, req)
	})
	metrics.GatewayRequestDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	if err != nil {
		status := "error"
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			status = "circuit_open"
		}
		metrics.GatewayRequestsTotal.WithLabelValues(model, status).Inc()
		return "", errors.Wrapf(err, "chat completion with %s", model)
	}
	metrics.GatewayRequestsTotal.WithLabelValues(model, "ok").Inc()

	resp := result.(openai.ChatCompletionResponse)

	if len(resp.Choices) == 0 {
		return NoTranslation, nil
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return NoTranslation, nil
	}
	return out, nil
}
