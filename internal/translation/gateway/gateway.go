package gateway

import (
	"context"
	"errors"
)

const (
	DefaultModel       = "llama3-70b-8192"
	FallbackModel      = "llama3-8b-8192"
	DefaultTemperature = 0.3

	// NoTranslation is returned for empty input or an empty completion.
	NoTranslation = "No translation available."
)

var ErrNotConfigured = errors.New("inference api key not configured")

// DefaultModels are the Groq models offered when TRANSLATION_MODELS is unset.
var DefaultModels = []string{"llama3-70b-8192", "llama3-8b-8192", "mixtral-8x7b-32768", "gemma-7b-it"}

type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

type Translator interface {
	Translate(ctx context.Context, text string, opts Options) (string, error)
}

// Offline stands in when no inference key is configured.
type Offline struct{}

func (Offline) Translate(context.Context, string, Options) (string, error) {
	return "", ErrNotConfigured
}
