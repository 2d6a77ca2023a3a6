package llm

import (
	"errors"
	"os"
	"strings"
)

const defaultLMStudioBaseURL = "http://localhost:1234/v1"

// LMStudioClient talks to a local LM Studio server.
type LMStudioClient struct {
	openAIChat
	baseURL string
}

// NewLMStudioClient requires a model name; LM Studio serves whatever is
// loaded and ignores the API key unless one is configured.
func NewLMStudioClient(model, baseURL string) (*LMStudioClient, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("lm studio model is required")
	}
	baseURL = withDefault(baseURL, defaultLMStudioBaseURL)
	apiKey := withDefault(firstEnv("LMSTUDIO_API_KEY", "OPENAI_API_KEY"), "lm-studio")

	return &LMStudioClient{
		openAIChat: newOpenAIChat(ProviderLMStudio, model, baseURL, apiKey),
		baseURL:    baseURL,
	}, nil
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(os.Getenv(n)); v != "" {
			return v
		}
	}
	return ""
}

func withDefault(value, fallback string) string {
	value = strings.TrimRight(strings.TrimSpace(value), "/")
	if value == "" {
		return fallback
	}
	return value
}
