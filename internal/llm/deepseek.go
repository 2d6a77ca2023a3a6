package llm

import (
	"errors"

	"github.com/openai/openai-go/option"
)

const (
	defaultDeepSeekBaseURL = "https://api.deepseek.com"
	defaultDeepSeekModel   = "deepseek-chat"
)

// ErrMissingAPIKey is returned when a hosted provider has no credentials.
var ErrMissingAPIKey = errors.New("DEEPSEEK_API_KEY is not set")

// DeepSeekClient implements the Client interface against DeepSeek's
// OpenAI-compatible endpoint.
type DeepSeekClient struct {
	openAIChat
	baseURL string
}

// NewDeepSeekClient creates a DeepSeek client using DEEPSEEK_API_KEY.
func NewDeepSeekClient(model, baseURL string) (*DeepSeekClient, error) {
	apiKey := firstEnv("DEEPSEEK_API_KEY")
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	baseURL = withDefault(baseURL, defaultDeepSeekBaseURL)

	return &DeepSeekClient{
		openAIChat: newOpenAIChat(ProviderDeepSeek, withDefault(model, defaultDeepSeekModel), baseURL, apiKey,
			option.WithMaxRetries(1)),
		baseURL: baseURL,
	}, nil
}
