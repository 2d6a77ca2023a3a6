package llm

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	ProviderCopilot  = "copilot"
	ProviderOllama   = "ollama"
	ProviderLMStudio = "lmstudio"
	ProviderDeepSeek = "deepseek"
	ProviderNone     = "none"
)

// chatTemperature is used for free-form conversation; JSON calls use 0.
const chatTemperature = 0.7

// ErrDisabled is returned by NewClient when the provider is "none".
var ErrDisabled = errors.New("LLM provider disabled")

type constructor func(model, baseURL string) (Client, error)

var constructors = map[string]constructor{
	ProviderCopilot: func(model, _ string) (Client, error) { return NewCopilotClient(model) },
	ProviderOllama: func(model, baseURL string) (Client, error) {
		return NewOllamaClient(model, baseURL)
	},
	ProviderLMStudio: func(model, baseURL string) (Client, error) {
		return NewLMStudioClient(model, baseURL)
	},
	ProviderDeepSeek: func(model, baseURL string) (Client, error) {
		return NewDeepSeekClient(model, baseURL)
	},
}

var aliases = map[string]string{
	"":          ProviderCopilot,
	"lm-studio": ProviderLMStudio,
}

// NormalizeProvider lowercases a provider name and resolves aliases.
func NormalizeProvider(provider string) string {
	p := strings.ToLower(strings.TrimSpace(provider))
	if canonical, ok := aliases[p]; ok {
		return canonical
	}
	return p
}

// Providers lists the names NewClient accepts, "none" included.
func Providers() []string {
	out := make([]string, 0, len(constructors)+1)
	for name := range constructors {
		out = append(out, name)
	}
	sort.Strings(out)
	return append(out, ProviderNone)
}

// NewClient builds the client for provider. An empty baseURL selects the
// provider's own default endpoint.
func NewClient(provider, model, baseURL string) (Client, error) {
	name := NormalizeProvider(provider)
	if name == ProviderNone {
		return nil, ErrDisabled
	}
	build, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unsupported LLM provider %q (want one of %s)", provider, strings.Join(Providers(), ", "))
	}
	return build(model, baseURL)
}
