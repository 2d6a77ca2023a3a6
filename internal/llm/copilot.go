package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/openai/openai-go/option"
)

const (
	copilotTokenURL = "https://api.github.com/copilot_internal/v2/token"
	copilotBaseURL  = "https://api.githubcopilot.com"

	// DefaultModel is the default Copilot model.
	DefaultModel = "gpt-4o"

	userAgent = "Daybook/1.0"

	// copilotRefreshMargin renews the bearer token before it expires.
	copilotRefreshMargin = time.Minute
)

// CopilotClient implements the Client interface using GitHub Copilot's API.
type CopilotClient struct {
	openAIChat
}

// NewCopilotClient exchanges the user's GitHub token for a Copilot bearer
// token. The bearer is renewed before each request once it nears expiry.
func NewCopilotClient(model string) (*CopilotClient, error) {
	if model == "" {
		model = DefaultModel
	}

	githubToken, err := LoadGitHubToken()
	if err != nil {
		return nil, err
	}

	auth := &copilotAuth{
		http:        &http.Client{Timeout: 30 * time.Second},
		tokenURL:    copilotTokenURL,
		githubToken: githubToken,
		now:         time.Now,
	}
	bearer, err := auth.bearer(context.Background())
	if err != nil {
		return nil, err
	}

	return &CopilotClient{newOpenAIChat(ProviderCopilot, model, copilotBaseURL, bearer,
		option.WithHeader("Editor-Version", userAgent),
		option.WithHeader("Editor-Plugin-Version", userAgent),
		option.WithHeader("Copilot-Integration-Id", "vscode-chat"),
		option.WithMiddleware(auth.middleware),
	)}, nil
}

// copilotAuth caches the short-lived Copilot bearer token.
type copilotAuth struct {
	http        *http.Client
	tokenURL    string
	githubToken string
	now         func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

type copilotToken struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

func (a *copilotAuth) bearer(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && a.now().Add(copilotRefreshMargin).Before(a.expiresAt) {
		return a.token, nil
	}
	tok, err := a.exchange(ctx)
	if err != nil {
		return "", fmt.Errorf("exchanging GitHub token: %w", err)
	}
	a.token = tok.Token
	a.expiresAt = time.Unix(tok.ExpiresAt, 0)
	return a.token, nil
}

func (a *copilotAuth) middleware(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	bearer, err := a.bearer(req.Context())
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	return next(req)
}

func (a *copilotAuth) exchange(ctx context.Context) (copilotToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.tokenURL, nil)
	if err != nil {
		return copilotToken{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+a.githubToken)
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.http.Do(req)
	if err != nil {
		return copilotToken{}, fmt.Errorf("making request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return copilotToken{}, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	var tok copilotToken
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return copilotToken{}, fmt.Errorf("decoding response: %w", err)
	}
	if tok.Token == "" {
		return copilotToken{}, errors.New("empty token in response")
	}
	return tok, nil
}
