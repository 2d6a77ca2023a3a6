package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrNoGitHubToken is returned when no Copilot credentials can be found.
var ErrNoGitHubToken = errors.New("GitHub token not found: set DAYBOOK_GITHUB_TOKEN or GITHUB_TOKEN, or sign in to GitHub Copilot in your editor")

// tokenEnvVars are checked in order before any file.
var tokenEnvVars = []string{"DAYBOOK_GITHUB_TOKEN", "GITHUB_TOKEN", "GH_TOKEN"}

// tokenSource finds a GitHub OAuth token for the Copilot exchange.
type tokenSource struct {
	getenv    func(string) string
	configDir func() (string, error)
}

func defaultTokenSource() tokenSource {
	return tokenSource{getenv: os.Getenv, configDir: configDir}
}

// LoadGitHubToken returns the first token found in the environment or in
// the github-copilot hosts.json / apps.json written by editor plugins.
func LoadGitHubToken() (string, error) {
	return defaultTokenSource().load()
}

func (s tokenSource) load() (string, error) {
	for _, name := range tokenEnvVars {
		if token := strings.TrimSpace(s.getenv(name)); token != "" {
			return token, nil
		}
	}

	dir, err := s.configDir()
	if err != nil {
		return "", fmt.Errorf("finding config directory: %w", err)
	}
	for _, name := range []string{"hosts.json", "apps.json"} {
		token, err := tokenFromFile(filepath.Join(dir, "github-copilot", name))
		if err == nil {
			return token, nil
		}
	}
	return "", ErrNoGitHubToken
}

// configDir follows XDG_CONFIG_HOME, then the platform default.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg, nil
	}
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return local, nil
		}
	}
	return os.UserConfigDir()
}

// tokenFromFile reads the oauth_token of the github.com entry.
func tokenFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var hosts map[string]struct {
		OAuthToken string `json:"oauth_token"`
	}
	if err := json.Unmarshal(data, &hosts); err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	for host, entry := range hosts {
		if strings.Contains(host, "github.com") && entry.OAuthToken != "" {
			return entry.OAuthToken, nil
		}
	}
	return "", fmt.Errorf("no github.com oauth_token in %s", path)
}
