package llm

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeCopilotFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, "github-copilot", name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestTokenSource(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		files   map[string]string
		want    string
		wantErr error
	}{
		{
			name: "daybook variable wins",
			env:  map[string]string{"DAYBOOK_GITHUB_TOKEN": "db", "GITHUB_TOKEN": "gh"},
			want: "db",
		},
		{
			name:  "github token before files",
			env:   map[string]string{"GITHUB_TOKEN": " gh "},
			files: map[string]string{"hosts.json": `{"github.com":{"oauth_token":"file"}}`},
			want:  "gh",
		},
		{
			name:  "hosts file",
			files: map[string]string{"hosts.json": `{"github.com":{"user":"me","oauth_token":"hosts"}}`},
			want:  "hosts",
		},
		{
			name: "apps file when hosts has no github entry",
			files: map[string]string{
				"hosts.json": `{"example.com":{"oauth_token":"other"}}`,
				"apps.json":  `{"github.com:Iv1.abc":{"oauth_token":"apps"}}`,
			},
			want: "apps",
		},
		{
			name:    "malformed file",
			files:   map[string]string{"hosts.json": `not json`},
			wantErr: ErrNoGitHubToken,
		},
		{
			name:    "nothing configured",
			wantErr: ErrNoGitHubToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeCopilotFile(t, dir, name, content)
			}
			src := tokenSource{
				getenv:    func(k string) string { return tt.env[k] },
				configDir: func() (string, error) { return dir, nil },
			}

			got, err := src.load()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
		})
	}
}
