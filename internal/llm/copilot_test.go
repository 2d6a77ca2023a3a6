package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestAuth(t *testing.T, status int, now *time.Time) (*copilotAuth, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if got := r.Header.Get("Authorization"); got != "Token gho_test" {
			t.Errorf("Authorization = %q", got)
		}
		if status != http.StatusOK {
			http.Error(w, "bad credentials", status)
			return
		}
		_, _ = fmt.Fprintf(w, `{"token":"bearer-%d","expires_at":%d}`, n, now.Add(30*time.Minute).Unix())
	}))
	t.Cleanup(srv.Close)

	return &copilotAuth{
		http:        srv.Client(),
		tokenURL:    srv.URL,
		githubToken: "gho_test",
		now:         func() time.Time { return *now },
	}, &calls
}

func TestCopilotAuth_CachesUntilExpiry(t *testing.T) {
	now := time.Date(2025, 3, 17, 9, 0, 0, 0, time.UTC)
	auth, calls := newTestAuth(t, http.StatusOK, &now)
	ctx := context.Background()

	first, err := auth.bearer(ctx)
	if err != nil {
		t.Fatal(err)
	}
	now = now.Add(20 * time.Minute)
	second, err := auth.bearer(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first != "bearer-1" || second != first {
		t.Fatalf("tokens = %q, %q; want cached bearer-1", first, second)
	}

	// Inside the refresh margin a new token is fetched.
	now = now.Add(9*time.Minute + 30*time.Second)
	third, err := auth.bearer(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if third != "bearer-2" {
		t.Errorf("token = %q, want bearer-2", third)
	}
	if calls.Load() != 2 {
		t.Errorf("exchange calls = %d, want 2", calls.Load())
	}
}

func TestCopilotAuth_ExchangeFailure(t *testing.T) {
	now := time.Now()
	auth, _ := newTestAuth(t, http.StatusUnauthorized, &now)

	if _, err := auth.bearer(context.Background()); err == nil {
		t.Fatal("expected error for rejected GitHub token")
	}
}

func TestCopilotAuth_Middleware(t *testing.T) {
	now := time.Now()
	auth, _ := newTestAuth(t, http.StatusOK, &now)

	req := httptest.NewRequest(http.MethodPost, "https://api.githubcopilot.com/chat/completions", nil)
	req.Header.Set("Authorization", "Bearer stale")
	_, err := auth.middleware(req, func(r *http.Request) (*http.Response, error) {
		if got := r.Header.Get("Authorization"); got != "Bearer bearer-1" {
			t.Errorf("Authorization = %q, want Bearer bearer-1", got)
		}
		return &http.Response{StatusCode: http.StatusOK}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
