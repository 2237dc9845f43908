package notion

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adalgu/notion-hugo-flow/pkg/types"
)

// newTestClient returns a client pointed at a test server with a generous
// rate budget so tests do not sleep.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("secret-token", WithBaseURL(srv.URL), WithRateLimit(1000))
}

func TestClientRetriesTransient(t *testing.T) {
	attempts := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"object":"error","status":429,"code":"rate_limited","message":"slow down"}`))
			return
		}
		w.Write([]byte(`{"object":"user"}`))
	}))

	if err := c.CheckAccess(context.Background()); err != nil {
		t.Fatalf("CheckAccess failed after retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if c.Calls() != 3 {
		t.Errorf("Calls() = %d, want 3", c.Calls())
	}
}

func TestClientPermanentNotRetried(t *testing.T) {
	attempts := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"object":"error","status":401,"code":"unauthorized","message":"bad token"}`))
	}))

	err := c.CheckAccess(context.Background())
	var re *types.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error = %v, want *types.RemoteError", err)
	}
	if re.Transient {
		t.Error("401 classified as transient")
	}
	if re.Code != "unauthorized" {
		t.Errorf("Code = %q, want unauthorized", re.Code)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry)", attempts)
	}
}

func TestClientAuthHeaders(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Header.Get("Notion-Version") == "" {
			t.Error("Notion-Version header missing")
		}
		w.Write([]byte(`{}`))
	}))
	if err := c.CheckAccess(context.Background()); err != nil {
		t.Fatalf("CheckAccess failed: %v", err)
	}
}

func TestResetBudgetClearsCallCount(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	_ = c.CheckAccess(context.Background())
	if c.Calls() == 0 {
		t.Fatal("expected at least one recorded call")
	}
	c.ResetBudget()
	if c.Calls() != 0 {
		t.Errorf("Calls() after reset = %d, want 0", c.Calls())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, false},
		{http.StatusNotFound, false},
		{http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		re := classify(tt.status, nil)
		if re.Transient != tt.transient {
			t.Errorf("classify(%d).Transient = %v, want %v", tt.status, re.Transient, tt.transient)
		}
	}
}
