package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cuonglevan23/ybproject/core"
)

func fastRetry(attempts int) core.RetryConfig {
	return core.RetryConfig{MaxAttempts: attempts, InitialWait: time.Millisecond, MaxWait: 4 * time.Millisecond}
}

func newTestClient(t *testing.T, baseURL string, cfg core.ClientConfig, tokens core.TokenSource) *APIClient {
	t.Helper()
	cfg.BaseURL = baseURL
	client, err := NewAPIClient(cfg, nil, tokens, nil)
	if err != nil {
		t.Fatalf("NewAPIClient() error = %v", err)
	}
	return client
}

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "success": true})
}

// Requirement: a response slower than the timeout fails as a timeout, not a network error.
func TestAPIClient_TimeoutIsClassifiedAsTimeout(t *testing.T) {
	// Arrange
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		writeEnvelope(w, http.StatusOK, "late")
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, core.ClientConfig{
		Timeout: 50 * time.Millisecond,
		Retry:   fastRetry(1),
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Act
	_, err := client.Request(ctx, http.MethodGet, "/slow", nil, nil)

	// Assert
	if !errors.Is(err, core.ErrTimeout) {
		t.Fatalf("error = %v, want TimeoutError", err)
	}
	if errors.Is(err, core.ErrNetwork) {
		t.Error("timeout must not be classified as a network error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

// Requirement: a transport failure is a network error.
func TestAPIClient_TransportFailureIsNetworkError(t *testing.T) {
	doer := &FailingDoer{}
	client, err := NewAPIClient(core.ClientConfig{BaseURL: "http://api.test", Retry: fastRetry(2)}, doer, nil, nil)
	if err != nil {
		t.Fatalf("NewAPIClient() error = %v", err)
	}

	_, err = client.Request(context.Background(), http.MethodGet, "/channel/overview", nil, nil)

	if !errors.Is(err, core.ErrNetwork) {
		t.Fatalf("error = %v, want NetworkError", err)
	}
	if !errors.Is(err, errConnectionRefused) {
		t.Error("transport cause should stay reachable")
	}
	if got := doer.calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

// Requirement: exactly N attempts happen before the final error surfaces.
func TestAPIClient_ExactlyNAttempts(t *testing.T) {
	for _, attempts := range []int{1, 2, 3, 5} {
		t.Run(fmt.Sprintf("%d attempts", attempts), func(t *testing.T) {
			// Arrange
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"message":"try later","code":"UNAVAILABLE"}`))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL, core.ClientConfig{Retry: fastRetry(attempts)}, nil)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			// Act
			_, err := client.Request(ctx, http.MethodGet, "/keywords", nil, nil)

			// Assert
			if got := int(calls.Load()); got != attempts {
				t.Errorf("calls = %d, want %d", got, attempts)
			}
			apiErr, ok := core.AsAPIError(err)
			if !ok {
				t.Fatalf("error = %v, want *core.APIError", err)
			}
			if apiErr.Status != http.StatusServiceUnavailable || apiErr.Message != "try later" || apiErr.Code != "UNAVAILABLE" {
				t.Errorf("last error not surfaced unchanged: %+v", apiErr)
			}
		})
	}
}

// Requirement: waits between attempts follow the capped doubling schedule.
func TestAPIClient_ObservedBackoffDelays(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, core.ClientConfig{
		Retry: core.RetryConfig{MaxAttempts: 5, InitialWait: 10 * time.Millisecond, MaxWait: 50 * time.Millisecond},
	}, nil)

	var waits []time.Duration
	var stamps []time.Time
	client.RetryPolicy().OnRetry = func(_ int, _ error, wait time.Duration) {
		waits = append(waits, wait)
		stamps = append(stamps, time.Now())
	}

	// Act
	start := time.Now()
	_, err := client.Request(context.Background(), http.MethodGet, "/competitors", nil, nil)
	elapsed := time.Since(start)

	// Assert
	if err == nil {
		t.Fatal("expected error")
	}
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond, 50 * time.Millisecond}
	if len(waits) != len(want) {
		t.Fatalf("waits = %v, want %v", waits, want)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("wait[%d] = %v, want %v", i, waits[i], want[i])
		}
	}
	if elapsed < 120*time.Millisecond {
		t.Errorf("elapsed = %v, should include every wait", elapsed)
	}
	for i := 1; i < len(stamps); i++ {
		if gap := stamps[i].Sub(stamps[i-1]); gap < want[i-1] {
			t.Errorf("gap before retry %d = %v, want >= %v", i+1, gap, want[i-1])
		}
	}
}

// Requirement: deterministic client errors are not retried unless RetryAll is set.
func TestAPIClient_ClientErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryAll  bool
		wantCalls int32
	}{
		{name: "400 attempted once", status: http.StatusBadRequest, wantCalls: 1},
		{name: "404 attempted once", status: http.StatusNotFound, wantCalls: 1},
		{name: "429 retried", status: http.StatusTooManyRequests, wantCalls: 3},
		{name: "408 retried", status: http.StatusRequestTimeout, wantCalls: 3},
		{name: "500 retried", status: http.StatusInternalServerError, wantCalls: 3},
		{name: "404 retried with RetryAll", status: http.StatusNotFound, retryAll: true, wantCalls: 3},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(test.status)
			}))
			defer server.Close()

			retry := fastRetry(3)
			retry.RetryAll = test.retryAll
			client := newTestClient(t, server.URL, core.ClientConfig{Retry: retry}, nil)

			_, err := client.Request(context.Background(), http.MethodGet, "/missing", nil, nil)

			if !errors.Is(err, core.ErrHTTP) {
				t.Fatalf("error = %v, want HttpError", err)
			}
			if got := calls.Load(); got != test.wantCalls {
				t.Errorf("calls = %d, want %d", got, test.wantCalls)
			}
		})
	}
}

// Requirement: non-idempotent requests are attempted once unless allowed.
func TestAPIClient_PostIsAttemptedOnce(t *testing.T) {
	tests := []struct {
		name           string
		retryNonIdempo bool
		wantCalls      int32
	}{
		{name: "default", wantCalls: 1},
		{name: "opted in", retryNonIdempo: true, wantCalls: 3},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer server.Close()

			retry := fastRetry(3)
			retry.RetryNonIdempotent = test.retryNonIdempo
			client := newTestClient(t, server.URL, core.ClientConfig{Retry: retry}, nil)

			_, err := client.Request(context.Background(), http.MethodPost, "/chat/messages", nil, core.ChatRequest{Message: "hi"})

			if err == nil {
				t.Fatal("expected error")
			}
			if got := calls.Load(); got != test.wantCalls {
				t.Errorf("calls = %d, want %d", got, test.wantCalls)
			}
		})
	}
}

// Requirement: every request carries JSON headers and the bearer token when present.
func TestAPIClient_Headers(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		wantAuth string
	}{
		{name: "with token", token: "tok-123", wantAuth: "Bearer tok-123"},
		{name: "without token", token: "", wantAuth: ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var got http.Header
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Clone()
				writeEnvelope(w, http.StatusOK, nil)
			}))
			defer server.Close()

			client := newTestClient(t, server.URL, core.ClientConfig{Retry: fastRetry(1)}, StaticTokens(test.token))

			if _, err := client.Request(context.Background(), http.MethodGet, "/auth/me", nil, nil); err != nil {
				t.Fatalf("Request() error = %v", err)
			}

			if got.Get("Authorization") != test.wantAuth {
				t.Errorf("Authorization = %q, want %q", got.Get("Authorization"), test.wantAuth)
			}
			if got.Get("Content-Type") != "application/json" {
				t.Errorf("Content-Type = %q", got.Get("Content-Type"))
			}
			if got.Get("X-Request-ID") == "" {
				t.Error("X-Request-ID should be set")
			}
		})
	}
}

// Requirement: GET sends query-string params and bodies are JSON.
func TestAPIClient_QueryAndBody(t *testing.T) {
	var gotQuery url.Values
	var gotBody core.ChatRequest
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		if r.Method == http.MethodPut {
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
		}
		writeEnvelope(w, http.StatusOK, []core.Keyword{{Term: "go", Score: 1}})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL+"/api", core.ClientConfig{Retry: fastRetry(1)}, nil)

	keywords, err := Get[[]core.Keyword](context.Background(), client, "/keywords?limit=2", url.Values{"q": {"go tips"}})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(keywords) != 1 || keywords[0].Term != "go" {
		t.Errorf("keywords = %+v", keywords)
	}
	if gotPath != "/api/keywords" {
		t.Errorf("path = %q, want /api/keywords", gotPath)
	}
	if gotQuery.Get("q") != "go tips" || gotQuery.Get("limit") != "2" {
		t.Errorf("query = %v", gotQuery)
	}

	if _, err := Put[any](context.Background(), client, "/chat/messages", core.ChatRequest{Message: "hello"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if gotBody.Message != "hello" {
		t.Errorf("body = %+v, want message hello", gotBody)
	}
}

// Requirement: a 2xx envelope with success=false is an error and is not retried.
func TestAPIClient_UnsuccessfulEnvelope(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"data":null,"success":false,"message":"quota exceeded"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, core.ClientConfig{Retry: fastRetry(3)}, nil)

	env, err := client.Request(context.Background(), http.MethodGet, "/channel/overview", nil, nil)

	if env != nil {
		t.Error("envelope and error must not both be returned")
	}
	if !errors.Is(err, core.ErrUnsuccessfulResponse) {
		t.Fatalf("error = %v, want ErrUnsuccessfulResponse", err)
	}
	if apiErr, _ := core.AsAPIError(err); apiErr.Message != "quota exceeded" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

// Requirement: error bodies fall back to the status text when they carry no message.
func TestAPIClient_ErrorMessageFallback(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{name: "message field", body: `{"message":"bad input"}`, wantMessage: "bad input"},
		{name: "error field", body: `{"error":"nope"}`, wantMessage: "nope"},
		{name: "not json", body: `<html>oops</html>`, wantMessage: "Bad Request"},
		{name: "empty", body: ``, wantMessage: "Bad Request"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(test.body))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL, core.ClientConfig{Retry: fastRetry(1)}, nil)

			_, err := client.Request(context.Background(), http.MethodGet, "/x", nil, nil)

			apiErr, ok := core.AsAPIError(err)
			if !ok {
				t.Fatalf("error = %v, want *core.APIError", err)
			}
			if apiErr.Message != test.wantMessage {
				t.Errorf("Message = %q, want %q", apiErr.Message, test.wantMessage)
			}
		})
	}
}

// Requirement: empty 2xx bodies are successful with no data.
func TestAPIClient_NoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, core.ClientConfig{Retry: fastRetry(1)}, nil)

	got, err := Delete[*core.ChatMessage](context.Background(), client, "/chat/messages")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got != nil {
		t.Errorf("data = %+v, want nil", got)
	}
}

// Requirement: cancelling the caller context aborts a pending backoff.
func TestAPIClient_CancelDuringBackoff(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, core.ClientConfig{Retry: core.DefaultRetryConfig()}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.RetryPolicy().OnRetry = func(int, error, time.Duration) { cancel() }

	start := time.Now()
	_, err := client.Request(ctx, http.MethodGet, "/keywords", nil, nil)

	if !errors.Is(err, core.ErrCanceled) {
		t.Fatalf("error = %v, want CanceledError", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("cancel should not wait out the backoff")
	}
}

// Requirement: the base URL is validated up front.
func TestNewAPIClient_RejectsBadBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr error
	}{
		{name: "empty", baseURL: "", wantErr: core.ErrBaseURLRequired},
		{name: "relative", baseURL: "/api", wantErr: core.ErrInvalidBaseURL},
		{name: "wrong scheme", baseURL: "ftp://host/api", wantErr: core.ErrInvalidBaseURL},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewAPIClient(core.ClientConfig{BaseURL: test.baseURL}, nil, nil, nil)
			if !errors.Is(err, test.wantErr) {
				t.Errorf("error = %v, want %v", err, test.wantErr)
			}
		})
	}
}
