package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cuonglevan23/ybproject/core"
	"github.com/cuonglevan23/ybproject/pkg/logger"
)

const maxResponseBytes = 10 << 20

// ExecutorOptions configures a single-request Executor
type ExecutorOptions struct {
	BaseURL string
	Timeout time.Duration

	HTTP    core.HTTPDoer    // optional, defaults to a dedicated http.Client
	Tokens  core.TokenSource // optional, no Authorization header when nil
	Limiter core.Limiter     // optional
	Logger  *zap.Logger      // optional

	MaxBodyBytes int64 // response cap, defaults to 10 MiB
}

// Executor performs one HTTP call with a bounded wait
type Executor struct {
	baseURL *url.URL
	timeout time.Duration
	http    core.HTTPDoer
	tokens  core.TokenSource
	limiter core.Limiter
	logger  *zap.Logger
	maxBody int64
}

// Request describes one call relative to the base URL
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    []byte
	Timeout time.Duration // overrides the executor default when > 0
}

// Response is a 2xx result with the body fully read
type Response struct {
	Status    int
	Header    http.Header
	Body      []byte
	Duration  time.Duration
	RequestID string
}

func NewExecutor(opts ExecutorOptions) (*Executor, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = core.DefaultTimeout
	}

	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = maxResponseBytes
	}

	doer := opts.HTTP
	if doer == nil {
		doer = &http.Client{}
	}

	return &Executor{
		baseURL: base,
		timeout: timeout,
		http:    doer,
		tokens:  opts.Tokens,
		limiter: opts.Limiter,
		logger:  logger.OrNop(opts.Logger),
		maxBody: maxBody,
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, core.ErrBaseURLRequired
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, core.ErrInvalidBaseURL
	}
	return u, nil
}

// Do sends r and returns the 2xx response, or a *core.APIError
func (e *Executor) Do(ctx context.Context, r Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, contextError(err)
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, contextError(ctx.Err())
			}
			return nil, &core.APIError{Kind: core.KindUnknown, Message: "rate limiter: " + err.Error(), Err: err}
		}
	}

	timeout := e.timeout
	if r.Timeout > 0 {
		timeout = r.Timeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := e.buildRequest(attemptCtx, r)
	if err != nil {
		return nil, &core.APIError{Kind: core.KindUnknown, Message: "failed to build request: " + err.Error(), Err: err}
	}

	requestID := req.Header.Get("X-Request-ID")
	log := e.logger.With(
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
		zap.String("request_id", requestID),
	)
	log.Debug("api request", zap.Duration("timeout", timeout), zap.Int("body_bytes", len(r.Body)))

	start := time.Now()
	resp, err := e.http.Do(req)
	if err != nil {
		apiErr := classify(ctx, attemptCtx, err)
		logFailure(log, apiErr, time.Since(start))
		return nil, apiErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBody+1))
	elapsed := time.Since(start)
	if err != nil {
		apiErr := classify(ctx, attemptCtx, err)
		logFailure(log, apiErr, elapsed)
		return nil, apiErr
	}
	if int64(len(body)) > e.maxBody {
		apiErr := &core.APIError{
			Kind:    core.KindUnknown,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("%s: more than %d bytes", core.ErrResponseTooLarge, e.maxBody),
			Code:    "RESPONSE_TOO_LARGE",
			Err:     core.ErrResponseTooLarge,
		}
		logFailure(log, apiErr, elapsed)
		return nil, apiErr
	}

	log.Debug("api response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", elapsed),
		zap.Int("body_bytes", len(body)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := errorFromBody(resp.StatusCode, body)
		logFailure(log, apiErr, elapsed)
		return nil, apiErr
	}

	return &Response{
		Status:    resp.StatusCode,
		Header:    resp.Header,
		Body:      body,
		Duration:  elapsed,
		RequestID: requestID,
	}, nil
}

func (e *Executor) buildRequest(ctx context.Context, r Request) (*http.Request, error) {
	method := strings.ToUpper(r.Method)
	if method == "" {
		method = http.MethodGet
	}

	path, rawQuery, _ := strings.Cut(r.Path, "?")
	u := e.baseURL.JoinPath(path)

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, err
	}
	for k, vs := range r.Query {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	u.RawQuery = query.Encode()

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if e.tokens != nil {
		if token := e.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return req, nil
}

// classify maps a transport failure onto the error taxonomy. A deadline on
// the attempt context is a timeout; cancellation of the caller is not.
func classify(parent, attempt context.Context, err error) *core.APIError {
	if parent.Err() != nil {
		return contextError(parent.Err())
	}
	if errors.Is(attempt.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &core.APIError{Kind: core.KindTimeout, Message: "request timed out", Code: "TIMEOUT", Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &core.APIError{Kind: core.KindTimeout, Message: "request timed out", Code: "TIMEOUT", Err: err}
	}

	return &core.APIError{Kind: core.KindNetwork, Message: err.Error(), Code: "NETWORK_ERROR", Err: err}
}

func contextError(err error) *core.APIError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &core.APIError{Kind: core.KindTimeout, Message: "request deadline exceeded", Code: "TIMEOUT", Err: err}
	}
	return &core.APIError{Kind: core.KindCanceled, Message: "request canceled", Code: "CANCELED", Err: err}
}

// errorFromBody reads {message|error, code, details} from a non-2xx body,
// falling back to the status text
func errorFromBody(status int, body []byte) *core.APIError {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return core.NewHTTPError(status, "", "", nil)
	}

	message, _ := payload["message"].(string)
	if message == "" {
		message, _ = payload["error"].(string)
	}

	var code string
	switch c := payload["code"].(type) {
	case string:
		code = c
	case float64:
		code = fmt.Sprintf("%.0f", c)
	}

	details, _ := payload["details"].(map[string]any)

	return core.NewHTTPError(status, message, code, details)
}

func logFailure(log *zap.Logger, apiErr *core.APIError, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("kind", apiErr.Kind.String()),
		zap.Duration("duration", elapsed),
		zap.Error(apiErr),
	}
	if apiErr.Status != 0 {
		fields = append(fields, zap.Int("status", apiErr.Status))
	}

	switch apiErr.Kind {
	case core.KindTimeout:
		log.Warn("api request timed out", fields...)
	case core.KindCanceled:
		log.Debug("api request canceled", fields...)
	default:
		log.Warn("api request failed", fields...)
	}
}
