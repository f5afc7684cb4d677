package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cuonglevan23/ybproject/core"
	"github.com/cuonglevan23/ybproject/pkg/logger"
)

// APIClient is the resilient JSON client: executor, retry policy and
// bearer injection. Build one at startup and pass it to consumers.
type APIClient struct {
	exec   *Executor
	retry  *RetryPolicy
	logger *zap.Logger
}

func NewAPIClient(cfg core.ClientConfig, doer core.HTTPDoer, tokens core.TokenSource, log *zap.Logger) (*APIClient, error) {
	log = logger.OrNop(log)

	var limiter core.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	exec, err := NewExecutor(ExecutorOptions{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		HTTP:    doer,
		Tokens:  tokens,
		Limiter: limiter,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	return &APIClient{
		exec:   exec,
		retry:  NewRetryPolicy(cfg.Retry, log),
		logger: log,
	}, nil
}

// RetryPolicy exposes the policy, mainly so callers can observe retries
func (c *APIClient) RetryPolicy() *RetryPolicy {
	return c.retry
}

// Request performs method on path and returns the decoded envelope with the
// data left raw. Either the envelope is successful or an error is returned.
func (c *APIClient) Request(ctx context.Context, method, path string, query url.Values, body any) (*core.Envelope[json.RawMessage], error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	var env *core.Envelope[json.RawMessage]
	err = c.retry.Do(ctx, method, func(attempt int) error {
		resp, err := c.exec.Do(ctx, Request{
			Method: method,
			Path:   path,
			Query:  query,
			Body:   payload,
		})
		if err != nil {
			return err
		}

		decoded, err := decodeEnvelope(resp)
		if err != nil {
			return err
		}
		env = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return env, nil
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &core.APIError{Kind: core.KindUnknown, Message: "failed to encode request body: " + err.Error(), Err: err}
	}
	return payload, nil
}

func decodeEnvelope(resp *Response) (*core.Envelope[json.RawMessage], error) {
	if resp.Status == http.StatusNoContent || len(bytes.TrimSpace(resp.Body)) == 0 {
		return &core.Envelope[json.RawMessage]{Success: true}, nil
	}

	var env core.Envelope[json.RawMessage]
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, &core.APIError{Kind: core.KindUnknown, Message: "failed to decode response: " + err.Error(), Err: err}
	}

	if !env.Success {
		message := env.Message
		if message == "" {
			message = core.ErrUnsuccessfulResponse.Error()
		}
		return nil, &core.APIError{
			Kind:    core.KindHTTP,
			Message: message,
			Status:  resp.Status,
			Code:    "UNSUCCESSFUL_RESPONSE",
			Err:     core.ErrUnsuccessfulResponse,
		}
	}

	return &env, nil
}

func decodeData[T any](env *core.Envelope[json.RawMessage]) (T, error) {
	var out T
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, &core.APIError{Kind: core.KindUnknown, Message: fmt.Sprintf("failed to decode %T: %v", out, err), Err: err}
	}
	return out, nil
}

func call[T any](ctx context.Context, c *APIClient, method, path string, query url.Values, body any) (T, error) {
	env, err := c.Request(ctx, method, path, query, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeData[T](env)
}

// Get sends a GET with query-string params and decodes data into T
func Get[T any](ctx context.Context, c *APIClient, path string, query url.Values) (T, error) {
	return call[T](ctx, c, http.MethodGet, path, query, nil)
}

// Post sends body as JSON and decodes data into T
func Post[T any](ctx context.Context, c *APIClient, path string, body any) (T, error) {
	return call[T](ctx, c, http.MethodPost, path, nil, body)
}

// Put sends body as JSON and decodes data into T
func Put[T any](ctx context.Context, c *APIClient, path string, body any) (T, error) {
	return call[T](ctx, c, http.MethodPut, path, nil, body)
}

// Delete sends a DELETE and decodes data into T
func Delete[T any](ctx context.Context, c *APIClient, path string) (T, error) {
	return call[T](ctx, c, http.MethodDelete, path, nil, nil)
}
