package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cuonglevan23/ybproject/core"
)

// Ensure RemoteAuthenticator implements core.Authenticator
var _ core.Authenticator = (*RemoteAuthenticator)(nil)

// RemoteAuthenticator signs in against the backend auth endpoints
type RemoteAuthenticator struct {
	client *APIClient
}

func NewRemoteAuthenticator(client *APIClient) *RemoteAuthenticator {
	return &RemoteAuthenticator{client: client}
}

// authPayload is the data of a login or signup envelope
type authPayload struct {
	User  *core.User `json:"user"`
	Token string     `json:"token"`
}

func (r *RemoteAuthenticator) Login(ctx context.Context, input core.LoginInput) (*core.AuthResult, error) {
	if input.Email == "" {
		return nil, core.ErrEmailRequired
	}
	if input.Password == "" {
		return nil, core.ErrPasswordRequired
	}

	payload, err := Post[authPayload](ctx, r.client, "/auth/login", input)
	if err != nil {
		return nil, authError(err)
	}
	return toResult(payload)
}

func (r *RemoteAuthenticator) SignUp(ctx context.Context, input core.SignUpInput) (*core.AuthResult, error) {
	if input.Password != input.ConfirmPassword {
		return nil, core.ErrPasswordMismatch
	}
	if len(input.Password) < MinPasswordLength {
		return nil, core.ErrPasswordTooShort
	}

	payload, err := Post[authPayload](ctx, r.client, "/auth/signup", input)
	if err != nil {
		return nil, authError(err)
	}
	return toResult(payload)
}

func (r *RemoteAuthenticator) Logout(ctx context.Context) error {
	_, err := r.client.Request(ctx, http.MethodPost, "/auth/logout", nil, nil)
	return err
}

// Me fetches the user the current token belongs to
func (r *RemoteAuthenticator) Me(ctx context.Context) (*core.User, error) {
	user, err := Get[*core.User](ctx, r.client, "/auth/me", nil)
	if errors.Is(err, core.ErrHTTP) {
		if apiErr, _ := core.AsAPIError(err); apiErr.Status == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %w", core.ErrNotAuthenticated, err)
		}
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func toResult(p authPayload) (*core.AuthResult, error) {
	if p.User == nil {
		return nil, fmt.Errorf("auth response without user: %w", core.ErrUnsuccessfulResponse)
	}
	if p.Token == "" {
		return nil, core.ErrMissingToken
	}
	return &core.AuthResult{Success: true, User: p.User, Token: p.Token}, nil
}

// authError maps backend rejections onto the auth sentinels, keeping the
// APIError reachable
func authError(err error) error {
	apiErr, ok := core.AsAPIError(err)
	if !ok {
		return err
	}

	switch apiErr.Status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", core.ErrInvalidCredentials, err)
	case http.StatusConflict:
		return fmt.Errorf("%w: %w", core.ErrUserExists, err)
	}
	return err
}
