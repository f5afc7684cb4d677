package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/cuonglevan23/ybproject/core"
	"github.com/cuonglevan23/ybproject/pkg/crypto"
)

const (
	// DemoPassword is the only password the demo authenticator accepts
	DemoPassword = "123"

	MinPasswordLength = 3
)

// Ensure DemoAuthenticator implements core.Authenticator
var _ core.Authenticator = (*DemoAuthenticator)(nil)

// DemoAuthenticator signs anyone in with DemoPassword. It is not an
// authentication mechanism, only a stand-in for local use and tests.
type DemoAuthenticator struct {
	ids *crypto.IDGenerator
}

func NewDemoAuthenticator() *DemoAuthenticator {
	return &DemoAuthenticator{ids: crypto.MustIDGenerator()}
}

func (d *DemoAuthenticator) Login(_ context.Context, input core.LoginInput) (*core.AuthResult, error) {
	if input.Password != DemoPassword {
		return nil, core.ErrInvalidCredentials
	}

	return d.newResult(strings.TrimSpace(input.Email), "")
}

func (d *DemoAuthenticator) SignUp(_ context.Context, input core.SignUpInput) (*core.AuthResult, error) {
	if input.Password != input.ConfirmPassword {
		return nil, core.ErrPasswordMismatch
	}
	if len(input.Password) < MinPasswordLength {
		return nil, core.ErrPasswordTooShort
	}

	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, core.ErrEmailRequired
	}
	if !strings.Contains(email, "@") {
		return nil, core.ErrInvalidEmail
	}

	return d.newResult(email, strings.TrimSpace(input.Name))
}

func (d *DemoAuthenticator) Logout(context.Context) error {
	return nil
}

func (d *DemoAuthenticator) newResult(email, name string) (*core.AuthResult, error) {
	id, err := d.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user id: %w", err)
	}
	token, err := crypto.NewToken(crypto.DefaultTokenLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	if name == "" {
		name = NameFromEmail(email)
	}

	return &core.AuthResult{
		Success: true,
		User:    &core.User{ID: id, Email: email, Name: name},
		Token:   token,
	}, nil
}

// NameFromEmail derives a display name from the local part of an email
func NameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return email
	}
	return local
}
