package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cuonglevan23/ybproject/core"
	"github.com/cuonglevan23/ybproject/pkg/logger"
)

// AuthService drives anonymous -> authenticating -> authenticated and back
// to anonymous on logout. It is the only writer of the session.
type AuthService struct {
	authenticator core.Authenticator
	sessions      *SessionManager
	logger        *zap.Logger
	now           func() time.Time

	mu    sync.Mutex
	state core.AuthState
}

func NewAuthService(authenticator core.Authenticator, sessions *SessionManager, log *zap.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		sessions:      sessions,
		logger:        logger.OrNop(log),
		now:           time.Now,
		state:         core.StateAnonymous,
	}
}

// Login authenticates with credentials and persists the resulting session
func (s *AuthService) Login(ctx context.Context, input core.LoginInput) (*core.AuthResult, error) {
	return s.authenticate(ctx, "login", func() (*core.AuthResult, error) {
		return s.authenticator.Login(ctx, input)
	})
}

// SignUp registers a new user and signs them in
func (s *AuthService) SignUp(ctx context.Context, input core.SignUpInput) (*core.AuthResult, error) {
	return s.authenticate(ctx, "signup", func() (*core.AuthResult, error) {
		return s.authenticator.SignUp(ctx, input)
	})
}

func (s *AuthService) authenticate(ctx context.Context, op string, fn func() (*core.AuthResult, error)) (*core.AuthResult, error) {
	// Step 1: Enter authenticating, one attempt at a time
	s.mu.Lock()
	if s.state == core.StateAuthenticating {
		s.mu.Unlock()
		return nil, core.ErrAuthInProgress
	}
	previous := s.state
	s.state = core.StateAuthenticating
	s.mu.Unlock()

	restore := func() {
		s.mu.Lock()
		s.state = previous
		s.mu.Unlock()
	}

	// Step 2: Check credentials
	result, err := fn()
	if err != nil {
		restore()
		s.logger.Info(op+" failed", zap.Error(err))
		return nil, err
	}
	if result == nil || result.User == nil {
		restore()
		return nil, fmt.Errorf("%s: %w", op, core.ErrInvalidCredentials)
	}

	// Step 3: Persist the new session
	session := &core.Session{
		User:            result.User,
		IsAuthenticated: true,
		Token:           result.Token,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		restore()
		return nil, err
	}

	s.mu.Lock()
	s.state = core.StateAuthenticated
	s.mu.Unlock()

	s.logger.Info(op+" succeeded", zap.String("user_id", result.User.ID))

	result.Success = true
	return result, nil
}

// InitializeAuth restores the persisted session at startup. An absent or
// unreadable session leaves the service anonymous without an error.
func (s *AuthService) InitializeAuth(ctx context.Context) error {
	session, err := s.sessions.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case err == nil:
		s.state = core.StateAuthenticated
		s.logger.Debug("session restored", zap.String("user_id", session.User.ID))
		return nil
	case errors.Is(err, core.ErrSessionNotFound):
		s.state = core.StateAnonymous
		return nil
	default:
		s.state = core.StateAnonymous
		return err
	}
}

// Logout always ends in the anonymous state. The backend is told first while
// the token is still available; its failure is logged, not returned.
func (s *AuthService) Logout(ctx context.Context) error {
	if s.sessions.Current() != nil {
		if err := s.authenticator.Logout(ctx); err != nil {
			s.logger.Warn("backend logout failed", zap.Error(err))
		}
	}

	err := s.sessions.Clear(ctx)

	s.mu.Lock()
	s.state = core.StateAnonymous
	s.mu.Unlock()

	return err
}

func (s *AuthService) State() core.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *AuthService) IsAuthenticated() bool {
	return s.State() == core.StateAuthenticated && s.sessions.Current() != nil
}

// Session returns a copy of the active session, or nil
func (s *AuthService) Session() *core.Session {
	return s.sessions.Current()
}

// User returns the signed-in user, or nil
func (s *AuthService) User() *core.User {
	if session := s.sessions.Current(); session != nil {
		return session.User
	}
	return nil
}

// Token is the bearer token of the active session
func (s *AuthService) Token() string {
	return s.sessions.Token()
}
