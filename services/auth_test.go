package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cuonglevan23/ybproject/core"
)

func newDemoAuth() (*AuthService, *FakeStore) {
	store := NewFakeStore()
	sessions := NewSessionManager(store, nil)
	return NewAuthService(NewDemoAuthenticator(), sessions, nil), store
}

// Requirement: demo login accepts any email, even an empty one, with password "123" and rejects anything else.
func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		wantErr   error
		wantState core.AuthState
	}{
		{name: "demo password signs in", email: "a@b.com", password: "123", wantState: core.StateAuthenticated},
		{name: "wrong password", email: "a@b.com", password: "x", wantErr: core.ErrInvalidCredentials, wantState: core.StateAnonymous},
		{name: "empty password", email: "a@b.com", password: "", wantErr: core.ErrInvalidCredentials, wantState: core.StateAnonymous},
		{name: "empty email", email: "", password: "123", wantState: core.StateAuthenticated},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			service, store := newDemoAuth()

			// Act
			result, err := service.Login(context.Background(), core.LoginInput{Email: test.email, Password: test.password})

			// Assert
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("Login() error = %v, want %v", err, test.wantErr)
			}
			if service.State() != test.wantState {
				t.Errorf("State() = %v, want %v", service.State(), test.wantState)
			}
			if test.wantErr != nil {
				if result != nil {
					t.Error("failed login should not return a result")
				}
				if store.has(core.SessionKey) {
					t.Error("failed login should not persist a session")
				}
				return
			}
			if !result.Success || result.User.Email != test.email {
				t.Errorf("result = %+v, want success for %s", result, test.email)
			}
			if !service.IsAuthenticated() || service.User().Email != test.email {
				t.Error("service should expose the signed-in user")
			}
			if !store.has(core.SessionKey) {
				t.Error("session should be persisted")
			}
		})
	}
}

// Requirement: the rejection message is "Invalid credentials".
func TestAuthService_LoginRejectionMessage(t *testing.T) {
	service, _ := newDemoAuth()

	_, err := service.Login(context.Background(), core.LoginInput{Email: "a@b.com", Password: "x"})

	if err == nil || err.Error() != "Invalid credentials" {
		t.Errorf("error = %v, want Invalid credentials", err)
	}
}

// Requirement: signup checks confirmation and minimum length.
func TestAuthService_SignUp(t *testing.T) {
	tests := []struct {
		name    string
		input   core.SignUpInput
		wantErr error
	}{
		{
			name:  "valid input",
			input: core.SignUpInput{Name: "Alice", Email: "alice@example.com", Password: "abc", ConfirmPassword: "abc"},
		},
		{
			name:    "mismatch",
			input:   core.SignUpInput{Email: "alice@example.com", Password: "abcd", ConfirmPassword: "abce"},
			wantErr: core.ErrPasswordMismatch,
		},
		{
			name:    "too short",
			input:   core.SignUpInput{Email: "alice@example.com", Password: "ab", ConfirmPassword: "ab"},
			wantErr: core.ErrPasswordTooShort,
		},
		{
			name:    "missing email",
			input:   core.SignUpInput{Password: "abc", ConfirmPassword: "abc"},
			wantErr: core.ErrEmailRequired,
		},
		{
			name:    "malformed email",
			input:   core.SignUpInput{Email: "alice", Password: "abc", ConfirmPassword: "abc"},
			wantErr: core.ErrInvalidEmail,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			service, _ := newDemoAuth()

			result, err := service.SignUp(context.Background(), test.input)

			if !errors.Is(err, test.wantErr) {
				t.Fatalf("SignUp() error = %v, want %v", err, test.wantErr)
			}
			if test.wantErr == nil {
				if result.User.Name != test.input.Name || result.User.ID == "" {
					t.Errorf("user = %+v", result.User)
				}
				if !service.IsAuthenticated() {
					t.Error("signup should sign the user in")
				}
			}
		})
	}
}

// Requirement: a persisted valid session is restored at startup.
func TestAuthService_InitializeAuthRestoresSession(t *testing.T) {
	// Arrange
	service, store := newDemoAuth()
	stored := []byte(`{"user":{"id":"u1","email":"a@b.com","name":"a"},"isAuthenticated":true,"token":"tok"}`)
	_ = store.Set(context.Background(), core.SessionKey, stored)

	// Act
	err := service.InitializeAuth(context.Background())

	// Assert
	if err != nil {
		t.Fatalf("InitializeAuth() error = %v", err)
	}
	if !service.IsAuthenticated() {
		t.Fatal("IsAuthenticated() should be true")
	}
	user := service.User()
	if user.ID != "u1" || user.Email != "a@b.com" || user.Name != "a" {
		t.Errorf("User() = %+v, want stored record", user)
	}
	if service.Token() != "tok" {
		t.Errorf("Token() = %q, want tok", service.Token())
	}
}

// Requirement: corrupted or incomplete persisted state resets to anonymous and is cleared.
func TestAuthService_InitializeAuthClearsBadSession(t *testing.T) {
	tests := []struct {
		name   string
		stored string
	}{
		{name: "corrupted json", stored: `{"user":`},
		{name: "not authenticated", stored: `{"user":{"id":"u1","email":"a@b.com"},"isAuthenticated":false}`},
		{name: "missing user", stored: `{"isAuthenticated":true}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			service, store := newDemoAuth()
			_ = store.Set(context.Background(), core.SessionKey, []byte(test.stored))

			err := service.InitializeAuth(context.Background())

			if err != nil {
				t.Fatalf("InitializeAuth() should clear silently, got %v", err)
			}
			if service.IsAuthenticated() || service.State() != core.StateAnonymous {
				t.Error("state should be anonymous")
			}
			if store.has(core.SessionKey) {
				t.Error("store should be cleared")
			}
		})
	}
}

// Requirement: InitializeAuth with nothing stored stays anonymous.
func TestAuthService_InitializeAuthEmpty(t *testing.T) {
	service, _ := newDemoAuth()

	if err := service.InitializeAuth(context.Background()); err != nil {
		t.Fatalf("InitializeAuth() error = %v", err)
	}
	if service.IsAuthenticated() || service.User() != nil {
		t.Error("should be anonymous")
	}
}

// Requirement: InitializeAuth surfaces store failures other than a missing key.
func TestAuthService_InitializeAuthStoreFailure(t *testing.T) {
	service, store := newDemoAuth()
	store.getErr = errors.New("disk gone")

	err := service.InitializeAuth(context.Background())

	if err == nil || !errors.Is(err, store.getErr) {
		t.Fatalf("InitializeAuth() error = %v, want disk error", err)
	}
	if service.State() != core.StateAnonymous {
		t.Error("state should be anonymous")
	}
}

// Requirement: logout then initializeAuth yields not authenticated.
func TestAuthService_LogoutThenInitialize(t *testing.T) {
	// Arrange
	service, store := newDemoAuth()
	ctx := context.Background()
	if _, err := service.Login(ctx, core.LoginInput{Email: "a@b.com", Password: "123"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	// Act
	if err := service.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	restarted := NewAuthService(NewDemoAuthenticator(), NewSessionManager(store, nil), nil)
	if err := restarted.InitializeAuth(ctx); err != nil {
		t.Fatalf("InitializeAuth() error = %v", err)
	}

	// Assert
	if service.IsAuthenticated() || restarted.IsAuthenticated() {
		t.Error("IsAuthenticated() should be false after logout")
	}
	if service.Token() != "" {
		t.Error("token should be dropped")
	}
}

// Requirement: logout clears local state even when the backend and store fail.
func TestAuthService_LogoutIsUnconditional(t *testing.T) {
	store := NewFakeStore()
	fake := &FakeAuthenticator{
		result:    &core.AuthResult{User: &core.User{ID: "u1", Email: "a@b.com"}, Token: "tok"},
		logoutErr: errors.New("backend down"),
	}
	service := NewAuthService(fake, NewSessionManager(store, nil), nil)
	ctx := context.Background()
	if _, err := service.Login(ctx, core.LoginInput{Email: "a@b.com", Password: "pw"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	store.removeErr = errors.New("read-only")

	err := service.Logout(ctx)

	if !errors.Is(err, store.removeErr) {
		t.Errorf("Logout() error = %v, want store error", err)
	}
	if fake.logouts != 1 {
		t.Errorf("backend logouts = %d, want 1", fake.logouts)
	}
	if service.IsAuthenticated() || service.Session() != nil {
		t.Error("in-memory session should be cleared")
	}
}

// Requirement: a failed login keeps the previous session.
func TestAuthService_FailedLoginKeepsPreviousSession(t *testing.T) {
	service, _ := newDemoAuth()
	ctx := context.Background()
	if _, err := service.Login(ctx, core.LoginInput{Email: "first@b.com", Password: "123"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	_, err := service.Login(ctx, core.LoginInput{Email: "second@b.com", Password: "bad"})

	if !errors.Is(err, core.ErrInvalidCredentials) {
		t.Fatalf("error = %v", err)
	}
	if service.State() != core.StateAuthenticated || service.User().Email != "first@b.com" {
		t.Errorf("previous session lost: state=%v user=%+v", service.State(), service.User())
	}
}

// Requirement: a store failure during login leaves the service anonymous.
func TestAuthService_LoginPersistFailure(t *testing.T) {
	service, store := newDemoAuth()
	store.setErr = errors.New("quota")

	_, err := service.Login(context.Background(), core.LoginInput{Email: "a@b.com", Password: "123"})

	if !errors.Is(err, store.setErr) {
		t.Fatalf("error = %v, want store error", err)
	}
	if service.IsAuthenticated() {
		t.Error("should not be authenticated")
	}
}

// Requirement: only one login runs at a time.
func TestAuthService_ConcurrentLoginRejected(t *testing.T) {
	fake := &FakeAuthenticator{
		result: &core.AuthResult{User: &core.User{ID: "u1", Email: "a@b.com"}},
		block:  make(chan struct{}),
	}
	service := NewAuthService(fake, NewSessionManager(NewFakeStore(), nil), nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := service.Login(ctx, core.LoginInput{Email: "a@b.com"})
		done <- err
	}()

	deadline := time.Now().Add(time.Second)
	for service.State() != core.StateAuthenticating {
		if time.Now().After(deadline) {
			t.Fatal("first login never started")
		}
		time.Sleep(time.Millisecond)
	}

	_, err := service.Login(ctx, core.LoginInput{Email: "a@b.com"})
	if !errors.Is(err, core.ErrAuthInProgress) {
		t.Errorf("second Login() error = %v, want ErrAuthInProgress", err)
	}

	close(fake.block)
	if err := <-done; err != nil {
		t.Fatalf("first Login() error = %v", err)
	}
	if service.State() != core.StateAuthenticated {
		t.Errorf("State() = %v, want authenticated", service.State())
	}
}

// Requirement: a demo session signed in without an email survives a restart.
func TestAuthService_EmptyEmailSessionRestores(t *testing.T) {
	service, store := newDemoAuth()
	ctx := context.Background()
	if _, err := service.Login(ctx, core.LoginInput{Password: "123"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	restarted := NewAuthService(NewDemoAuthenticator(), NewSessionManager(store, nil), nil)
	if err := restarted.InitializeAuth(ctx); err != nil {
		t.Fatalf("InitializeAuth() error = %v", err)
	}

	if !restarted.IsAuthenticated() || restarted.User().ID != service.User().ID {
		t.Errorf("restored user = %+v, want %+v", restarted.User(), service.User())
	}
}
