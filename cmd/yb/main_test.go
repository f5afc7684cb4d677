package main

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/cuonglevan23/ybproject"
)

func TestAuthModeFor(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{name: "defaults to remote", want: yb.AuthModeRemote},
		{name: "env wins over default", env: yb.AuthModeDemo, want: yb.AuthModeDemo},
		{name: "flag wins over env", flag: yb.AuthModeRemote, env: yb.AuthModeDemo, want: yb.AuthModeRemote},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Setenv("YB_AUTH_MODE", test.env)
			if got := authModeFor(test.flag); got != test.want {
				t.Errorf("authModeFor(%q) = %q, want %q", test.flag, got, test.want)
			}
		})
	}
}

// Requirement: the store and logger are released even when a command fails.
func TestRelease_AfterFailedCommand(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	t.Setenv("YB_API_BASE_URL", server.URL+"/api")
	t.Setenv("YB_AUTH_MODE", yb.AuthModeDemo)
	t.Setenv("YB_RETRY_ATTEMPTS", "1")
	t.Setenv("YB_DATABASE_URL", "")
	t.Setenv("YB_SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))

	root, c := newRootCommand()
	root.SetArgs([]string{"overview"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	// Act
	err := root.Execute()

	// Assert
	if !errors.Is(err, yb.ErrNetwork) {
		t.Fatalf("Execute() error = %v, want NetworkError", err)
	}
	if c.app == nil {
		t.Fatal("pre-run should have built the app")
	}
	released := 0
	pending := c.close
	c.close = func() {
		released++
		pending()
	}
	c.release()
	c.release()
	if released != 1 {
		t.Errorf("released = %d, want 1", released)
	}
}
