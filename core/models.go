package core

import "time"

// User represents the signed-in dashboard user
type User struct {
	ID     string  `json:"id"`
	Email  string  `json:"email"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar,omitempty"`
}

// Session is the persisted authentication record.
//
// Exactly one Session is active at a time; it is owned by the auth manager.
type Session struct {
	User            *User     `json:"user"`
	IsAuthenticated bool      `json:"isAuthenticated"`
	Token           string    `json:"token,omitempty"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
}

// Valid reports whether a restored session can be trusted
func (s *Session) Valid() bool {
	return s != nil && s.IsAuthenticated && s.User != nil && s.User.ID != ""
}

// AuthState is the position of the auth manager in its state machine
type AuthState int

const (
	StateAnonymous AuthState = iota
	StateAuthenticating
	StateAuthenticated
)

func (s AuthState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// LoginInput contains the credentials for signing in
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpInput contains the data needed to register a new user
type SignUpInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// AuthResult is returned by a successful login or signup
type AuthResult struct {
	Success bool   `json:"success"`
	User    *User  `json:"user"`
	Token   string `json:"token,omitempty"`
}
