package core

import (
	"context"
	"net/http"
	"time"
)

// Ports define interfaces for external dependencies

// ============================================
// STORE PORT (persisted key-value state)
// ============================================

// Store is the get/set/remove surface the session is persisted through.
// Get returns ErrKeyNotFound when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// StoreWithStats extends Store with statistics tracking
type StoreWithStats interface {
	Store
	Stats() StoreStats
}

// StoreStats tracks store usage counters
type StoreStats struct {
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	Sets      int64         `json:"sets"`
	Deletes   int64         `json:"deletes"`
	Evictions int64         `json:"evictions"`
	Size      int           `json:"size"`
	TTL       time.Duration `json:"ttl"`
}

// ============================================
// TRANSPORT PORTS
// ============================================

// HTTPDoer is satisfied by *http.Client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource supplies the bearer token attached to outgoing requests.
// An empty string means no Authorization header.
type TokenSource interface {
	Token() string
}

// Limiter paces outgoing requests; *rate.Limiter satisfies it
type Limiter interface {
	Wait(ctx context.Context) error
}

// ============================================
// AUTH PORTS
// ============================================

// Authenticator turns credentials into an authenticated user
type Authenticator interface {
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	SignUp(ctx context.Context, input SignUpInput) (*AuthResult, error)
	Logout(ctx context.Context) error
}
