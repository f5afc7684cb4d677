package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/cuonglevan23/ybproject/core"
)

// FakeStore is a test-only fake implementing core.Store.
// It stores values in a map and exposes error fields for behavior injection.
type FakeStore struct {
	values    map[string][]byte
	mu        sync.RWMutex
	getErr    error
	setErr    error
	removeErr error
	removes   int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{values: make(map[string][]byte)}
}

func (f *FakeStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return nil, core.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (f *FakeStore) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = append([]byte(nil), value...)
	return nil
}

func (f *FakeStore) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes++
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.values, key)
	return nil
}

func (f *FakeStore) has(key string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.values[key]
	return ok
}

// FakeAuthenticator is a test-only core.Authenticator returning canned results
type FakeAuthenticator struct {
	result    *core.AuthResult
	err       error
	logoutErr error
	logouts   int
	block     chan struct{} // when set, Login waits on it
}

func (f *FakeAuthenticator) Login(ctx context.Context, _ core.LoginInput) (*core.AuthResult, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.err
}

func (f *FakeAuthenticator) SignUp(_ context.Context, _ core.SignUpInput) (*core.AuthResult, error) {
	return f.result, f.err
}

func (f *FakeAuthenticator) Logout(context.Context) error {
	f.logouts++
	return f.logoutErr
}

// StaticTokens is a test-only core.TokenSource
type StaticTokens string

func (s StaticTokens) Token() string { return string(s) }

// FailingDoer is a test-only core.HTTPDoer that never reaches a server
type FailingDoer struct {
	calls atomic.Int32
}

var errConnectionRefused = errors.New("dial tcp 127.0.0.1:1: connect: connection refused")

func (f *FailingDoer) Do(*http.Request) (*http.Response, error) {
	f.calls.Add(1)
	return nil, errConnectionRefused
}
