package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cuonglevan23/ybproject/core"
	"github.com/cuonglevan23/ybproject/pkg/logger"
)

// Ensure SessionManager can feed bearer tokens to the client
var _ core.TokenSource = (*SessionManager)(nil)

// SessionManager keeps the single active session in memory and mirrors it
// to the store under core.SessionKey
type SessionManager struct {
	store  core.Store
	key    string
	logger *zap.Logger

	mu      sync.RWMutex
	current *core.Session
}

func NewSessionManager(store core.Store, log *zap.Logger) *SessionManager {
	return &SessionManager{
		store:  store,
		key:    core.SessionKey,
		logger: logger.OrNop(log),
	}
}

// Load reads the persisted session. A missing, corrupted or incomplete record
// yields ErrSessionNotFound; the latter two are removed from the store.
func (sm *SessionManager) Load(ctx context.Context) (*core.Session, error) {
	raw, err := sm.store.Get(ctx, sm.key)
	if errors.Is(err, core.ErrKeyNotFound) {
		sm.setCurrent(nil)
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session core.Session
	if err := json.Unmarshal(raw, &session); err != nil || !session.Valid() {
		sm.logger.Warn("discarding unreadable session", zap.String("key", sm.key), zap.NamedError("cause", err))
		sm.setCurrent(nil)
		if rmErr := sm.store.Remove(ctx, sm.key); rmErr != nil {
			sm.logger.Warn("failed to remove unreadable session", zap.Error(rmErr))
		}
		return nil, core.ErrSessionNotFound
	}

	sm.setCurrent(&session)
	return cloneSession(&session), nil
}

// Save persists s and makes it the active session
func (sm *SessionManager) Save(ctx context.Context, s *core.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := sm.store.Set(ctx, sm.key, raw); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	sm.setCurrent(cloneSession(s))
	return nil
}

// Clear drops the in-memory session, then removes the persisted one.
// The in-memory state is cleared even when the store fails.
func (sm *SessionManager) Clear(ctx context.Context) error {
	sm.setCurrent(nil)

	if err := sm.store.Remove(ctx, sm.key); err != nil && !errors.Is(err, core.ErrKeyNotFound) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// Current returns a copy of the active session, or nil
func (sm *SessionManager) Current() *core.Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return cloneSession(sm.current)
}

// Token returns the bearer token of the active session, "" when anonymous
func (sm *SessionManager) Token() string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if sm.current == nil {
		return ""
	}
	return sm.current.Token
}

func (sm *SessionManager) setCurrent(s *core.Session) {
	sm.mu.Lock()
	sm.current = s
	sm.mu.Unlock()
}

func cloneSession(s *core.Session) *core.Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.User != nil {
		u := *s.User
		if s.User.Avatar != nil {
			avatar := *s.User.Avatar
			u.Avatar = &avatar
		}
		c.User = &u
	}
	return &c
}
