package fiber

import (
	"strings"
	"sync"

	"github.com/cuonglevan23/ybproject/core"
	"github.com/cuonglevan23/ybproject/pkg/crypto"
)

type account struct {
	user         core.User
	passwordHash string
}

// accountRegistry is the mock backend's in-memory user table keyed by email
type accountRegistry struct {
	passwords crypto.PasswordHandler
	ids       *crypto.IDGenerator

	mu       sync.RWMutex
	accounts map[string]*account
}

func newAccountRegistry(passwords crypto.PasswordHandler) *accountRegistry {
	return &accountRegistry{
		passwords: passwords,
		ids:       crypto.MustIDGenerator(),
		accounts:  make(map[string]*account),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *accountRegistry) Register(name, email, password string) (*core.User, error) {
	email = normalizeEmail(email)

	r.mu.RLock()
	_, exists := r.accounts[email]
	r.mu.RUnlock()
	if exists {
		return nil, core.ErrUserExists
	}

	hash, err := r.passwords.Hash(password)
	if err != nil {
		return nil, err
	}
	id, err := r.ids.NewID()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	acc := &account{
		user:         core.User{ID: id, Email: email, Name: name},
		passwordHash: hash,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[email]; exists {
		return nil, core.ErrUserExists
	}
	r.accounts[email] = acc

	u := acc.user
	return &u, nil
}

func (r *accountRegistry) Authenticate(email, password string) (*core.User, error) {
	r.mu.RLock()
	acc, ok := r.accounts[normalizeEmail(email)]
	r.mu.RUnlock()
	if !ok {
		return nil, core.ErrInvalidCredentials
	}

	match, err := r.passwords.Verify(password, acc.passwordHash)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, core.ErrInvalidCredentials
	}

	u := acc.user
	return &u, nil
}

func (r *accountRegistry) ByID(id string) (*core.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, acc := range r.accounts {
		if acc.user.ID == id {
			u := acc.user
			return &u, true
		}
	}
	return nil, false
}
