package fiber

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cuonglevan23/ybproject/pkg/crypto"
)

const issuer = "yb-mock"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token has been revoked")
)

// Claims carried by a bearer token
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// tokenIssuer signs HS256 tokens and remembers revoked ones by fingerprint
type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	ids    *crypto.IDGenerator

	mu      sync.RWMutex
	revoked map[string]time.Time // fingerprint -> expiry
}

func newTokenIssuer(secret []byte, ttl time.Duration) *tokenIssuer {
	return &tokenIssuer{
		secret:  secret,
		ttl:     ttl,
		ids:     crypto.MustIDGenerator(),
		revoked: make(map[string]time.Time),
	}
}

func (t *tokenIssuer) Issue(userID, email, name string) (string, error) {
	jti, err := t.ids.NewID()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := &Claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   userID,
			ID:        jti,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *tokenIssuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	t.mu.RLock()
	_, revoked := t.revoked[crypto.Fingerprint(tokenString)]
	t.mu.RUnlock()
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// Revoke blocks tokenString until it would have expired anyway
func (t *tokenIssuer) Revoke(tokenString string, claims *Claims) {
	expiry := time.Now().Add(t.ttl)
	if claims != nil && claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	for fp, exp := range t.revoked {
		if now.After(exp) {
			delete(t.revoked, fp)
		}
	}
	t.revoked[crypto.Fingerprint(tokenString)] = expiry
}
