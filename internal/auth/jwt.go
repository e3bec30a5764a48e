// Package auth issues and checks the signed session tokens handed out on
// login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/mindcanvas/internal/common"
	"github.com/dmitrijs2005/mindcanvas/internal/cryptox"
	"github.com/dmitrijs2005/mindcanvas/internal/keystore"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SecretInfo binds secrets derived from the journal key to session tokens.
const SecretInfo = "mindcanvas session token"

const secretSize = 32

// Claims carries the standard JWT claims plus the authenticated username.
type Claims struct {
	jwt.RegisteredClaims
	Username string
}

// Issuer signs tokens with HS256 and keeps an in-memory list of revoked
// token ids. Revocations do not survive a restart.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	return &Issuer{
		secret:  append([]byte(nil), secret...),
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// SecretFromConfig returns configured if it is set, otherwise a secret
// derived from the journal key.
func SecretFromConfig(ctx context.Context, configured string, keys keystore.KeyStore) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}
	key, err := keys.LoadKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("load key for token secret: %w", err)
	}
	defer common.WipeByteArray(key)
	return cryptox.DeriveKey(key, SecretInfo, secretSize)
}

// Issue returns a signed token for username.
func (i *Issuer) Issue(username string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Username: username,
	})

	return token.SignedString(i.secret)
}

func (i *Issuer) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.Username == "" {
		return nil, common.ErrInvalidToken
	}
	if i.isRevoked(claims.ID) {
		return nil, fmt.Errorf("%w: revoked", common.ErrInvalidToken)
	}
	return claims, nil
}

// Username returns the username carried by a valid token.
func (i *Issuer) Username(tokenString string) (string, error) {
	claims, err := i.parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Username, nil
}

// Verify reports whether the token is well-formed, correctly signed,
// unexpired and not revoked.
func (i *Issuer) Verify(tokenString string) bool {
	_, err := i.parse(tokenString)
	return err == nil
}

// Revoke invalidates a token before its expiry. Invalid tokens are ignored.
func (i *Issuer) Revoke(tokenString string) {
	claims, err := i.parse(tokenString)
	if err != nil || claims.ID == "" {
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.pruneLocked()
	i.revoked[claims.ID] = claims.ExpiresAt.Time
}

func (i *Issuer) isRevoked(id string) bool {
	if id == "" {
		return false
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.revoked[id]
	return ok
}

// pruneLocked drops entries whose tokens have expired anyway.
func (i *Issuer) pruneLocked() {
	now := i.now()
	for id, exp := range i.revoked {
		if now.After(exp) {
			delete(i.revoked, id)
		}
	}
}
