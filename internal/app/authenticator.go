package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campuskit/beacon/internal/domain"
)

// Authentication reject reasons. The handshake is fail-closed: on any
// of these the connection never touches another component.
var (
	ErrMissingCredential  = errors.New("missing credential")
	ErrInvalidCredential  = errors.New("invalid credential")
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrAccountDeactivated = errors.New("account deactivated")
)

// DirectoryEntry is what the platform's user store knows about a user.
type DirectoryEntry struct {
	Identity domain.Identity
	Active   bool
}

// IdentityDirectory resolves a user ID to its identity. The push core
// does not own user records; the platform injects its own directory.
type IdentityDirectory interface {
	Lookup(ctx context.Context, id domain.UserID) (DirectoryEntry, bool, error)
}

// accessClaims is the payload of a platform access token.
type accessClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Authenticator validates a bearer credential at handshake and resolves
// the identity behind it.
type Authenticator struct {
	secret []byte
	dir    IdentityDirectory
}

func NewAuthenticator(secret []byte, dir IdentityDirectory) *Authenticator {
	return &Authenticator{secret: secret, dir: dir}
}

// Authenticate runs to completion before the connection is allowed into
// any other component. Expired and malformed tokens both surface as
// ErrInvalidCredential.
func (a *Authenticator) Authenticate(ctx context.Context, credential string) (domain.Identity, error) {
	if credential == "" {
		return domain.Identity{}, ErrMissingCredential
	}

	token, err := jwt.ParseWithClaims(credential, &accessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return domain.Identity{}, ErrInvalidCredential
	}

	entry, found, err := a.dir.Lookup(ctx, domain.UserID(claims.UserID))
	if err != nil {
		return domain.Identity{}, fmt.Errorf("directory lookup: %w", err)
	}
	if !found {
		return domain.Identity{}, ErrIdentityNotFound
	}
	if !entry.Active {
		return domain.Identity{}, ErrAccountDeactivated
	}
	return entry.Identity, nil
}

// IssueToken signs an access token for a user. The platform's auth
// service owns token issuance in production; this helper serves the
// demo binary and tests.
func IssueToken(secret []byte, id domain.UserID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &accessClaims{
		UserID: string(id),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "beacon",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
