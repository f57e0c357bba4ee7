// Package auth provides the session credential capability consulted when
// opening REST or stream connections. The core never reads ambient cookies
// or environment state directly; callers construct a provider once and hand
// it to the transports.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
)

// ErrNoCredentials is returned when a provider has no token to offer.
var ErrNoCredentials = errors.New("no session credentials available")

// Credentials supplies the opaque session token attached to outbound
// connections. Implementations must be safe for concurrent use.
type Credentials interface {
	// Token returns the current session token. Implementations may refresh
	// it; the returned value must be valid at the time of the call.
	Token(ctx context.Context) (string, error)
}

// Header returns request headers for the given provider. The Authorization
// header is omitted when creds is nil (anonymous access).
func Header(ctx context.Context, creds Credentials) (http.Header, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")

	if creds == nil {
		return header, nil
	}

	token, err := creds.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve session token: %w", err)
	}
	header.Set("Authorization", "Bearer "+token)
	return header, nil
}

// StaticToken is a Credentials implementation backed by a fixed token.
type StaticToken string

// Token implements Credentials.
func (t StaticToken) Token(ctx context.Context) (string, error) {
	if t == "" {
		return "", ErrNoCredentials
	}
	return string(t), nil
}

// EnvToken reads the token from an environment variable on every call, so
// rotated tokens are picked up without a restart. The last successful read
// is kept as a fallback for transient unsets.
type EnvToken struct {
	Var string

	mu   sync.Mutex
	last string
}

// NewEnvToken creates a provider reading the named environment variable.
func NewEnvToken(name string) *EnvToken {
	return &EnvToken{Var: name}
}

// Token implements Credentials.
func (e *EnvToken) Token(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if v := os.Getenv(e.Var); v != "" {
		e.last = v
		return v, nil
	}
	if e.last != "" {
		return e.last, nil
	}
	return "", fmt.Errorf("%w: %s is not set", ErrNoCredentials, e.Var)
}
