// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

// Package auth verifies viewer logins and keeps their sessions.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/toeirei/fieldviewer/internal/security"
)

var (
	// ErrInvalidCredentials is returned for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrRateLimited is returned when a user tries to log in too often.
	ErrRateLimited = errors.New("too many login attempts")
)

// Login attempts allowed per user: a burst of 5, then one every 12 seconds.
// Each client address gets a larger budget across all user names.
const (
	attemptBurst    = 5
	attemptInterval = 12 * time.Second
	clientBurst     = 20
	clientInterval  = 3 * time.Second
)

// unknownUser is the limiter key shared by every name not in the credential map.
const unknownUser = ""

// HashPassword returns the bcrypt hash stored in auth.users.
func HashPassword(password security.Secret) (string, error) {
	var hash []byte
	err := password.Use(func(b []byte) error {
		var err error
		hash, err = bcrypt.GenerateFromPassword(b, bcrypt.DefaultCost)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// Authenticator checks username/password pairs against the configured
// credential map.
type Authenticator struct {
	users          map[string]string
	allowPlaintext bool

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	clients  map[string]*clientLimiter
	now      func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewAuthenticator builds an Authenticator. Values in users are bcrypt
// hashes; any other value is a plaintext password and is rejected unless
// allowPlaintext is set.
func NewAuthenticator(users map[string]string, allowPlaintext bool) (*Authenticator, error) {
	a := &Authenticator{
		users:          make(map[string]string, len(users)),
		allowPlaintext: allowPlaintext,
		limiters:       make(map[string]*rate.Limiter),
		clients:        make(map[string]*clientLimiter),
		now:            time.Now,
	}
	for name, cred := range users {
		name = normalizeUser(name)
		if name == "" {
			return nil, errors.New("auth: empty username")
		}
		if !isBcryptHash(cred) && !allowPlaintext {
			return nil, fmt.Errorf("auth: user %s has a plaintext password; hash it with 'fieldviewer user hash-password' or set auth.allow_plaintext", name)
		}
		a.users[name] = cred
	}
	return a, nil
}

// User names are case insensitive since config keys are lowercased.
func normalizeUser(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// Users returns the number of configured accounts.
func (a *Authenticator) Users() int { return len(a.users) }

// limiter returns the bucket for user. Names outside the credential map
// share one bucket.
func (a *Authenticator) limiter(user string) *rate.Limiter {
	if _, ok := a.users[user]; !ok {
		user = unknownUser
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.limiters[user]
	if !ok {
		l = rate.NewLimiter(rate.Every(attemptInterval), attemptBurst)
		a.limiters[user] = l
	}
	return l
}

func (a *Authenticator) allowClient(client string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	c, ok := a.clients[client]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rate.Every(clientInterval), clientBurst)}
		a.clients[client] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// SweepClients forgets client limiters not used for idle and returns how
// many were dropped.
func (a *Authenticator) SweepClients(idle time.Duration) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	cutoff := a.now().Add(-idle)
	n := 0
	for k, c := range a.clients {
		if !c.lastSeen.After(cutoff) {
			delete(a.clients, k)
			n++
		}
	}
	return n
}

// Verify checks the password for user. Every attempt, successful or not,
// consumes a token of the user's limiter.
func (a *Authenticator) Verify(user string, password security.Secret) error {
	return a.VerifyFrom("", user, password)
}

// VerifyFrom is Verify for a login arriving from client, usually the remote
// host. The client limiter is consulted first; an empty client skips it.
func (a *Authenticator) VerifyFrom(client, user string, password security.Secret) error {
	if client != "" && !a.allowClient(client) {
		return ErrRateLimited
	}
	user = normalizeUser(user)
	if !a.limiter(user).Allow() {
		return ErrRateLimited
	}
	cred, ok := a.users[user]
	if !ok {
		// Spend comparable time on unknown users.
		_ = bcrypt.CompareHashAndPassword(dummyHash(), password)
		return ErrInvalidCredentials
	}
	if isBcryptHash(cred) {
		if err := bcrypt.CompareHashAndPassword([]byte(cred), password); err != nil {
			return ErrInvalidCredentials
		}
		return nil
	}
	if !password.Equal([]byte(cred)) {
		return ErrInvalidCredentials
	}
	return nil
}

var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("fieldviewer"), bcrypt.DefaultCost)
	return h
})
