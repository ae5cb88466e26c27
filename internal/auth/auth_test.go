// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package auth

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/toeirei/fieldviewer/internal/security"
)

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(h)
}

func TestVerify(t *testing.T) {
	a, err := NewAuthenticator(map[string]string{
		"ana":  mustHash(t, "s3cret"),
		"luis": "legacy",
	}, true)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}

	testCases := []struct {
		name    string
		user    string
		pw      string
		wantErr error
	}{
		{"bcrypt ok", "ana", "s3cret", nil},
		{"bcrypt wrong", "ana", "nope", ErrInvalidCredentials},
		{"plaintext ok", "luis", "legacy", nil},
		{"plaintext wrong", "luis", "Legacy", ErrInvalidCredentials},
		{"unknown user", "eve", "s3cret", ErrInvalidCredentials},
		{"empty password", "ana", "", ErrInvalidCredentials},
		{"user name case", " ANA", "s3cret", nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := a.Verify(tc.user, security.FromString(tc.pw))
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Verify(%s) = %v, want %v", tc.user, err, tc.wantErr)
			}
		})
	}
}

func TestPlaintextRejectedByDefault(t *testing.T) {
	if _, err := NewAuthenticator(map[string]string{"luis": "legacy"}, false); err == nil {
		t.Fatalf("expected plaintext credential to be rejected")
	}
	if _, err := NewAuthenticator(map[string]string{"": mustHash(t, "x")}, false); err == nil {
		t.Fatalf("expected empty username to be rejected")
	}
}

func TestVerifyRateLimited(t *testing.T) {
	a, err := NewAuthenticator(map[string]string{"ana": "pw"}, true)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	for i := 0; i < attemptBurst; i++ {
		_ = a.Verify("ana", security.FromString("wrong"))
	}
	if err := a.Verify("ana", security.FromString("pw")); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited after burst, got %v", err)
	}
	if err := a.Verify("other", security.FromString("pw")); errors.Is(err, ErrRateLimited) {
		t.Errorf("limiter must be per user")
	}
}

func TestVerifyRotatingUnknownUsers(t *testing.T) {
	a, err := NewAuthenticator(map[string]string{"ana": "pw"}, true)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	var limited bool
	for i := 0; i < attemptBurst+1; i++ {
		err := a.Verify(fmt.Sprintf("guest%d", i), security.FromString("x"))
		limited = limited || errors.Is(err, ErrRateLimited)
	}
	if !limited {
		t.Fatalf("rotating unknown names were never rate limited")
	}
	if n := len(a.limiters); n != 1 {
		t.Errorf("limiters = %d, want 1 shared bucket", n)
	}
	if err := a.Verify("ana", security.FromString("pw")); err != nil {
		t.Errorf("configured user throttled by unknown names: %v", err)
	}
}

func TestVerifyFromClientLimit(t *testing.T) {
	users := map[string]string{}
	for i := 0; i < clientBurst; i++ {
		users[fmt.Sprintf("user%d", i)] = "pw"
	}
	a, err := NewAuthenticator(users, true)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	for i := 0; i < clientBurst; i++ {
		if err := a.VerifyFrom("198.51.100.7", fmt.Sprintf("user%d", i), security.FromString("bad")); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d = %v", i, err)
		}
	}
	if err := a.VerifyFrom("198.51.100.7", "user0", security.FromString("pw")); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected client limit, got %v", err)
	}
	if err := a.VerifyFrom("203.0.113.9", "user1", security.FromString("pw")); err != nil {
		t.Errorf("other client: %v", err)
	}

	testCases := []struct {
		name    string
		advance time.Duration
		want    int
	}{
		{"recent clients kept", time.Minute, 0},
		{"idle clients dropped", 20 * time.Minute, 2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			now = now.Add(tc.advance)
			if got := a.SweepClients(15 * time.Minute); got != tc.want {
				t.Errorf("SweepClients = %d, want %d", got, tc.want)
			}
		})
	}
	if len(a.clients) != 0 {
		t.Errorf("clients left after sweep: %d", len(a.clients))
	}
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword(security.FromString("abc"))
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	a, err := NewAuthenticator(map[string]string{"u": h}, false)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	if err := a.Verify("u", security.FromString("abc")); err != nil {
		t.Errorf("Verify with generated hash: %v", err)
	}
}

func TestSessionStore(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessionStore(time.Hour)
	s.now = func() time.Time { return now }

	sess, err := s.Create("ana")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got, ok := s.Lookup(sess.Token); !ok || got.Username != "ana" {
		t.Fatalf("Lookup = %+v %v", got, ok)
	}
	if _, ok := s.Lookup("missing"); ok {
		t.Errorf("unknown token must not resolve")
	}

	other, _ := s.Create("luis")
	s.Delete(other.Token)
	if _, ok := s.Lookup(other.Token); ok {
		t.Errorf("deleted session still valid")
	}

	_, _ = s.Create("old")
	now = now.Add(2 * time.Hour)
	if n := s.Sweep(); n != 2 {
		t.Errorf("Sweep removed %d, want 2", n)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d after sweep", s.Len())
	}
	if _, ok := s.Lookup(sess.Token); ok {
		t.Errorf("expired session still valid")
	}
}

func TestSessionStoreConcurrent(t *testing.T) {
	s := NewSessionStore(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := s.Create("u")
			if err != nil {
				t.Errorf("Create: %v", err)
				return
			}
			s.Lookup(sess.Token)
			s.Sweep()
		}()
	}
	wg.Wait()
	if s.Len() != 20 {
		t.Errorf("Len = %d, want 20", s.Len())
	}
}
