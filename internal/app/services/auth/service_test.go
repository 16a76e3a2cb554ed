package auth

import (
	"context"
	"testing"

	apperrors "github.com/appduka/catalog/internal/errors"

	"github.com/appduka/catalog/internal/app/domain/profile"
	"github.com/appduka/catalog/internal/app/services/profiles"
	"github.com/appduka/catalog/internal/app/storage/memory"
)

func newAuth(t *testing.T) (*Service, *MemoryProvider, *memory.Store) {
	t.Helper()
	store := memory.New()
	provider := NewMemoryProvider()
	return New(provider, profiles.New(store, nil), nil), provider, store
}

func TestSignUpBootstrapsProfile(t *testing.T) {
	svc, _, store := newAuth(t)
	ctx := context.Background()

	sess, p, err := svc.SignUp(ctx, "first@example.com", "hunter2")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if sess.AccessToken == "" || sess.UserID == "" {
		t.Fatalf("incomplete session: %+v", sess)
	}
	if p.Role != profile.RoleAdmin {
		t.Fatalf("first account should bootstrap as admin, got %q", p.Role)
	}

	stored, err := store.GetProfile(ctx, sess.UserID)
	if err != nil {
		t.Fatalf("profile row missing: %v", err)
	}
	if stored.Email != "first@example.com" {
		t.Fatalf("unexpected profile email %q", stored.Email)
	}
}

func TestSignUpValidation(t *testing.T) {
	svc, _, _ := newAuth(t)
	ctx := context.Background()

	cases := []struct{ email, password string }{
		{"", "hunter2"},
		{"not-an-email", "hunter2"},
		{"a@b.com", "short"},
	}
	for _, c := range cases {
		if _, _, err := svc.SignUp(ctx, c.email, c.password); apperrors.KindOf(err) != apperrors.KindValidation {
			t.Errorf("SignUp(%q, %q): expected validation error, got %v", c.email, c.password, err)
		}
	}
}

func TestSignInWrongPassword(t *testing.T) {
	svc, _, _ := newAuth(t)
	ctx := context.Background()

	if _, _, err := svc.SignUp(ctx, "user@example.com", "hunter2"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if _, _, err := svc.SignIn(ctx, "user@example.com", "wrongpw"); apperrors.KindOf(err) != apperrors.KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	sess, _, err := svc.SignIn(ctx, "user@example.com", "hunter2")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if sess.AccessToken == "" {
		t.Fatal("no token issued")
	}
}

func TestSignOutRevokesSession(t *testing.T) {
	svc, provider, _ := newAuth(t)
	ctx := context.Background()

	sess, _, err := svc.SignUp(ctx, "user@example.com", "hunter2")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if _, ok := provider.Resolve(sess.AccessToken); !ok {
		t.Fatal("session not tracked")
	}
	if err := svc.SignOut(ctx, sess.AccessToken); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, ok := provider.Resolve(sess.AccessToken); ok {
		t.Fatal("session survived sign out")
	}
	if err := svc.SignOut(ctx, ""); apperrors.KindOf(err) != apperrors.KindUnauthorized {
		t.Fatalf("expected unauthorized for empty token, got %v", err)
	}
}
