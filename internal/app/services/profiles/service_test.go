package profiles

import (
	"context"
	"testing"

	apperrors "github.com/appduka/catalog/internal/errors"

	"github.com/appduka/catalog/internal/app/domain/profile"
	"github.com/appduka/catalog/internal/app/storage/memory"
)

func TestBootstrapFirstAccountBecomesAdmin(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	first, err := svc.Bootstrap(ctx, "u-1", "first@example.com")
	if err != nil {
		t.Fatalf("bootstrap first: %v", err)
	}
	if first.Role != profile.RoleAdmin {
		t.Fatalf("first account should be admin, got %q", first.Role)
	}

	second, err := svc.Bootstrap(ctx, "u-2", "second@example.com")
	if err != nil {
		t.Fatalf("bootstrap second: %v", err)
	}
	if second.Role != profile.RoleUser {
		t.Fatalf("later accounts should be users, got %q", second.Role)
	}

	// Bootstrap is idempotent: re-running returns the existing profile
	// without resetting its role.
	again, err := svc.Bootstrap(ctx, "u-1", "first@example.com")
	if err != nil {
		t.Fatalf("re-bootstrap: %v", err)
	}
	if again.Role != profile.RoleAdmin {
		t.Fatalf("role reset on re-bootstrap: %q", again.Role)
	}
}

func TestUpdateUsernameOwnerOnly(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	owner, _ := svc.Bootstrap(ctx, "u-1", "owner@example.com")
	svc.Bootstrap(ctx, "u-2", "other@example.com")

	me := profile.Identity{ID: owner.ID, Email: owner.Email, Role: owner.Role}
	updated, err := svc.UpdateUsername(ctx, me, owner.ID, "asha")
	if err != nil {
		t.Fatalf("update own username: %v", err)
	}
	if updated.Username != "asha" {
		t.Fatalf("username not applied: %q", updated.Username)
	}

	if _, err := svc.UpdateUsername(ctx, me, "u-2", "hijacked"); apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Fatalf("expected forbidden editing another profile, got %v", err)
	}
	if _, err := svc.UpdateUsername(ctx, me, owner.ID, ""); apperrors.KindOf(err) != apperrors.KindValidation {
		t.Fatalf("expected validation error for empty username, got %v", err)
	}
}

func TestSetRole(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	adminProfile, _ := svc.Bootstrap(ctx, "a-1", "admin@example.com")
	user, _ := svc.Bootstrap(ctx, "u-1", "user@example.com")

	admin := profile.Identity{ID: adminProfile.ID, Role: profile.RoleAdmin}
	member := profile.Identity{ID: user.ID, Role: profile.RoleUser}

	if _, err := svc.SetRole(ctx, member, user.ID, profile.RoleDev); apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Fatalf("expected forbidden for non-admin, got %v", err)
	}
	if _, err := svc.SetRole(ctx, admin, user.ID, "superuser"); apperrors.KindOf(err) != apperrors.KindValidation {
		t.Fatalf("expected validation error for unknown role, got %v", err)
	}

	promoted, err := svc.SetRole(ctx, admin, user.ID, profile.RoleDev)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if promoted.Role != profile.RoleDev {
		t.Fatalf("role not applied: %q", promoted.Role)
	}
}

func TestDeleteAccount(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)
	ctx := context.Background()

	adminProfile, _ := svc.Bootstrap(ctx, "a-1", "admin@example.com")
	user, _ := svc.Bootstrap(ctx, "u-1", "user@example.com")

	admin := profile.Identity{ID: adminProfile.ID, Role: profile.RoleAdmin}
	member := profile.Identity{ID: user.ID, Role: profile.RoleUser}

	if err := svc.Delete(ctx, member, adminProfile.ID); apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Fatalf("expected forbidden for non-admin, got %v", err)
	}
	if err := svc.Delete(ctx, admin, admin.ID); apperrors.KindOf(err) != apperrors.KindValidation {
		t.Fatalf("expected self-deletion rejected, got %v", err)
	}

	if err := svc.Delete(ctx, admin, user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetProfile(ctx, user.ID); !apperrors.IsNotFound(err) {
		t.Fatalf("profile should be gone, got %v", err)
	}
}
