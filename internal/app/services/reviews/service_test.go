package reviews

import (
	"context"
	"testing"

	apperrors "github.com/appduka/catalog/internal/errors"

	"github.com/appduka/catalog/internal/app/domain/catalog"
	"github.com/appduka/catalog/internal/app/domain/profile"
	"github.com/appduka/catalog/internal/app/storage/memory"
)

var (
	member = profile.Identity{ID: "u-1", Email: "user@example.com", Role: profile.RoleUser}
	other  = profile.Identity{ID: "u-2", Email: "other@example.com", Role: profile.RoleUser}
	admin  = profile.Identity{ID: "a-1", Email: "admin@example.com", Role: profile.RoleAdmin}
)

func seedApp(t *testing.T, store *memory.Store) catalog.App {
	t.Helper()
	app, err := store.CreateApp(context.Background(), catalog.App{
		Name: "Duka", IconURL: "i", APKURL: "a", Status: catalog.StatusApproved,
	})
	if err != nil {
		t.Fatalf("seed app: %v", err)
	}
	return app
}

func TestSubmitValidation(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)
	ctx := context.Background()
	app := seedApp(t, store)

	if _, err := svc.Submit(ctx, profile.Identity{}, app.ID, 5, "x"); apperrors.KindOf(err) != apperrors.KindUnauthorized {
		t.Fatalf("expected unauthorized for visitor, got %v", err)
	}
	for _, rating := range []int{0, 6, -1} {
		if _, err := svc.Submit(ctx, member, app.ID, rating, ""); apperrors.KindOf(err) != apperrors.KindValidation {
			t.Errorf("rating %d: expected validation error, got %v", rating, err)
		}
	}
	if _, err := svc.Submit(ctx, member, "", 3, ""); apperrors.KindOf(err) != apperrors.KindValidation {
		t.Fatalf("expected validation error for empty app id, got %v", err)
	}
}

func TestSubmitReplacesEarlierReview(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)
	ctx := context.Background()
	app := seedApp(t, store)

	if _, err := svc.Submit(ctx, member, app.ID, 5, "safi sana"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := svc.Submit(ctx, member, app.ID, 2, "imeharibika"); err != nil {
		t.Fatalf("second submit: %v", err)
	}

	reviews, err := svc.ListForApp(ctx, app.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("expected one review per user per app, got %d", len(reviews))
	}
	if reviews[0].Rating != 2 || reviews[0].Comment != "imeharibika" {
		t.Fatalf("latest submission should win: %+v", reviews[0])
	}
}

func TestListForUserAccess(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)
	ctx := context.Background()
	app := seedApp(t, store)

	if _, err := svc.Submit(ctx, member, app.ID, 4, ""); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := svc.ListForUser(ctx, profile.Identity{}, member.ID); apperrors.KindOf(err) != apperrors.KindUnauthorized {
		t.Fatalf("expected unauthorized for visitor, got %v", err)
	}
	if _, err := svc.ListForUser(ctx, other, member.ID); apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Fatalf("expected forbidden for another user, got %v", err)
	}

	own, err := svc.ListForUser(ctx, member, member.ID)
	if err != nil {
		t.Fatalf("owner listing: %v", err)
	}
	if len(own) != 1 || own[0].App.Name != "Duka" {
		t.Fatalf("expected app summary on review, got %+v", own)
	}

	if _, err := svc.ListForUser(ctx, admin, member.ID); err != nil {
		t.Fatalf("admin listing: %v", err)
	}
}
