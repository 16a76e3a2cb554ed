package memory

import (
	"context"
	"testing"

	apperrors "github.com/appduka/catalog/internal/errors"

	"github.com/appduka/catalog/internal/app/domain/catalog"
	"github.com/appduka/catalog/internal/app/domain/profile"
	"github.com/appduka/catalog/internal/app/domain/review"
)

func TestAggregateMatchesReviewSet(t *testing.T) {
	store := New()
	ctx := context.Background()

	app, err := store.CreateApp(ctx, catalog.App{Name: "Kalenda", IconURL: "i", APKURL: "a"})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	if app.AverageRating != 0 || app.ReviewCount != 0 {
		t.Fatalf("new app aggregate should be 0/0, got %v/%d", app.AverageRating, app.ReviewCount)
	}

	if _, err := store.UpsertReview(ctx, review.Review{AppID: app.ID, UserID: "a", Rating: 5, Comment: "Nzuri"}); err != nil {
		t.Fatalf("review a: %v", err)
	}
	if _, err := store.UpsertReview(ctx, review.Review{AppID: app.ID, UserID: "b", Rating: 3}); err != nil {
		t.Fatalf("review b: %v", err)
	}

	got, err := store.GetApp(ctx, app.ID)
	if err != nil {
		t.Fatalf("get app: %v", err)
	}
	if got.AverageRating != 4.0 || got.ReviewCount != 2 {
		t.Fatalf("expected 4.0/2, got %v/%d", got.AverageRating, got.ReviewCount)
	}
}

func TestUpsertReplacesExistingReview(t *testing.T) {
	store := New()
	ctx := context.Background()

	app, _ := store.CreateApp(ctx, catalog.App{Name: "Kalenda"})
	first, _ := store.UpsertReview(ctx, review.Review{AppID: app.ID, UserID: "a", Rating: 2})
	second, err := store.UpsertReview(ctx, review.Review{AppID: app.ID, UserID: "a", Rating: 5, Comment: "bora zaidi"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected replacement, got new review %s", second.ID)
	}

	got, _ := store.GetApp(ctx, app.ID)
	if got.ReviewCount != 1 || got.AverageRating != 5.0 {
		t.Fatalf("expected 5.0/1 after replacement, got %v/%d", got.AverageRating, got.ReviewCount)
	}
}

func TestDeleteAppCascadesReviews(t *testing.T) {
	store := New()
	ctx := context.Background()

	app, _ := store.CreateApp(ctx, catalog.App{Name: "Kalenda"})
	if _, err := store.UpsertReview(ctx, review.Review{AppID: app.ID, UserID: "a", Rating: 4}); err != nil {
		t.Fatalf("review: %v", err)
	}
	if err := store.DeleteApp(ctx, app.ID); err != nil {
		t.Fatalf("delete app: %v", err)
	}

	revs, err := store.ListReviewsForApp(ctx, app.ID)
	if err != nil {
		t.Fatalf("list reviews: %v", err)
	}
	if len(revs) != 0 {
		t.Fatalf("expected cascade, got %d reviews", len(revs))
	}
	userRevs, _ := store.ListReviewsForUser(ctx, "a")
	if len(userRevs) != 0 {
		t.Fatalf("expected deleted app filtered from user reviews, got %d", len(userRevs))
	}
}

func TestReviewEmailJoinFallsBack(t *testing.T) {
	store := New()
	ctx := context.Background()

	app, _ := store.CreateApp(ctx, catalog.App{Name: "Kalenda"})
	if _, err := store.CreateProfile(ctx, profile.Profile{ID: "known", Email: "juma@example.com"}); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	store.UpsertReview(ctx, review.Review{AppID: app.ID, UserID: "known", Rating: 5})
	store.UpsertReview(ctx, review.Review{AppID: app.ID, UserID: "ghost", Rating: 1})

	revs, _ := store.ListReviewsForApp(ctx, app.ID)
	if len(revs) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(revs))
	}
	emails := map[string]string{}
	for _, r := range revs {
		emails[r.UserID] = r.UserEmail
	}
	if emails["known"] != "juma@example.com" {
		t.Fatalf("expected joined email, got %q", emails["known"])
	}
	if emails["ghost"] != review.UnknownReviewer {
		t.Fatalf("expected placeholder for missing profile, got %q", emails["ghost"])
	}
}

func TestGetAppNotFound(t *testing.T) {
	store := New()
	_, err := store.GetApp(context.Background(), "missing")
	if !apperrors.IsNotFound(err) {
		t.Fatalf("expected not-found kind, got %v", err)
	}
}

func TestListProfilesOrderedByEmail(t *testing.T) {
	store := New()
	ctx := context.Background()
	store.CreateProfile(ctx, profile.Profile{ID: "1", Email: "zuwena@example.com"})
	store.CreateProfile(ctx, profile.Profile{ID: "2", Email: "amina@example.com"})

	list, err := store.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("list profiles: %v", err)
	}
	if len(list) != 2 || list[0].Email != "amina@example.com" {
		t.Fatalf("expected email ordering, got %+v", list)
	}
}

func TestObjectStoreRemove(t *testing.T) {
	bucket := NewObjectStore("https://files.test/storage/v1/object/public/app_files")
	ctx := context.Background()

	if err := bucket.Upload(ctx, "kalenda/1_icon.png", []byte("png"), "image/png"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := bucket.Remove(ctx, "kalenda/1_icon.png"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := bucket.Remove(ctx, "kalenda/1_icon.png"); err == nil {
		t.Fatal("expected not-found on second remove")
	}
}
