// Package storage declares the persistence surfaces used by the catalog
// services. Implementations map their backend's failures onto the shared
// error taxonomy: missing entities become KindNotFound, an unprovisioned
// schema becomes KindSetupIncomplete, anything else KindUnavailable.
package storage

import (
	"context"
	"errors"

	"github.com/appduka/catalog/internal/app/domain/catalog"
	"github.com/appduka/catalog/internal/app/domain/profile"
	"github.com/appduka/catalog/internal/app/domain/review"
)

// ErrObjectNotFound is returned by ObjectStore.Remove when the object is
// already gone. Callers treat it as success.
var ErrObjectNotFound = errors.New("object not found")

// CatalogStore persists catalog entries. Reads carry the live rating
// aggregate; ListApps returns newest-first.
type CatalogStore interface {
	CreateApp(ctx context.Context, app catalog.App) (catalog.App, error)
	UpdateApp(ctx context.Context, id string, upd catalog.Update) (catalog.App, error)
	SetAppStatus(ctx context.Context, id string, status catalog.Status) (catalog.App, error)
	GetApp(ctx context.Context, id string) (catalog.App, error)
	ListApps(ctx context.Context) ([]catalog.App, error)
	// DeleteApp removes the record; the backing schema cascades the entry's
	// reviews.
	DeleteApp(ctx context.Context, id string) error
}

// ReviewStore persists reviews. UpsertReview replaces an existing review by
// the same (user, app) pair.
type ReviewStore interface {
	UpsertReview(ctx context.Context, rev review.Review) (review.Review, error)
	// ListReviewsForApp returns reviews newest-first with the reviewer's
	// email joined from their profile.
	ListReviewsForApp(ctx context.Context, appID string) ([]review.Review, error)
	// ListReviewsForUser annotates each review with the reviewed app;
	// reviews whose app has been deleted are filtered out.
	ListReviewsForUser(ctx context.Context, userID string) ([]review.UserReview, error)
}

// ProfileStore persists identity-linked profiles.
type ProfileStore interface {
	CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error)
	GetProfile(ctx context.Context, id string) (profile.Profile, error)
	// ListProfiles returns all profiles ordered by email.
	ListProfiles(ctx context.Context) ([]profile.Profile, error)
	UpdateUsername(ctx context.Context, id, username string) (profile.Profile, error)
	UpdateRole(ctx context.Context, id string, role profile.Role) (profile.Profile, error)
	CountAdmins(ctx context.Context) (int, error)
	// DeleteAccount removes the identity and, by cascade, the profile and
	// the user's reviews.
	DeleteAccount(ctx context.Context, id string) error
}

// ObjectStore is the object-storage bucket behind the file lifecycle
// manager. Paths are bucket-relative; PublicURL embeds the bucket segment so
// a URL can be parsed back into a path.
type ObjectStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	PublicURL(path string) string
	Remove(ctx context.Context, path string) error
}
