// Package reviews implements review submission and the per-app and per-user
// review listings.
package reviews

import (
	"context"

	apperrors "github.com/appduka/catalog/internal/errors"

	"github.com/appduka/catalog/internal/app/domain/profile"
	"github.com/appduka/catalog/internal/app/domain/review"
	"github.com/appduka/catalog/internal/app/storage"
	"github.com/appduka/catalog/internal/logging"
)

// Service exposes the review operations.
type Service struct {
	store storage.ReviewStore
	log   *logging.Logger
}

// New creates the review service.
func New(store storage.ReviewStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("reviews")
	}
	return &Service{store: store, log: log}
}

// Submit records the caller's review of an app, replacing any review they
// wrote for it before. The rating bound is checked here so a bad request
// never reaches the backend.
func (s *Service) Submit(ctx context.Context, who profile.Identity, appID string, rating int, comment string) (review.Review, error) {
	if !who.Can(profile.CapSubmitReview) {
		return review.Review{}, apperrors.Unauthorized("sign in to review apps")
	}
	if rating < 1 || rating > 5 {
		return review.Review{}, apperrors.Validation("rating must be between 1 and 5")
	}
	if appID == "" {
		return review.Review{}, apperrors.Validation("app id is required")
	}

	rev, err := s.store.UpsertReview(ctx, review.Review{
		AppID:   appID,
		UserID:  who.ID,
		Rating:  rating,
		Comment: comment,
	})
	if err != nil {
		return review.Review{}, err
	}
	s.log.WithFields(map[string]any{"app_id": appID, "rating": rating}).Debug("review submitted")
	return rev, nil
}

// ListForApp returns an app's reviews, newest first. Reviews are public once
// the app is visible, so no role check applies here.
func (s *Service) ListForApp(ctx context.Context, appID string) ([]review.Review, error) {
	return s.store.ListReviewsForApp(ctx, appID)
}

// ListForUser returns the reviews a user wrote, each with a summary of the
// reviewed app. Only the user themselves or an admin may read the listing.
func (s *Service) ListForUser(ctx context.Context, who profile.Identity, userID string) ([]review.UserReview, error) {
	if who.IsVisitor() {
		return nil, apperrors.Unauthorized("sign in to view review history")
	}
	if who.ID != userID && !who.Can(profile.CapManageProfiles) {
		return nil, apperrors.Forbidden("cannot view another user's reviews")
	}
	return s.store.ListReviewsForUser(ctx, userID)
}
