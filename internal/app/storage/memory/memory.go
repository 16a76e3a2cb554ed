// Package memory is an in-memory implementation of the storage interfaces.
// It is safe for concurrent use and is primarily intended for tests and
// local development. Rating aggregates are computed on every read so they
// always match the current review set, and deleting an app cascades its
// reviews the way the relational backend's foreign keys do.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/appduka/catalog/internal/errors"

	"github.com/appduka/catalog/internal/app/domain/catalog"
	"github.com/appduka/catalog/internal/app/domain/profile"
	"github.com/appduka/catalog/internal/app/domain/review"
	"github.com/appduka/catalog/internal/app/storage"
)

// Store holds all records behind one mutex.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	seq      map[string]int64
	apps     map[string]catalog.App
	reviews  map[string]review.Review
	profiles map[string]profile.Profile
}

var _ storage.CatalogStore = (*Store)(nil)
var _ storage.ReviewStore = (*Store)(nil)
var _ storage.ProfileStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:   1,
		seq:      make(map[string]int64),
		apps:     make(map[string]catalog.App),
		reviews:  make(map[string]review.Review),
		profiles: make(map[string]profile.Profile),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// CatalogStore implementation -------------------------------------------------

func (s *Store) CreateApp(_ context.Context, app catalog.App) (catalog.App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if app.ID == "" {
		app.ID = s.nextIDLocked()
	} else if _, exists := s.apps[app.ID]; exists {
		return catalog.App{}, apperrors.Unavailable("create app", fmt.Errorf("app %s already exists", app.ID))
	}

	app.CreatedAt = time.Now().UTC()
	if app.Status == "" {
		app.Status = catalog.StatusPending
	}
	app.Screenshots = cloneStrings(app.Screenshots)
	app.AverageRating = 0
	app.ReviewCount = 0

	s.seq[app.ID] = s.nextID
	s.nextID++
	s.apps[app.ID] = app
	return app, nil
}

func (s *Store) UpdateApp(_ context.Context, id string, upd catalog.Update) (catalog.App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[id]
	if !ok {
		return catalog.App{}, apperrors.NotFound("app")
	}
	upd.Apply(&app)
	s.apps[id] = app
	return s.annotateLocked(app), nil
}

func (s *Store) SetAppStatus(_ context.Context, id string, status catalog.Status) (catalog.App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[id]
	if !ok {
		return catalog.App{}, apperrors.NotFound("app")
	}
	app.Status = status
	s.apps[id] = app
	return s.annotateLocked(app), nil
}

func (s *Store) GetApp(_ context.Context, id string) (catalog.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.apps[id]
	if !ok {
		return catalog.App{}, apperrors.NotFound("app")
	}
	return s.annotateLocked(app), nil
}

func (s *Store) ListApps(_ context.Context) ([]catalog.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.App, 0, len(s.apps))
	for _, app := range s.apps {
		out = append(out, s.annotateLocked(app))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.seq[out[i].ID] > s.seq[out[j].ID]
	})
	return out, nil
}

func (s *Store) DeleteApp(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apps[id]; !ok {
		return apperrors.NotFound("app")
	}
	delete(s.apps, id)
	delete(s.seq, id)
	for rid, rev := range s.reviews {
		if rev.AppID == id {
			delete(s.reviews, rid)
		}
	}
	return nil
}

// annotateLocked attaches the live rating aggregate. Zero reviews yields an
// exact 0, never NaN.
func (s *Store) annotateLocked(app catalog.App) catalog.App {
	var sum, count int64
	for _, rev := range s.reviews {
		if rev.AppID == app.ID {
			sum += int64(rev.Rating)
			count++
		}
	}
	app.ReviewCount = count
	if count > 0 {
		app.AverageRating = float64(sum) / float64(count)
	} else {
		app.AverageRating = 0
	}
	app.Screenshots = cloneStrings(app.Screenshots)
	return app
}

// ReviewStore implementation --------------------------------------------------

func (s *Store) UpsertReview(_ context.Context, rev review.Review) (review.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apps[rev.AppID]; !ok {
		return review.Review{}, apperrors.NotFound("app")
	}

	for id, existing := range s.reviews {
		if existing.AppID == rev.AppID && existing.UserID == rev.UserID {
			existing.Rating = rev.Rating
			existing.Comment = rev.Comment
			s.reviews[id] = existing
			return s.joinEmailLocked(existing), nil
		}
	}

	rev.ID = s.nextIDLocked()
	rev.CreatedAt = time.Now().UTC()
	s.seq[rev.ID] = s.nextID
	s.nextID++
	s.reviews[rev.ID] = rev
	return s.joinEmailLocked(rev), nil
}

func (s *Store) ListReviewsForApp(_ context.Context, appID string) ([]review.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]review.Review, 0)
	for _, rev := range s.reviews {
		if rev.AppID == appID {
			out = append(out, s.joinEmailLocked(rev))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.seq[out[i].ID] > s.seq[out[j].ID]
	})
	return out, nil
}

func (s *Store) ListReviewsForUser(_ context.Context, userID string) ([]review.UserReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]review.UserReview, 0)
	for _, rev := range s.reviews {
		if rev.UserID != userID {
			continue
		}
		app, ok := s.apps[rev.AppID]
		if !ok {
			// Reviews of deleted apps are filtered, not errors.
			continue
		}
		out = append(out, review.UserReview{
			Review: rev,
			App:    review.AppSummary{ID: app.ID, Name: app.Name, IconURL: app.IconURL},
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.seq[out[i].ID] > s.seq[out[j].ID]
	})
	return out, nil
}

func (s *Store) joinEmailLocked(rev review.Review) review.Review {
	if p, ok := s.profiles[rev.UserID]; ok && p.Email != "" {
		rev.UserEmail = p.Email
	} else {
		rev.UserEmail = review.UnknownReviewer
	}
	return rev
}

// ProfileStore implementation -------------------------------------------------

func (s *Store) CreateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.nextIDLocked()
	} else if _, exists := s.profiles[p.ID]; exists {
		return profile.Profile{}, apperrors.Unavailable("create profile", fmt.Errorf("profile %s already exists", p.ID))
	}
	if p.Role == "" {
		p.Role = profile.RoleUser
	}
	s.profiles[p.ID] = p
	return p, nil
}

func (s *Store) GetProfile(_ context.Context, id string) (profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return profile.Profile{}, apperrors.NotFound("profile")
	}
	return p, nil
}

func (s *Store) ListProfiles(_ context.Context) ([]profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]profile.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Email) < strings.ToLower(out[j].Email)
	})
	return out, nil
}

func (s *Store) UpdateUsername(_ context.Context, id, username string) (profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return profile.Profile{}, apperrors.NotFound("profile")
	}
	p.Username = username
	s.profiles[id] = p
	return p, nil
}

func (s *Store) UpdateRole(_ context.Context, id string, role profile.Role) (profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return profile.Profile{}, apperrors.NotFound("profile")
	}
	p.Role = role
	s.profiles[id] = p
	return p, nil
}

func (s *Store) CountAdmins(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, p := range s.profiles {
		if p.Role == profile.RoleAdmin {
			count++
		}
	}
	return count, nil
}

func (s *Store) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[id]; !ok {
		return apperrors.NotFound("profile")
	}
	delete(s.profiles, id)
	for rid, rev := range s.reviews {
		if rev.UserID == id {
			delete(s.reviews, rid)
		}
	}
	return nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
