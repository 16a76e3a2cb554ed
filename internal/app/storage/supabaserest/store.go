// Package supabaserest implements the storage interfaces against a hosted
// Supabase project: PostgREST for tables, the rating stored procedures for
// aggregates, and the privileged account-deletion procedure. Row-level
// security on the backend remains the authoritative enforcement; this
// process authenticates with the service-role key and applies the capability
// table itself.
package supabaserest

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/appduka/catalog/internal/errors"

	"github.com/appduka/catalog/internal/app/domain/catalog"
	"github.com/appduka/catalog/internal/app/domain/profile"
	"github.com/appduka/catalog/internal/app/domain/review"
	"github.com/appduka/catalog/internal/app/storage"
	"github.com/appduka/catalog/supabase/client"
)

// Store talks to one Supabase project.
type Store struct {
	db *client.Client
}

var _ storage.CatalogStore = (*Store)(nil)
var _ storage.ReviewStore = (*Store)(nil)
var _ storage.ProfileStore = (*Store)(nil)

// New creates a store over an authenticated Supabase client.
func New(db *client.Client) *Store {
	return &Store{db: db}
}

// =============================================================================
// Error mapping
// =============================================================================

// mapError classifies a backend failure. PGRST116 is the "no rows for a
// single-object request" signal; 42P01/42883/PGRST202 mean the schema or its
// procedures were never created, which is an operator problem, not a
// transient one.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if apiErr, ok := err.(*client.APIError); ok {
		if apiErr.Code == "PGRST116" {
			return apperrors.NotFound(op)
		}
		if isSetupSignal(apiErr.Code, apiErr.Message) {
			return apperrors.SetupIncomplete(apiErr)
		}
	}
	return apperrors.Unavailable(op, err)
}

func isSetupSignal(code, message string) bool {
	switch code {
	case "42P01", "42883", "PGRST202", "PGRST205":
		return true
	}
	msg := strings.ToLower(message)
	return strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "could not find the table") ||
		strings.Contains(msg, "relation")
}

// =============================================================================
// Row types
// =============================================================================

type appRow struct {
	ID               string    `json:"id,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
	Name             string    `json:"name"`
	Version          string    `json:"version"`
	Category         string    `json:"category"`
	Size             string    `json:"size"`
	IconURL          string    `json:"icon_url"`
	APKURL           string    `json:"apk_url"`
	ShortDescription string    `json:"short_description"`
	FullDescription  string    `json:"full_description"`
	Screenshots      []string  `json:"screenshots"`
	Status           string    `json:"status,omitempty"`
	AverageRating    float64   `json:"average_rating,omitempty"`
	ReviewCount      int64     `json:"review_count,omitempty"`
}

func (r appRow) toDomain() catalog.App {
	return catalog.App{
		ID:               r.ID,
		CreatedAt:        r.CreatedAt,
		Name:             r.Name,
		Version:          r.Version,
		Category:         r.Category,
		Size:             r.Size,
		IconURL:          r.IconURL,
		APKURL:           r.APKURL,
		ShortDescription: r.ShortDescription,
		FullDescription:  r.FullDescription,
		Screenshots:      r.Screenshots,
		Status:           catalog.Status(r.Status),
		AverageRating:    r.AverageRating,
		ReviewCount:      r.ReviewCount,
	}
}

type reviewRow struct {
	ID        string    `json:"id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	AppID     string    `json:"app_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Profile   *struct {
		Email string `json:"email"`
	} `json:"profile,omitempty"`
	App *struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		IconURL string `json:"icon_url"`
	} `json:"app,omitempty"`
}

func (r reviewRow) toDomain() review.Review {
	rev := review.Review{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		AppID:     r.AppID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		UserEmail: review.UnknownReviewer,
	}
	if r.Profile != nil && r.Profile.Email != "" {
		rev.UserEmail = r.Profile.Email
	}
	return rev
}

type profileRow struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

func (r profileRow) toDomain() profile.Profile {
	return profile.Profile{ID: r.ID, Email: r.Email, Username: r.Username, Role: profile.Role(r.Role)}
}

// =============================================================================
// CatalogStore
// =============================================================================

func (s *Store) ListApps(ctx context.Context) ([]catalog.App, error) {
	resp, err := s.db.RPC(ctx, "get_apps_with_ratings", nil)
	if err != nil {
		return nil, apperrors.Unavailable("list apps", err)
	}
	if err := resp.Error(); err != nil {
		return nil, mapError("list apps", err)
	}

	var rows []appRow
	if err := resp.JSON(&rows); err != nil {
		return nil, apperrors.Unavailable("decode apps", err)
	}
	apps := make([]catalog.App, 0, len(rows))
	for _, row := range rows {
		apps = append(apps, row.toDomain())
	}
	return apps, nil
}

func (s *Store) GetApp(ctx context.Context, id string) (catalog.App, error) {
	resp, err := s.db.RPCSingle(ctx, "get_app_by_id_with_ratings", map[string]string{"p_app_id": id})
	if err != nil {
		return catalog.App{}, apperrors.Unavailable("get app", err)
	}
	if err := resp.Error(); err != nil {
		return catalog.App{}, mapError("app", err)
	}

	var row appRow
	if err := resp.JSON(&row); err != nil {
		return catalog.App{}, apperrors.Unavailable("decode app", err)
	}
	return row.toDomain(), nil
}

func (s *Store) CreateApp(ctx context.Context, app catalog.App) (catalog.App, error) {
	row := appRow{
		Name:             app.Name,
		Version:          app.Version,
		Category:         app.Category,
		Size:             app.Size,
		IconURL:          app.IconURL,
		APKURL:           app.APKURL,
		ShortDescription: app.ShortDescription,
		FullDescription:  app.FullDescription,
		Screenshots:      app.Screenshots,
	}
	if app.Status != "" {
		row.Status = string(app.Status)
	}

	resp, err := s.db.From("apps").Single().ExecuteInsert(ctx, row)
	if err != nil {
		return catalog.App{}, apperrors.Unavailable("create app", err)
	}
	if err := resp.Error(); err != nil {
		return catalog.App{}, mapError("create app", err)
	}

	var created appRow
	if err := resp.JSON(&created); err != nil {
		return catalog.App{}, apperrors.Unavailable("decode app", err)
	}
	out := created.toDomain()
	out.AverageRating = 0
	out.ReviewCount = 0
	return out, nil
}

func (s *Store) UpdateApp(ctx context.Context, id string, upd catalog.Update) (catalog.App, error) {
	resp, err := s.db.From("apps").Eq("id", id).Single().ExecuteUpdate(ctx, upd)
	if err != nil {
		return catalog.App{}, apperrors.Unavailable("update app", err)
	}
	if err := resp.Error(); err != nil {
		return catalog.App{}, mapError("app", err)
	}
	// Re-read through the rating procedure so the returned entry carries
	// the live aggregate.
	return s.GetApp(ctx, id)
}

func (s *Store) SetAppStatus(ctx context.Context, id string, status catalog.Status) (catalog.App, error) {
	resp, err := s.db.From("apps").Eq("id", id).Single().ExecuteUpdate(ctx, map[string]string{"status": string(status)})
	if err != nil {
		return catalog.App{}, apperrors.Unavailable("set app status", err)
	}
	if err := resp.Error(); err != nil {
		return catalog.App{}, mapError("app", err)
	}
	return s.GetApp(ctx, id)
}

func (s *Store) DeleteApp(ctx context.Context, id string) error {
	resp, err := s.db.From("apps").Eq("id", id).ExecuteDelete(ctx)
	if err != nil {
		return apperrors.Unavailable("delete app", err)
	}
	if err := resp.Error(); err != nil {
		return mapError("delete app", err)
	}

	var deleted []appRow
	if err := resp.JSON(&deleted); err == nil && len(deleted) == 0 {
		return apperrors.NotFound("app")
	}
	return nil
}

// =============================================================================
// ReviewStore
// =============================================================================

func (s *Store) UpsertReview(ctx context.Context, rev review.Review) (review.Review, error) {
	row := reviewRow{
		AppID:   rev.AppID,
		UserID:  rev.UserID,
		Rating:  rev.Rating,
		Comment: rev.Comment,
	}

	resp, err := s.db.From("reviews").OnConflict("app_id,user_id").Single().ExecuteInsert(ctx, row)
	if err != nil {
		return review.Review{}, apperrors.Unavailable("submit review", err)
	}
	if err := resp.Error(); err != nil {
		return review.Review{}, mapError("submit review", err)
	}

	var created reviewRow
	if err := resp.JSON(&created); err != nil {
		return review.Review{}, apperrors.Unavailable("decode review", err)
	}
	out := created.toDomain()

	if p, err := s.GetProfile(ctx, rev.UserID); err == nil && p.Email != "" {
		out.UserEmail = p.Email
	}
	return out, nil
}

func (s *Store) ListReviewsForApp(ctx context.Context, appID string) ([]review.Review, error) {
	resp, err := s.db.From("reviews").
		Select("*, profile:profiles (email)").
		Eq("app_id", appID).
		Order("created_at", false).
		Execute(ctx)
	if err != nil {
		return nil, apperrors.Unavailable("list reviews", err)
	}
	if err := resp.Error(); err != nil {
		return nil, mapError("list reviews", err)
	}

	var rows []reviewRow
	if err := resp.JSON(&rows); err != nil {
		return nil, apperrors.Unavailable("decode reviews", err)
	}
	out := make([]review.Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *Store) ListReviewsForUser(ctx context.Context, userID string) ([]review.UserReview, error) {
	resp, err := s.db.From("reviews").
		Select("*, app:apps (id, name, icon_url)").
		Eq("user_id", userID).
		Order("created_at", false).
		Execute(ctx)
	if err != nil {
		return nil, apperrors.Unavailable("list user reviews", err)
	}
	if err := resp.Error(); err != nil {
		return nil, mapError("list user reviews", err)
	}

	var rows []reviewRow
	if err := resp.JSON(&rows); err != nil {
		return nil, apperrors.Unavailable("decode reviews", err)
	}
	out := make([]review.UserReview, 0, len(rows))
	for _, row := range rows {
		if row.App == nil {
			// The reviewed app is gone; skip rather than error.
			continue
		}
		out = append(out, review.UserReview{
			Review: row.toDomain(),
			App:    review.AppSummary{ID: row.App.ID, Name: row.App.Name, IconURL: row.App.IconURL},
		})
	}
	return out, nil
}

// =============================================================================
// ProfileStore
// =============================================================================

func (s *Store) CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	row := profileRow{ID: p.ID, Email: p.Email, Username: p.Username, Role: string(p.Role)}

	resp, err := s.db.From("profiles").Single().ExecuteInsert(ctx, row)
	if err != nil {
		return profile.Profile{}, apperrors.Unavailable("create profile", err)
	}
	if err := resp.Error(); err != nil {
		return profile.Profile{}, mapError("create profile", err)
	}

	var created profileRow
	if err := resp.JSON(&created); err != nil {
		return profile.Profile{}, apperrors.Unavailable("decode profile", err)
	}
	return created.toDomain(), nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (profile.Profile, error) {
	resp, err := s.db.From("profiles").Select("*").Eq("id", id).Single().Execute(ctx)
	if err != nil {
		return profile.Profile{}, apperrors.Unavailable("get profile", err)
	}
	if err := resp.Error(); err != nil {
		return profile.Profile{}, mapError("profile", err)
	}

	var row profileRow
	if err := resp.JSON(&row); err != nil {
		return profile.Profile{}, apperrors.Unavailable("decode profile", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]profile.Profile, error) {
	resp, err := s.db.From("profiles").Select("*").Order("email", true).Execute(ctx)
	if err != nil {
		return nil, apperrors.Unavailable("list profiles", err)
	}
	if err := resp.Error(); err != nil {
		return nil, mapError("list profiles", err)
	}

	var rows []profileRow
	if err := resp.JSON(&rows); err != nil {
		return nil, apperrors.Unavailable("decode profiles", err)
	}
	out := make([]profile.Profile, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *Store) UpdateUsername(ctx context.Context, id, username string) (profile.Profile, error) {
	resp, err := s.db.From("profiles").Eq("id", id).Single().ExecuteUpdate(ctx, map[string]string{"username": username})
	if err != nil {
		return profile.Profile{}, apperrors.Unavailable("update username", err)
	}
	if err := resp.Error(); err != nil {
		return profile.Profile{}, mapError("profile", err)
	}

	var row profileRow
	if err := resp.JSON(&row); err != nil {
		return profile.Profile{}, apperrors.Unavailable("decode profile", err)
	}
	return row.toDomain(), nil
}

func (s *Store) UpdateRole(ctx context.Context, id string, role profile.Role) (profile.Profile, error) {
	resp, err := s.db.From("profiles").Eq("id", id).Single().ExecuteUpdate(ctx, map[string]string{"role": string(role)})
	if err != nil {
		return profile.Profile{}, apperrors.Unavailable("update role", err)
	}
	if err := resp.Error(); err != nil {
		return profile.Profile{}, mapError("profile", err)
	}

	var row profileRow
	if err := resp.JSON(&row); err != nil {
		return profile.Profile{}, apperrors.Unavailable("decode profile", err)
	}
	return row.toDomain(), nil
}

func (s *Store) CountAdmins(ctx context.Context) (int, error) {
	resp, err := s.db.From("profiles").Select("id").Eq("role", string(profile.RoleAdmin)).Execute(ctx)
	if err != nil {
		return 0, apperrors.Unavailable("count admins", err)
	}
	if err := resp.Error(); err != nil {
		return 0, mapError("count admins", err)
	}

	var rows []profileRow
	if err := resp.JSON(&rows); err != nil {
		return 0, apperrors.Unavailable("decode profiles", err)
	}
	return len(rows), nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	resp, err := s.db.RPC(ctx, "delete_user_by_id", map[string]string{"user_id_to_delete": id})
	if err != nil {
		return apperrors.Unavailable("delete account", err)
	}
	if err := resp.Error(); err != nil {
		return mapError("delete account", err)
	}
	return nil
}

// =============================================================================
// ObjectStore
// =============================================================================

// Bucket adapts one storage bucket to the ObjectStore interface.
type Bucket struct {
	bucket *client.BucketClient
}

var _ storage.ObjectStore = (*Bucket)(nil)

// NewBucket wraps a bucket of the given Supabase client.
func NewBucket(db *client.Client, name string) *Bucket {
	return &Bucket{bucket: db.Storage().From(name)}
}

func (b *Bucket) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	if err := b.bucket.Upload(ctx, path, data, contentType); err != nil {
		return apperrors.Unavailable("upload file", err)
	}
	return nil
}

func (b *Bucket) PublicURL(path string) string {
	return b.bucket.GetPublicURL(path)
}

func (b *Bucket) Remove(ctx context.Context, path string) error {
	err := b.bucket.Remove(ctx, path)
	if err == nil {
		return nil
	}
	if apiErr, ok := err.(*client.APIError); ok && apiErr.StatusCode == 404 {
		return storage.ErrObjectNotFound
	}
	return err
}
