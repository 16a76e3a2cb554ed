// Package postgres implements the storage interfaces against a directly
// managed PostgreSQL database. It is the self-hosted alternative to the
// Supabase-backed store; both expose the same schema and semantics.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	apperrors "github.com/appduka/catalog/internal/errors"

	"github.com/appduka/catalog/internal/app/domain/catalog"
	"github.com/appduka/catalog/internal/app/domain/profile"
	"github.com/appduka/catalog/internal/app/domain/review"
	"github.com/appduka/catalog/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.CatalogStore = (*Store)(nil)
var _ storage.ReviewStore = (*Store)(nil)
var _ storage.ProfileStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// classify translates driver errors into the service taxonomy. Undefined
// tables or functions mean the migrations never ran.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(op)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "42P01", "42883":
			return apperrors.SetupIncomplete(err)
		}
	}
	return apperrors.Unavailable(op, err)
}

const appWithRatings = `
	SELECT a.id, a.created_at, a.name, a.version, a.category, a.size,
	       a.icon_url, a.apk_url, a.short_description, a.full_description,
	       a.screenshots, a.status,
	       COALESCE(AVG(r.rating), 0) AS average_rating,
	       COUNT(r.id) AS review_count
	FROM apps a
	LEFT JOIN reviews r ON r.app_id = a.id
`

func scanApp(row interface{ Scan(...any) error }) (catalog.App, error) {
	var app catalog.App
	var screenshots pq.StringArray
	err := row.Scan(
		&app.ID, &app.CreatedAt, &app.Name, &app.Version, &app.Category,
		&app.Size, &app.IconURL, &app.APKURL, &app.ShortDescription,
		&app.FullDescription, &screenshots, &app.Status,
		&app.AverageRating, &app.ReviewCount,
	)
	if err != nil {
		return catalog.App{}, err
	}
	app.Screenshots = []string(screenshots)
	return app, nil
}

// --- CatalogStore -----------------------------------------------------------

func (s *Store) CreateApp(ctx context.Context, app catalog.App) (catalog.App, error) {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	app.CreatedAt = time.Now().UTC()
	if app.Status == "" {
		app.Status = catalog.StatusPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO apps (id, created_at, name, version, category, size,
		                  icon_url, apk_url, short_description, full_description,
		                  screenshots, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, app.ID, app.CreatedAt, app.Name, app.Version, app.Category, app.Size,
		app.IconURL, app.APKURL, app.ShortDescription, app.FullDescription,
		pq.Array(app.Screenshots), app.Status)
	if err != nil {
		return catalog.App{}, classify("create app", err)
	}
	app.AverageRating = 0
	app.ReviewCount = 0
	return app, nil
}

func (s *Store) UpdateApp(ctx context.Context, id string, upd catalog.Update) (catalog.App, error) {
	existing, err := s.GetApp(ctx, id)
	if err != nil {
		return catalog.App{}, err
	}
	upd.Apply(&existing)

	result, err := s.db.ExecContext(ctx, `
		UPDATE apps
		SET name = $2, version = $3, category = $4, size = $5,
		    icon_url = $6, apk_url = $7, short_description = $8,
		    full_description = $9, screenshots = $10
		WHERE id = $1
	`, id, existing.Name, existing.Version, existing.Category, existing.Size,
		existing.IconURL, existing.APKURL, existing.ShortDescription,
		existing.FullDescription, pq.Array(existing.Screenshots))
	if err != nil {
		return catalog.App{}, classify("update app", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return catalog.App{}, apperrors.NotFound("app")
	}
	return existing, nil
}

func (s *Store) SetAppStatus(ctx context.Context, id string, status catalog.Status) (catalog.App, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE apps SET status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return catalog.App{}, classify("set app status", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return catalog.App{}, apperrors.NotFound("app")
	}
	return s.GetApp(ctx, id)
}

func (s *Store) GetApp(ctx context.Context, id string) (catalog.App, error) {
	row := s.db.QueryRowContext(ctx, appWithRatings+`
		WHERE a.id = $1
		GROUP BY a.id
	`, id)

	app, err := scanApp(row)
	if err != nil {
		return catalog.App{}, classify("app", err)
	}
	return app, nil
}

func (s *Store) ListApps(ctx context.Context) ([]catalog.App, error) {
	rows, err := s.db.QueryContext(ctx, appWithRatings+`
		GROUP BY a.id
		ORDER BY a.created_at DESC
	`)
	if err != nil {
		return nil, classify("list apps", err)
	}
	defer rows.Close()

	apps := make([]catalog.App, 0)
	for rows.Next() {
		app, err := scanApp(rows)
		if err != nil {
			return nil, classify("list apps", err)
		}
		apps = append(apps, app)
	}
	return apps, classify("list apps", rows.Err())
}

func (s *Store) DeleteApp(ctx context.Context, id string) error {
	// Reviews cascade through the foreign key; only the entry row is
	// deleted here.
	result, err := s.db.ExecContext(ctx, `DELETE FROM apps WHERE id = $1`, id)
	if err != nil {
		return classify("delete app", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperrors.NotFound("app")
	}
	return nil
}

// --- ReviewStore ------------------------------------------------------------

func (s *Store) UpsertReview(ctx context.Context, rev review.Review) (review.Review, error) {
	if rev.ID == "" {
		rev.ID = uuid.NewString()
	}
	rev.CreatedAt = time.Now().UTC()

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO reviews (id, created_at, app_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (app_id, user_id)
		DO UPDATE SET rating = EXCLUDED.rating,
		              comment = EXCLUDED.comment,
		              created_at = EXCLUDED.created_at
		RETURNING id, created_at
	`, rev.ID, rev.CreatedAt, rev.AppID, rev.UserID, rev.Rating, rev.Comment)
	if err := row.Scan(&rev.ID, &rev.CreatedAt); err != nil {
		return review.Review{}, classify("submit review", err)
	}

	rev.UserEmail = review.UnknownReviewer
	var email sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT email FROM profiles WHERE id = $1`, rev.UserID).Scan(&email)
	if err == nil && email.Valid && email.String != "" {
		rev.UserEmail = email.String
	}
	return rev, nil
}

func (s *Store) ListReviewsForApp(ctx context.Context, appID string) ([]review.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.created_at, r.app_id, r.user_id, r.rating, r.comment, p.email
		FROM reviews r
		LEFT JOIN profiles p ON p.id = r.user_id
		WHERE r.app_id = $1
		ORDER BY r.created_at DESC
	`, appID)
	if err != nil {
		return nil, classify("list reviews", err)
	}
	defer rows.Close()

	reviews := make([]review.Review, 0)
	for rows.Next() {
		var rev review.Review
		var email sql.NullString
		if err := rows.Scan(&rev.ID, &rev.CreatedAt, &rev.AppID, &rev.UserID, &rev.Rating, &rev.Comment, &email); err != nil {
			return nil, classify("list reviews", err)
		}
		rev.UserEmail = review.UnknownReviewer
		if email.Valid && email.String != "" {
			rev.UserEmail = email.String
		}
		reviews = append(reviews, rev)
	}
	return reviews, classify("list reviews", rows.Err())
}

func (s *Store) ListReviewsForUser(ctx context.Context, userID string) ([]review.UserReview, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.created_at, r.app_id, r.user_id, r.rating, r.comment,
		       a.id, a.name, a.icon_url
		FROM reviews r
		JOIN apps a ON a.id = r.app_id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC
	`, userID)
	if err != nil {
		return nil, classify("list user reviews", err)
	}
	defer rows.Close()

	reviews := make([]review.UserReview, 0)
	for rows.Next() {
		var ur review.UserReview
		if err := rows.Scan(&ur.ID, &ur.CreatedAt, &ur.AppID, &ur.UserID, &ur.Rating, &ur.Comment,
			&ur.App.ID, &ur.App.Name, &ur.App.IconURL); err != nil {
			return nil, classify("list user reviews", err)
		}
		reviews = append(reviews, ur)
	}
	return reviews, classify("list user reviews", rows.Err())
}

// --- ProfileStore -----------------------------------------------------------

func (s *Store) CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, username, role)
		VALUES ($1, $2, $3, $4)
	`, p.ID, p.Email, p.Username, p.Role)
	if err != nil {
		return profile.Profile{}, classify("create profile", err)
	}
	return p, nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (profile.Profile, error) {
	var p profile.Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, username, role FROM profiles WHERE id = $1
	`, id).Scan(&p.ID, &p.Email, &p.Username, &p.Role)
	if err != nil {
		return profile.Profile{}, classify("profile", err)
	}
	return p, nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]profile.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, username, role FROM profiles ORDER BY lower(email)
	`)
	if err != nil {
		return nil, classify("list profiles", err)
	}
	defer rows.Close()

	profiles := make([]profile.Profile, 0)
	for rows.Next() {
		var p profile.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.Username, &p.Role); err != nil {
			return nil, classify("list profiles", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, classify("list profiles", rows.Err())
}

func (s *Store) UpdateUsername(ctx context.Context, id, username string) (profile.Profile, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET username = $2 WHERE id = $1
	`, id, username)
	if err != nil {
		return profile.Profile{}, classify("update username", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return profile.Profile{}, apperrors.NotFound("profile")
	}
	return s.GetProfile(ctx, id)
}

func (s *Store) UpdateRole(ctx context.Context, id string, role profile.Role) (profile.Profile, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET role = $2 WHERE id = $1
	`, id, role)
	if err != nil {
		return profile.Profile{}, classify("update role", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return profile.Profile{}, apperrors.NotFound("profile")
	}
	return s.GetProfile(ctx, id)
}

func (s *Store) CountAdmins(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM profiles WHERE role = $1
	`, profile.RoleAdmin).Scan(&n)
	if err != nil {
		return 0, classify("count admins", err)
	}
	return n, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	// The user's reviews cascade through the foreign key.
	result, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return classify("delete account", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperrors.NotFound("profile")
	}
	return nil
}
