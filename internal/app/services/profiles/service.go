// Package profiles implements account profile management: first-login
// bootstrap, username edits, role assignment and account deletion.
package profiles

import (
	"context"

	apperrors "github.com/appduka/catalog/internal/errors"

	"github.com/appduka/catalog/internal/app/domain/profile"
	"github.com/appduka/catalog/internal/app/storage"
	"github.com/appduka/catalog/internal/logging"
)

// Service exposes the profile operations.
type Service struct {
	store storage.ProfileStore
	log   *logging.Logger
}

// New creates the profile service.
func New(store storage.ProfileStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("profiles")
	}
	return &Service{store: store, log: log}
}

// Bootstrap ensures a profile row exists for an authenticated account.
// The first account ever bootstrapped becomes the admin; everyone after
// starts as a plain user. Called on signup and again on login, so it must be
// idempotent.
func (s *Service) Bootstrap(ctx context.Context, id, email string) (profile.Profile, error) {
	if existing, err := s.store.GetProfile(ctx, id); err == nil {
		return existing, nil
	} else if !apperrors.IsNotFound(err) {
		return profile.Profile{}, err
	}

	role := profile.RoleUser
	admins, err := s.store.CountAdmins(ctx)
	if err != nil {
		return profile.Profile{}, err
	}
	if admins == 0 {
		role = profile.RoleAdmin
	}

	created, err := s.store.CreateProfile(ctx, profile.Profile{ID: id, Email: email, Role: role})
	if err != nil {
		return profile.Profile{}, err
	}
	s.log.WithFields(map[string]any{"user_id": id, "role": string(role)}).Info("profile bootstrapped")
	return created, nil
}

// Get returns a profile. Anyone may read their own; admins may read any.
func (s *Service) Get(ctx context.Context, who profile.Identity, id string) (profile.Profile, error) {
	if who.IsVisitor() {
		return profile.Profile{}, apperrors.Unauthorized("sign in to view profiles")
	}
	if who.ID != id && !who.Can(profile.CapManageProfiles) {
		return profile.Profile{}, apperrors.Forbidden("cannot view another user's profile")
	}
	return s.store.GetProfile(ctx, id)
}

// List returns every profile, ordered by email. Admin only.
func (s *Service) List(ctx context.Context, who profile.Identity) ([]profile.Profile, error) {
	if !who.Can(profile.CapManageProfiles) {
		return nil, apperrors.Forbidden("only admins can list accounts")
	}
	return s.store.ListProfiles(ctx)
}

// UpdateUsername changes a profile's display name. Owner only; the role
// hierarchy gives no one else edit rights over a profile's identity fields.
func (s *Service) UpdateUsername(ctx context.Context, who profile.Identity, id, username string) (profile.Profile, error) {
	if who.IsVisitor() {
		return profile.Profile{}, apperrors.Unauthorized("sign in to edit your profile")
	}
	if who.ID != id {
		return profile.Profile{}, apperrors.Forbidden("cannot edit another user's profile")
	}
	if username == "" {
		return profile.Profile{}, apperrors.Validation("username is required")
	}
	return s.store.UpdateUsername(ctx, id, username)
}

// SetRole assigns a role to an account. Admin only.
func (s *Service) SetRole(ctx context.Context, who profile.Identity, id string, role profile.Role) (profile.Profile, error) {
	if !who.Can(profile.CapManageProfiles) {
		return profile.Profile{}, apperrors.Forbidden("only admins can assign roles")
	}
	if !role.Valid() {
		return profile.Profile{}, apperrors.Validation("role must be user, developer or admin")
	}
	updated, err := s.store.UpdateRole(ctx, id, role)
	if err != nil {
		return profile.Profile{}, err
	}
	s.log.WithFields(map[string]any{"user_id": id, "role": string(role)}).Info("role assigned")
	return updated, nil
}

// Delete removes an account and everything it owns. Admin only, and admins
// cannot delete themselves, which also keeps the last admin alive.
func (s *Service) Delete(ctx context.Context, who profile.Identity, id string) error {
	if !who.Can(profile.CapDeleteAccounts) {
		return apperrors.Forbidden("only admins can delete accounts")
	}
	if who.ID == id {
		return apperrors.Validation("admins cannot delete their own account")
	}
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.log.WithField("user_id", id).Info("account deleted")
	return nil
}
