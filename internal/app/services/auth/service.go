// Package auth fronts the external identity provider. Accounts, sessions and
// password recovery live with the provider; this service validates input,
// maps provider failures into the service taxonomy and keeps the profile
// table in step with the account set.
package auth

import (
	"context"
	"strings"

	apperrors "github.com/appduka/catalog/internal/errors"

	"github.com/appduka/catalog/internal/app/domain/profile"
	"github.com/appduka/catalog/internal/app/services/profiles"
	"github.com/appduka/catalog/internal/logging"
)

// Session is an authenticated session issued by the identity provider.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
}

// Provider is the identity backend. Implementations wrap a hosted provider
// or an in-memory account set for tests.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, accessToken string) error
	SendRecovery(ctx context.Context, email string) error
}

// Service implements the account operations.
type Service struct {
	provider Provider
	profiles *profiles.Service
	log      *logging.Logger
}

// New creates the auth service.
func New(provider Provider, profileSvc *profiles.Service, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("auth")
	}
	return &Service{provider: provider, profiles: profileSvc, log: log}
}

// SignUp registers an account and bootstraps its profile.
func (s *Service) SignUp(ctx context.Context, email, password string) (Session, profile.Profile, error) {
	if err := validateCredentials(email, password); err != nil {
		return Session{}, profile.Profile{}, err
	}

	sess, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return Session{}, profile.Profile{}, err
	}

	p, err := s.profiles.Bootstrap(ctx, sess.UserID, sess.Email)
	if err != nil {
		return Session{}, profile.Profile{}, err
	}
	s.log.WithField("user_id", sess.UserID).Info("account registered")
	return sess, p, nil
}

// SignIn exchanges credentials for a session. The profile is bootstrapped
// here too so accounts created before the profile table existed still get a
// row on their next login.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, profile.Profile, error) {
	if err := validateCredentials(email, password); err != nil {
		return Session{}, profile.Profile{}, err
	}

	sess, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, profile.Profile{}, err
	}

	p, err := s.profiles.Bootstrap(ctx, sess.UserID, sess.Email)
	if err != nil {
		return Session{}, profile.Profile{}, err
	}
	return sess, p, nil
}

// SignOut revokes a session. A failure here only means the token outlives
// the logout, so it is logged and reported but carries no state to undo.
func (s *Service) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return apperrors.Unauthorized("no session to sign out")
	}
	return s.provider.SignOut(ctx, accessToken)
}

// SendRecovery asks the provider to email a password-reset link. The reply
// is identical whether or not the address has an account.
func (s *Service) SendRecovery(ctx context.Context, email string) error {
	if !looksLikeEmail(email) {
		return apperrors.Validation("a valid email address is required")
	}
	return s.provider.SendRecovery(ctx, email)
}

func validateCredentials(email, password string) error {
	if !looksLikeEmail(email) {
		return apperrors.Validation("a valid email address is required")
	}
	if len(password) < 6 {
		return apperrors.Validation("password must be at least 6 characters")
	}
	return nil
}

// looksLikeEmail is a plausibility check, not an RFC parser; the identity
// provider does its own validation.
func looksLikeEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
