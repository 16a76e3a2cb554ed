package auth

import (
	"context"
	"net/http"

	apperrors "github.com/appduka/catalog/internal/errors"

	"github.com/appduka/catalog/supabase/client"
)

// SupabaseProvider adapts the hosted identity provider to the Provider
// interface.
type SupabaseProvider struct {
	auth *client.AuthClient
}

var _ Provider = (*SupabaseProvider)(nil)

// NewSupabaseProvider wraps the auth surface of a Supabase client.
func NewSupabaseProvider(c *client.Client) *SupabaseProvider {
	return &SupabaseProvider{auth: c.Auth()}
}

func (p *SupabaseProvider) SignUp(ctx context.Context, email, password string) (Session, error) {
	resp, err := p.auth.SignUp(ctx, email, password)
	if err != nil {
		return Session{}, mapAuthError("sign up", err)
	}
	return sessionFrom(resp), nil
}

func (p *SupabaseProvider) SignIn(ctx context.Context, email, password string) (Session, error) {
	resp, err := p.auth.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, mapAuthError("sign in", err)
	}
	return sessionFrom(resp), nil
}

func (p *SupabaseProvider) SignOut(ctx context.Context, accessToken string) error {
	if err := p.auth.SignOut(ctx, accessToken); err != nil {
		return mapAuthError("sign out", err)
	}
	return nil
}

func (p *SupabaseProvider) SendRecovery(ctx context.Context, email string) error {
	if err := p.auth.ResetPasswordForEmail(ctx, email, ""); err != nil {
		return mapAuthError("password recovery", err)
	}
	return nil
}

func sessionFrom(resp *client.AuthResponse) Session {
	sess := Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
	}
	if resp.User != nil {
		sess.UserID = resp.User.ID
		sess.Email = resp.User.Email
	}
	return sess
}

// mapAuthError turns provider rejections into credential errors and leaves
// everything else as a backend failure.
func mapAuthError(op string, err error) error {
	if apiErr, ok := err.(*client.APIError); ok {
		switch apiErr.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return apperrors.Unauthorized(apiErr.Message)
		case http.StatusUnprocessableEntity:
			return apperrors.Validation(apiErr.Message)
		}
	}
	return apperrors.Unavailable(op, err)
}
