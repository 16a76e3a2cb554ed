// Package middleware provides the HTTP middleware for the catalog gateway.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/appduka/catalog/internal/errors"

	"github.com/appduka/catalog/internal/app/domain/profile"
	"github.com/appduka/catalog/internal/app/storage"
	"github.com/appduka/catalog/internal/logging"
)

type identityKey struct{}

// Claims are the session token claims issued by the identity provider.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// IdentityResolver turns a bearer token into an identity subject.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (id, email string, err error)
}

// ResolverFunc adapts a function to IdentityResolver.
type ResolverFunc func(ctx context.Context, token string) (string, string, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, token string) (string, string, error) {
	return f(ctx, token)
}

// AuthMiddleware resolves the caller's identity when a bearer token is
// present. Requests without a token pass through as visitors; only a token
// that fails verification is rejected. Per-operation authorization happens in
// the services.
type AuthMiddleware struct {
	resolver IdentityResolver
	profiles storage.ProfileStore
	logger   *logging.Logger
}

// NewAuthMiddleware creates the identity middleware. The profile store
// supplies the caller's role; accounts without a profile row act as plain
// users until one exists.
func NewAuthMiddleware(resolver IdentityResolver, profiles storage.ProfileStore, logger *logging.Logger) *AuthMiddleware {
	if logger == nil {
		logger = logging.NewDefault("auth")
	}
	return &AuthMiddleware{resolver: resolver, profiles: profiles, logger: logger}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		id, email, err := m.resolver.Resolve(r.Context(), token)
		if err != nil {
			m.logger.WithContext(r.Context()).WithError(err).Warn("token verification failed")
			respondAuthError(w, err)
			return
		}

		who := profile.Identity{ID: id, Email: email, Role: profile.RoleUser}
		if p, err := m.profiles.GetProfile(r.Context(), id); err == nil {
			who.Role = p.Role
			if p.Email != "" {
				who.Email = p.Email
			}
		} else if !apperrors.IsNotFound(err) {
			m.logger.WithContext(r.Context()).WithError(err).Warn("role lookup failed")
			respondAuthError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, who)
		ctx = context.WithValue(ctx, logging.UserIDKey, who.ID)
		ctx = context.WithValue(ctx, logging.RoleKey, string(who.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityFrom returns the caller's identity, or the zero visitor identity.
func IdentityFrom(ctx context.Context) profile.Identity {
	if who, ok := ctx.Value(identityKey{}).(profile.Identity); ok {
		return who
	}
	return profile.Identity{}
}

// BearerToken returns the raw bearer token of a request, if any.
func BearerToken(r *http.Request) string {
	token, _ := bearerToken(r)
	return token
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func respondAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperrors.HTTPStatus(err))
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": apperrors.Message(err)},
	})
}

// JWTResolver verifies provider-issued HS256 session tokens locally.
type JWTResolver struct {
	secret []byte
}

var _ IdentityResolver = (*JWTResolver)(nil)

// NewJWTResolver creates a resolver over the project's JWT secret.
func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

// Resolve parses and verifies a session token and returns its subject.
func (r *JWTResolver) Resolve(_ context.Context, token string) (string, string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.Unauthorized("unexpected signing method")
		}
		return r.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", "", apperrors.InvalidToken(err)
	}
	if claims.Subject == "" {
		return "", "", apperrors.Unauthorized("token has no subject")
	}
	return claims.Subject, claims.Email, nil
}
