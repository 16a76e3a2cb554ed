package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/appduka/catalog/internal/errors"
)

// MemoryProvider is an in-process identity backend for local runs and tests.
// Tokens are opaque and never expire.
type MemoryProvider struct {
	mu       sync.Mutex
	accounts map[string]memoryAccount  // keyed by email
	sessions map[string]memorySession  // keyed by token
}

type memoryAccount struct {
	id       string
	password string
}

type memorySession struct {
	userID string
	email  string
}

var _ Provider = (*MemoryProvider)(nil)

// NewMemoryProvider creates an empty account set.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		accounts: make(map[string]memoryAccount),
		sessions: make(map[string]memorySession),
	}
}

func (p *MemoryProvider) SignUp(_ context.Context, email, password string) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.accounts[email]; exists {
		return Session{}, apperrors.Validation("an account with this email already exists")
	}
	acct := memoryAccount{id: uuid.NewString(), password: password}
	p.accounts[email] = acct
	return p.issueLocked(acct.id, email), nil
}

func (p *MemoryProvider) SignIn(_ context.Context, email, password string) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.accounts[email]
	if !ok || acct.password != password {
		return Session{}, apperrors.Unauthorized("invalid email or password")
	}
	return p.issueLocked(acct.id, email), nil
}

func (p *MemoryProvider) SignOut(_ context.Context, accessToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, accessToken)
	return nil
}

func (p *MemoryProvider) SendRecovery(context.Context, string) error {
	// Nothing to send; the reply never reveals whether the account exists.
	return nil
}

// Resolve returns the user id behind a token, for request authentication in
// tests and local runs.
func (p *MemoryProvider) Resolve(token string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, ok := p.sessions[token]
	return sess.userID, ok
}

// ResolveSession verifies a token and returns its subject, matching the
// gateway's identity-resolver contract.
func (p *MemoryProvider) ResolveSession(_ context.Context, token string) (string, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, ok := p.sessions[token]
	if !ok {
		return "", "", apperrors.InvalidToken(nil)
	}
	return sess.userID, sess.email, nil
}

func (p *MemoryProvider) issueLocked(userID, email string) Session {
	token := uuid.NewString()
	p.sessions[token] = memorySession{userID: userID, email: email}
	return Session{AccessToken: token, UserID: userID, Email: email, ExpiresIn: 3600}
}
