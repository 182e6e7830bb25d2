package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/tubehub/backend/internal/models"
)

// ErrSessionNotFound indicates no refresh token is currently stored for the user.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists the single currently valid refresh token per user.
// Swap must be atomic per user so two concurrent refresh attempts cannot both
// succeed against the same stored token.
type SessionStore interface {
	Rotate(ctx context.Context, userID, refreshToken string) error
	Swap(ctx context.Context, userID, oldToken, newToken string) error
	Current(ctx context.Context, userID string) (string, error)
	Clear(ctx context.Context, userID string) error
}

// UserResolver reports whether a user id resolves to an existing account.
type UserResolver interface {
	UserExists(ctx context.Context, userID string) (bool, error)
}

// Manager drives the session/credential lifecycle: it mints token pairs,
// records the refresh token in the one-slot session store and rotates pairs
// on refresh.
type Manager struct {
	issuer *TokenIssuer
	store  SessionStore
	users  UserResolver
}

// NewManager constructs a Manager around the provided collaborators.
func NewManager(issuer *TokenIssuer, store SessionStore, users UserResolver) *Manager {
	if issuer == nil || store == nil || users == nil {
		panic("auth: manager collaborators must not be nil")
	}
	return &Manager{issuer: issuer, store: store, users: users}
}

// Issue creates a new token pair for the user and persists the refresh token.
// The pair is only returned once persistence has succeeded, so a caller never
// holds a refresh token the store does not know about.
func (m *Manager) Issue(ctx context.Context, userID string) (models.TokenPair, error) {
	pair, err := m.mint(userID)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := m.store.Rotate(ctx, userID, pair.RefreshToken); err != nil {
		return models.TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return pair, nil
}

// Refresh exchanges a presented refresh token for a new pair. The presented
// token must be cryptographically valid, belong to an existing user and match
// the stored session slot exactly; a mismatch means the token was already
// rotated past and is rejected as stale.
func (m *Manager) Refresh(ctx context.Context, presented string) (string, models.TokenPair, error) {
	userID, err := m.issuer.VerifyRefresh(presented)
	if err != nil {
		return "", models.TokenPair{}, ErrInvalidToken
	}

	exists, err := m.users.UserExists(ctx, userID)
	if err != nil {
		return "", models.TokenPair{}, fmt.Errorf("resolve user: %w", err)
	}
	if !exists {
		return "", models.TokenPair{}, ErrInvalidToken
	}

	current, err := m.store.Current(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return "", models.TokenPair{}, ErrTokenStale
		}
		return "", models.TokenPair{}, fmt.Errorf("load session: %w", err)
	}
	if current != presented {
		return "", models.TokenPair{}, ErrTokenStale
	}

	pair, err := m.mint(userID)
	if err != nil {
		return "", models.TokenPair{}, err
	}

	if err := m.store.Swap(ctx, userID, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, ErrTokenStale) || errors.Is(err, ErrSessionNotFound) {
			return "", models.TokenPair{}, ErrTokenStale
		}
		return "", models.TokenPair{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	return userID, pair, nil
}

// Revoke clears the user's session slot. Missing sessions are not an error;
// logout is idempotent.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if err := m.store.Clear(ctx, userID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (m *Manager) mint(userID string) (models.TokenPair, error) {
	access, accessExp, err := m.issuer.IssueAccess(userID)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, refreshExp, err := m.issuer.IssueRefresh(userID)
	if err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}
