package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]string
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: make(map[string]string)}
}

func (s *memorySessionStore) Rotate(_ context.Context, userID, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = refreshToken
	return nil
}

func (s *memorySessionStore) Swap(_ context.Context, userID, oldToken, newToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[userID]
	if !ok || current != oldToken {
		return ErrTokenStale
	}
	s.sessions[userID] = newToken
	return nil
}

func (s *memorySessionStore) Current(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[userID]
	if !ok {
		return "", ErrSessionNotFound
	}
	return current, nil
}

func (s *memorySessionStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[userID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, userID)
	return nil
}

type staticUserResolver map[string]bool

func (r staticUserResolver) UserExists(_ context.Context, userID string) (bool, error) {
	return r[userID], nil
}

func newTestManager() (*Manager, *memorySessionStore) {
	issuer := NewTokenIssuer(TokenConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}, nil)
	store := newMemorySessionStore()
	manager := NewManager(issuer, store, staticUserResolver{"user-1": true})
	return manager, store
}

func TestManagerIssuePersistsRefreshToken(t *testing.T) {
	manager, store := newTestManager()

	pair, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected a full token pair, got %+v", pair)
	}

	current, err := store.Current(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if current != pair.RefreshToken {
		t.Fatal("stored refresh token does not match the issued one")
	}
}

func TestManagerRefreshRotatesPair(t *testing.T) {
	manager, _ := newTestManager()

	pair, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	userID, next, err := manager.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %q", userID)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("expected a new refresh token to be issued")
	}
}

func TestManagerRefreshRejectsRotatedToken(t *testing.T) {
	manager, _ := newTestManager()

	pair, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, _, err := manager.Refresh(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	if _, _, err := manager.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrTokenStale) {
		t.Fatalf("expected ErrTokenStale on second presentation, got %v", err)
	}
}

func TestManagerRefreshRejectsUnknownUser(t *testing.T) {
	issuer := NewTokenIssuer(TokenConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
	}, nil)
	manager := NewManager(issuer, newMemorySessionStore(), staticUserResolver{})

	token, _, err := issuer.IssueRefresh("ghost")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}

	if _, _, err := manager.Refresh(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for an unknown user, got %v", err)
	}
}

func TestManagerRefreshRejectsClearedSession(t *testing.T) {
	manager, _ := newTestManager()

	pair, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := manager.Revoke(context.Background(), "user-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if _, _, err := manager.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrTokenStale) {
		t.Fatalf("expected ErrTokenStale after revoke, got %v", err)
	}
}

func TestManagerRevokeIsIdempotent(t *testing.T) {
	manager, _ := newTestManager()

	if _, err := manager.Issue(context.Background(), "user-1"); err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := manager.Revoke(context.Background(), "user-1"); err != nil {
		t.Fatalf("first revoke: %v", err)
	}
	if err := manager.Revoke(context.Background(), "user-1"); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
}
