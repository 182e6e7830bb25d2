package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/tubehub/backend/internal/auth"
	"github.com/tubehub/backend/internal/models"
	"github.com/tubehub/backend/internal/repositories"
	"github.com/tubehub/backend/internal/storage"
)

type inMemoryUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) FindByUsernameOrEmail(_ context.Context, username, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) UserExists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	return ok, nil
}

func (s *inMemoryUserStore) UpdateDetails(_ context.Context, id, fullName, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	if email != "" {
		for otherID, other := range s.users {
			if otherID != id && other.Email == email {
				return models.User{}, repositories.ErrConflict
			}
		}
		user.Email = email
	}
	if fullName != "" {
		user.FullName = fullName
	}
	s.users[id] = user
	return user, nil
}

func (s *inMemoryUserStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Password = passwordHash
	s.users[id] = user
	return nil
}

func (s *inMemoryUserStore) UpdateAvatar(_ context.Context, id, url, key string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.AvatarURL = url
	user.AvatarKey = key
	s.users[id] = user
	return user, nil
}

func (s *inMemoryUserStore) UpdateCoverImage(_ context.Context, id, url, key string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.CoverImageURL = url
	user.CoverImageKey = key
	s.users[id] = user
	return user, nil
}

type inMemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]string
}

func newInMemorySessionStore() *inMemorySessionStore {
	return &inMemorySessionStore{sessions: make(map[string]string)}
}

func (s *inMemorySessionStore) Rotate(_ context.Context, userID, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = refreshToken
	return nil
}

func (s *inMemorySessionStore) Swap(_ context.Context, userID, oldToken, newToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.sessions[userID]; !ok || current != oldToken {
		return auth.ErrTokenStale
	}
	s.sessions[userID] = newToken
	return nil
}

func (s *inMemorySessionStore) Current(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[userID]
	if !ok {
		return "", auth.ErrSessionNotFound
	}
	return current, nil
}

func (s *inMemorySessionStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[userID]; !ok {
		return auth.ErrSessionNotFound
	}
	delete(s.sessions, userID)
	return nil
}

func newTestSessionManager(users *inMemoryUserStore) *auth.Manager {
	issuer := auth.NewTokenIssuer(auth.TokenConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}, nil)
	return auth.NewManager(issuer, newInMemorySessionStore(), users)
}

type fakeBlobStore struct {
	mu        sync.Mutex
	uploads   int
	deleted   []string
	uploadErr error
}

func (s *fakeBlobStore) Upload(_ context.Context, localPath string) (storage.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return storage.Asset{}, s.uploadErr
	}
	s.uploads++
	key := fmt.Sprintf("blob-%d%s", s.uploads, filepath.Ext(localPath))
	return storage.Asset{URL: "https://cdn.test/" + key, Key: key}, nil
}

func (s *fakeBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	return nil
}

type inMemoryVideoStore struct {
	mu     sync.Mutex
	videos map[string]models.Video
}

func newInMemoryVideoStore() *inMemoryVideoStore {
	return &inMemoryVideoStore{videos: make(map[string]models.Video)}
}

func (s *inMemoryVideoStore) Create(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[video.ID] = video
	return nil
}

func (s *inMemoryVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *inMemoryVideoStore) Update(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[video.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.videos[video.ID] = video
	return nil
}

func (s *inMemoryVideoStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s *inMemoryVideoStore) SetPublished(_ context.Context, id string, published bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.IsPublished = published
	s.videos[id] = video
	return nil
}

func (s *inMemoryVideoStore) IncrementViews(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Views++
	s.videos[id] = video
	return nil
}

type inMemoryCommentStore struct {
	mu       sync.Mutex
	comments map[string]models.Comment
}

func newInMemoryCommentStore() *inMemoryCommentStore {
	return &inMemoryCommentStore{comments: make(map[string]models.Comment)}
}

func (s *inMemoryCommentStore) Create(_ context.Context, comment models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[comment.ID] = comment
	return nil
}

func (s *inMemoryCommentStore) FindByID(_ context.Context, id string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s *inMemoryCommentStore) UpdateContent(_ context.Context, id, content string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	comment.Content = content
	s.comments[id] = comment
	return comment, nil
}

func (s *inMemoryCommentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

type fakeViewStore struct {
	channel    models.ChannelProfile
	channelErr error
	comments   models.CommentPage
	videos     models.VideoPage
	history    []models.VideoView

	lastFilter repositories.VideoFilter
	lastPage   repositories.PageRequest
}

func (s *fakeViewStore) ChannelProfile(_ context.Context, username, viewerID string) (models.ChannelProfile, error) {
	if s.channelErr != nil {
		return models.ChannelProfile{}, s.channelErr
	}
	return s.channel, nil
}

func (s *fakeViewStore) CommentsForVideo(_ context.Context, videoID string, page repositories.PageRequest) (models.CommentPage, error) {
	s.lastPage = page
	return s.comments, nil
}

func (s *fakeViewStore) SearchVideos(_ context.Context, filter repositories.VideoFilter, page repositories.PageRequest) (models.VideoPage, error) {
	s.lastFilter = filter
	s.lastPage = page
	return s.videos, nil
}

func (s *fakeViewStore) WatchHistory(_ context.Context, userID string) ([]models.VideoView, error) {
	return s.history, nil
}

type fakeWatchRecorder struct {
	mu      sync.Mutex
	watches map[string]string
}

func newFakeWatchRecorder() *fakeWatchRecorder {
	return &fakeWatchRecorder{watches: make(map[string]string)}
}

func (r *fakeWatchRecorder) RecordWatch(_ context.Context, userID, videoID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watches[userID] = videoID
	return nil
}
