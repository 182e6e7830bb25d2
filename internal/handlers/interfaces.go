package handlers

import (
	"context"

	"github.com/tubehub/backend/internal/models"
	"github.com/tubehub/backend/internal/repositories"
	"github.com/tubehub/backend/internal/storage"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	UpdateDetails(ctx context.Context, id, fullName, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAvatar(ctx context.Context, id, url, key string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, url, key string) (models.User, error)
}

// SessionManager drives the token lifecycle for authenticated users.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, models.TokenPair, error)
	Revoke(ctx context.Context, userID string) error
}

// VideoStore captures persistence for video records.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Update(ctx context.Context, video models.Video) error
	Delete(ctx context.Context, id string) error
	SetPublished(ctx context.Context, id string, published bool) error
	IncrementViews(ctx context.Context, id string) error
}

// CommentStore captures persistence for comment records.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
}

// ViewStore assembles the derived read models served by several endpoints.
type ViewStore interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	CommentsForVideo(ctx context.Context, videoID string, page repositories.PageRequest) (models.CommentPage, error)
	SearchVideos(ctx context.Context, filter repositories.VideoFilter, page repositories.PageRequest) (models.VideoPage, error)
	WatchHistory(ctx context.Context, userID string) ([]models.VideoView, error)
}

// WatchRecorder appends watched videos to a user's history.
type WatchRecorder interface {
	RecordWatch(ctx context.Context, userID, videoID string) error
}

// BlobStore is the external content store for uploaded media and images.
// storage.S3Storage is the production implementation.
type BlobStore = storage.BlobStore
