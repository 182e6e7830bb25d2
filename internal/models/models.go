package models

import "time"

// User represents an account within the TubeHub platform. Password holds the
// bcrypt hash, never the submitted secret.
type User struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	Password      string
	AvatarURL     string
	AvatarKey     string
	CoverImageURL string
	CoverImageKey string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Profile is the public projection of a user that is safe to return to
// callers and to attach to request contexts. It never carries the password
// hash or the stored refresh token.
type Profile struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"fullname"`
	AvatarURL     string `json:"avatar"`
	CoverImageURL string `json:"coverImage"`
}

// Public strips a user down to its public projection.
func (u User) Public() Profile {
	return Profile{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
	}
}

// Video is an uploaded piece of content owned by a single user. VideoKey and
// ThumbnailKey are the blob-store identifiers used for later deletion.
type Video struct {
	ID           string
	OwnerID      string
	Title        string
	Description  string
	VideoURL     string
	VideoKey     string
	ThumbnailURL string
	ThumbnailKey string
	Duration     float64
	Views        int64
	IsPublished  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Comment belongs to exactly one video and one authoring user.
type Comment struct {
	ID        string
	VideoID   string
	OwnerID   string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Subscription is a directed edge from a subscriber to a channel.
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// TokenPair groups the bearer credentials issued to authenticated users.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// ChannelProfile is the aggregated public view of a user's channel.
type ChannelProfile struct {
	Profile
	SubscriberCount   int64 `json:"subscribersCount"`
	SubscribedToCount int64 `json:"channelsSubscribedToCount"`
	IsSubscribed      bool  `json:"isSubscribed"`
}

// CommentView is a comment joined with its author's public display fields.
type CommentView struct {
	Comment
	OwnerUsername string
	OwnerFullName string
	OwnerAvatar   string
}

// VideoView is a video joined with its owner's public display fields.
type VideoView struct {
	Video
	OwnerUsername string
	OwnerAvatar   string
}

// PageInfo describes the slice of a paginated result that was returned.
type PageInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNextPage"`
}

// CommentPage is one page of comments for a video.
type CommentPage struct {
	Items    []CommentView
	PageInfo PageInfo
}

// VideoPage is one page of a video listing.
type VideoPage struct {
	Items    []VideoView
	PageInfo PageInfo
}
