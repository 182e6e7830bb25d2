package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tubehub/backend/internal/db"
	"github.com/tubehub/backend/internal/models"
)

// PageRequest selects one slice of a paginated read model.
type PageRequest struct {
	Page  int
	Limit int
}

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Normalize clamps the request to valid bounds, falling back to page 1 and
// ten items when values are absent or out of range.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = defaultPage
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

func (p PageRequest) offset() int {
	return (p.Page - 1) * p.Limit
}

func pageInfo(p PageRequest, total int64) models.PageInfo {
	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return models.PageInfo{
		Page:       p.Page,
		Limit:      p.Limit,
		TotalCount: total,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
	}
}

// VideoFilter narrows the published-video listing.
type VideoFilter struct {
	OwnerID  string
	Query    string
	SortBy   string
	SortType string
}

// ViewRepository assembles the derived read models that span multiple tables.
type ViewRepository interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	CommentsForVideo(ctx context.Context, videoID string, page PageRequest) (models.CommentPage, error)
	SearchVideos(ctx context.Context, filter VideoFilter, page PageRequest) (models.VideoPage, error)
	WatchHistory(ctx context.Context, userID string) ([]models.VideoView, error)
}

// PostgresViewRepository builds read models with SQL joins and window counts.
type PostgresViewRepository struct {
	pool db.Pool
}

// NewPostgresViewRepository constructs a view repository backed by PostgreSQL.
func NewPostgresViewRepository(pool db.Pool) *PostgresViewRepository {
	return &PostgresViewRepository{pool: pool}
}

// ChannelProfile aggregates a user's public channel view: subscriber and
// subscribed-to counts plus whether the viewer is among the subscribers.
func (r *PostgresViewRepository) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT u.id, u.username, u.email, u.full_name, u.avatar_url, u.cover_image_url,
               (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id) AS subscribers,
               (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS subscribed_to,
               EXISTS (
                   SELECT 1 FROM subscriptions s
                   WHERE s.channel_id = u.id AND s.subscriber_id = $2
               ) AS is_subscribed
        FROM users u
        WHERE u.username = lower($1)
    `, username, viewerID)

	var profile models.ChannelProfile
	err = row.Scan(&profile.ID, &profile.Username, &profile.Email, &profile.FullName,
		&profile.AvatarURL, &profile.CoverImageURL,
		&profile.SubscriberCount, &profile.SubscribedToCount, &profile.IsSubscribed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ChannelProfile{}, ErrNotFound
		}
		return models.ChannelProfile{}, fmt.Errorf("scan channel profile: %w", err)
	}

	return profile, nil
}

// CommentsForVideo returns one page of a video's comments, newest first, each
// joined with its author's public display fields.
func (r *PostgresViewRepository) CommentsForVideo(ctx context.Context, videoID string, page PageRequest) (models.CommentPage, error) {
	page = page.Normalize()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.CommentPage{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT c.id, c.video_id, c.owner_id, c.content, c.created_at, c.updated_at,
               u.username, u.full_name, u.avatar_url,
               COUNT(*) OVER () AS total
        FROM comments c
        JOIN users u ON u.id = c.owner_id
        WHERE c.video_id = $1
        ORDER BY c.created_at DESC
        LIMIT $2 OFFSET $3
    `, videoID, page.Limit, page.offset())
	if err != nil {
		return models.CommentPage{}, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var (
		items []models.CommentView
		total int64
	)
	for rows.Next() {
		var view models.CommentView
		if err := rows.Scan(&view.ID, &view.VideoID, &view.OwnerID, &view.Content,
			&view.CreatedAt, &view.UpdatedAt,
			&view.OwnerUsername, &view.OwnerFullName, &view.OwnerAvatar, &total); err != nil {
			return models.CommentPage{}, fmt.Errorf("scan comment view: %w", err)
		}
		items = append(items, view)
	}
	if err := rows.Err(); err != nil {
		return models.CommentPage{}, fmt.Errorf("iterate comments: %w", err)
	}

	if total == 0 {
		total, err = r.countRows(ctx, `SELECT COUNT(*) FROM comments WHERE video_id = $1`, videoID)
		if err != nil {
			return models.CommentPage{}, err
		}
	}

	return models.CommentPage{Items: items, PageInfo: pageInfo(page, total)}, nil
}

// Columns the caller may sort the video listing by. Anything else falls back
// to newest-first.
var videoSortColumns = map[string]string{
	"created_at": "v.created_at",
	"duration":   "v.duration",
	"views":      "v.views",
	"title":      "v.title",
}

// SearchVideos lists published videos with optional owner and free-text
// filters, each joined with the owner's public display fields.
func (r *PostgresViewRepository) SearchVideos(ctx context.Context, filter VideoFilter, page PageRequest) (models.VideoPage, error) {
	page = page.Normalize()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.VideoPage{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	where := `v.is_published`
	args := []any{}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		where += fmt.Sprintf(" AND v.owner_id = $%d", len(args))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		where += fmt.Sprintf(" AND (v.title ILIKE $%d OR v.description ILIKE $%d)", len(args), len(args))
	}

	orderBy := "v.created_at DESC"
	if col, ok := videoSortColumns[filter.SortBy]; ok {
		direction := "DESC"
		if filter.SortType == "asc" {
			direction = "ASC"
		}
		orderBy = col + " " + direction
	}

	args = append(args, page.Limit, page.offset())
	query := fmt.Sprintf(`
        SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.video_key,
               v.thumbnail_url, v.thumbnail_key, v.duration, v.views, v.is_published,
               v.created_at, v.updated_at,
               u.username, u.avatar_url,
               COUNT(*) OVER () AS total
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        WHERE %s
        ORDER BY %s
        LIMIT $%d OFFSET $%d
    `, where, orderBy, len(args)-1, len(args))

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return models.VideoPage{}, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var (
		items []models.VideoView
		total int64
	)
	for rows.Next() {
		var view models.VideoView
		if err := rows.Scan(&view.ID, &view.OwnerID, &view.Title, &view.Description,
			&view.VideoURL, &view.VideoKey, &view.ThumbnailURL, &view.ThumbnailKey,
			&view.Duration, &view.Views, &view.IsPublished, &view.CreatedAt, &view.UpdatedAt,
			&view.OwnerUsername, &view.OwnerAvatar, &total); err != nil {
			return models.VideoPage{}, fmt.Errorf("scan video view: %w", err)
		}
		items = append(items, view)
	}
	if err := rows.Err(); err != nil {
		return models.VideoPage{}, fmt.Errorf("iterate videos: %w", err)
	}

	if total == 0 {
		countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM videos v WHERE %s`, where)
		total, err = r.countRows(ctx, countQuery, args[:len(args)-2]...)
		if err != nil {
			return models.VideoPage{}, err
		}
	}

	return models.VideoPage{Items: items, PageInfo: pageInfo(page, total)}, nil
}

// WatchHistory returns the user's watched videos, most recent first, with the
// owning user's public fields nested on each entry.
func (r *PostgresViewRepository) WatchHistory(ctx context.Context, userID string) ([]models.VideoView, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.video_key,
               v.thumbnail_url, v.thumbnail_key, v.duration, v.views, v.is_published,
               v.created_at, v.updated_at,
               u.username, u.avatar_url
        FROM watch_history wh
        JOIN videos v ON v.id = wh.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE wh.user_id = $1
        ORDER BY wh.watched_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	var history []models.VideoView
	for rows.Next() {
		var view models.VideoView
		if err := rows.Scan(&view.ID, &view.OwnerID, &view.Title, &view.Description,
			&view.VideoURL, &view.VideoKey, &view.ThumbnailURL, &view.ThumbnailKey,
			&view.Duration, &view.Views, &view.IsPublished, &view.CreatedAt, &view.UpdatedAt,
			&view.OwnerUsername, &view.OwnerAvatar); err != nil {
			return nil, fmt.Errorf("scan watch history entry: %w", err)
		}
		history = append(history, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return history, nil
}

func (r *PostgresViewRepository) countRows(ctx context.Context, query string, args ...any) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return total, nil
}

var _ ViewRepository = (*PostgresViewRepository)(nil)
