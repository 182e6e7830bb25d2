package handlers

import (
	"time"

	"github.com/tubehub/backend/internal/models"
)

type ownerResponse struct {
	Username string `json:"username"`
	FullName string `json:"fullname,omitempty"`
	Avatar   string `json:"avatar"`
}

type videoResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	VideoFile   string         `json:"videoFile"`
	Thumbnail   string         `json:"thumbnail"`
	Duration    float64        `json:"duration"`
	Views       int64          `json:"views"`
	IsPublished bool           `json:"isPublished"`
	CreatedAt   time.Time      `json:"createdAt"`
	Owner       *ownerResponse `json:"owner,omitempty"`
}

func videoFromModel(v models.Video) videoResponse {
	return videoResponse{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		VideoFile:   v.VideoURL,
		Thumbnail:   v.ThumbnailURL,
		Duration:    v.Duration,
		Views:       v.Views,
		IsPublished: v.IsPublished,
		CreatedAt:   v.CreatedAt,
	}
}

func videoFromView(v models.VideoView) videoResponse {
	resp := videoFromModel(v.Video)
	resp.Owner = &ownerResponse{Username: v.OwnerUsername, Avatar: v.OwnerAvatar}
	return resp
}

type commentResponse struct {
	ID        string         `json:"id"`
	VideoID   string         `json:"videoId"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
	Owner     *ownerResponse `json:"owner,omitempty"`
}

func commentFromModel(c models.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		VideoID:   c.VideoID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

func commentFromView(c models.CommentView) commentResponse {
	resp := commentFromModel(c.Comment)
	resp.Owner = &ownerResponse{Username: c.OwnerUsername, FullName: c.OwnerFullName, Avatar: c.OwnerAvatar}
	return resp
}

type pageResponse struct {
	Items       any   `json:"items"`
	TotalCount  int64 `json:"totalCount"`
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
}

func pageFromInfo(items any, info models.PageInfo) pageResponse {
	return pageResponse{
		Items:       items,
		TotalCount:  info.TotalCount,
		Page:        info.Page,
		Limit:       info.Limit,
		TotalPages:  info.TotalPages,
		HasNextPage: info.HasNext,
	}
}
