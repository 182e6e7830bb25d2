package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tubehub/backend/internal/logging"
	"github.com/tubehub/backend/internal/middleware"
	"github.com/tubehub/backend/internal/models"
	"github.com/tubehub/backend/internal/repositories"
)

// CommentHandler implements comment endpoints for videos.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	Views    ViewStore
	NowFunc  func() time.Time
}

// HandleForVideo routes GET and POST /api/v1/comments/{videoId}.
func (h CommentHandler) HandleForVideo(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.add(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// HandleByID routes PATCH and DELETE /api/v1/comments/c/{commentId}.
func (h CommentHandler) HandleByID(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPatch:
		h.update(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h CommentHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	videoID, ok := pathID(ctx, w, r, "videoId", "invalid video id")
	if !ok {
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("video lookup failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to fetch comments")
		return
	}

	page, err := h.Views.CommentsForVideo(ctx, videoID, parsePageRequest(r))
	if err != nil {
		logger.Error("comment query failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to fetch comments")
		return
	}

	items := make([]commentResponse, 0, len(page.Items))
	for _, view := range page.Items {
		items = append(items, commentFromView(view))
	}

	respondJSON(ctx, w, http.StatusOK, pageFromInfo(items, page.PageInfo), "comments fetched successfully")
}

func (h CommentHandler) add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	videoID, ok := pathID(ctx, w, r, "videoId", "invalid video id")
	if !ok {
		return
	}

	caller, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "comment content is required")
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("video lookup failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to add comment")
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		OwnerID:   caller.ID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("comment create failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to add comment")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, commentFromModel(comment), "comment added successfully")
}

func (h CommentHandler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	commentID, ok := pathID(ctx, w, r, "commentId", "invalid comment id")
	if !ok {
		return
	}

	caller, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "comment content is required")
		return
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "comment not found")
			return
		}
		logger.Error("comment lookup failed", "error", err, "commentId", commentID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update comment")
		return
	}

	if comment.OwnerID != caller.ID {
		respondError(ctx, w, http.StatusForbidden, "only the author may update this comment")
		return
	}

	updated, err := h.Comments.UpdateContent(ctx, commentID, req.Content)
	if err != nil {
		logger.Error("comment update failed", "error", err, "commentId", commentID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update comment")
		return
	}

	respondJSON(ctx, w, http.StatusOK, commentFromModel(updated), "comment updated successfully")
}

func (h CommentHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	commentID, ok := pathID(ctx, w, r, "commentId", "invalid comment id")
	if !ok {
		return
	}

	caller, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "comment not found")
			return
		}
		logger.Error("comment lookup failed", "error", err, "commentId", commentID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to delete comment")
		return
	}

	if comment.OwnerID != caller.ID {
		respondError(ctx, w, http.StatusForbidden, "only the author may delete this comment")
		return
	}

	if err := h.Comments.Delete(ctx, commentID); err != nil {
		logger.Error("comment delete failed", "error", err, "commentId", commentID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to delete comment")
		return
	}

	respondJSON(ctx, w, http.StatusOK, struct{}{}, "comment deleted successfully")
}

type commentRequest struct {
	Content string `json:"content"`
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
