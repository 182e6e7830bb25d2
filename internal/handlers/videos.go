package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tubehub/backend/internal/logging"
	"github.com/tubehub/backend/internal/middleware"
	"github.com/tubehub/backend/internal/models"
	"github.com/tubehub/backend/internal/repositories"
)

// VideoHandler implements video publishing and listing endpoints.
type VideoHandler struct {
	Videos  VideoStore
	Views   ViewStore
	Blobs   BlobStore
	History WatchRecorder
	TempDir string
	NowFunc func() time.Time
}

// Handle routes GET and POST /api/v1/videos.
func (h VideoHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.publish(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// HandleByID routes GET, PATCH and DELETE /api/v1/videos/{videoId}.
func (h VideoHandler) HandleByID(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPatch:
		h.update(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h VideoHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter := repositories.VideoFilter{
		Query:    strings.TrimSpace(query.Get("query")),
		SortBy:   query.Get("sortBy"),
		SortType: query.Get("sortType"),
	}

	if ownerID := query.Get("userId"); ownerID != "" {
		if _, err := uuid.Parse(ownerID); err != nil {
			respondError(ctx, w, http.StatusBadRequest, "invalid userId")
			return
		}
		filter.OwnerID = ownerID
	}

	page, err := h.Views.SearchVideos(ctx, filter, parsePageRequest(r))
	if err != nil {
		logging.FromContext(ctx).Error("video search failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to fetch videos")
		return
	}

	items := make([]videoResponse, 0, len(page.Items))
	for _, view := range page.Items {
		items = append(items, videoFromView(view))
	}

	respondJSON(ctx, w, http.StatusOK, pageFromInfo(items, page.PageInfo), "videos fetched successfully")
}

func (h VideoHandler) publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	caller, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart request body")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondError(ctx, w, http.StatusBadRequest, "title and description are required")
		return
	}

	var duration float64
	if raw := strings.TrimSpace(r.FormValue("duration")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			respondError(ctx, w, http.StatusBadRequest, "duration must be a non-negative number")
			return
		}
		duration = parsed
	}

	videoPath, err := saveUpload(r, "videoFile", h.TempDir)
	if err != nil {
		if errors.Is(err, errNoFile) {
			respondError(ctx, w, http.StatusBadRequest, "video file and thumbnail are required")
			return
		}
		logger.Error("publish video upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to read video upload")
		return
	}
	defer removeTemp(videoPath)

	thumbnailPath, err := saveUpload(r, "thumbnail", h.TempDir)
	if err != nil {
		if errors.Is(err, errNoFile) {
			respondError(ctx, w, http.StatusBadRequest, "video file and thumbnail are required")
			return
		}
		logger.Error("publish thumbnail upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to read thumbnail upload")
		return
	}
	defer removeTemp(thumbnailPath)

	videoAsset, err := h.Blobs.Upload(ctx, videoPath)
	if err != nil {
		logger.Error("publish video blob upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store video")
		return
	}

	thumbnailAsset, err := h.Blobs.Upload(ctx, thumbnailPath)
	if err != nil {
		logger.Error("publish thumbnail blob upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
		return
	}

	now := h.now()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      caller.ID,
		Title:        title,
		Description:  description,
		VideoURL:     videoAsset.URL,
		VideoKey:     videoAsset.Key,
		ThumbnailURL: thumbnailAsset.URL,
		ThumbnailKey: thumbnailAsset.Key,
		Duration:     duration,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("publish failed to create video", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to publish video")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, videoFromModel(video), "video published successfully")
}

func (h VideoHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	videoID, ok := pathID(ctx, w, r, "videoId", "invalid video id")
	if !ok {
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("video lookup failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to fetch video")
		return
	}

	// View counting and history recording are best-effort; a read must not
	// fail because bookkeeping did.
	if err := h.Videos.IncrementViews(ctx, videoID); err != nil {
		logger.Warn("increment views failed", "error", err, "videoId", videoID)
	}
	if caller, ok := middleware.UserFromContext(ctx); ok && h.History != nil {
		if err := h.History.RecordWatch(ctx, caller.ID, videoID); err != nil {
			logger.Warn("record watch failed", "error", err, "videoId", videoID)
		}
	}

	respondJSON(ctx, w, http.StatusOK, videoFromModel(video), "video fetched successfully")
}

func (h VideoHandler) update(w http.ResponseWriter, r *http.Request) {
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

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart request body")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))

	thumbnailPath, err := saveUpload(r, "thumbnail", h.TempDir)
	if err != nil && !errors.Is(err, errNoFile) {
		logger.Error("update thumbnail upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to read thumbnail upload")
		return
	}
	defer removeTemp(thumbnailPath)

	if title == "" && description == "" && thumbnailPath == "" {
		respondError(ctx, w, http.StatusBadRequest, "title, description or thumbnail is required")
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("video lookup failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update video")
		return
	}

	if video.OwnerID != caller.ID {
		respondError(ctx, w, http.StatusForbidden, "only the owner may update this video")
		return
	}

	previousThumbnailKey := ""
	if thumbnailPath != "" {
		asset, err := h.Blobs.Upload(ctx, thumbnailPath)
		if err != nil {
			logger.Error("thumbnail blob upload failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
			return
		}
		previousThumbnailKey = video.ThumbnailKey
		video.ThumbnailURL = asset.URL
		video.ThumbnailKey = asset.Key
	}

	if title != "" {
		video.Title = title
	}
	if description != "" {
		video.Description = description
	}

	if err := h.Videos.Update(ctx, video); err != nil {
		logger.Error("video update failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update video")
		return
	}

	// The record now points at the new thumbnail; a failed delete of the old
	// blob only leaks storage.
	if previousThumbnailKey != "" {
		if err := h.Blobs.Delete(ctx, previousThumbnailKey); err != nil {
			logger.Error("delete previous thumbnail failed", "key", previousThumbnailKey, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, videoFromModel(video), "video updated successfully")
}

func (h VideoHandler) delete(w http.ResponseWriter, r *http.Request) {
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

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("video lookup failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to delete video")
		return
	}

	if video.OwnerID != caller.ID {
		respondError(ctx, w, http.StatusForbidden, "only the owner may delete this video")
		return
	}

	// Blob deletions are awaited before the record goes away so a failure
	// never strands unreachable objects in the store.
	for _, key := range []string{video.VideoKey, video.ThumbnailKey} {
		if key == "" {
			continue
		}
		if err := h.Blobs.Delete(ctx, key); err != nil {
			logger.Error("delete video blob failed", "key", key, "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "unable to delete video")
			return
		}
	}

	if err := h.Videos.Delete(ctx, videoID); err != nil {
		logger.Error("video delete failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to delete video")
		return
	}

	respondJSON(ctx, w, http.StatusOK, struct{}{}, "video deleted successfully")
}

// TogglePublish handles PATCH /api/v1/videos/{videoId}/toggle-publish.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

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

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("video lookup failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to toggle publish status")
		return
	}

	if video.OwnerID != caller.ID {
		respondError(ctx, w, http.StatusForbidden, "only the owner may change publish status")
		return
	}

	published := !video.IsPublished
	if err := h.Videos.SetPublished(ctx, videoID, published); err != nil {
		logger.Error("toggle publish failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to toggle publish status")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"isPublished": published}, "publish status changed successfully")
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
