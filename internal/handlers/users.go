package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tubehub/backend/internal/auth"
	"github.com/tubehub/backend/internal/logging"
	"github.com/tubehub/backend/internal/middleware"
	"github.com/tubehub/backend/internal/models"
	"github.com/tubehub/backend/internal/repositories"
	"github.com/tubehub/backend/internal/storage"
)

// UserHandler implements account, session and profile endpoints.
type UserHandler struct {
	Users    UserStore
	Sessions SessionManager
	Views    ViewStore
	Blobs    BlobStore
	TempDir  string
	NowFunc  func() time.Time
}

// Register handles POST /api/v1/users/register. The request is multipart:
// text fields plus a required avatar file and an optional cover image.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart request body")
		return
	}

	username := strings.TrimSpace(strings.ToLower(r.FormValue("username")))
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	fullName := strings.TrimSpace(r.FormValue("fullname"))
	password := r.FormValue("password")

	if username == "" || email == "" || fullName == "" || password == "" {
		respondError(ctx, w, http.StatusBadRequest, "all fields are required")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	if _, err := h.Users.FindByUsernameOrEmail(ctx, username, email); err == nil {
		respondError(ctx, w, http.StatusConflict, "username or email already exists")
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("register account lookup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to verify existing accounts")
		return
	}

	avatarPath, err := saveUpload(r, "avatar", h.TempDir)
	if err != nil {
		if errors.Is(err, errNoFile) {
			respondError(ctx, w, http.StatusBadRequest, "avatar file is required")
			return
		}
		logger.Error("register avatar upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to read avatar upload")
		return
	}
	defer removeTemp(avatarPath)

	coverPath, err := saveUpload(r, "coverImage", h.TempDir)
	if err != nil && !errors.Is(err, errNoFile) {
		logger.Error("register cover image upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to read cover image upload")
		return
	}
	defer removeTemp(coverPath)

	avatar, err := h.Blobs.Upload(ctx, avatarPath)
	if err != nil {
		logger.Error("register avatar blob upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	var cover storage.Asset
	if coverPath != "" {
		cover, err = h.Blobs.Upload(ctx, coverPath)
		if err != nil {
			logger.Error("register cover image blob upload failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to store cover image")
			return
		}
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		logger.Error("register failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		Password:      hashed,
		AvatarURL:     avatar.URL,
		AvatarKey:     avatar.Key,
		CoverImageURL: cover.URL,
		CoverImageKey: cover.Key,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "username or email already exists")
			return
		}
		logger.Error("register failed to create user", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, user.Public(), "user registered successfully")
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" && req.Email == "" {
		respondError(ctx, w, http.StatusBadRequest, "username or email is required")
		return
	}

	user, err := h.Users.FindByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.Error("login user lookup failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "unable to process login")
			return
		}
		// Same message as a password mismatch so valid usernames cannot be probed.
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !auth.CheckPassword(req.Password, user.Password) {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	pair, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	setAuthCookies(w, pair)
	respondJSON(ctx, w, http.StatusOK, loginResponse{
		User:         user.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "user logged in successfully")
}

// Logout handles POST /api/v1/users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	caller, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	if err := h.Sessions.Revoke(ctx, caller.ID); err != nil {
		logging.FromContext(ctx).Error("logout failed to revoke session", "error", err, "userId", caller.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to end session")
		return
	}

	clearAuthCookies(w)
	respondJSON(ctx, w, http.StatusOK, struct{}{}, "user logged out successfully")
}

// RefreshToken handles POST /api/v1/users/refresh-token. The refresh token is
// read from the refreshToken cookie or the request body.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	presented := ""
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			presented = strings.TrimSpace(req.RefreshToken)
		}
	}
	if presented == "" {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	_, pair, err := h.Sessions.Refresh(ctx, presented)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenStale):
			respondError(ctx, w, http.StatusUnauthorized, "refresh token expired or used")
		case errors.Is(err, auth.ErrInvalidToken):
			respondError(ctx, w, http.StatusUnauthorized, "invalid refresh token")
		default:
			logger.Error("refresh failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "unable to refresh session")
		}
		return
	}

	setAuthCookies(w, pair)
	respondJSON(ctx, w, http.StatusOK, pair, "access token refreshed successfully")
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	caller, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		respondError(ctx, w, http.StatusBadRequest, "old and new password are required")
		return
	}

	user, err := h.Users.FindByID(ctx, caller.ID)
	if err != nil {
		logger.Error("change password user lookup failed", "error", err, "userId", caller.ID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to change password")
		return
	}

	if !auth.CheckPassword(req.OldPassword, user.Password) {
		respondError(ctx, w, http.StatusBadRequest, "invalid old password")
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		logger.Error("change password failed to hash", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to change password")
		return
	}

	if err := h.Users.UpdatePassword(ctx, caller.ID, hashed); err != nil {
		logger.Error("change password update failed", "error", err, "userId", caller.ID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to change password")
		return
	}

	respondJSON(ctx, w, http.StatusOK, struct{}{}, "password changed successfully")
}

// CurrentUser handles GET /api/v1/users/current.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	caller, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	respondJSON(ctx, w, http.StatusOK, caller, "current user fetched successfully")
}

// UpdateAccount handles PATCH /api/v1/users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	caller, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.FullName == "" && req.Email == "" {
		respondError(ctx, w, http.StatusBadRequest, "fullname or email is required")
		return
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			respondError(ctx, w, http.StatusBadRequest, "invalid email address")
			return
		}
	}

	user, err := h.Users.UpdateDetails(ctx, caller.ID, req.FullName, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "email already in use")
			return
		}
		logging.FromContext(ctx).Error("update account failed", "error", err, "userId", caller.ID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update account")
		return
	}

	respondJSON(ctx, w, http.StatusOK, user.Public(), "account details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", "avatar is missing",
		func(u models.User) string { return u.AvatarKey },
		h.Users.UpdateAvatar, "avatar updated successfully")
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", "cover image is missing",
		func(u models.User) string { return u.CoverImageKey },
		h.Users.UpdateCoverImage, "cover image updated successfully")
}

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field, missingMsg string,
	currentKey func(models.User) string,
	update func(ctx context.Context, id, url, key string) (models.User, error),
	successMsg string,
) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

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

	localPath, err := saveUpload(r, field, h.TempDir)
	if err != nil {
		if errors.Is(err, errNoFile) {
			respondError(ctx, w, http.StatusBadRequest, missingMsg)
			return
		}
		logger.Error("image upload failed", "field", field, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to read upload")
		return
	}
	defer removeTemp(localPath)

	user, err := h.Users.FindByID(ctx, caller.ID)
	if err != nil {
		logger.Error("image update user lookup failed", "error", err, "userId", caller.ID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update image")
		return
	}

	asset, err := h.Blobs.Upload(ctx, localPath)
	if err != nil {
		logger.Error("image blob upload failed", "field", field, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store image")
		return
	}

	updated, err := update(ctx, caller.ID, asset.URL, asset.Key)
	if err != nil {
		logger.Error("image record update failed", "field", field, "error", err, "userId", caller.ID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update image")
		return
	}

	// The record now points at the new asset; the old blob is unreferenced
	// and a failed delete only leaks storage.
	if key := currentKey(user); key != "" {
		if err := h.Blobs.Delete(ctx, key); err != nil {
			logger.Error("delete previous image blob failed", "key", key, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, updated.Public(), successMsg)
}

// ChannelProfile handles GET /api/v1/users/channel/{username}.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	caller, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" {
		respondError(ctx, w, http.StatusBadRequest, "username is missing")
		return
	}

	profile, err := h.Views.ChannelProfile(ctx, username, caller.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "channel does not exist")
			return
		}
		logging.FromContext(ctx).Error("channel profile query failed", "error", err, "username", username)
		respondError(ctx, w, http.StatusInternalServerError, "unable to fetch channel")
		return
	}

	respondJSON(ctx, w, http.StatusOK, profile, "user channel fetched successfully")
}

// WatchHistory handles GET /api/v1/users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	caller, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	history, err := h.Views.WatchHistory(ctx, caller.ID)
	if err != nil {
		logging.FromContext(ctx).Error("watch history query failed", "error", err, "userId", caller.ID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to fetch watch history")
		return
	}

	items := make([]videoResponse, 0, len(history))
	for _, entry := range history {
		items = append(items, videoFromView(entry))
	}

	respondJSON(ctx, w, http.StatusOK, items, "watch history fetched successfully")
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         models.Profile `json:"user"`
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullname"`
	Email    string `json:"email"`
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
