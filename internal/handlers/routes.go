package handlers

import (
	"net/http"

	"github.com/tubehub/backend/internal/middleware"
	"github.com/tubehub/backend/internal/obs"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users    UserStore
	Sessions SessionManager
	Videos   VideoStore
	Comments CommentStore
	Views    ViewStore
	History  WatchRecorder
	Blobs    BlobStore

	Verifier   middleware.TokenVerifier
	UserLoader middleware.UserLoader

	UploadTempDir string
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Every route
// except registration, login, refresh, health and metrics runs behind the
// authentication middleware.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	users := UserHandler{
		Users:    deps.Users,
		Sessions: deps.Sessions,
		Views:    deps.Views,
		Blobs:    deps.Blobs,
		TempDir:  deps.UploadTempDir,
	}
	videos := VideoHandler{
		Videos:  deps.Videos,
		Views:   deps.Views,
		Blobs:   deps.Blobs,
		History: deps.History,
		TempDir: deps.UploadTempDir,
	}
	comments := CommentHandler{
		Comments: deps.Comments,
		Videos:   deps.Videos,
		Views:    deps.Views,
	}

	authed := middleware.Authenticate(deps.Verifier, deps.UserLoader)
	protect := func(h http.HandlerFunc) http.Handler {
		return authed(h)
	}

	mux.HandleFunc("/healthz", health.Handle)
	mux.Handle("/metrics", obs.Handler())

	mux.HandleFunc("/api/v1/users/register", users.Register)
	mux.HandleFunc("/api/v1/users/login", users.Login)
	mux.HandleFunc("/api/v1/users/refresh-token", users.RefreshToken)
	mux.Handle("/api/v1/users/logout", protect(users.Logout))
	mux.Handle("/api/v1/users/change-password", protect(users.ChangePassword))
	mux.Handle("/api/v1/users/current", protect(users.CurrentUser))
	mux.Handle("/api/v1/users/update-account", protect(users.UpdateAccount))
	mux.Handle("/api/v1/users/avatar", protect(users.UpdateAvatar))
	mux.Handle("/api/v1/users/cover-image", protect(users.UpdateCoverImage))
	mux.Handle("/api/v1/users/channel/{username}", protect(users.ChannelProfile))
	mux.Handle("/api/v1/users/history", protect(users.WatchHistory))

	mux.Handle("/api/v1/videos", protect(videos.Handle))
	mux.Handle("/api/v1/videos/{videoId}", protect(videos.HandleByID))
	mux.Handle("/api/v1/videos/{videoId}/toggle-publish", protect(videos.TogglePublish))

	mux.Handle("/api/v1/comments/{videoId}", protect(comments.HandleForVideo))
	mux.Handle("/api/v1/comments/c/{commentId}", protect(comments.HandleByID))
}
