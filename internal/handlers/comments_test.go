package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/tubehub/backend/internal/models"
)

func seedComment(t *testing.T, store *inMemoryCommentStore, videoID, ownerID string) models.Comment {
	t.Helper()

	comment := models.Comment{
		ID:      uuid.NewString(),
		VideoID: videoID,
		OwnerID: ownerID,
		Content: "first!",
	}
	if err := store.Create(context.Background(), comment); err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	return comment
}

func TestCommentHandlerListRequiresExistingVideo(t *testing.T) {
	handler := CommentHandler{Comments: newInMemoryCommentStore(), Videos: newInMemoryVideoStore(), Views: &fakeViewStore{}}

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/comments/"+id, nil)
	req.SetPathValue("videoId", id)
	rec := httptest.NewRecorder()

	handler.HandleForVideo(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestCommentHandlerListUsesDefaultPagination(t *testing.T) {
	videos := newInMemoryVideoStore()
	video := seedVideo(t, videos, uuid.NewString())
	views := &fakeViewStore{comments: models.CommentPage{
		Items:    []models.CommentView{{Comment: models.Comment{ID: uuid.NewString(), Content: "hi"}, OwnerUsername: "bob"}},
		PageInfo: models.PageInfo{Page: 1, Limit: 10, TotalCount: 1, TotalPages: 1},
	}}
	handler := CommentHandler{Comments: newInMemoryCommentStore(), Videos: videos, Views: views}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/comments/"+video.ID+"?page=abc&limit=-5", nil)
	req.SetPathValue("videoId", video.ID)
	rec := httptest.NewRecorder()

	handler.HandleForVideo(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if views.lastPage.Page != 1 || views.lastPage.Limit != 10 {
		t.Fatalf("expected default pagination, got %+v", views.lastPage)
	}

	envelope := decodeEnvelope(t, rec)
	data, ok := envelope["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected a page object, got %v", envelope["data"])
	}
	if data["totalCount"] != float64(1) || data["hasNextPage"] != false {
		t.Fatalf("unexpected page metadata %v", data)
	}
}

func TestCommentHandlerAdd(t *testing.T) {
	users := newInMemoryUserStore()
	author := seedUser(t, users, "user-1", "alice", "password123")
	videos := newInMemoryVideoStore()
	video := seedVideo(t, videos, uuid.NewString())
	comments := newInMemoryCommentStore()
	handler := CommentHandler{Comments: comments, Videos: videos, Views: &fakeViewStore{}}

	body, err := json.Marshal(commentRequest{Content: "nice video"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := asAuthenticated(httptest.NewRequest(http.MethodPost, "/api/v1/comments/"+video.ID, bytes.NewReader(body)), author)
	req.SetPathValue("videoId", video.ID)
	rec := httptest.NewRecorder()

	handler.HandleForVideo(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	envelope := decodeEnvelope(t, rec)
	data, ok := envelope["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected a data object, got %v", envelope["data"])
	}

	id, _ := data["id"].(string)
	stored, err := comments.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("expected the comment to be stored: %v", err)
	}
	if stored.OwnerID != author.ID || stored.VideoID != video.ID {
		t.Fatalf("unexpected stored comment %+v", stored)
	}
}

func TestCommentHandlerAddRejectsEmptyContent(t *testing.T) {
	users := newInMemoryUserStore()
	author := seedUser(t, users, "user-1", "alice", "password123")
	videos := newInMemoryVideoStore()
	video := seedVideo(t, videos, uuid.NewString())
	handler := CommentHandler{Comments: newInMemoryCommentStore(), Videos: videos, Views: &fakeViewStore{}}

	body, err := json.Marshal(commentRequest{Content: "   "})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := asAuthenticated(httptest.NewRequest(http.MethodPost, "/api/v1/comments/"+video.ID, bytes.NewReader(body)), author)
	req.SetPathValue("videoId", video.ID)
	rec := httptest.NewRecorder()

	handler.HandleForVideo(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestCommentHandlerUpdateRejectsNonAuthor(t *testing.T) {
	users := newInMemoryUserStore()
	intruder := seedUser(t, users, "user-2", "mallory", "password123")
	comments := newInMemoryCommentStore()
	comment := seedComment(t, comments, uuid.NewString(), uuid.NewString())
	handler := CommentHandler{Comments: comments, Videos: newInMemoryVideoStore(), Views: &fakeViewStore{}}

	body, err := json.Marshal(commentRequest{Content: "rewritten"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := asAuthenticated(httptest.NewRequest(http.MethodPatch, "/api/v1/comments/c/"+comment.ID, bytes.NewReader(body)), intruder)
	req.SetPathValue("commentId", comment.ID)
	rec := httptest.NewRecorder()

	handler.HandleByID(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d got %d", http.StatusForbidden, rec.Code)
	}

	stored, err := comments.FindByID(context.Background(), comment.ID)
	if err != nil {
		t.Fatalf("load comment: %v", err)
	}
	if stored.Content != comment.Content {
		t.Fatalf("expected the content to be unchanged, got %q", stored.Content)
	}
}

func TestCommentHandlerUpdate(t *testing.T) {
	users := newInMemoryUserStore()
	author := seedUser(t, users, "user-1", "alice", "password123")
	comments := newInMemoryCommentStore()
	comment := seedComment(t, comments, uuid.NewString(), author.ID)
	handler := CommentHandler{Comments: comments, Videos: newInMemoryVideoStore(), Views: &fakeViewStore{}}

	body, err := json.Marshal(commentRequest{Content: "edited"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := asAuthenticated(httptest.NewRequest(http.MethodPatch, "/api/v1/comments/c/"+comment.ID, bytes.NewReader(body)), author)
	req.SetPathValue("commentId", comment.ID)
	rec := httptest.NewRecorder()

	handler.HandleByID(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stored, err := comments.FindByID(context.Background(), comment.ID)
	if err != nil {
		t.Fatalf("load comment: %v", err)
	}
	if stored.Content != "edited" {
		t.Fatalf("expected the edited content, got %q", stored.Content)
	}
}

func TestCommentHandlerDeleteRejectsNonAuthor(t *testing.T) {
	users := newInMemoryUserStore()
	intruder := seedUser(t, users, "user-2", "mallory", "password123")
	comments := newInMemoryCommentStore()
	comment := seedComment(t, comments, uuid.NewString(), uuid.NewString())
	handler := CommentHandler{Comments: comments, Videos: newInMemoryVideoStore(), Views: &fakeViewStore{}}

	req := asAuthenticated(httptest.NewRequest(http.MethodDelete, "/api/v1/comments/c/"+comment.ID, nil), intruder)
	req.SetPathValue("commentId", comment.ID)
	rec := httptest.NewRecorder()

	handler.HandleByID(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d got %d", http.StatusForbidden, rec.Code)
	}
	if _, err := comments.FindByID(context.Background(), comment.ID); err != nil {
		t.Fatalf("expected the comment to survive: %v", err)
	}
}

func TestCommentHandlerDelete(t *testing.T) {
	users := newInMemoryUserStore()
	author := seedUser(t, users, "user-1", "alice", "password123")
	comments := newInMemoryCommentStore()
	comment := seedComment(t, comments, uuid.NewString(), author.ID)
	handler := CommentHandler{Comments: comments, Videos: newInMemoryVideoStore(), Views: &fakeViewStore{}}

	req := asAuthenticated(httptest.NewRequest(http.MethodDelete, "/api/v1/comments/c/"+comment.ID, nil), author)
	req.SetPathValue("commentId", comment.ID)
	rec := httptest.NewRecorder()

	handler.HandleByID(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if _, err := comments.FindByID(context.Background(), comment.ID); err == nil {
		t.Fatal("expected the comment to be deleted")
	}
}

func TestCommentHandlerRejectsMalformedCommentID(t *testing.T) {
	users := newInMemoryUserStore()
	author := seedUser(t, users, "user-1", "alice", "password123")
	handler := CommentHandler{Comments: newInMemoryCommentStore(), Videos: newInMemoryVideoStore(), Views: &fakeViewStore{}}

	req := asAuthenticated(httptest.NewRequest(http.MethodDelete, "/api/v1/comments/c/not-a-uuid", nil), author)
	req.SetPathValue("commentId", "not-a-uuid")
	rec := httptest.NewRecorder()

	handler.HandleByID(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}
