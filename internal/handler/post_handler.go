package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/plaza/internal/model"
)

// PostHandler は投稿・いいね・コメントのHTTPハンドラー。
type PostHandler struct {
	views ViewProvider
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(views ViewProvider) *PostHandler {
	return &PostHandler{views: views}
}

// createPostRequest は投稿作成リクエストのボディ。
type createPostRequest struct {
	Content string `json:"content"`
}

// addCommentRequest はコメント追加リクエストのボディ。
type addCommentRequest struct {
	Content string `json:"content"`
}

// CreatePost は新規投稿を作成し、フィードを再同期する。
// POST /api/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	view, ok := viewFromRequest(w, r, h.views)
	if !ok {
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	post, err := view.Post(r.Context(), req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

// RefreshFeed はフィードのみを再取得する。
// POST /api/posts/refresh
func (h *PostHandler) RefreshFeed(w http.ResponseWriter, r *http.Request) {
	view, ok := viewFromRequest(w, r, h.views)
	if !ok {
		return
	}

	if err := view.RefreshFeed(r.Context()); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view.Snapshot(r.Context()))
}

// GetPost は単一投稿を取得する。
// GET /api/posts/{id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	view, ok := viewFromRequest(w, r, h.views)
	if !ok {
		return
	}

	postID := chi.URLParam(r, "id")

	post, err := view.GetPost(r.Context(), postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if post == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewPostNotFoundError(postID))
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// Like は投稿にいいねを付け、全状態を再同期する。
// POST /api/posts/{id}/like
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	view, ok := viewFromRequest(w, r, h.views)
	if !ok {
		return
	}

	postID := chi.URLParam(r, "id")

	if err := view.Like(r.Context(), postID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view.Snapshot(r.Context()))
}

// Unlike は投稿のいいねを取り消し、全状態を再同期する。
// DELETE /api/posts/{id}/like
func (h *PostHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	view, ok := viewFromRequest(w, r, h.views)
	if !ok {
		return
	}

	postID := chi.URLParam(r, "id")

	if err := view.Unlike(r.Context(), postID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view.Snapshot(r.Context()))
}

// GetLikes は投稿のいいね一覧を返す。
// GET /api/posts/{id}/likes
func (h *PostHandler) GetLikes(w http.ResponseWriter, r *http.Request) {
	view, ok := viewFromRequest(w, r, h.views)
	if !ok {
		return
	}

	postID := chi.URLParam(r, "id")

	likes, err := view.Likes(r.Context(), postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if likes == nil {
		likes = []string{}
	}

	writeJSON(w, http.StatusOK, likes)
}

// AddComment は投稿にコメントを追加し、全状態を再同期する。
// POST /api/posts/{id}/comments
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	view, ok := viewFromRequest(w, r, h.views)
	if !ok {
		return
	}

	postID := chi.URLParam(r, "id")

	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	comment, err := view.Comment(r.Context(), postID, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

// GetComments は投稿のコメント一覧を返す。
// GET /api/posts/{id}/comments
func (h *PostHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	view, ok := viewFromRequest(w, r, h.views)
	if !ok {
		return
	}

	postID := chi.URLParam(r, "id")

	comments, err := view.Comments(r.Context(), postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if comments == nil {
		comments = []model.Comment{}
	}

	writeJSON(w, http.StatusOK, comments)
}
