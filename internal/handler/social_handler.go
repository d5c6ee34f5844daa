package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SocialHandler はフォロー関係のHTTPハンドラー。
type SocialHandler struct {
	views ViewProvider
}

// NewSocialHandler はSocialHandlerを生成する。
func NewSocialHandler(views ViewProvider) *SocialHandler {
	return &SocialHandler{views: views}
}

// Follow は指定ユーザーをフォローし、全状態を再同期する。
// POST /api/users/{id}/follow
func (h *SocialHandler) Follow(w http.ResponseWriter, r *http.Request) {
	view, ok := viewFromRequest(w, r, h.views)
	if !ok {
		return
	}

	targetID := chi.URLParam(r, "id")

	if err := view.FollowUser(r.Context(), targetID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view.Snapshot(r.Context()))
}

// Unfollow は指定ユーザーのフォローを解除し、全状態を再同期する。
// DELETE /api/users/{id}/follow
func (h *SocialHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	view, ok := viewFromRequest(w, r, h.views)
	if !ok {
		return
	}

	targetID := chi.URLParam(r, "id")

	if err := view.UnfollowUser(r.Context(), targetID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view.Snapshot(r.Context()))
}
