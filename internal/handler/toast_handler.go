package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ToastHandler はトースト通知のHTTPハンドラー。
type ToastHandler struct {
	views ViewProvider
}

// NewToastHandler はToastHandlerを生成する。
func NewToastHandler(views ViewProvider) *ToastHandler {
	return &ToastHandler{views: views}
}

// Dismiss はトーストを手動で消す。
// 存在しないIDや既に期限切れのIDを指定しても204を返す（冪等）。
// DELETE /api/toasts/{id}
func (h *ToastHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	view, ok := viewFromRequest(w, r, h.views)
	if !ok {
		return
	}

	toastID := chi.URLParam(r, "id")
	view.Toasts().Dismiss(toastID)

	w.WriteHeader(http.StatusNoContent)
}
