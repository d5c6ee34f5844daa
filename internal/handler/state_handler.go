package handler

import (
	"net/http"

	"github.com/hitoshi/plaza/internal/middleware"
	"github.com/hitoshi/plaza/internal/model"
	"github.com/hitoshi/plaza/internal/timeline"
)

// ViewProvider はプリンシパルごとのタイムラインビューを提供するインターフェース。
// timeline.ViewRegistryが実装する。
type ViewProvider interface {
	View(principal string) *timeline.View
	Remove(principal string)
}

// StateHandler はオーケストレーター状態のHTTPハンドラー。
type StateHandler struct {
	views ViewProvider
}

// NewStateHandler はStateHandlerを生成する。
func NewStateHandler(views ViewProvider) *StateHandler {
	return &StateHandler{views: views}
}

// viewFromRequest はリクエストコンテキストのプリンシパルに対応するビューを返す。
// プリンシパルがない場合は401を書き込みfalseを返す。
func viewFromRequest(w http.ResponseWriter, r *http.Request, views ViewProvider) (*timeline.View, bool) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return nil, false
	}
	return views.View(principal), true
}

// GetState は現在の状態スナップショットを返す。
// GET /api/state
func (h *StateHandler) GetState(w http.ResponseWriter, r *http.Request) {
	view, ok := viewFromRequest(w, r, h.views)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, view.Snapshot(r.Context()))
}

// ReloadState は読み込みサイクルを実行し、更新後のスナップショットを返す。
// POST /api/state/reload
//
// 読み込みサイクルの失敗は状態のerrorフィールドとして返される。
// 途中まで書き込まれた状態はそのまま保持される。
func (h *StateHandler) ReloadState(w http.ResponseWriter, r *http.Request) {
	view, ok := viewFromRequest(w, r, h.views)
	if !ok {
		return
	}

	// エラーはスナップショットのerrorフィールドに反映済み
	_ = view.LoadAll(r.Context())

	writeJSON(w, http.StatusOK, view.Snapshot(r.Context()))
}
