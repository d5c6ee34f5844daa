package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/plaza/internal/model"
	"github.com/hitoshi/plaza/internal/timeline"
)

// ProfileHandler はプロフィール管理のHTTPハンドラー。
type ProfileHandler struct {
	views ViewProvider
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(views ViewProvider) *ProfileHandler {
	return &ProfileHandler{views: views}
}

// profileRequest はプロフィール登録・更新リクエストのボディ。
type profileRequest struct {
	Username  string  `json:"username"`
	Name      string  `json:"name"`
	Bio       string  `json:"bio"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	CoverURL  *string `json:"cover_url,omitempty"`
}

func (req profileRequest) toInput() timeline.ProfileInput {
	return timeline.ProfileInput{
		Username:  req.Username,
		Name:      req.Name,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
		CoverURL:  req.CoverURL,
	}
}

// RegisterProfile はプロフィールを登録し、全状態を再同期する。
// POST /api/profile
func (h *ProfileHandler) RegisterProfile(w http.ResponseWriter, r *http.Request) {
	view, ok := viewFromRequest(w, r, h.views)
	if !ok {
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	if err := view.RegisterProfile(r.Context(), req.toInput()); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view.Snapshot(r.Context()))
}

// UpdateProfile はプロフィールを更新し、全状態を再同期する。
// ユーザー名は登録後不変のため、リクエストに含まれていても無視される。
// PUT /api/profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	view, ok := viewFromRequest(w, r, h.views)
	if !ok {
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	if err := view.UpdateProfile(r.Context(), req.toInput()); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view.Snapshot(r.Context()))
}

// CreateDemoProfile はワンクリックのデモプロフィールを作成する。
// デモ投稿のシードに失敗しても、プロフィール作成自体は成功として扱われる。
// POST /api/profile/demo
func (h *ProfileHandler) CreateDemoProfile(w http.ResponseWriter, r *http.Request) {
	view, ok := viewFromRequest(w, r, h.views)
	if !ok {
		return
	}

	if err := view.CreateDemoProfile(r.Context()); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view.Snapshot(r.Context()))
}
