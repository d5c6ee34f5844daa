package handler

import (
	"net/http"

	"github.com/hitoshi/plaza/internal/guard"
)

// PageHandler はSPAのページルートに対する遷移ガードを適用するハンドラー。
//
// 未認証のアクセスはエントリーページへ、ログイン直後のセッションは
// 1回だけフィードへリダイレクトする。ガードの状態はビュー単位で保持される。
type PageHandler struct {
	auth  AuthServiceInterface
	views ViewProvider
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(auth AuthServiceInterface, views ViewProvider) *PageHandler {
	return &PageHandler{
		auth:  auth,
		views: views,
	}
}

// Serve は指定パスのページリクエストを処理する。
// ガードの判定がリダイレクトなら302を返し、許可ならページ情報を返す。
func (h *PageHandler) Serve(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := h.resolvePrincipal(r)

		var decision guard.Decision
		if principal == "" {
			// 未認証はビューを持たないため、状態を持たない判定となる
			decision = guard.NewGuard().Decide(path, guard.State{HasPrincipal: false})
		} else {
			view := h.views.View(principal)
			decision = view.Guard().Decide(path, guard.State{
				HasPrincipal: true,
				ShowRegister: view.ShowRegister(),
			})
		}

		if decision.Action == guard.ActionRedirect {
			http.Redirect(w, r, decision.Target, http.StatusFound)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"route":         path,
			"authenticated": principal != "",
		})
	}
}

// resolvePrincipal はセッションCookieからプリンシパルを解決する。
// 未認証・期限切れは空文字を返す。
func (h *PageHandler) resolvePrincipal(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}

	principal, err := h.auth.GetPrincipal(r.Context(), cookie.Value)
	if err != nil {
		return ""
	}
	return principal
}
