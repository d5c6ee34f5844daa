package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/plaza/internal/guard"
	"github.com/hitoshi/plaza/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DBが実装する。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	Metrics           middleware.HTTPMetricsRecorder
	MetricsHandler    http.Handler
	Logger            *slog.Logger

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// タイムライン
	Views ViewProvider
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics
//	→ (認証ルートのみ) Session → CSRF → RateLimit(General)
//
// 認証ルート（/auth/*）とページルートはセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	pageHandler := NewPageHandler(deps.AuthService, deps.Views)
	stateHandler := NewStateHandler(deps.Views)
	postHandler := NewPostHandler(deps.Views)
	profileHandler := NewProfileHandler(deps.Views)
	socialHandler := NewSocialHandler(deps.Views)
	toastHandler := NewToastHandler(deps.Views)

	// --- 認証不要のルート ---

	// ヘルスチェック
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// CSRFトークン取得
	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	// Prometheusスクレイプ用エンドポイント
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Post("/logout", logoutWithViewCleanup(authHandler, deps))
		r.Get("/me", authHandler.Me)
	})

	// ページルート（遷移ガード経由）
	r.Get("/", pageHandler.Serve(guard.EntryRoute))
	r.Get("/feed", pageHandler.Serve(guard.FeedRoute))
	r.Get("/profile", pageHandler.Serve("/profile"))

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// オーケストレーター状態
		r.Route("/api/state", func(r chi.Router) {
			r.Get("/", stateHandler.GetState)
			r.Post("/reload", stateHandler.ReloadState)
		})

		// 投稿
		r.Route("/api/posts", func(r chi.Router) {
			// POST /api/posts - 投稿作成（作成専用レート制限を追加）
			r.With(deps.RateLimiter.PostCreationMiddleware()).Post("/", postHandler.CreatePost)

			r.Post("/refresh", postHandler.RefreshFeed)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", postHandler.GetPost)
				r.Get("/likes", postHandler.GetLikes)
				r.Post("/like", postHandler.Like)
				r.Delete("/like", postHandler.Unlike)
				r.Get("/comments", postHandler.GetComments)
				r.Post("/comments", postHandler.AddComment)
			})
		})

		// プロフィール
		r.Route("/api/profile", func(r chi.Router) {
			r.Post("/", profileHandler.RegisterProfile)
			r.Put("/", profileHandler.UpdateProfile)
			r.Post("/demo", profileHandler.CreateDemoProfile)
		})

		// フォロー関係
		r.Route("/api/users/{id}", func(r chi.Router) {
			r.Post("/follow", socialHandler.Follow)
			r.Delete("/follow", socialHandler.Unfollow)
		})

		// トースト
		r.Delete("/api/toasts/{id}", toastHandler.Dismiss)
	})

	return r
}

// logoutWithViewCleanup はログアウト時にプリンシパルのビューを破棄するハンドラーを返す。
// ログアウト後の再ログインでは空の状態から読み込みサイクルをやり直す。
func logoutWithViewCleanup(authHandler *AuthHandler, deps *RouterDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
			if principal, err := deps.AuthService.GetPrincipal(r.Context(), cookie.Value); err == nil {
				deps.Views.Remove(principal)
			}
		}
		authHandler.Logout(w, r)
	}
}
