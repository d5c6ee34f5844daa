package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/plaza/internal/middleware"
	"github.com/hitoshi/plaza/internal/model"
	"github.com/hitoshi/plaza/internal/timeline"
)

// --- ルーターテスト用のスタブ群 ---

// stubSessionFinder はSessionFinderのテスト用スタブ。
// "valid-session" をtestRouterPrincipalに解決する。
type stubSessionFinder struct{}

const testRouterPrincipal = "principal-router-abcdef"

func (s *stubSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if id == "valid-session" {
		return &model.Session{
			ID:        id,
			Principal: testRouterPrincipal,
			ExpiresAt: time.Now().Add(1 * time.Hour),
		}, nil
	}
	return nil, nil
}

var _ middleware.SessionFinder = (*stubSessionFinder)(nil)

// stubUserRegistry は全principalを登録済みとして扱う。
type stubUserRegistry struct{}

func (s *stubUserRegistry) CreateUser(ctx context.Context, profile *model.UserProfile) (*model.UserProfile, error) {
	return profile, nil
}

func (s *stubUserRegistry) UpdateUser(ctx context.Context, id string, update *model.UserProfile) (*model.UserProfile, error) {
	return update, nil
}

func (s *stubUserRegistry) GetUser(ctx context.Context, id string) (*model.UserProfile, error) {
	return &model.UserProfile{ID: id, Username: "router-user", Name: "Router User"}, nil
}

func (s *stubUserRegistry) SeedDemoUsers(ctx context.Context) error { return nil }

// stubPostStore はインメモリの投稿ストア。
type stubPostStore struct {
	mu    sync.Mutex
	posts []model.Post
}

func (s *stubPostStore) CreatePost(ctx context.Context, author, content string) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post := model.Post{
		ID:        fmt.Sprintf("post-%d", len(s.posts)+1),
		Author:    author,
		Content:   content,
		Timestamp: time.Now().UnixNano(),
	}
	s.posts = append(s.posts, post)
	return &post, nil
}

func (s *stubPostStore) ListPosts(ctx context.Context) ([]model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Post(nil), s.posts...), nil
}

func (s *stubPostStore) GetPost(ctx context.Context, id string) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID == id {
			post := p
			return &post, nil
		}
	}
	return nil, nil
}

func (s *stubPostStore) SeedDemoPosts(ctx context.Context) error { return nil }

// stubSocialGraph は固定のフォロー関係を返す。
type stubSocialGraph struct{}

func (s *stubSocialGraph) Follow(ctx context.Context, follower, followee string) error   { return nil }
func (s *stubSocialGraph) Unfollow(ctx context.Context, follower, followee string) error { return nil }
func (s *stubSocialGraph) GetFollowers(ctx context.Context, id string) ([]string, error) {
	return []string{"follower-1"}, nil
}
func (s *stubSocialGraph) GetFollowing(ctx context.Context, id string) ([]string, error) {
	return []string{"following-1"}, nil
}

// stubInteractionStore は空のいいね・コメントを返す。
type stubInteractionStore struct{}

func (s *stubInteractionStore) Like(ctx context.Context, user, postID string) error   { return nil }
func (s *stubInteractionStore) Unlike(ctx context.Context, user, postID string) error { return nil }
func (s *stubInteractionStore) GetLikes(ctx context.Context, postID string) ([]string, error) {
	return nil, nil
}
func (s *stubInteractionStore) AddComment(ctx context.Context, user, postID, content string) (*model.Comment, error) {
	return &model.Comment{ID: "comment-1", PostID: postID, Author: user, Content: content}, nil
}
func (s *stubInteractionStore) GetComments(ctx context.Context, postID string) ([]model.Comment, error) {
	return nil, nil
}

// newTestRouter はスタブで構成したルーターとビューレジストリを返す。
func newTestRouter(t *testing.T) (http.Handler, *timeline.ViewRegistry) {
	t.Helper()

	// テスト終了までに投稿が残るよう長いTTLを使う
	views := timeline.NewViewRegistry(timeline.ViewDeps{
		Registry:     &stubUserRegistry{},
		Posts:        &stubPostStore{posts: []model.Post{{ID: "post-seed", Author: "author-1", Content: "hello", Timestamp: 1}}},
		Graph:        &stubSocialGraph{},
		Interactions: &stubInteractionStore{},
		ToastTTL:     1 * time.Minute,
	})

	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rateLimiter.Stop)

	authService := &mockAuthService{
		getPrincipalFn: func(ctx context.Context, sessionID string) (string, error) {
			if sessionID == "valid-session" {
				return testRouterPrincipal, nil
			}
			return "", fmt.Errorf("session not found")
		},
	}

	router := NewRouter(&RouterDeps{
		SessionFinder:     &stubSessionFinder{},
		CORSAllowedOrigin: "http://localhost:3000",
		CSRFConfig:        middleware.CSRFConfig{CookieSecure: false},
		RateLimiter:       rateLimiter,
		AuthService:       authService,
		AuthConfig: AuthHandlerConfig{
			BaseURL:       "http://localhost:3000",
			SessionMaxAge: 86400,
		},
		Views: views,
	})

	return router, views
}

// authedRequest はセッションとCSRFトークンを付与したリクエストを生成する。
func authedRequest(method, target string, body *strings.Reader) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "test-csrf"})
	req.Header.Set("X-CSRF-Token", "test-csrf")
	return req
}

func TestRouter_Health_ReturnsOK(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestRouter_GetState_RequiresSession(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestRouter_GetState_ReturnsSnapshot(t *testing.T) {
	router, _ := newTestRouter(t)

	req := authedRequest(http.MethodGet, "/api/state", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var state timeline.State
	if err := json.NewDecoder(w.Result().Body).Decode(&state); err != nil {
		t.Fatalf("failed to decode state: %v", err)
	}
	// 読み込み前なので投稿は空、エラーもない
	if state.Error != "" {
		t.Errorf("error = %q, want empty", state.Error)
	}
}

func TestRouter_ReloadState_PopulatesPosts(t *testing.T) {
	router, _ := newTestRouter(t)

	req := authedRequest(http.MethodPost, "/api/state/reload", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var state timeline.State
	if err := json.NewDecoder(w.Result().Body).Decode(&state); err != nil {
		t.Fatalf("failed to decode state: %v", err)
	}
	if len(state.Posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(state.Posts))
	}
	if state.Posts[0].ID != "post-seed" {
		t.Errorf("post ID = %q, want %q", state.Posts[0].ID, "post-seed")
	}
	if state.User == nil {
		t.Error("user should be loaded after reload")
	}
}

func TestRouter_CreatePost_RequiresCSRFToken(t *testing.T) {
	router, _ := newTestRouter(t)

	// CSRFトークンなしのPOSTは403
	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"content":"no csrf"}`))
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

func TestRouter_CreatePost_CreatesAndResyncs(t *testing.T) {
	router, views := newTestRouter(t)

	req := authedRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"content":"first post"}`))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Result().StatusCode, http.StatusCreated, w.Body.String())
	}

	var post model.Post
	if err := json.NewDecoder(w.Result().Body).Decode(&post); err != nil {
		t.Fatalf("failed to decode post: %v", err)
	}
	if post.Content != "first post" {
		t.Errorf("content = %q, want %q", post.Content, "first post")
	}

	// 成功トーストがビューに積まれていること
	view := views.View(testRouterPrincipal)
	toasts := view.Toasts().Snapshot()
	if len(toasts) != 1 || toasts[0].Message != "Post created!" {
		t.Errorf("toasts = %+v, want one 'Post created!'", toasts)
	}
}

func TestRouter_CreatePost_EmptyContent_Returns400(t *testing.T) {
	router, _ := newTestRouter(t)

	req := authedRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"content":"   "}`))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}

	var errResp apiErrorResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	if errResp.Code != model.ErrCodeEmptyPost {
		t.Errorf("code = %q, want %q", errResp.Code, model.ErrCodeEmptyPost)
	}
}

func TestRouter_GetPost_NotFound_Returns404(t *testing.T) {
	router, _ := newTestRouter(t)

	req := authedRequest(http.MethodGet, "/api/posts/no-such-post", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

func TestRouter_DismissToast_Returns204(t *testing.T) {
	router, views := newTestRouter(t)

	view := views.View(testRouterPrincipal)
	toast := view.Toasts().Push("test toast", model.ToastSuccess, "✅")

	req := authedRequest(http.MethodDelete, "/api/toasts/"+toast.ID, nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if view.Toasts().Len() != 0 {
		t.Errorf("toast count = %d, want 0", view.Toasts().Len())
	}
}

func TestRouter_PageRoutes_GuardRedirects(t *testing.T) {
	router, _ := newTestRouter(t)

	// 未認証で/feedへアクセスするとエントリーページへ
	t.Run("unauthenticated_feed_redirects_to_entry", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/feed", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusFound {
			t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusFound)
		}
		if loc := w.Result().Header.Get("Location"); loc != "/" {
			t.Errorf("Location = %q, want %q", loc, "/")
		}
	})

	// ログイン済みでエントリーページに来ると1回だけフィードへ
	t.Run("authenticated_entry_redirects_to_feed_once", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusFound {
			t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusFound)
		}
		if loc := w.Result().Header.Get("Location"); loc != "/feed" {
			t.Errorf("Location = %q, want %q", loc, "/feed")
		}

		// 2回目はリダイレクトされない
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
		w = httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("second visit status = %d, want %d", w.Result().StatusCode, http.StatusOK)
		}
	})
}

// ログアウトするとビューが破棄され、状態が初期化される。
func TestRouter_Logout_DiscardsView(t *testing.T) {
	router, views := newTestRouter(t)

	// ビューに状態を作る
	view := views.View(testRouterPrincipal)
	view.Toasts().Push("before logout", model.ToastSuccess, "✅")

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusTemporaryRedirect)
	}

	// 再取得したビューは空
	fresh := views.View(testRouterPrincipal)
	if fresh.Toasts().Len() != 0 {
		t.Errorf("toast count after logout = %d, want 0", fresh.Toasts().Len())
	}
}
