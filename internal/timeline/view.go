// Package timeline はタイムライン表示状態のオーケストレーターを提供する。
// principalごとのビュー状態（投稿、プロフィール、フォロー関係、トースト）を保持し、
// リモートサービス群との同期を統括する。
//
// 状態は4つのフラグ（loading, error, user, showRegister）と
// データ（posts, followers, following）で構成される。変更操作は
// 楽観的なローカル更新を行わず、成功後に必ずサーバーから再取得する。
// バックエンドが唯一の正であり、このレイヤーに競合解決ロジックはない。
package timeline

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/plaza/internal/guard"
	"github.com/hitoshi/plaza/internal/linkpreview"
	"github.com/hitoshi/plaza/internal/model"
	"github.com/hitoshi/plaza/internal/toast"
)

// MetricsRecorder は読み込みサイクルと変更操作の計測のインターフェース。
// metrics.Collectorを抽象化する。nilの場合は計測しない。
type MetricsRecorder interface {
	RecordLoadCycle(success bool)
	RecordMutation(op string, success bool)
}

// ViewDeps はViewが依存するサービス群。
type ViewDeps struct {
	Registry     UserRegistry
	Posts        PostStore
	Graph        SocialGraph
	Interactions InteractionStore
	Sanitizer    Sanitizer
	URLValidator URLValidator
	Metrics      MetricsRecorder
	Logger       *slog.Logger
	ToastTTL     time.Duration
}

// View は1つのprincipalに紐づくタイムライン表示状態。
// 全メソッドはスレッドセーフ。状態の書き込みはミューテックスで直列化されるが、
// リモート呼び出しはロックの外で行われる。
//
// 同一principalに対して重なって実行されたLoadAllは打ち切られない。
// 両方が完走し、後に書き込んだ結果が残る（last-write-wins）。
// この挙動は意図的に保存している。呼び出しの直列化やキャンセルを
// 導入する場合は観測可能な挙動が変わることに注意。
type View struct {
	principal    string
	registry     UserRegistry
	postStore    PostStore
	graph        SocialGraph
	interactions InteractionStore
	sanitizer    Sanitizer
	urlValidator URLValidator
	metrics      MetricsRecorder
	logger       *slog.Logger
	toasts       *toast.Queue
	guard        *guard.Guard

	mu           sync.Mutex
	loading      bool
	errMsg       string
	user         *model.UserProfile
	showRegister bool
	posts        []model.Post
	followers    []string
	following    []string
	previews     map[string]*linkpreview.Preview
}

// NewView はprincipalに紐づくViewを生成する。
func NewView(principal string, deps ViewDeps) *View {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &View{
		principal:    principal,
		registry:     deps.Registry,
		postStore:    deps.Posts,
		graph:        deps.Graph,
		interactions: deps.Interactions,
		sanitizer:    deps.Sanitizer,
		urlValidator: deps.URLValidator,
		metrics:      deps.Metrics,
		logger:       logger,
		toasts:       toast.NewQueue(deps.ToastTTL),
		guard:        guard.NewGuard(),
		previews:     make(map[string]*linkpreview.Preview),
	}
}

// Principal はこのViewのprincipalを返す。
func (v *View) Principal() string {
	return v.principal
}

// ShowRegister はプロフィール登録が必要な状態かどうかを返す。
// ページ遷移ガードの判定に使う。
func (v *View) ShowRegister() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.showRegister
}

// Toasts はこのViewのトーストキューを返す。
func (v *View) Toasts() *toast.Queue {
	return v.toasts
}

// Guard はこのViewのページ遷移ガードを返す。
func (v *View) Guard() *guard.Guard {
	return v.guard
}

// Close はViewが保持するタイマーを停止する。ログアウト時に呼ぶ。
func (v *View) Close() {
	v.toasts.Stop()
}

// beginOp は操作の開始時にloadingを立て、前回のエラーをクリアする。
func (v *View) beginOp() {
	v.mu.Lock()
	v.loading = true
	v.errMsg = ""
	v.mu.Unlock()
}

// endOp は成功・失敗を問わずloadingを落とす。deferで呼ぶ。
func (v *View) endOp() {
	v.mu.Lock()
	v.loading = false
	v.mu.Unlock()
}

// setError はエラーメッセージを状態に書き込む。
func (v *View) setError(msg string) {
	v.mu.Lock()
	v.errMsg = msg
	v.mu.Unlock()
}

// fail は操作の失敗を記録し、エラーをそのまま返す。
// エラーメッセージは改変せず状態へ書き込み、ログに残す。
func (v *View) fail(op string, err error) error {
	v.setError(err.Error())
	v.logger.Error("タイムライン操作に失敗しました",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	return err
}

// setPosts は投稿リストをidで重複排除し、タイムスタンプ降順で状態に書き込む。
// 同一idが複数あった場合は後勝ち。
func (v *View) setPosts(posts []model.Post) {
	deduped := dedupePosts(posts)

	v.mu.Lock()
	v.posts = deduped
	v.mu.Unlock()
}

// dedupePosts は投稿をidで重複排除（後勝ち）し、タイムスタンプ降順に並べる。
func dedupePosts(posts []model.Post) []model.Post {
	byID := make(map[string]model.Post, len(posts))
	order := make([]string, 0, len(posts))
	for _, p := range posts {
		if _, seen := byID[p.ID]; !seen {
			order = append(order, p.ID)
		}
		byID[p.ID] = p
	}

	result := make([]model.Post, 0, len(byID))
	for _, id := range order {
		result = append(result, byID[id])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp > result[j].Timestamp
	})
	return result
}

// LoadAll は全ビュー状態をリモートサービス群から再取得する正規の同期ルーチン。
//
// 手順:
//  1. デモユーザーの投入（冪等、毎回呼んで安全）
//  2. 全投稿の取得。空ならデモ投稿を1回だけ投入して再取得
//  3. principalのプロフィール取得。未登録なら自動登録して再取得
//  4. それでも未登録なら登録要求状態へ（showRegister=true, user=nil, error設定）
//  5. フォロワーとフォロー中を並行取得し、両方の完了を待つ
//
// 各ステップの結果は得られ次第、順次状態へ書き込まれる。途中のステップが
// 失敗した場合、それまでの書き込みは残したまま以降のステップを中断する。
// loadingは成功・失敗にかかわらず最後に必ずクリアされる。
func (v *View) LoadAll(ctx context.Context) error {
	v.beginOp()
	defer v.endOp()

	err := v.loadAll(ctx)
	if v.metrics != nil {
		v.metrics.RecordLoadCycle(err == nil)
	}
	return err
}

func (v *View) loadAll(ctx context.Context) error {
	// 1. デモユーザーの投入
	if err := v.registry.SeedDemoUsers(ctx); err != nil {
		return v.fail("seed_demo_users", err)
	}

	// 2. 投稿の取得。空の場合のみデモ投稿を投入して再取得する。
	// 投入は1回の呼び出しにつき1度だけ（投入後も空なら空のまま受け入れる）。
	posts, err := v.postStore.ListPosts(ctx)
	if err != nil {
		return v.fail("fetch_posts", err)
	}
	if len(posts) == 0 {
		if err := v.postStore.SeedDemoPosts(ctx); err != nil {
			return v.fail("seed_demo_posts", err)
		}
		posts, err = v.postStore.ListPosts(ctx)
		if err != nil {
			return v.fail("fetch_posts", err)
		}
	}
	v.setPosts(posts)

	// 3. プロフィール取得と自動登録
	user, err := v.registry.GetUser(ctx, v.principal)
	if err != nil {
		return v.fail("get_user", err)
	}
	if user == nil && v.principal != "" {
		if err := v.autoRegister(ctx); err != nil {
			return v.fail("auto_register", err)
		}
		user, err = v.registry.GetUser(ctx, v.principal)
		if err != nil {
			return v.fail("get_user", err)
		}
	}

	// 4. 登録要求状態の更新。未登録でもここでは中断せず、
	// フォロー関係の取得までは進める。
	v.mu.Lock()
	if user == nil {
		v.user = nil
		v.showRegister = true
		v.errMsg = model.NewProfileRequiredError().Message
	} else {
		v.user = user
		v.showRegister = false
	}
	v.mu.Unlock()

	// 5. フォロワーとフォロー中の並行取得。両方の完了を待ち、
	// どちらかが失敗したら最初のエラーで中断する。
	var (
		wg         sync.WaitGroup
		followers  []string
		following  []string
		fErr, gErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		followers, fErr = v.graph.GetFollowers(ctx, v.principal)
	}()
	go func() {
		defer wg.Done()
		following, gErr = v.graph.GetFollowing(ctx, v.principal)
	}()
	wg.Wait()

	if fErr != nil {
		return v.fail("get_followers", fErr)
	}
	if gErr != nil {
		return v.fail("get_following", gErr)
	}

	v.mu.Lock()
	v.followers = followers
	v.following = following
	v.mu.Unlock()

	return nil
}

// autoRegister はprincipalから合成したプロフィールを登録する。
// ユーザー名はprincipalの先頭8文字に"..."を付けたもの、自己紹介は空、
// アバターはprincipalから決定的に生成されるrobohash URL。
func (v *View) autoRegister(ctx context.Context) error {
	username := v.principal
	if len(username) > 8 {
		username = username[:8]
	}
	username += "..."

	avatar := "https://robohash.org/" + v.principal + ".png"
	_, err := v.registry.CreateUser(ctx, &model.UserProfile{
		ID:        v.principal,
		Username:  username,
		Name:      username,
		Bio:       "",
		AvatarURL: &avatar,
	})
	return err
}

// RefreshFeed は投稿リストだけを再取得する軽量な同期ルーチン。
// プロフィールやフォロー関係には触れない。
func (v *View) RefreshFeed(ctx context.Context) error {
	v.beginOp()
	defer v.endOp()

	posts, err := v.postStore.ListPosts(ctx)
	if err != nil {
		return v.fail("refresh_feed", err)
	}
	v.setPosts(posts)
	return nil
}
