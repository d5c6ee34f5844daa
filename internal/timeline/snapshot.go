package timeline

import (
	"context"

	"github.com/hitoshi/plaza/internal/linkpreview"
	"github.com/hitoshi/plaza/internal/model"
)

// DecoratedPost は表示用に装飾された投稿。
// 投稿者のプロフィール、いいね数、リンクプレビューが付与される。
type DecoratedPost struct {
	model.Post
	AuthorProfile *model.UserProfile   `json:"author_profile"`
	LikeCount     int                  `json:"like_count"`
	Preview       *linkpreview.Preview `json:"preview,omitempty"`
}

// State はViewの全状態のスナップショット。
type State struct {
	Loading      bool               `json:"loading"`
	Error        string             `json:"error"`
	User         *model.UserProfile `json:"user"`
	ShowRegister bool               `json:"show_register"`
	Posts        []DecoratedPost    `json:"posts"`
	Followers    []string           `json:"followers"`
	Following    []string           `json:"following"`
	Toasts       []model.Toast      `json:"toasts"`
}

// Snapshot は現在の状態を装飾付きで返す。
//
// 投稿者のプロフィールは投稿ごとに解決され、同じ投稿者は1回だけ取得される。
// 解決できない投稿者（取得失敗・未登録）にはプレースホルダーを補い、
// 描画の失敗には決してしない。いいね数の取得失敗は0件として扱う。
// リンクプレビューはキャッシュにあるものだけが付与される。
func (v *View) Snapshot(ctx context.Context) State {
	v.mu.Lock()
	state := State{
		Loading:      v.loading,
		Error:        v.errMsg,
		User:         v.user,
		ShowRegister: v.showRegister,
		Followers:    append([]string(nil), v.followers...),
		Following:    append([]string(nil), v.following...),
	}
	posts := append([]model.Post(nil), v.posts...)
	previews := make(map[string]*linkpreview.Preview, len(v.previews))
	for id, p := range v.previews {
		previews[id] = p
	}
	v.mu.Unlock()

	state.Toasts = v.toasts.Snapshot()

	// 投稿者プロフィールの解決（投稿者ごとに1回）
	authors := make(map[string]*model.UserProfile)
	state.Posts = make([]DecoratedPost, 0, len(posts))
	for _, p := range posts {
		author, ok := authors[p.Author]
		if !ok {
			author = v.resolveAuthor(ctx, p.Author)
			authors[p.Author] = author
		}

		likeCount := 0
		if likes, err := v.interactions.GetLikes(ctx, p.ID); err == nil {
			likeCount = len(likes)
		}

		state.Posts = append(state.Posts, DecoratedPost{
			Post:          p,
			AuthorProfile: author,
			LikeCount:     likeCount,
			Preview:       previews[p.ID],
		})
	}

	return state
}

// resolveAuthor は投稿者のプロフィールを取得する。
// 取得失敗・未登録の場合はプレースホルダーを返す（描画は失敗させない）。
func (v *View) resolveAuthor(ctx context.Context, authorID string) *model.UserProfile {
	profile, err := v.registry.GetUser(ctx, authorID)
	if err == nil && profile != nil {
		return profile
	}

	avatar := "https://robohash.org/" + authorID + ".png"
	return &model.UserProfile{
		ID:        authorID,
		Username:  "unknown",
		Name:      "unknown",
		AvatarURL: &avatar,
	}
}

// Likes は投稿にいいねしたユーザーのリストをその場で取得する（キャッシュなし）。
func (v *View) Likes(ctx context.Context, postID string) ([]string, error) {
	return v.interactions.GetLikes(ctx, postID)
}

// Comments は投稿のコメントリストをその場で取得する（キャッシュなし）。
func (v *View) Comments(ctx context.Context, postID string) ([]model.Comment, error) {
	return v.interactions.GetComments(ctx, postID)
}

// GetPost は投稿IDで単一の投稿を取得する。存在しない場合は(nil, nil)。
func (v *View) GetPost(ctx context.Context, id string) (*model.Post, error) {
	return v.postStore.GetPost(ctx, id)
}

// PreviewFetcher はリンクプレビュー取得のインターフェース。
// linkpreview.Fetcherを抽象化する。
type PreviewFetcher interface {
	FetchPreview(ctx context.Context, rawURL string) *linkpreview.Preview
}

// WarmPreviews は現在の投稿リストに含まれるURLのプレビューを
// 取得してキャッシュする。既にキャッシュ済みの投稿はスキップする。
// ワーカーの定期実行から呼ばれる。取得できた件数を返す。
func (v *View) WarmPreviews(ctx context.Context, fetcher PreviewFetcher) int {
	v.mu.Lock()
	posts := append([]model.Post(nil), v.posts...)
	v.mu.Unlock()

	fetched := 0
	for _, p := range posts {
		v.mu.Lock()
		_, cached := v.previews[p.ID]
		v.mu.Unlock()
		if cached {
			continue
		}

		rawURL := linkpreview.ExtractFirstURL(p.Content)
		if rawURL == "" {
			continue
		}

		preview := fetcher.FetchPreview(ctx, rawURL)
		if preview == nil {
			continue
		}

		v.mu.Lock()
		v.previews[p.ID] = preview
		v.mu.Unlock()
		fetched++
	}
	return fetched
}
