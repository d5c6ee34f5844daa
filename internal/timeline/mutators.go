package timeline

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/hitoshi/plaza/internal/model"
)

// トーストメッセージ。
const (
	toastPostCreated        = "Post created!"
	toastPostLiked          = "You liked a post!"
	toastCommentAdded       = "Comment added!"
	toastDemoProfileCreated = "Demo profile created!"
	toastDemoSeedFailed     = "Failed to seed demo posts."
	toastDemoProfileFailed  = "Failed to create demo profile."
)

// Post は新しい投稿を作成する。
//
// 本文はトリム後に検証され、空または281文字以上の場合はリモートを
// 一切呼ばずにバリデーションエラーを返す（loadingにも触れない）。
// プロフィール未登録のprincipalにはLoadAllと同じ自動登録を試み、
// それでもプロフィールが得られない場合は登録を促すエラーで拒否する。
// 成功時は投稿リストを再取得してからトーストを積む。
func (v *View) Post(ctx context.Context, content string) (*model.Post, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		err := model.NewEmptyPostError()
		v.setError(err.Message)
		return nil, err
	}
	if len([]rune(trimmed)) > model.PostContentMaxLength {
		err := model.NewContentTooLongError(len([]rune(trimmed)))
		v.setError(err.Message)
		return nil, err
	}

	v.beginOp()
	defer v.endOp()

	user, err := v.ensureProfile(ctx)
	if err != nil {
		v.recordMutation("post", false)
		return nil, v.fail("post", err)
	}
	if user == nil {
		err := model.NewProfileRequiredError()
		v.setError(err.Message)
		v.recordMutation("post", false)
		return nil, err
	}

	sanitized := v.sanitize(trimmed)
	if sanitized == "" {
		err := model.NewEmptyPostError()
		v.setError(err.Message)
		v.recordMutation("post", false)
		return nil, err
	}

	author := user.ID
	if author == "" {
		author = v.principal
	}

	post, err := v.postStore.CreatePost(ctx, author, sanitized)
	if err != nil {
		v.recordMutation("post", false)
		return nil, v.fail("post", err)
	}

	if err := v.RefreshFeed(ctx); err != nil {
		v.recordMutation("post", false)
		return nil, err
	}

	v.toasts.Push(toastPostCreated, model.ToastSuccess, "✅")
	v.recordMutation("post", true)
	return post, nil
}

// Like は投稿にいいねを付与し、全状態を再同期してトーストを積む。
func (v *View) Like(ctx context.Context, postID string) error {
	v.beginOp()
	defer v.endOp()

	if err := v.interactions.Like(ctx, v.principal, postID); err != nil {
		v.recordMutation("like", false)
		return v.fail("like", err)
	}
	if err := v.LoadAll(ctx); err != nil {
		v.recordMutation("like", false)
		return err
	}

	v.toasts.Push(toastPostLiked, model.ToastLike, "❤️")
	v.recordMutation("like", true)
	return nil
}

// Unlike は投稿のいいねを取り消し、全状態を再同期する。トーストは積まない。
func (v *View) Unlike(ctx context.Context, postID string) error {
	v.beginOp()
	defer v.endOp()

	if err := v.interactions.Unlike(ctx, v.principal, postID); err != nil {
		v.recordMutation("unlike", false)
		return v.fail("unlike", err)
	}
	if err := v.LoadAll(ctx); err != nil {
		v.recordMutation("unlike", false)
		return err
	}

	v.recordMutation("unlike", true)
	return nil
}

// Comment は投稿にコメントを追加し、全状態を再同期してトーストを積む。
// 空のコメントはリモートを呼ばずに拒否する。
func (v *View) Comment(ctx context.Context, postID, content string) (*model.Comment, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		err := model.NewEmptyPostError()
		v.setError(err.Message)
		return nil, err
	}

	v.beginOp()
	defer v.endOp()

	sanitized := v.sanitize(trimmed)
	if sanitized == "" {
		err := model.NewEmptyPostError()
		v.setError(err.Message)
		v.recordMutation("comment", false)
		return nil, err
	}

	comment, err := v.interactions.AddComment(ctx, v.principal, postID, sanitized)
	if err != nil {
		v.recordMutation("comment", false)
		return nil, v.fail("comment", err)
	}
	if err := v.LoadAll(ctx); err != nil {
		v.recordMutation("comment", false)
		return nil, err
	}

	v.toasts.Push(toastCommentAdded, model.ToastComment, "💬")
	v.recordMutation("comment", true)
	return comment, nil
}

// FollowUser は対象ユーザーをフォローし、全状態を再同期する。
func (v *View) FollowUser(ctx context.Context, targetID string) error {
	v.beginOp()
	defer v.endOp()

	if err := v.graph.Follow(ctx, v.principal, targetID); err != nil {
		v.recordMutation("follow", false)
		return v.fail("follow", err)
	}
	if err := v.LoadAll(ctx); err != nil {
		v.recordMutation("follow", false)
		return err
	}

	v.recordMutation("follow", true)
	return nil
}

// UnfollowUser は対象ユーザーのフォローを解除し、全状態を再同期する。
func (v *View) UnfollowUser(ctx context.Context, targetID string) error {
	v.beginOp()
	defer v.endOp()

	if err := v.graph.Unfollow(ctx, v.principal, targetID); err != nil {
		v.recordMutation("unfollow", false)
		return v.fail("unfollow", err)
	}
	if err := v.LoadAll(ctx); err != nil {
		v.recordMutation("unfollow", false)
		return err
	}

	v.recordMutation("unfollow", true)
	return nil
}

// ProfileInput はプロフィール登録・更新の入力。
type ProfileInput struct {
	Username  string
	Name      string
	Bio       string
	AvatarURL *string
	CoverURL  *string
}

// RegisterProfile はプロフィールを明示的に登録し、全状態を再同期する。
// 画像URLはリモートを呼ぶ前に検証される。
func (v *View) RegisterProfile(ctx context.Context, input ProfileInput) error {
	if err := v.validateImageURLs(input); err != nil {
		v.setError(err.Error())
		return err
	}

	v.beginOp()
	defer v.endOp()

	profile := &model.UserProfile{
		ID:        v.principal,
		Username:  v.sanitize(input.Username),
		Name:      v.sanitize(input.Name),
		Bio:       v.sanitize(input.Bio),
		AvatarURL: input.AvatarURL,
		CoverURL:  input.CoverURL,
	}

	if _, err := v.registry.CreateUser(ctx, profile); err != nil {
		v.recordMutation("register_profile", false)
		return v.fail("register_profile", err)
	}

	v.mu.Lock()
	v.showRegister = false
	v.mu.Unlock()

	if err := v.LoadAll(ctx); err != nil {
		v.recordMutation("register_profile", false)
		return err
	}

	v.recordMutation("register_profile", true)
	return nil
}

// UpdateProfile は表示名・自己紹介・画像URLを更新し、全状態を再同期する。
// ユーザー名は登録後変更できないため、入力のUsernameは無視される。
func (v *View) UpdateProfile(ctx context.Context, input ProfileInput) error {
	if err := v.validateImageURLs(input); err != nil {
		v.setError(err.Error())
		return err
	}

	v.beginOp()
	defer v.endOp()

	update := &model.UserProfile{
		Name:      v.sanitize(input.Name),
		Bio:       v.sanitize(input.Bio),
		AvatarURL: input.AvatarURL,
		CoverURL:  input.CoverURL,
	}

	if _, err := v.registry.UpdateUser(ctx, v.principal, update); err != nil {
		v.recordMutation("update_profile", false)
		return v.fail("update_profile", err)
	}
	if err := v.LoadAll(ctx); err != nil {
		v.recordMutation("update_profile", false)
		return err
	}

	v.recordMutation("update_profile", true)
	return nil
}

// demoNames はデモプロフィールの候補データ。
var demoNames = []struct {
	name   string
	bio    string
	avatar string
}{
	{"Demo Alice", "Exploring the decentralized world!", "https://robohash.org/alice.png"},
	{"Demo Bob", "Web3 enthusiast. #DeFi", "https://robohash.org/bob.png"},
	{"Demo Charlie", "Just here for the memes.", "https://robohash.org/charlie.png"},
	{"Demo Eve", "Building the future on-chain.", "https://robohash.org/eve.png"},
	{"Demo Satoshi", "Privacy is power.", "https://robohash.org/satoshi.png"},
}

// CreateDemoProfile はランダムなデモプロフィールを登録し、デモ投稿を投入して
// 全状態を再同期する。デモ投稿の投入失敗は致命的ではなく、エラートーストを
// 積んだうえで処理を続行する（ここが唯一、失敗でトーストを出す操作）。
func (v *View) CreateDemoProfile(ctx context.Context) error {
	v.beginOp()
	defer v.endOp()

	idx := rand.Intn(len(demoNames))
	demo := demoNames[idx]
	avatar := demo.avatar

	profile := &model.UserProfile{
		ID:        v.principal,
		Username:  fmt.Sprintf("demo%d%04d", idx, rand.Intn(10000)),
		Name:      demo.name,
		Bio:       demo.bio,
		AvatarURL: &avatar,
	}

	if _, err := v.registry.CreateUser(ctx, profile); err != nil {
		v.setError(toastDemoProfileFailed)
		v.toasts.Push(toastDemoProfileFailed, model.ToastError, "❌")
		v.recordMutation("create_demo_profile", false)
		return err
	}

	if err := v.postStore.SeedDemoPosts(ctx); err != nil {
		v.setError(toastDemoSeedFailed)
		v.toasts.Push(toastDemoSeedFailed, model.ToastError, "❌")
		v.logger.Error("デモ投稿の投入に失敗しました", "error", err.Error())
	}

	if err := v.LoadAll(ctx); err != nil {
		v.recordMutation("create_demo_profile", false)
		return err
	}

	v.mu.Lock()
	v.showRegister = false
	v.mu.Unlock()

	v.toasts.Push(toastDemoProfileCreated, model.ToastSuccess, "✅")
	v.recordMutation("create_demo_profile", true)
	return nil
}

// ensureProfile はプロフィールを取得し、未登録なら自動登録を試みて再取得する。
// 自動登録後も未登録の場合は(nil, nil)を返す。
func (v *View) ensureProfile(ctx context.Context) (*model.UserProfile, error) {
	user, err := v.registry.GetUser(ctx, v.principal)
	if err != nil {
		return nil, err
	}
	if user == nil && v.principal != "" {
		if err := v.autoRegister(ctx); err != nil {
			return nil, err
		}
		user, err = v.registry.GetUser(ctx, v.principal)
		if err != nil {
			return nil, err
		}
	}
	return user, nil
}

// validateImageURLs はアバターURLとカバーURLの事前検証を行う。
func (v *View) validateImageURLs(input ProfileInput) error {
	if v.urlValidator == nil {
		return nil
	}
	for _, u := range []*string{input.AvatarURL, input.CoverURL} {
		if u == nil || *u == "" {
			continue
		}
		if err := v.urlValidator.ValidateURL(*u); err != nil {
			return model.NewInvalidURLError(err.Error())
		}
	}
	return nil
}

// sanitize はサニタイザー経由でテキストを整形する。未注入の場合は素通し。
func (v *View) sanitize(raw string) string {
	if v.sanitizer == nil {
		return raw
	}
	return v.sanitizer.SanitizeText(raw)
}

// recordMutation は変更操作の結果を計測する。
func (v *View) recordMutation(op string, success bool) {
	if v.metrics != nil {
		v.metrics.RecordMutation(op, success)
	}
}
