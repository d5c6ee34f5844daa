package timeline

import (
	"context"

	"github.com/hitoshi/plaza/internal/model"
)

// UserRegistry はユーザーレジストリサービスのインターフェース。
// remote.RegistryClientを抽象化してテスタビリティを向上させる。
type UserRegistry interface {
	CreateUser(ctx context.Context, profile *model.UserProfile) (*model.UserProfile, error)
	UpdateUser(ctx context.Context, id string, update *model.UserProfile) (*model.UserProfile, error)
	// GetUser は未登録のprincipalに対して(nil, nil)を返す。
	GetUser(ctx context.Context, id string) (*model.UserProfile, error)
	SeedDemoUsers(ctx context.Context) error
}

// PostStore は投稿ストアサービスのインターフェース。
type PostStore interface {
	CreatePost(ctx context.Context, author, content string) (*model.Post, error)
	ListPosts(ctx context.Context) ([]model.Post, error)
	GetPost(ctx context.Context, id string) (*model.Post, error)
	SeedDemoPosts(ctx context.Context) error
}

// SocialGraph はソーシャルグラフサービスのインターフェース。
type SocialGraph interface {
	Follow(ctx context.Context, follower, followee string) error
	Unfollow(ctx context.Context, follower, followee string) error
	GetFollowers(ctx context.Context, id string) ([]string, error)
	GetFollowing(ctx context.Context, id string) ([]string, error)
}

// InteractionStore はインタラクションストアサービスのインターフェース。
type InteractionStore interface {
	Like(ctx context.Context, user, postID string) error
	Unlike(ctx context.Context, user, postID string) error
	GetLikes(ctx context.Context, postID string) ([]string, error)
	AddComment(ctx context.Context, user, postID, content string) (*model.Comment, error)
	GetComments(ctx context.Context, postID string) ([]model.Comment, error)
}

// Sanitizer はユーザー生成テキストのサニタイズのインターフェース。
// security.ContentSanitizerServiceを抽象化する。
type Sanitizer interface {
	SanitizeText(raw string) string
}

// URLValidator はプロフィール画像URLの事前検証のインターフェース。
// security.SSRFGuardServiceのValidateURLを抽象化する。
type URLValidator interface {
	ValidateURL(rawURL string) error
}
