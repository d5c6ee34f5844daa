// Package model はドメインモデルを定義する。
package model

// PostContentMaxLength は投稿本文の最大文字数。
const PostContentMaxLength = 280

// Post はポストストアが管理する投稿を表す。
// このレイヤーからは作成後イミュータブル（編集・削除操作は公開しない）。
// Timestampはポストストアが付与するUNIXナノ秒。
type Post struct {
	ID        string `json:"id"`
	Author    string `json:"author"` // UserProfile.ID を参照する
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// Comment はインタラクションストアが管理するコメントを表す。
type Comment struct {
	ID        string `json:"id"`
	PostID    string `json:"post_id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}
