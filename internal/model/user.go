// Package model はドメインモデルを定義する。
package model

import "time"

// UserProfile はユーザーレジストリが管理するプロフィールを表す。
// このレイヤーでは永続化せず、リモートから取得し直す表示用の状態として扱う。
type UserProfile struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"` // 登録後は不変。更新パスでは変更されない
	Name      string  `json:"name"`
	Bio       string  `json:"bio"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	CoverURL  *string `json:"cover_url,omitempty"`
}

// Session はユーザーのログインセッションを表す。
// PrincipalはIDプロバイダーが発行する不透明な識別子文字列。
type Session struct {
	ID        string
	Principal string
	ExpiresAt time.Time
	CreatedAt time.Time
}
