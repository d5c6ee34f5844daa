// Package repository はデータ永続化のインターフェースを定義する。
// このアプリケーションがローカルに永続化するのはログインセッションのみで、
// プロフィール・投稿・フォロー関係はすべてリモートサービスが所有する。
package repository

import (
	"context"

	"github.com/hitoshi/plaza/internal/model"
)

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByPrincipal は指定principalの全セッションを削除する。
	DeleteByPrincipal(ctx context.Context, principal string) error
}
