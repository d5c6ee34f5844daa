// Package auth はOAuth認証フロー、セッション管理を提供する。
// ユーザーの実体（プロフィール）はリモートのユーザーレジストリが所有するため、
// このパッケージはprincipalとローカルセッションの対応だけを管理する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/plaza/internal/model"
	"github.com/hitoshi/plaza/internal/repository"
)

// OAuthIdentity はOAuthプロバイダーから取得した認証済みアイデンティティを表す。
// Principalはプロバイダーが発行する不透明な識別子で、以後の全リモート呼び出しのキーになる。
type OAuthIdentity struct {
	Principal string
	Email     string
	Name      string
	Provider  string // "google", "github" 等
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
// 将来的に複数IdP（Google, GitHub等）に対応するための抽象化。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、認証済みアイデンティティを取得する。
	ExchangeCode(ctx context.Context, code string) (*OAuthIdentity, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
// プロバイダーエラーはそのまま呼び出し元へ返し、リトライは行わない。
// 再試行はユーザーがログイン操作を再実行することで行う。
type Service struct {
	oauth       OAuthProvider
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		oauth:       oauth,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// HandleCallback はOAuthコールバックを処理し、セッションを発行する。
// ユーザーレジストリへの登録はここでは行わない。プロフィールの自動登録は
// データオーケストレーターの読み込みサイクルが担当する。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	identity, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	session, err := s.createSession(ctx, identity.Principal)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in",
		slog.String("provider", identity.Provider),
	)

	return session, nil
}

// Logout はセッションを破棄する。
// 呼び出し元から見ると同期的にprincipalが消える。リモート側の失効が
// 完了していなくてもクライアント状態は先にクリアされる。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// GetPrincipal はセッションIDから認証済みprincipalを取得する。
// セッションが存在しないか期限切れの場合はエラーを返す。
func (s *Service) GetPrincipal(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session ID is required")
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return "", fmt.Errorf("session not found or expired")
	}

	return session.Principal, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, principal string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		Principal: principal,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
