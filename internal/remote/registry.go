package remote

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/plaza/internal/model"
)

// RegistryClient はユーザーレジストリサービスのクライアント。
// プロフィールの登録・更新・取得とデモユーザーの投入を行う。
type RegistryClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string // テスト用にエンドポイントを差し替え可能
}

// NewRegistryClient はRegistryClientの新しいインスタンスを生成する。
func NewRegistryClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *RegistryClient {
	return &RegistryClient{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// createUserRequest はプロフィール登録リクエスト。
type createUserRequest struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Name      string  `json:"name"`
	Bio       string  `json:"bio"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	CoverURL  *string `json:"cover_url,omitempty"`
}

// updateUserRequest はプロフィール更新リクエスト。
// usernameは登録後変更できないため含まない。
type updateUserRequest struct {
	Name      string  `json:"name"`
	Bio       string  `json:"bio"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	CoverURL  *string `json:"cover_url,omitempty"`
}

// CreateUser はプロフィールをレジストリに登録する。
// 登録後のプロフィールを返す。
func (c *RegistryClient) CreateUser(ctx context.Context, profile *model.UserProfile) (*model.UserProfile, error) {
	req := createUserRequest{
		ID:        profile.ID,
		Username:  profile.Username,
		Name:      profile.Name,
		Bio:       profile.Bio,
		AvatarURL: profile.AvatarURL,
		CoverURL:  profile.CoverURL,
	}

	status, body, err := doJSON(ctx, c.httpClient, c.logger, http.MethodPost, c.baseURL+"/users", req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, statusError("ユーザーレジストリ", status)
	}

	var created model.UserProfile
	if err := decodeJSON(body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateUser は既存プロフィールの表示名・自己紹介・画像URLを更新する。
// 更新後のプロフィールを返す。
func (c *RegistryClient) UpdateUser(ctx context.Context, id string, update *model.UserProfile) (*model.UserProfile, error) {
	req := updateUserRequest{
		Name:      update.Name,
		Bio:       update.Bio,
		AvatarURL: update.AvatarURL,
		CoverURL:  update.CoverURL,
	}

	status, body, err := doJSON(ctx, c.httpClient, c.logger, http.MethodPut, c.baseURL+"/users/"+id, req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError("ユーザーレジストリ", status)
	}

	var updated model.UserProfile
	if err := decodeJSON(body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetUser はprincipalに対応するプロフィールを取得する。
// 未登録の場合は(nil, nil)を返す。未登録はエラーではなく
// 「プロフィールなし」という正常な状態として扱う。
func (c *RegistryClient) GetUser(ctx context.Context, id string) (*model.UserProfile, error) {
	status, body, err := doJSON(ctx, c.httpClient, c.logger, http.MethodGet, c.baseURL+"/users/"+id, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, statusError("ユーザーレジストリ", status)
	}

	var profile model.UserProfile
	if err := decodeJSON(body, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// SeedDemoUsers はデモユーザー群の投入をレジストリに依頼する。
// レジストリ側で冪等に処理されるため、繰り返し呼び出しても安全。
func (c *RegistryClient) SeedDemoUsers(ctx context.Context) error {
	status, _, err := doJSON(ctx, c.httpClient, c.logger, http.MethodPost, c.baseURL+"/users/demo-seed", nil)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent && status != http.StatusOK {
		return statusError("ユーザーレジストリ", status)
	}
	return nil
}
