package remote

import (
	"context"
	"log/slog"
	"net/http"
)

// GraphClient はソーシャルグラフサービスのクライアント。
// フォロー関係の作成・削除とフォロワー・フォロー中リストの取得を行う。
type GraphClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string // テスト用にエンドポイントを差し替え可能
}

// NewGraphClient はGraphClientの新しいインスタンスを生成する。
func NewGraphClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *GraphClient {
	return &GraphClient{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// followRequest はフォロー関係の作成・削除リクエスト。
type followRequest struct {
	Follower string `json:"follower"`
	Followee string `json:"followee"`
}

// Follow はフォロー関係を作成する。既にフォロー済みでも成功として扱われる。
func (c *GraphClient) Follow(ctx context.Context, follower, followee string) error {
	return c.writeFollow(ctx, http.MethodPost, follower, followee)
}

// Unfollow はフォロー関係を削除する。未フォローでも成功として扱われる。
func (c *GraphClient) Unfollow(ctx context.Context, follower, followee string) error {
	return c.writeFollow(ctx, http.MethodDelete, follower, followee)
}

func (c *GraphClient) writeFollow(ctx context.Context, method, follower, followee string) error {
	req := followRequest{Follower: follower, Followee: followee}

	status, _, err := doJSON(ctx, c.httpClient, c.logger, method, c.baseURL+"/follows", req)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent && status != http.StatusOK {
		return statusError("ソーシャルグラフ", status)
	}
	return nil
}

// GetFollowers はユーザーをフォローしているprincipalのリストを取得する。
func (c *GraphClient) GetFollowers(ctx context.Context, id string) ([]string, error) {
	return c.fetchIDs(ctx, c.baseURL+"/followers/"+id)
}

// GetFollowing はユーザーがフォローしているprincipalのリストを取得する。
func (c *GraphClient) GetFollowing(ctx context.Context, id string) ([]string, error) {
	return c.fetchIDs(ctx, c.baseURL+"/following/"+id)
}

func (c *GraphClient) fetchIDs(ctx context.Context, url string) ([]string, error) {
	status, body, err := doJSON(ctx, c.httpClient, c.logger, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError("ソーシャルグラフ", status)
	}

	var ids []string
	if err := decodeJSON(body, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
