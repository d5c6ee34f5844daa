package remote

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/plaza/internal/model"
)

// PostsClient は投稿ストアサービスのクライアント。
// 投稿の作成・一覧取得とデモ投稿の投入を行う。
type PostsClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string // テスト用にエンドポイントを差し替え可能
}

// NewPostsClient はPostsClientの新しいインスタンスを生成する。
func NewPostsClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *PostsClient {
	return &PostsClient{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// createPostRequest は投稿作成リクエスト。
type createPostRequest struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// postEnvelope は投稿ストアの結果エンベロープ。
// 成功時は {"ok": 投稿}、失敗時は {"err": "メッセージ"} がHTTP 200で返る。
type postEnvelope struct {
	Ok  *model.Post `json:"ok"`
	Err *string     `json:"err"`
}

// CreatePost は投稿を作成する。
// 投稿ストアはドメインエラー（本文長超過など）をHTTPエラーではなく
// エンベロープの err フィールドで返す。err のメッセージは改変せず
// そのままAPIエラーに載せて呼び出し元へ伝える。
func (c *PostsClient) CreatePost(ctx context.Context, author, content string) (*model.Post, error) {
	req := createPostRequest{Author: author, Content: content}

	status, body, err := doJSON(ctx, c.httpClient, c.logger, http.MethodPost, c.baseURL+"/posts", req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError("投稿ストア", status)
	}

	var envelope postEnvelope
	if err := decodeJSON(body, &envelope); err != nil {
		return nil, err
	}
	if envelope.Err != nil {
		return nil, model.NewRemoteCallFailedError(*envelope.Err)
	}
	if envelope.Ok == nil {
		return nil, fmt.Errorf("投稿ストアのレスポンスにokもerrも含まれていません")
	}
	return envelope.Ok, nil
}

// ListPosts は全投稿を取得する。順序は投稿ストア側の並びのまま返し、
// タイムライン表示用のソートは呼び出し元が行う。
func (c *PostsClient) ListPosts(ctx context.Context) ([]model.Post, error) {
	status, body, err := doJSON(ctx, c.httpClient, c.logger, http.MethodGet, c.baseURL+"/posts", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError("投稿ストア", status)
	}

	var posts []model.Post
	if err := decodeJSON(body, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost は投稿IDで単一の投稿を取得する。
// 存在しない場合は(nil, nil)を返す。
func (c *PostsClient) GetPost(ctx context.Context, id string) (*model.Post, error) {
	status, body, err := doJSON(ctx, c.httpClient, c.logger, http.MethodGet, c.baseURL+"/posts/"+id, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, statusError("投稿ストア", status)
	}

	var post model.Post
	if err := decodeJSON(body, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// SeedDemoPosts はデモ投稿群の投入を投稿ストアに依頼する。
// ストア側で冪等に処理される。
func (c *PostsClient) SeedDemoPosts(ctx context.Context) error {
	status, _, err := doJSON(ctx, c.httpClient, c.logger, http.MethodPost, c.baseURL+"/posts/demo-seed", nil)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent && status != http.StatusOK {
		return statusError("投稿ストア", status)
	}
	return nil
}
