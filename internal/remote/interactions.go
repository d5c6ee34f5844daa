package remote

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/plaza/internal/model"
)

// InteractionsClient はインタラクションストアサービスのクライアント。
// いいねの付与・取り消しとコメントの追加・取得を行う。
type InteractionsClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string // テスト用にエンドポイントを差し替え可能
}

// NewInteractionsClient はInteractionsClientの新しいインスタンスを生成する。
func NewInteractionsClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *InteractionsClient {
	return &InteractionsClient{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// likeRequest はいいねの付与・取り消しリクエスト。
type likeRequest struct {
	User   string `json:"user"`
	PostID string `json:"post_id"`
}

// addCommentRequest はコメント追加リクエスト。
type addCommentRequest struct {
	User    string `json:"user"`
	PostID  string `json:"post_id"`
	Content string `json:"content"`
}

// Like は投稿にいいねを付与する。重複したいいねはストア側で無視される。
func (c *InteractionsClient) Like(ctx context.Context, user, postID string) error {
	return c.writeLike(ctx, http.MethodPost, user, postID)
}

// Unlike は投稿のいいねを取り消す。
func (c *InteractionsClient) Unlike(ctx context.Context, user, postID string) error {
	return c.writeLike(ctx, http.MethodDelete, user, postID)
}

func (c *InteractionsClient) writeLike(ctx context.Context, method, user, postID string) error {
	req := likeRequest{User: user, PostID: postID}

	status, _, err := doJSON(ctx, c.httpClient, c.logger, method, c.baseURL+"/likes", req)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent && status != http.StatusOK {
		return statusError("インタラクションストア", status)
	}
	return nil
}

// GetLikes は投稿にいいねしたprincipalのリストを取得する。
func (c *InteractionsClient) GetLikes(ctx context.Context, postID string) ([]string, error) {
	status, body, err := doJSON(ctx, c.httpClient, c.logger, http.MethodGet, c.baseURL+"/likes/"+postID, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError("インタラクションストア", status)
	}

	var ids []string
	if err := decodeJSON(body, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// AddComment は投稿にコメントを追加し、作成されたコメントを返す。
func (c *InteractionsClient) AddComment(ctx context.Context, user, postID, content string) (*model.Comment, error) {
	req := addCommentRequest{User: user, PostID: postID, Content: content}

	status, body, err := doJSON(ctx, c.httpClient, c.logger, http.MethodPost, c.baseURL+"/comments", req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, statusError("インタラクションストア", status)
	}

	var comment model.Comment
	if err := decodeJSON(body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetComments は投稿のコメントリストを取得する。
func (c *InteractionsClient) GetComments(ctx context.Context, postID string) ([]model.Comment, error) {
	status, body, err := doJSON(ctx, c.httpClient, c.logger, http.MethodGet, c.baseURL+"/comments/"+postID, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError("インタラクションストア", status)
	}

	var comments []model.Comment
	if err := decodeJSON(body, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}
