// Package remote はリモートバックエンドサービス群のHTTP/JSONクライアントを提供する。
// ユーザーレジストリ、投稿ストア、ソーシャルグラフ、インタラクションストアの
// 4サービスに対応する型付きクライアントを含む。
//
// 各クライアントはリトライ・キャッシュを行わない。呼び出しは1回きりで、
// 失敗はそのまま呼び出し元（データオーケストレーター）へ返す。
// タイムアウトは注入されるhttp.Clientが持つ。
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// userAgent は全リモート呼び出しで送信するUser-Agentヘッダー。
const userAgent = "Plaza/1.0"

// doJSON はJSONリクエストを実行し、レスポンスボディを返す。
// bodyがnilでない場合はJSONエンコードして送信する。
// ステータスコードの判定は呼び出し側で行う。
func doJSON(ctx context.Context, httpClient *http.Client, logger *slog.Logger, method, url string, body interface{}) (int, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		logger.Error("リモートサービスの呼び出しに失敗しました",
			slog.String("method", method),
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

// decodeJSON はレスポンスボディをJSONデコードする。
func decodeJSON(body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	return nil
}

// statusError は想定外のHTTPステータスをエラーに変換する。
func statusError(service string, status int) error {
	return fmt.Errorf("%sがステータス %d を返しました", service, status)
}
