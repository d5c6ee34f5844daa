// Package linkpreview は投稿本文に含まれるURLのプレビュー生成機能を提供する。
// 対象ページのHTMLからタイトルとOGP情報を抽出し、タイムライン表示の装飾に使う。
// 取得はベストエフォートであり、失敗した投稿はプレビューなしで表示される。
package linkpreview

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// maxPreviewSize はプレビュー取得で読み込むHTMLの最大サイズ（2MB）。
const maxPreviewSize = 2 * 1024 * 1024

// defaultTimeout はプレビュー取得のタイムアウト。
const defaultTimeout = 5 * time.Second

// Preview は投稿に添付するリンクプレビューを表す。
type Preview struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// SSRFValidator はSSRF検証のインターフェース。
// security.SSRFGuardServiceを抽象化してテスタビリティを向上させる。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// Fetcher はリンクプレビューの取得機能を提供する。
type Fetcher struct {
	ssrfGuard SSRFValidator
	timeout   time.Duration
	maxSize   int64
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
// timeoutが0以下の場合はdefaultTimeout、maxSizeが0以下の場合はmaxPreviewSizeを使用する。
func NewFetcher(ssrfGuard SSRFValidator, timeout time.Duration, maxSize int64) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxSize <= 0 {
		maxSize = maxPreviewSize
	}
	return &Fetcher{
		ssrfGuard: ssrfGuard,
		timeout:   timeout,
		maxSize:   maxSize,
	}
}

// ExtractFirstURL は投稿本文から最初のhttp(s) URLを抽出する。
// URLが含まれない場合は空文字列を返す。
func ExtractFirstURL(content string) string {
	for _, field := range strings.Fields(content) {
		if strings.HasPrefix(field, "http://") || strings.HasPrefix(field, "https://") {
			// 文末の句読点・閉じ括弧を取り除く
			return strings.TrimRight(field, ".,!?)>]")
		}
	}
	return ""
}

// FetchPreview は指定URLのページからプレビューを生成する。
// 取得失敗時はnilを返す（エラーは返さない）。プレビューは装飾であり、
// 失敗が投稿の表示を妨げてはならない。
func (f *Fetcher) FetchPreview(ctx context.Context, rawURL string) *Preview {
	if rawURL == "" {
		return nil
	}

	// SSRF検証
	if f.ssrfGuard != nil {
		if err := f.ssrfGuard.ValidateURL(rawURL); err != nil {
			slog.Warn("リンクプレビュー: SSRFブロック", "url", rawURL, "error", err)
			return nil
		}
	}

	client := f.getHTTPClient()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		slog.Warn("リンクプレビュー: リクエスト作成失敗", "url", rawURL, "error", err)
		return nil
	}
	req.Header.Set("User-Agent", "Plaza/1.0")

	resp, err := client.Do(req)
	if err != nil {
		slog.Warn("リンクプレビュー: HTTPリクエスト失敗", "url", rawURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("リンクプレビュー: HTTPステータス異常", "url", rawURL, "status", resp.StatusCode)
		return nil
	}

	// HTML以外のContent-Typeは対象外
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "text/html" {
		return nil
	}

	// レスポンスボディを読み込み（最大2MB）
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize))
	if err != nil {
		slog.Warn("リンクプレビュー: レスポンス読み取り失敗", "url", rawURL, "error", err)
		return nil
	}

	preview := parsePreviewHTML(body)
	if preview == nil {
		return nil
	}
	preview.URL = rawURL
	return preview
}

// getHTTPClient はHTTPクライアントを取得する。
func (f *Fetcher) getHTTPClient() *http.Client {
	if f.ssrfGuard != nil {
		return f.ssrfGuard.NewSafeClient(f.timeout, f.maxSize)
	}
	return &http.Client{Timeout: f.timeout}
}

// parsePreviewHTML はHTMLからタイトルとOGP情報を抽出する。
// og:titleがあればtitleタグより優先する。
// タイトルが得られなかった場合はnilを返す。
func parsePreviewHTML(htmlBody []byte) *Preview {
	var (
		title       string
		ogTitle     string
		description string
		imageURL    string
	)

	tokenizer := html.NewTokenizer(bytes.NewReader(htmlBody))
	inTitle := false

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			p := &Preview{
				Title:       strings.TrimSpace(title),
				Description: strings.TrimSpace(description),
				ImageURL:    strings.TrimSpace(imageURL),
			}
			if ogTitle != "" {
				p.Title = strings.TrimSpace(ogTitle)
			}
			if p.Title == "" {
				return nil
			}
			return p

		case html.TextToken:
			if inTitle {
				title += string(tokenizer.Text())
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := tokenizer.TagName()
			tagName := string(tn)

			switch tagName {
			case "title":
				inTitle = true
			case "meta":
				if !hasAttr {
					continue
				}
				property, content := metaAttrs(tokenizer)
				switch property {
				case "og:title":
					ogTitle = content
				case "og:description":
					description = content
				case "og:image":
					imageURL = content
				}
			case "body":
				// headを抜けたら残りの走査は不要
				if ogTitle != "" || title != "" {
					p := &Preview{
						Title:       strings.TrimSpace(title),
						Description: strings.TrimSpace(description),
						ImageURL:    strings.TrimSpace(imageURL),
					}
					if ogTitle != "" {
						p.Title = strings.TrimSpace(ogTitle)
					}
					return p
				}
				return nil
			}

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				inTitle = false
			}
		}
	}
}

// metaAttrs はmetaタグのproperty(またはname)とcontent属性を取り出す。
func metaAttrs(tokenizer *html.Tokenizer) (property, content string) {
	for {
		key, val, more := tokenizer.TagAttr()
		switch string(key) {
		case "property", "name":
			property = string(val)
		case "content":
			content = string(val)
		}
		if !more {
			return property, content
		}
	}
}
