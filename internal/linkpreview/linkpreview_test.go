package linkpreview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExtractFirstURL(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"URLなし", "ただのテキスト投稿", ""},
		{"httpsのURL", "check this https://example.com/article cool", "https://example.com/article"},
		{"httpのURL", "see http://example.com", "http://example.com"},
		{"複数URLは最初のみ", "https://first.example.com and https://second.example.com", "https://first.example.com"},
		{"文末の句読点を除去", "read https://example.com/page.", "https://example.com/page"},
		{"括弧閉じを除去", "(see https://example.com/page)", "https://example.com/page"},
		{"空文字列", "", ""},
		{"スキームだけの単語は対象外", "the httpserver is down", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractFirstURL(tt.content)
			if got != tt.want {
				t.Errorf("ExtractFirstURL(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestFetcher_FetchPreview_TitleAndOGP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
<title>Fallback Title</title>
<meta property="og:title" content="OGP Title">
<meta property="og:description" content="An article about plazas.">
<meta property="og:image" content="https://cdn.example.com/hero.png">
</head>
<body><p>hello</p></body>
</html>`))
	}))
	defer server.Close()

	f := NewFetcher(nil, time.Second, 0)

	preview := f.FetchPreview(context.Background(), server.URL)
	if preview == nil {
		t.Fatal("プレビューがnil")
	}
	if preview.Title != "OGP Title" {
		t.Errorf("title = %q, want %q (og:titleを優先)", preview.Title, "OGP Title")
	}
	if preview.Description != "An article about plazas." {
		t.Errorf("description = %q, want OGPのdescription", preview.Description)
	}
	if preview.ImageURL != "https://cdn.example.com/hero.png" {
		t.Errorf("image_url = %q, want OGPのimage", preview.ImageURL)
	}
	if preview.URL != server.URL {
		t.Errorf("url = %q, want %q", preview.URL, server.URL)
	}
}

func TestFetcher_FetchPreview_TitleTagOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Plain Title</title></head><body></body></html>`))
	}))
	defer server.Close()

	f := NewFetcher(nil, time.Second, 0)

	preview := f.FetchPreview(context.Background(), server.URL)
	if preview == nil {
		t.Fatal("プレビューがnil")
	}
	if preview.Title != "Plain Title" {
		t.Errorf("title = %q, want %q", preview.Title, "Plain Title")
	}
}

// プレビューは装飾であり、失敗はnilとして静かに扱うこと。
func TestFetcher_FetchPreview_DegradesToNil(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "サーバーエラー",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "HTML以外のContent-Type",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"not":"html"}`))
			},
		},
		{
			name: "タイトルのないHTML",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.Write([]byte(`<html><head></head><body>no title</body></html>`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			f := NewFetcher(nil, time.Second, 0)
			if preview := f.FetchPreview(context.Background(), server.URL); preview != nil {
				t.Errorf("失敗時はnilを返すべき、got %+v", preview)
			}
		})
	}
}

func TestFetcher_FetchPreview_EmptyURL(t *testing.T) {
	f := NewFetcher(nil, time.Second, 0)

	if preview := f.FetchPreview(context.Background(), ""); preview != nil {
		t.Errorf("空URLはnilを返すべき、got %+v", preview)
	}
}

// ssrfGuardが注入されている場合、検証に失敗したURLは取得しないこと。
type blockingValidator struct{}

func (blockingValidator) ValidateURL(rawURL string) error {
	return context.DeadlineExceeded
}

func (blockingValidator) NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client {
	return http.DefaultClient
}

func TestFetcher_FetchPreview_SSRFBlocked(t *testing.T) {
	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	f := NewFetcher(blockingValidator{}, time.Second, 0)

	if preview := f.FetchPreview(context.Background(), server.URL); preview != nil {
		t.Errorf("ブロックされたURLはnilを返すべき、got %+v", preview)
	}
	if called {
		t.Error("ブロックされたURLへHTTPリクエストが送信された")
	}
}
