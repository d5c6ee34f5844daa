// Package preview はリンクプレビューのバックグラウンド取得を提供する。
// アクティブな全ビューの投稿に含まれるURLを定期的に巡回し、
// プレビューキャッシュを温める。
package preview

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/plaza/internal/timeline"
)

// ViewLister はアクティブなビューの列挙インターフェース。
// timeline.ViewRegistryが実装する。
type ViewLister interface {
	All() []*timeline.View
}

// PreviewMetrics は取得件数の計測インターフェース。
// metrics.Collectorの部分集合として定義する。
type PreviewMetrics interface {
	RecordPreviewsWarmed(count int)
}

// Warmer はプレビューキャッシュの定期巡回を行う。
// semaphoreパターンで最大並列数を制御しながらビューごとに取得を実行する。
type Warmer struct {
	views          ViewLister
	fetcher        timeline.PreviewFetcher
	logger         *slog.Logger
	metrics        PreviewMetrics
	maxConcurrency int
}

// NewWarmer はWarmerの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値4を使用する。metricsはnilでもよい。
func NewWarmer(
	views ViewLister,
	fetcher timeline.PreviewFetcher,
	logger *slog.Logger,
	metrics PreviewMetrics,
	maxConcurrency int,
) *Warmer {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &Warmer{
		views:          views,
		fetcher:        fetcher,
		logger:         logger,
		metrics:        metrics,
		maxConcurrency: maxConcurrency,
	}
}

// Start は指定間隔でプレビュー巡回を起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (w *Warmer) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("プレビュー巡回を開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", w.maxConcurrency),
	)

	// 起動直後に1回実行
	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("プレビュー巡回を停止しました")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce は全ビューのプレビューを1周分取得し、取得件数を返す。
// 既にキャッシュ済みの投稿はビュー側でスキップされる。
func (w *Warmer) RunOnce(ctx context.Context) int {
	start := time.Now()

	views := w.views.All()
	if len(views) == 0 {
		return 0
	}

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, w.maxConcurrency)
	var wg sync.WaitGroup

	var mu sync.Mutex
	total := 0

	for _, view := range views {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(v *timeline.View) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			fetched := v.WarmPreviews(ctx, w.fetcher)

			mu.Lock()
			total += fetched
			mu.Unlock()
		}(view)
	}

	wg.Wait()

	if w.metrics != nil && total > 0 {
		w.metrics.RecordPreviewsWarmed(total)
	}

	duration := time.Since(start)
	w.logger.Info("プレビュー巡回が完了しました",
		slog.Int("view_count", len(views)),
		slog.Int("fetched_count", total),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return total
}
