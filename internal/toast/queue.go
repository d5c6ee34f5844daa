// Package toast は自動消滅する通知メッセージのキューを提供する。
// 投稿・いいね・コメントなどの操作成功時にトーストが積まれ、
// 一定時間の経過またはユーザーの明示的な削除で消える。
package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/plaza/internal/model"
)

// DefaultTTL はトーストの既定の表示時間。
const DefaultTTL = 3500 * time.Millisecond

// Queue はトーストの追加・自動消滅・明示削除を管理する。
// 全メソッドはスレッドセーフ。キューの上限は設けない。
// 表示順は追加順で安定しており、途中の削除で他のトーストの順序は変わらない。
type Queue struct {
	mu     sync.Mutex
	ttl    time.Duration
	toasts []*model.Toast
	timers map[string]*time.Timer
}

// NewQueue はQueueを生成する。ttlが0以下の場合はDefaultTTLを使用する。
func NewQueue(ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{
		ttl:    ttl,
		timers: make(map[string]*time.Timer),
	}
}

// Push はトーストをキューの末尾に追加し、TTL経過後の自動削除を予約する。
// 追加されたトーストを返す。IDはUUIDで採番される。
func (q *Queue) Push(message string, category model.ToastCategory, icon string) *model.Toast {
	t := &model.Toast{
		ID:        uuid.New().String(),
		Message:   message,
		Category:  category,
		Icon:      icon,
		CreatedAt: time.Now(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.toasts = append(q.toasts, t)
	q.timers[t.ID] = time.AfterFunc(q.ttl, func() {
		q.Dismiss(t.ID)
	})

	return t
}

// Dismiss はトーストをIDで削除する。
// 存在しないIDや削除済みのIDに対しては何もしない（冪等）。
// 自動消滅タイマーと明示削除が競合しても二重削除にはならない。
func (q *Queue) Dismiss(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if timer, ok := q.timers[id]; ok {
		timer.Stop()
		delete(q.timers, id)
	}

	for i, t := range q.toasts {
		if t.ID == id {
			q.toasts = append(q.toasts[:i], q.toasts[i+1:]...)
			break
		}
	}
}

// Snapshot は現在表示中のトーストを追加順で返す。
// 返り値はコピーであり、呼び出し元が変更してもキューには影響しない。
func (q *Queue) Snapshot() []model.Toast {
	q.mu.Lock()
	defer q.mu.Unlock()

	snapshot := make([]model.Toast, len(q.toasts))
	for i, t := range q.toasts {
		snapshot[i] = *t
	}
	return snapshot
}

// Len は現在表示中のトースト数を返す。
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.toasts)
}

// Stop は全ての自動消滅タイマーを停止する。シャットダウン時に呼ぶ。
// 表示中のトースト自体は保持される。
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
}
