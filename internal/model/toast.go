// Package model はドメインモデルを定義する。
package model

import "time"

// ToastCategory はトーストの種別を表す。
type ToastCategory string

const (
	// ToastSuccess は成功通知のトースト。
	ToastSuccess ToastCategory = "success"
	// ToastLike はいいね通知のトースト。
	ToastLike ToastCategory = "like"
	// ToastComment はコメント通知のトースト。
	ToastComment ToastCategory = "comment"
	// ToastError は失敗通知のトースト。
	ToastError ToastCategory = "error"
)

// Toast は一定時間で自動消滅する通知メッセージを表す。
// 固定の遅延経過後、または明示的なDismissで破棄される。
type Toast struct {
	ID        string        `json:"id"`
	Message   string        `json:"message"`
	Category  ToastCategory `json:"category"`
	Icon      string        `json:"icon"`
	CreatedAt time.Time     `json:"created_at"`
}
