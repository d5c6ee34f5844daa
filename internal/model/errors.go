// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, remote, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeEmptyPost        = "EMPTY_POST"
	ErrCodeContentTooLong   = "CONTENT_TOO_LONG"
	ErrCodeProfileRequired  = "PROFILE_REQUIRED"
	ErrCodeRemoteCallFailed = "REMOTE_CALL_FAILED"
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodePostNotFound     = "POST_NOT_FOUND"
	ErrCodeInvalidURL       = "INVALID_URL"
	ErrCodeSSRFBlocked      = "SSRF_BLOCKED"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
)

// NewEmptyPostError は空の投稿本文に対するバリデーションエラーを生成する。
// リモート呼び出しの前に検出され、リモート状態には一切触れない。
func NewEmptyPostError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyPost,
		Message:  "投稿の本文が空です。",
		Category: "validation",
		Action:   "本文を入力してから投稿してください。",
	}
}

// NewContentTooLongError は投稿本文の文字数超過エラーを生成する。
func NewContentTooLongError(length int) *APIError {
	return &APIError{
		Code:     ErrCodeContentTooLong,
		Message:  fmt.Sprintf("投稿の本文が長すぎます: %d文字（最大%d文字）", length, PostContentMaxLength),
		Category: "validation",
		Action:   fmt.Sprintf("本文を%d文字以内に収めてください。", PostContentMaxLength),
	}
}

// NewProfileRequiredError はプロフィール未登録エラーを生成する。
// 自動登録を試みてもプロフィールが得られなかった場合に返される。
func NewProfileRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeProfileRequired,
		Message:  "プロフィールが未登録です。投稿する前に登録してください。",
		Category: "auth",
		Action:   "プロフィールを登録してから再度お試しください。",
	}
}

// NewRemoteCallFailedError はリモート呼び出し失敗エラーを生成する。
// リモート側のメッセージをそのまま保持する。
func NewRemoteCallFailedError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeRemoteCallFailed,
		Message:  message,
		Category: "remote",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewPostNotFoundError は投稿が見つからない場合のエラーを生成する。
func NewPostNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された投稿が見つかりません: %s", postID),
		Category: "remote",
		Action:   "フィードを再読み込みしてください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
// アバターURL・カバーURLの事前検証で使用する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を入力してください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、指定されたURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているWebサイトのURLを入力してください。ローカルネットワークやプライベートIPへのアクセスは許可されていません。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}
