// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は投稿・コメント・プロフィールのテキストをサニタイズし、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// bluemondayライブラリの許可リストベースのポリシーで、
// タイムラインに流れるユーザー生成コンテンツからHTMLを除去する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はユーザー生成コンテンツのサニタイズ機能のインターフェースを定義する。
// 投稿・コメントの保存前およびリンクプレビューのタイトル抽出時に使用される。
type ContentSanitizerService interface {
	// SanitizeText は入力からHTMLタグを全て除去し、プレーンテキストを返す。
	// 投稿本文、コメント本文、プロフィールの表示名・自己紹介に適用する。
	// scriptタグ、on*イベント属性を含む一切のマークアップが除去される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
//
// 投稿とコメントはプレーンテキストとして保存・表示されるため、
// タグを一切許可しないStrictPolicyを使用する。
// script, iframe, style等のタグおよびon*イベント属性は許可リストに
// 含まれないため自動的に除去される。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText は入力からHTMLタグを全て除去し、プレーンテキストを返す。
// bluemondayの仕様により、残ったテキスト中の特殊文字は実体参照のまま保持される。
func (s *contentSanitizer) SanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
