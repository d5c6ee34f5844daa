// Package guard はページ遷移のガードを提供する。
// 未認証アクセスを公開エントリーページへ追い返し、
// ログイン直後のセッションを1回だけメインフィードへ誘導する。
package guard

import "sync"

// ルートパス。
const (
	// EntryRoute は公開エントリーページ（ランディング）のパス。
	EntryRoute = "/"
	// FeedRoute はメインフィードのパス。
	FeedRoute = "/feed"
)

// Action はガードの判定結果の種別。
type Action int

const (
	// ActionAllow はリクエストされたページをそのまま表示する。
	ActionAllow Action = iota
	// ActionRedirect はTargetへのリダイレクトを指示する。
	ActionRedirect
)

// Decision はガードの判定結果。
type Decision struct {
	Action Action
	Target string // ActionRedirectの場合のリダイレクト先
}

// State はガードが参照するセッションの状態。
type State struct {
	// HasPrincipal は認証済みprincipalが存在するか。
	HasPrincipal bool
	// ShowRegister はプロフィール登録が必要な状態か。
	// 登録が必要な間はフィードへの自動誘導を行わない。
	ShowRegister bool
}

// Guard はセッション単位のリダイレクト状態を保持する状態機械。
//
// 遷移規則:
//   - principalなし + 保護ページ → エントリーページへリダイレクト
//   - principalあり + 登録不要 + 未リダイレクト → フィードへ1回だけリダイレクト
//   - principalが消えたらリダイレクト済みフラグをリセットし、
//     次のログインで再び1回リダイレクトする
//
// フィード到達後の再リダイレクトは起きないため、リダイレクトループは発生しない。
type Guard struct {
	mu            sync.Mutex
	hasRedirected bool
}

// NewGuard はGuardを生成する。
func NewGuard() *Guard {
	return &Guard{}
}

// Decide はパスとセッション状態からページ表示の可否を判定する。
// 状態遷移（リダイレクト済みフラグの更新・リセット）もここで行う。
func (g *Guard) Decide(path string, state State) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	// principalが消えたらフラグをリセットする。次のログインで再誘導するため。
	if !state.HasPrincipal {
		g.hasRedirected = false
		if path != EntryRoute {
			return Decision{Action: ActionRedirect, Target: EntryRoute}
		}
		return Decision{Action: ActionAllow}
	}

	// ログイン済みでエントリーページにいる場合、1回だけフィードへ誘導する。
	// プロフィール登録が必要な間はエントリーページに留める。
	if path == EntryRoute && !state.ShowRegister && !g.hasRedirected {
		g.hasRedirected = true
		return Decision{Action: ActionRedirect, Target: FeedRoute}
	}

	return Decision{Action: ActionAllow}
}

// HasRedirected は現在のセッションで既にフィードへ誘導済みかを返す。
func (g *Guard) HasRedirected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hasRedirected
}
