package timeline

import "sync"

// ViewRegistry はprincipalごとのViewを管理する。
// 同一principalからの全リクエストは同じViewインスタンスを共有する。
type ViewRegistry struct {
	mu    sync.Mutex
	views map[string]*View
	deps  ViewDeps
}

// NewViewRegistry はViewRegistryを生成する。
func NewViewRegistry(deps ViewDeps) *ViewRegistry {
	return &ViewRegistry{
		views: make(map[string]*View),
		deps:  deps,
	}
}

// View はprincipalに対応するViewを返す。存在しなければ生成する。
func (r *ViewRegistry) View(principal string) *View {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.views[principal]; ok {
		return v
	}
	v := NewView(principal, r.deps)
	r.views[principal] = v
	return v
}

// Remove はprincipalのViewを破棄する。ログアウト時に呼ばれ、
// トーストタイマーを停止して表示状態を捨てる。
// 次のログインでは空の状態から再構築される。
func (r *ViewRegistry) Remove(principal string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.views[principal]; ok {
		v.Close()
		delete(r.views, principal)
	}
}

// All は現在生きている全Viewを返す。ワーカーの巡回に使う。
func (r *ViewRegistry) All() []*View {
	r.mu.Lock()
	defer r.mu.Unlock()

	views := make([]*View, 0, len(r.views))
	for _, v := range r.views {
		views = append(views, v)
	}
	return views
}
