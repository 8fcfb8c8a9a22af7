package newsletter

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxInstances は同時に保持するフォームインスタンス数の既定上限。
const DefaultMaxInstances = 10000

// RegistryConfig はRegistryの設定。
type RegistryConfig struct {
	// MaxInstances は保持するインスタンス数の上限。超過時は最終アクセスが最も古いものを破棄する。
	MaxInstances int
	// FormOptions は新しく開くフォームに適用するオプション。
	FormOptions []Option
	// Now は現在時刻の取得関数。nilの場合はtime.Now。
	Now func() time.Time
}

// entry はフォームと最終アクセス時刻の組。
type entry struct {
	form       *Form
	lastAccess time.Time
}

// Registry はページ表示ごとに開かれるフォームインスタンスを管理する。
// ページを再読み込みすると新しいインスタンスが開かれ、古いものは
// 一定時間アクセスがなければEvictIdleで破棄される。
type Registry struct {
	config RegistryConfig
	now    func() time.Time

	mu    sync.Mutex
	forms map[string]*entry
}

// NewRegistry は新しいRegistryを生成する。
func NewRegistry(config RegistryConfig) *Registry {
	if config.MaxInstances <= 0 {
		config.MaxInstances = DefaultMaxInstances
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		config: config,
		now:    now,
		forms:  make(map[string]*entry),
	}
}

// Open は新しいIDでフォームを開き、登録して返す。
func (r *Registry) Open() *Form {
	id := uuid.NewString()
	form := NewForm(id, r.config.FormOptions...)

	r.mu.Lock()
	var evicted *Form
	if len(r.forms) >= r.config.MaxInstances {
		evicted = r.evictOldestLocked()
	}
	r.forms[id] = &entry{
		form:       form,
		lastAccess: r.now(),
	}
	r.mu.Unlock()

	if evicted != nil {
		evicted.Close()
	}
	return form
}

// Get は指定IDのフォームを返し、最終アクセス時刻を更新する。
// IDがUUID形式でない場合や存在しない場合はfalseを返す。
func (r *Registry) Get(id string) (*Form, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.forms[id]
	if !ok {
		return nil, false
	}
	e.lastAccess = r.now()
	return e.form, true
}

// Len は保持しているフォーム数を返す。
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}

// EvictIdle は最終アクセスからttl以上経過したフォームを破棄し、破棄した件数を返す。
// 受付表示中のフォームも対象とする（予約中のリセット処理は取り消される）。
func (r *Registry) EvictIdle(ttl time.Duration) int {
	now := r.now()

	r.mu.Lock()
	var evicted []*Form
	for id, e := range r.forms {
		if now.Sub(e.lastAccess) >= ttl {
			evicted = append(evicted, e.form)
			delete(r.forms, id)
		}
	}
	r.mu.Unlock()

	for _, f := range evicted {
		f.Close()
	}
	return len(evicted)
}

// Close は全フォームを破棄する。シャットダウン時に呼ぶ。
func (r *Registry) Close() {
	r.mu.Lock()
	forms := r.forms
	r.forms = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range forms {
		e.form.Close()
	}
}

// evictOldestLocked は最終アクセスが最も古いフォームをマップから取り除いて返す。
// 呼び出し側でr.muを保持していること。
func (r *Registry) evictOldestLocked() *Form {
	var (
		oldestID string
		oldest   *entry
	)
	for id, e := range r.forms {
		if oldest == nil || e.lastAccess.Before(oldest.lastAccess) {
			oldestID = id
			oldest = e
		}
	}
	if oldest == nil {
		return nil
	}
	delete(r.forms, oldestID)
	return oldest.form
}
