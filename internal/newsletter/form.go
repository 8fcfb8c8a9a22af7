// Package newsletter はニュースレター登録フォームの状態と状態遷移を提供する。
//
// フォームは入力中のメールアドレスと「登録を受け付けた直後か」のフラグだけを保持する。
// 受け付けたメールアドレスは保存せず、Observerへ引き渡すのみとする。
package newsletter

import (
	"strings"
	"sync"
	"time"
)

// DefaultAckDuration は登録受付メッセージを表示し続ける既定の時間。
const DefaultAckDuration = 3 * time.Second

// State はフォームの受付表示状態を表す。
type State string

const (
	// StateIdle は受付メッセージを表示していない状態。
	StateIdle State = "idle"
	// StateAcknowledged は登録を受け付け、確認メッセージを表示している状態。
	StateAcknowledged State = "acknowledged"
)

// Snapshot はある時点のフォーム状態のコピー。
type Snapshot struct {
	ID        string
	Email     string
	Submitted bool
	State     State
	// AcknowledgedUntil は受付表示が解除される予定時刻。Idle状態ではゼロ値。
	AcknowledgedUntil time.Time
}

// Remaining は受付表示が解除されるまでの残り時間を返す。
// Idle状態または期限を過ぎている場合は0を返す。
func (s Snapshot) Remaining(now time.Time) time.Duration {
	if !s.Submitted || s.AcknowledgedUntil.IsZero() {
		return 0
	}
	d := s.AcknowledgedUntil.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Form は1ページインスタンス分のニュースレター登録フォーム。
// 状態はインスタンスごとに閉じており、プロセス全体で共有されることはない。
type Form struct {
	id          string
	ackDuration time.Duration
	scheduler   Scheduler
	observer    Observer
	now         func() time.Time

	mu         sync.Mutex
	email      string
	submitted  bool
	ackUntil   time.Time
	pending    Timer
	generation uint64
	closed     bool
}

// Option はFormの生成オプション。
type Option func(*Form)

// WithAckDuration は受付表示の継続時間を設定する。0以下の値は無視する。
func WithAckDuration(d time.Duration) Option {
	return func(f *Form) {
		if d > 0 {
			f.ackDuration = d
		}
	}
}

// WithScheduler はリセット処理の予約に使うSchedulerを設定する。
func WithScheduler(s Scheduler) Option {
	return func(f *Form) {
		if s != nil {
			f.scheduler = s
		}
	}
}

// WithObserver は受付結果の通知先を設定する。
func WithObserver(o Observer) Option {
	return func(f *Form) {
		if o != nil {
			f.observer = o
		}
	}
}

// WithClock は現在時刻の取得関数を設定する。
func WithClock(now func() time.Time) Option {
	return func(f *Form) {
		if now != nil {
			f.now = now
		}
	}
}

// NewForm は初期状態（Idle、入力は空）のFormを生成する。
func NewForm(id string, opts ...Option) *Form {
	f := &Form{
		id:          id,
		ackDuration: DefaultAckDuration,
		scheduler:   RealScheduler(),
		observer:    nopObserver{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ID はフォームインスタンスのIDを返す。
func (f *Form) ID() string {
	return f.id
}

// InputChange は入力欄の値を置き換える。この時点では検証を行わない。
func (f *Form) InputChange(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.email = text
}

// Submit は現在の入力値で登録を試みる。
//
// 前後の空白を除いた入力が空の場合は何もしない（状態も入力値も変えない）。
// 空でない場合は受付状態にし、入力欄を空にし、一定時間後に受付状態を解除する処理を予約する。
// 受付状態のまま再度Submitされた場合は、既存の予約を取り消して新しく予約し直す。
// 古い予約が取り消し前に発火していても、世代番号が一致しないため状態は変わらない。
// Close済みのフォームでは何もせず、Observerにも通知しない。
func (f *Form) Submit() {
	f.mu.Lock()
	if f.closed {
		// 破棄済みのフォームは入力の有無にかかわらず結果を通知しない
		f.mu.Unlock()
		return
	}
	trimmed := strings.TrimSpace(f.email)
	if trimmed == "" {
		f.mu.Unlock()
		f.observer.Ignored(f.id)
		return
	}

	f.submitted = true
	f.generation++
	gen := f.generation
	if f.pending != nil {
		f.pending.Stop()
	}
	f.pending = f.scheduler.AfterFunc(f.ackDuration, func() {
		f.expire(gen)
	})
	f.ackUntil = f.now().Add(f.ackDuration)
	f.email = ""
	f.mu.Unlock()

	f.observer.Accepted(f.id, trimmed)
}

// expire は予約されたリセット処理の本体。最新の予約からの呼び出しのみ反映する。
func (f *Form) expire(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || gen != f.generation {
		return
	}
	f.submitted = false
	f.ackUntil = time.Time{}
	f.pending = nil
}

// Email は現在の入力値を返す。
func (f *Form) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// Submitted は受付状態かどうかを返す。
func (f *Form) Submitted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitted
}

// Snapshot は現在の状態のコピーを返す。
func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	state := StateIdle
	if f.submitted {
		state = StateAcknowledged
	}
	return Snapshot{
		ID:                f.id,
		Email:             f.email,
		Submitted:         f.submitted,
		State:             state,
		AcknowledgedUntil: f.ackUntil,
	}
}

// Close は予約中のリセット処理を取り消し、以降のSubmitを黙って無視する。
// レジストリからの削除時に呼ばれる。
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	f.generation++
	if f.pending != nil {
		f.pending.Stop()
		f.pending = nil
	}
}
