package newsletter

import (
	"sort"
	"sync"
	"time"
)

// fakeScheduler は手動で時刻を進めるScheduler。
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer

	// ignoreStop がtrueの場合、Stopは取り消しに失敗したものとして扱い、タイマーはそのまま発火する。
	// 取り消し前に発火してしまった古いタイマーの再現に使う。
	ignoreStop bool
}

type fakeTimer struct {
	s       *fakeScheduler
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, at: s.now.Add(d), f: f}
	s.timers = append(s.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.fired || t.stopped || t.s.ignoreStop {
		return false
	}
	t.stopped = true
	return true
}

// Now は現在のフェイク時刻を返す。
func (s *fakeScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Advance は時刻をdだけ進め、期限を迎えたタイマーを予約時刻順に実行する。
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.fired && !t.stopped && !t.at.After(s.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

// Pending は未発火かつ未取り消しのタイマー数を返す。
func (s *fakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

// recordingObserver はObserverの呼び出しを記録する。
type recordingObserver struct {
	mu       sync.Mutex
	accepted []string
	ignored  int
}

func (o *recordingObserver) Accepted(formID, email string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.accepted = append(o.accepted, email)
}

func (o *recordingObserver) Ignored(formID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ignored++
}
