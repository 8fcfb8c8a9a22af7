package newsletter

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func newTestForm(s *fakeScheduler, opts ...Option) *Form {
	base := []Option{WithScheduler(s), WithClock(s.Now)}
	return NewForm("form-1", append(base, opts...)...)
}

func TestNewForm_InitialStateIsIdle(t *testing.T) {
	f := newTestForm(newFakeScheduler())

	snap := f.Snapshot()
	if snap.State != StateIdle {
		t.Errorf("State = %q, want %q", snap.State, StateIdle)
	}
	if snap.Submitted {
		t.Error("Submitted should be false initially")
	}
	if snap.Email != "" {
		t.Errorf("Email = %q, want empty", snap.Email)
	}
	if !snap.AcknowledgedUntil.IsZero() {
		t.Errorf("AcknowledgedUntil = %v, want zero", snap.AcknowledgedUntil)
	}
	if f.ID() != "form-1" {
		t.Errorf("ID = %q, want %q", f.ID(), "form-1")
	}
}

func TestForm_InputChange_SetsEmailWithoutValidation(t *testing.T) {
	f := newTestForm(newFakeScheduler())

	for _, text := range []string{"a", "al", "not an email", "   ", ""} {
		f.InputChange(text)
		if got := f.Email(); got != text {
			t.Errorf("Email = %q, want %q", got, text)
		}
		if f.Submitted() {
			t.Errorf("InputChange(%q) should not change Submitted", text)
		}
	}
}

func TestForm_Submit_WhitespaceOnly_NoStateChange(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "空文字列", input: ""},
		{name: "半角スペース1つ", input: " "},
		{name: "半角スペース3つ", input: "   "},
		{name: "タブと改行", input: "\t\n"},
		{name: "混在した空白", input: " \t \r\n "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeScheduler()
			obs := &recordingObserver{}
			f := newTestForm(s, WithObserver(obs))

			f.InputChange(tt.input)
			f.Submit()

			if f.Submitted() {
				t.Error("Submitted should remain false for whitespace-only input")
			}
			if got := f.Email(); got != tt.input {
				t.Errorf("Email = %q, want unchanged %q", got, tt.input)
			}
			if s.Pending() != 0 {
				t.Errorf("pending timers = %d, want 0", s.Pending())
			}
			if obs.ignored != 1 {
				t.Errorf("ignored = %d, want 1", obs.ignored)
			}
			if len(obs.accepted) != 0 {
				t.Errorf("accepted = %v, want none", obs.accepted)
			}
		})
	}
}

func TestForm_Submit_NonEmpty_AcknowledgesAndClearsInput(t *testing.T) {
	tests := []string{
		"alex@example.com",
		"x",
		"not-an-email",
		"  padded@example.com  ",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			s := newFakeScheduler()
			f := newTestForm(s)

			f.InputChange(input)
			f.Submit()

			snap := f.Snapshot()
			if !snap.Submitted {
				t.Error("Submitted should be true after non-empty submission")
			}
			if snap.State != StateAcknowledged {
				t.Errorf("State = %q, want %q", snap.State, StateAcknowledged)
			}
			if snap.Email != "" {
				t.Errorf("Email = %q, want empty", snap.Email)
			}
			if s.Pending() != 1 {
				t.Errorf("pending timers = %d, want 1", s.Pending())
			}
		})
	}
}

func TestForm_Submit_ResetsAfterDefaultDelay(t *testing.T) {
	s := newFakeScheduler()
	f := newTestForm(s)

	f.InputChange("alex@example.com")
	f.Submit()

	if f.Email() != "" || !f.Submitted() {
		t.Fatalf("after submit: email=%q submitted=%v, want \"\" true", f.Email(), f.Submitted())
	}

	s.Advance(2999 * time.Millisecond)
	if !f.Submitted() {
		t.Fatal("Submitted should still be true before 3000ms elapse")
	}

	s.Advance(1 * time.Millisecond)
	if f.Submitted() {
		t.Error("Submitted should be false after 3000ms")
	}
	if got := f.Snapshot().State; got != StateIdle {
		t.Errorf("State = %q, want %q", got, StateIdle)
	}
}

func TestForm_Submit_CustomAckDuration(t *testing.T) {
	s := newFakeScheduler()
	f := newTestForm(s, WithAckDuration(500*time.Millisecond))

	f.InputChange("alex@example.com")
	f.Submit()

	s.Advance(499 * time.Millisecond)
	if !f.Submitted() {
		t.Fatal("Submitted should still be true before custom delay elapses")
	}
	s.Advance(1 * time.Millisecond)
	if f.Submitted() {
		t.Error("Submitted should be false after custom delay")
	}
}

func TestForm_Submit_TwiceWithinWindow_LastTimerWins(t *testing.T) {
	s := newFakeScheduler()
	f := newTestForm(s)

	f.InputChange("first@example.com")
	f.Submit()

	s.Advance(2 * time.Second)

	f.InputChange("second@example.com")
	f.Submit()

	if s.Pending() != 1 {
		t.Errorf("pending timers = %d, want 1 (previous reset should be cancelled)", s.Pending())
	}

	// 1回目の予約時刻（3秒）を過ぎても受付表示が続くこと
	s.Advance(1500 * time.Millisecond)
	if !f.Submitted() {
		t.Fatal("Submitted should remain true after first reset time when a later submission is pending")
	}

	// 2回目の予約時刻（5秒）で解除されること
	s.Advance(1500 * time.Millisecond)
	if f.Submitted() {
		t.Error("Submitted should be false after the later reset time")
	}
}

func TestForm_Submit_StaleTimerFiring_IsIgnored(t *testing.T) {
	s := newFakeScheduler()
	s.ignoreStop = true
	f := newTestForm(s)

	f.InputChange("first@example.com")
	f.Submit()
	s.Advance(2 * time.Second)

	f.InputChange("second@example.com")
	f.Submit()

	// 取り消しに失敗した1回目のタイマーが発火する
	s.Advance(1 * time.Second)
	if !f.Submitted() {
		t.Fatal("stale reset must not clear Submitted while a later submission is within its window")
	}

	s.Advance(2 * time.Second)
	if f.Submitted() {
		t.Error("Submitted should be false after the latest reset time")
	}
}

func TestForm_Submit_WhileAcknowledged_WithEmptyInput_KeepsWindow(t *testing.T) {
	s := newFakeScheduler()
	f := newTestForm(s)

	f.InputChange("alex@example.com")
	f.Submit()
	s.Advance(1 * time.Second)

	// 入力欄は空のままもう一度送信しても何も変わらない
	f.Submit()

	s.Advance(1999 * time.Millisecond)
	if !f.Submitted() {
		t.Fatal("ignored submission should not shorten the acknowledged window")
	}
	s.Advance(1 * time.Millisecond)
	if f.Submitted() {
		t.Error("Submitted should be false after the original reset time")
	}
}

func TestForm_Submit_IsReenterableAfterReset(t *testing.T) {
	s := newFakeScheduler()
	f := newTestForm(s)

	for i := 0; i < 3; i++ {
		f.InputChange("alex@example.com")
		f.Submit()
		if !f.Submitted() {
			t.Fatalf("round %d: Submitted should be true", i)
		}
		s.Advance(DefaultAckDuration)
		if f.Submitted() {
			t.Fatalf("round %d: Submitted should be false after delay", i)
		}
	}
}

func TestForm_Submit_NotifiesObserverWithTrimmedEmail(t *testing.T) {
	s := newFakeScheduler()
	obs := &recordingObserver{}
	f := newTestForm(s, WithObserver(obs))

	f.InputChange("  alex@example.com \n")
	f.Submit()

	if len(obs.accepted) != 1 {
		t.Fatalf("accepted count = %d, want 1", len(obs.accepted))
	}
	if obs.accepted[0] != "alex@example.com" {
		t.Errorf("accepted email = %q, want %q", obs.accepted[0], "alex@example.com")
	}
	if obs.ignored != 0 {
		t.Errorf("ignored = %d, want 0", obs.ignored)
	}
}

func TestForm_Snapshot_AcknowledgedUntilAndRemaining(t *testing.T) {
	s := newFakeScheduler()
	f := newTestForm(s)
	start := s.Now()

	f.InputChange("alex@example.com")
	f.Submit()

	snap := f.Snapshot()
	want := start.Add(DefaultAckDuration)
	if !snap.AcknowledgedUntil.Equal(want) {
		t.Errorf("AcknowledgedUntil = %v, want %v", snap.AcknowledgedUntil, want)
	}
	if got := snap.Remaining(start.Add(time.Second)); got != 2*time.Second {
		t.Errorf("Remaining = %v, want %v", got, 2*time.Second)
	}
	if got := snap.Remaining(start.Add(10 * time.Second)); got != 0 {
		t.Errorf("Remaining after window = %v, want 0", got)
	}

	s.Advance(DefaultAckDuration)
	snap = f.Snapshot()
	if !snap.AcknowledgedUntil.IsZero() {
		t.Errorf("AcknowledgedUntil after reset = %v, want zero", snap.AcknowledgedUntil)
	}
	if got := snap.Remaining(s.Now()); got != 0 {
		t.Errorf("Remaining in idle = %v, want 0", got)
	}
}

func TestForm_Close_CancelsPendingResetAndIgnoresSubmit(t *testing.T) {
	s := newFakeScheduler()
	obs := &recordingObserver{}
	f := newTestForm(s, WithObserver(obs))

	f.InputChange("alex@example.com")
	f.Submit()
	f.Close()

	if s.Pending() != 0 {
		t.Errorf("pending timers = %d, want 0 after Close", s.Pending())
	}

	f.InputChange("again@example.com")
	f.Submit()
	if len(obs.accepted) != 1 {
		t.Errorf("accepted count = %d, want 1 (submit after Close is ignored)", len(obs.accepted))
	}
	if obs.ignored != 0 {
		t.Errorf("ignored count = %d, want 0 (closed form must not report an empty input)", obs.ignored)
	}

	// 二重Closeでpanicしないこと
	f.Close()
}

func TestForm_RealScheduler_ResetsAfterDelay(t *testing.T) {
	f := NewForm("real", WithAckDuration(20*time.Millisecond))

	f.InputChange("alex@example.com")
	f.Submit()
	if !f.Submitted() {
		t.Fatal("Submitted should be true immediately after submission")
	}

	deadline := time.Now().Add(2 * time.Second)
	for f.Submitted() {
		if time.Now().After(deadline) {
			t.Fatal("Submitted did not reset within 2s")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWithAckDuration_IgnoresNonPositive(t *testing.T) {
	f := NewForm("x", WithAckDuration(0), WithAckDuration(-time.Second))
	if f.ackDuration != DefaultAckDuration {
		t.Errorf("ackDuration = %v, want %v", f.ackDuration, DefaultAckDuration)
	}
}

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"alex@example.com", "a***@example.com"},
		{"a@example.com", "a***@example.com"},
		{"@example.com", "***"},
		{"no-at-sign", "***"},
		{"", "***"},
		{"ä@example.com", "ä***@example.com"},
	}

	for _, tt := range tests {
		if got := MaskEmail(tt.input); got != tt.want {
			t.Errorf("MaskEmail(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

type mockRecorder struct {
	results []string
}

func (m *mockRecorder) RecordSubmission(result string) {
	m.results = append(m.results, result)
}

func TestLogObserver_RecordsMetricsAndMasksEmail(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	rec := &mockRecorder{}

	obs := NewLogObserver(logger, rec)
	obs.Accepted("form-1", "alex@example.com")
	obs.Ignored("form-1")

	if len(rec.results) != 2 || rec.results[0] != ResultAccepted || rec.results[1] != ResultIgnored {
		t.Errorf("results = %v, want [%s %s]", rec.results, ResultAccepted, ResultIgnored)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.Split(buf.Bytes(), []byte("\n"))[0], &entry); err != nil {
		t.Fatalf("failed to parse log line: %v\nraw: %s", err, buf.String())
	}
	if entry["email"] != "a***@example.com" {
		t.Errorf("email = %v, want masked", entry["email"])
	}
	if entry["form_id"] != "form-1" {
		t.Errorf("form_id = %v, want %q", entry["form_id"], "form-1")
	}
	if bytes.Contains(buf.Bytes(), []byte("alex@example.com")) {
		t.Error("log output must not contain the raw email")
	}
}

func TestForm_Submit_AfterClose_RecordsNothing(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "入力あり", input: "alex@example.com"},
		{name: "空白のみ", input: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			rec := &mockRecorder{}
			log := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
			f := newTestForm(newFakeScheduler(), WithObserver(NewLogObserver(log, rec)))

			f.Close()
			f.InputChange(tt.input)
			f.Submit()

			if len(rec.results) != 0 {
				t.Errorf("results = %v, want none after Close", rec.results)
			}
			if logs.Len() != 0 {
				t.Errorf("no log expected after Close, got %s", logs.String())
			}
			if f.Submitted() {
				t.Error("closed form must stay idle")
			}
		})
	}
}
