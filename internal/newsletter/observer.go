package newsletter

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

// 登録試行の結果ラベル。メトリクスのラベル値としても使う。
const (
	ResultAccepted = "accepted"
	ResultIgnored  = "ignored"
)

// Observer はフォームの登録結果を受け取る外部の協力者。
// Acceptedには前後の空白を除いた空でないメールアドレスだけが渡される。
type Observer interface {
	Accepted(formID, email string)
	Ignored(formID string)
}

// SubmissionRecorder は登録結果をメトリクスとして記録するインターフェース。
type SubmissionRecorder interface {
	RecordSubmission(result string)
}

type nopObserver struct{}

func (nopObserver) Accepted(string, string) {}
func (nopObserver) Ignored(string)          {}

// logObserver は登録結果をログとメトリクスに記録するObserver。
// メールアドレスはマスクしてログに出力し、どこにも保存しない。
type logObserver struct {
	logger   *slog.Logger
	recorder SubmissionRecorder
}

// NewLogObserver はログとメトリクスに登録結果を記録するObserverを生成する。
// recorderがnilの場合はログのみ出力する。
func NewLogObserver(logger *slog.Logger, recorder SubmissionRecorder) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &logObserver{
		logger:   logger,
		recorder: recorder,
	}
}

func (o *logObserver) Accepted(formID, email string) {
	if o.recorder != nil {
		o.recorder.RecordSubmission(ResultAccepted)
	}
	o.logger.Info("ニュースレター登録を受け付けました",
		slog.String("form_id", formID),
		slog.String("email", MaskEmail(email)),
	)
}

func (o *logObserver) Ignored(formID string) {
	if o.recorder != nil {
		o.recorder.RecordSubmission(ResultIgnored)
	}
	o.logger.Debug("空の入力のため登録を無視しました",
		slog.String("form_id", formID),
	)
}

// MaskEmail はログ出力用にメールアドレスのローカル部を伏せ字にする。
// 例: "alex@example.com" -> "a***@example.com"
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	first, _ := utf8.DecodeRuneInString(email)
	return string(first) + "***" + email[at:]
}
