// Package cleanup は放置されたフォームインスタンスの自動破棄ジョブを提供する。
// 最後のアクセスからTTLを超過したインスタンスを定期的に破棄し、
// 予約中の受付表示リセットも取り消す。
package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// DefaultTTL はフォームインスタンスを保持する既定の時間。
const DefaultTTL = 30 * time.Minute

// Evicter はフォームインスタンスの破棄を抽象化するインターフェース。
// *newsletter.Registry を受け付けることができる。
type Evicter interface {
	EvictIdle(ttl time.Duration) int
	Len() int
}

// CleanupJob はTTLを超過したフォームインスタンスの破棄ジョブ。
// 何度実行しても結果が変わらない冪等な処理として設計されている。
type CleanupJob struct {
	forms  Evicter
	logger *slog.Logger
	TTL    time.Duration // 最後のアクセスからの保持時間（デフォルト: 30分）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトのTTLは30分。
func NewCleanupJob(forms Evicter, logger *slog.Logger) *CleanupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupJob{
		forms:  forms,
		logger: logger,
		TTL:    DefaultTTL,
	}
}

// Run はTTLを超過したフォームインスタンスを破棄する。
// 破棄対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	evicted := j.forms.EvictIdle(j.TTL)
	duration := time.Since(start)

	j.logger.Info("フォームクリーンアップジョブが完了しました",
		slog.Int("evicted_count", evicted),
		slog.Int("remaining_count", j.forms.Len()),
		slog.Duration("ttl", j.TTL),
		slog.Float64("duration_ms", float64(duration.Microseconds())/1000),
	)

	return nil
}

// Start はintervalごとにRunを実行する。ctxがキャンセルされるまでブロックする。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil && ctx.Err() == nil {
				j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
			}
		}
	}
}
