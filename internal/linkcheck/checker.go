package linkcheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
)

// userAgent はリンクチェック時に送信するUser-Agent。
const userAgent = "SkyLaunch-LinkCheck/1.0"

// maxDrainBytes はコネクション再利用のために読み捨てるボディの上限。
const maxDrainBytes = 64 << 10

// Result は1件のリンクの確認結果。
type Result struct {
	URL        string
	StatusCode int
	Err        error
}

// OK はリンクが到達可能（2xxまたは3xx）かどうかを返す。
func (r Result) OK() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 400
}

// Checker は外部リンクにHTTPリクエストを送り、到達可能かを確認する。
type Checker struct {
	client        *http.Client
	maxConcurrent int
	logger        *slog.Logger
}

// NewChecker はCheckerを生成する。
// clientにはSSRF対策済みのクライアントを渡すこと。maxConcurrentが0以下の場合は1とする。
func NewChecker(client *http.Client, maxConcurrent int, logger *slog.Logger) *Checker {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		client:        client,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// Check は1件のリンクを確認する。
// まずHEADを送り、サーバーがHEADを受け付けない（405, 501）場合はGETで再確認する。
func (c *Checker) Check(ctx context.Context, link string) Result {
	status, err := c.do(ctx, http.MethodHead, link)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, err = c.do(ctx, http.MethodGet, link)
	}
	return Result{URL: link, StatusCode: status, Err: err}
}

func (c *Checker) do(ctx context.Context, method, link string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, link, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, link, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	return resp.StatusCode, nil
}

// CheckAll はリンクを最大maxConcurrent件ずつ並列に確認する。
// 結果はlinksと同じ順序で返す。
func (c *Checker) CheckAll(ctx context.Context, links []string) []Result {
	results := make([]Result, len(links))

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, c.maxConcurrent)
	var wg sync.WaitGroup

	for i, link := range links {
		wg.Add(1)
		sem <- struct{}{}

		go func(i int, link string) {
			defer wg.Done()
			defer func() { <-sem }()

			results[i] = c.Check(ctx, link)

			if !results[i].OK() {
				attrs := []any{
					slog.String("url", link),
					slog.Int("status", results[i].StatusCode),
				}
				if results[i].Err != nil {
					attrs = append(attrs, slog.String("error", results[i].Err.Error()))
				}
				c.logger.Warn("リンクに到達できません", attrs...)
			}
		}(i, link)
	}

	wg.Wait()
	return results
}

// Broken は到達できなかった結果のみを返す。
func Broken(results []Result) []Result {
	var broken []Result
	for _, r := range results {
		if !r.OK() {
			broken = append(broken, r)
		}
	}
	return broken
}
