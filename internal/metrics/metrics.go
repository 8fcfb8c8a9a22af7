// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラー、ミドルウェア、ニュースレターのObserverから利用する。
type MetricsCollector interface {
	RecordPageView()
	RecordSubmission(result string)
	RecordHTTPStatus(statusCode int)
	RecordRenderLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	reg           prometheus.Registerer
	pageViews     prometheus.Counter
	submissions   *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
	renderLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		reg: reg,
		pageViews: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skylaunch_page_views_total",
			Help: "ランディングページ表示の合計数",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skylaunch_newsletter_submissions_total",
			Help: "ニュースレター登録の試行数（accepted/ignored）",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skylaunch_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		renderLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skylaunch_render_latency_seconds",
			Help:    "ページ描画のレイテンシ（秒）",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
	}

	reg.MustRegister(
		c.pageViews,
		c.submissions,
		c.httpStatus,
		c.renderLatency,
	)

	return c
}

// ObserveFormInstances は保持中のフォームインスタンス数をゲージとして公開する。
// countはスクレイプのたびに呼び出される。
func (c *Collector) ObserveFormInstances(count func() int) error {
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "skylaunch_form_instances",
		Help: "保持中のニュースレターフォームインスタンス数",
	}, func() float64 {
		return float64(count())
	})
	if err := c.reg.Register(gauge); err != nil {
		return fmt.Errorf("failed to register form instances gauge: %w", err)
	}
	return nil
}

// RecordPageView はページ表示を記録する。
func (c *Collector) RecordPageView() {
	c.pageViews.Inc()
}

// RecordSubmission はニュースレター登録の試行結果を記録する。
func (c *Collector) RecordSubmission(result string) {
	c.submissions.WithLabelValues(result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRenderLatency はページ描画のレイテンシを記録する。
func (c *Collector) RecordRenderLatency(duration time.Duration) {
	c.renderLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
