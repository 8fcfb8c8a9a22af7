// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/skylaunch/internal/middleware"
	"github.com/hitoshi/skylaunch/internal/model"
	"github.com/hitoshi/skylaunch/internal/newsletter"
	"github.com/hitoshi/skylaunch/internal/page"
)

// FormRegistry はハンドラーが必要とするフォームインスタンス管理のインターフェース。
// newsletter.Registryの部分集合として定義する。
type FormRegistry interface {
	// Open は新しいフォームインスタンスを生成して登録する。
	Open() *newsletter.Form
	// Get はIDでフォームインスタンスを検索する。
	Get(id string) (*newsletter.Form, bool)
}

// PageRenderer はページ全体の描画を行うインターフェース。
type PageRenderer interface {
	Render(w io.Writer, form page.FormView, csrfToken string, year int) error
}

// PageMetrics はページ描画に関するメトリクスの記録先。
type PageMetrics interface {
	RecordPageView()
	RecordRenderLatency(duration time.Duration)
}

type nopPageMetrics struct{}

func (nopPageMetrics) RecordPageView()                   {}
func (nopPageMetrics) RecordRenderLatency(time.Duration) {}

// PageHandler はランディングページの表示とフォーム送信を処理する。
type PageHandler struct {
	forms    FormRegistry
	renderer PageRenderer
	metrics  PageMetrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewPageHandler はPageHandlerを生成する。metricsとloggerはnilでもよい。
func NewPageHandler(forms FormRegistry, renderer PageRenderer, metrics PageMetrics, logger *slog.Logger) *PageHandler {
	if metrics == nil {
		metrics = nopPageMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PageHandler{
		forms:    forms,
		renderer: renderer,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Index はページを表示する。ページを読み込むたびに新しいフォームインスタンスを開く。
// GET /
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	form := h.forms.Open()
	middleware.SetLogFormID(r.Context(), form.ID())

	h.metrics.RecordPageView()
	h.render(w, r, form)
}

// Subscribe はJavaScriptなしのフォーム送信を処理する。
// 入力値を反映してから送信し、同じインスタンスでページを再描画する。
// 空の入力は無視されるだけでエラーにはならない。
// POST /newsletter
func (h *PageHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("フォームを解析できません"))
		return
	}

	// 期限切れなどで見つからないIDは新しいインスタンスに置き換える
	form, ok := h.forms.Get(r.PostFormValue("form_id"))
	if !ok {
		form = h.forms.Open()
	}
	middleware.SetLogFormID(r.Context(), form.ID())

	form.InputChange(r.PostFormValue("email"))
	form.Submit()

	h.render(w, r, form)
}

// render はフォームの現在の状態でページを描画する。
func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, form *newsletter.Form) {
	start := h.now()
	view := page.NewFormView(form.Snapshot(), start)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	err := h.renderer.Render(w, view, middleware.CSRFTokenFromContext(r.Context()), start.Year())
	if err != nil {
		h.logger.Error("failed to render page",
			slog.String("form_id", form.ID()),
			slog.String("error", err.Error()),
		)
		w.Header().Del("Cache-Control")
		middleware.WriteInternalServerError(w)
		return
	}

	h.metrics.RecordRenderLatency(h.now().Sub(start))
}
