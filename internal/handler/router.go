package handler

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/skylaunch/internal/middleware"
)

// maxRequestBytes は全リクエスト共通のボディ上限。
const maxRequestBytes = 64 << 10

// MetricsRecorder はルーター全体で使うメトリクスの記録先。
type MetricsRecorder interface {
	PageMetrics
	middleware.HTTPStatusRecorder
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// フォームとページ
	Forms    FormRegistry
	Renderer PageRenderer
	StaticFS fs.FS

	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	CSRF              middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter

	// メトリクス
	Metrics        MetricsRecorder
	MetricsHandler http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → (CORS: /apiのみ) → CSRF → SubmitRateLimit → Form
//
// /health・/metrics・/staticはCSRFの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(chimw.RequestSize(maxRequestBytes))

	var pageMetrics PageMetrics
	if deps.Metrics != nil {
		pageMetrics = deps.Metrics
	}
	pageHandler := NewPageHandler(deps.Forms, deps.Renderer, pageMetrics, logger)
	formHandler := NewFormHandler(deps.Forms)
	csrf := middleware.NewCSRFMiddleware(deps.CSRF)
	submitLimit := submitMiddleware(deps.RateLimiter, false)
	pageSubmitLimit := submitMiddleware(deps.RateLimiter, true)
	formLookup := middleware.NewFormMiddleware(deps.Forms)

	// --- 運用系のルート ---
	r.Get("/health", Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	if deps.StaticFS != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(deps.StaticFS)))
	}

	// --- ページ ---
	r.Group(func(r chi.Router) {
		r.Use(csrf)

		r.Get("/", pageHandler.Index)
		r.With(pageSubmitLimit).Post("/newsletter", pageHandler.Subscribe)
	})

	// --- フォームAPI ---
	// ミドルウェアスタック: CORS → CSRF
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
		r.Use(csrf)

		r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRF))

		r.Route("/forms", func(r chi.Router) {
			r.Post("/", formHandler.CreateForm)

			// レート制限はフォームの検索より先に適用する
			r.Route("/{id}", func(r chi.Router) {
				r.With(formLookup).Get("/", formHandler.GetForm)
				r.With(formLookup).Put("/email", formHandler.UpdateEmail)
				r.With(submitLimit, formLookup).Post("/submit", formHandler.SubmitForm)
			})
		})
	})

	return r
}

// submitMiddleware はレート制限ミドルウェアを返す。limiterがnilの場合は何もしない。
// htmlがtrueの場合は、HTMLフォーム向けにプレーンテキストで429を返す。
func submitMiddleware(limiter *middleware.RateLimiter, html bool) func(http.Handler) http.Handler {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if html {
		return limiter.SubmitPageMiddleware()
	}
	return limiter.SubmitMiddleware()
}
