package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/skylaunch/internal/config"
	"github.com/hitoshi/skylaunch/internal/content"
	"github.com/hitoshi/skylaunch/internal/handler"
	"github.com/hitoshi/skylaunch/internal/linkcheck"
	"github.com/hitoshi/skylaunch/internal/logger"
	"github.com/hitoshi/skylaunch/internal/metrics"
	"github.com/hitoshi/skylaunch/internal/middleware"
	"github.com/hitoshi/skylaunch/internal/newsletter"
	"github.com/hitoshi/skylaunch/internal/page"
	"github.com/hitoshi/skylaunch/internal/security"
	"github.com/hitoshi/skylaunch/internal/worker/cleanup"
)

// logLevel はグローバルロガーのレベル。設定読み込み後にLOG_LEVELで上書きする。
var logLevel = new(slog.LevelVar)

// Init はアプリケーションの初期化を行う。
// .envファイルと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, logLevel)

	// 2. .envファイルと環境変数から設定を読み込む
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. ログレベルを設定値に合わせる
	logLevel.Set(cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandLinkcheck:
		return runLinkcheck(cfg)
	default:
		return runServe(cfg)
	}
}

// loadRenderer はコンテンツを読み込み、検証し、ページのRendererを構築する。
func loadRenderer(cfg *config.Config, guard security.URLGuardService) (*page.Renderer, error) {
	c, err := content.Load(cfg.ContentFile, guard)
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}

	md := content.NewMarkdownRenderer(security.NewContentSanitizer())
	renderer, err := page.NewRenderer(content.BuildSite(c, md))
	if err != nil {
		return nil, fmt.Errorf("failed to build renderer: %w", err)
	}
	return renderer, nil
}

// server はserveモードで動く部品一式。
type server struct {
	handler     http.Handler
	forms       *newsletter.Registry
	rateLimiter *middleware.RateLimiter
	cleanupJob  *cleanup.CleanupJob
}

// newServer は全依存関係をワイヤリングする。
// 返されたserverは使用後にcloseを呼ぶこと。
func newServer(cfg *config.Config, log *slog.Logger) (*server, error) {
	// 1. セキュリティサービスとページの初期化
	urlGuard := security.NewURLGuard()
	renderer, err := loadRenderer(cfg, urlGuard)
	if err != nil {
		return nil, err
	}

	// 2. メトリクスの初期化
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(promReg)

	// 3. フォームインスタンスの管理
	forms := newsletter.NewRegistry(newsletter.RegistryConfig{
		MaxInstances: cfg.FormMaxInstances,
		FormOptions: []newsletter.Option{
			newsletter.WithAckDuration(cfg.AckDuration),
			newsletter.WithObserver(newsletter.NewLogObserver(log, collector)),
		},
	})
	if err := collector.ObserveFormInstances(forms.Len); err != nil {
		forms.Close()
		return nil, fmt.Errorf("failed to register form gauge: %w", err)
	}

	cleanupJob := cleanup.NewCleanupJob(forms, log)
	cleanupJob.TTL = cfg.FormTTL

	// 4. ルーターの構築
	limitConfig := middleware.RateLimiterConfigPerMinute(cfg.RateLimitSubmit)
	limitConfig.TrustedProxies = cfg.TrustedProxies
	rateLimiter := middleware.NewRateLimiter(limitConfig)

	deps := &handler.RouterDeps{
		Forms:    forms,
		Renderer: renderer,
		StaticFS: page.Static(),

		Logger:            log,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRF: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		RateLimiter: rateLimiter,

		Metrics:        collector,
		MetricsHandler: metrics.Handler(promReg),
	}

	return &server{
		handler:     handler.NewRouter(deps),
		forms:       forms,
		rateLimiter: rateLimiter,
		cleanupJob:  cleanupJob,
	}, nil
}

func (s *server) close() {
	s.rateLimiter.Stop()
	s.forms.Close()
}

// runServe はHTTPサーバーモードで起動する。
// 全依存関係をワイヤリングし、フォームのクリーンアップジョブとHTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	srv, err := newServer(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer srv.close()

	httpServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 放置されたフォームインスタンスを定期的に破棄する
	go srv.cleanupJob.Start(ctx, cfg.FormCleanupInterval)

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", httpServer.Addr),
			slog.Duration("ack_duration", cfg.AckDuration),
			slog.Duration("form_ttl", cfg.FormTTL),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
	}
	slog.Info("shutting down HTTP server...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("HTTP server stopped gracefully")
	return nil
}

// runLinkcheck はページに掲載している外部リンクの死活を確認する。
// 到達できないリンクが1件でもあればエラーを返し、終了コードを非0にする。
func runLinkcheck(cfg *config.Config) error {
	urlGuard := security.NewURLGuard()
	renderer, err := loadRenderer(cfg, urlGuard)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checker := linkcheck.NewChecker(
		urlGuard.NewSafeClient(cfg.LinkcheckTimeout),
		cfg.LinkcheckMaxConcurrent,
		slog.Default(),
	)
	return checkPageLinks(ctx, renderer, checker, slog.Default())
}

// checkPageLinks はページを描画し、含まれる外部リンクをすべて確認する。
func checkPageLinks(ctx context.Context, renderer handler.PageRenderer, checker *linkcheck.Checker, log *slog.Logger) error {
	var buf bytes.Buffer
	if err := renderer.Render(&buf, page.FormView{}, "", time.Now().Year()); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}

	links, err := linkcheck.ExtractExternalLinks(&buf)
	if err != nil {
		return fmt.Errorf("failed to extract links: %w", err)
	}

	start := time.Now()
	results := checker.CheckAll(ctx, links)
	broken := linkcheck.Broken(results)

	log.Info("リンクチェックが完了しました",
		slog.Int("link_count", len(links)),
		slog.Int("broken_count", len(broken)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	if len(broken) > 0 {
		return fmt.Errorf("%d of %d links are broken", len(broken), len(links))
	}
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
