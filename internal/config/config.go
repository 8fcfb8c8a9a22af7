// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"log/slog"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string

	// Newsletter form
	AckDuration         time.Duration
	FormTTL             time.Duration
	FormCleanupInterval time.Duration
	FormMaxInstances    int

	// Rate Limit
	RateLimitSubmit int
	// TrustedProxies はX-Forwarded-Forを信用するプロキシ（IPまたはCIDRのカンマ区切り）
	TrustedProxies []netip.Prefix

	// Content
	ContentFile string

	// Logging
	LogLevel slog.Level

	// Link check
	LinkcheckTimeout       time.Duration
	LinkcheckMaxConcurrent int
}

// LoadDotEnv はカレントディレクトリの.envファイルを環境変数に読み込む。
// 既に設定済みの環境変数は上書きしない。ファイルが存在しない場合は何もしない。
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load は環境変数からConfigを読み込む。
// 必須の環境変数はない。値が不正な場合は既定値を使うが、
// BASE_URLが絶対URLでない場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8080")
	if err := validateBaseURL(cfg.BaseURL); err != nil {
		return nil, err
	}

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.AckDuration = getEnvDuration("ACK_DURATION", 3*time.Second)
	cfg.FormTTL = getEnvDuration("FORM_TTL", 30*time.Minute)
	cfg.FormCleanupInterval = getEnvDuration("FORM_CLEANUP_INTERVAL", 5*time.Minute)
	cfg.FormMaxInstances = getEnvInt("FORM_MAX_INSTANCES", 10000)
	cfg.RateLimitSubmit = getEnvInt("RATE_LIMIT_SUBMIT", 30)
	proxies, err := parseTrustedProxies(getEnvString("TRUSTED_PROXIES", ""))
	if err != nil {
		return nil, err
	}
	cfg.TrustedProxies = proxies
	cfg.ContentFile = getEnvString("CONTENT_FILE", "")
	cfg.LogLevel = getEnvLogLevel("LOG_LEVEL", slog.LevelInfo)
	cfg.LinkcheckTimeout = getEnvDuration("LINKCHECK_TIMEOUT", 10*time.Second)
	cfg.LinkcheckMaxConcurrent = getEnvInt("LINKCHECK_MAX_CONCURRENT", 4)

	return cfg, nil
}

// validateBaseURL はBASE_URLがhttp/httpsの絶対URLであることを検証する。
func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid BASE_URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid BASE_URL: must be an absolute http(s) URL: %q", raw)
	}
	return nil
}

// parseTrustedProxies はカンマ区切りのIPアドレスまたはCIDRを解析する。
// 単一のIPアドレスはそのアドレスだけを含む範囲として扱う。
func parseTrustedProxies(raw string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", item, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", item, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvInt は正の整数値を読み込む。0以下や不正な値の場合は既定値を返す。
func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

// getEnvDuration は正の時間を読み込む。0以下や不正な値の場合は既定値を返す。
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func getEnvLogLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return level
}
