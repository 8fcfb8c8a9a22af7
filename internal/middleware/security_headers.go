package middleware

import "net/http"

// contentSecurityPolicy はページとAPIに共通のCSP。
// スクリプトとスタイルは/static/配下の自サイトのファイルのみ許可し、
// 画像（ヒーロー背景、アバター）はhttpsの外部ホストからの読み込みを許可する。
const contentSecurityPolicy = "default-src 'self'; " +
	"img-src 'self' https:; " +
	"style-src 'self'; " +
	"script-src 'self'; " +
	"form-action 'self'; " +
	"frame-ancestors 'none'; " +
	"base-uri 'self'"

// NewSecurityHeadersMiddleware はセキュリティ関連のHTTPレスポンスヘッダーを付与するミドルウェアを返す。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			w.Header().Set("Content-Security-Policy", contentSecurityPolicy)
			next.ServeHTTP(w, r)
		})
	}
}
