// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/skylaunch/internal/model"
	"github.com/hitoshi/skylaunch/internal/newsletter"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// formContextKey はリクエストコンテキストにフォームインスタンスを格納するためのキー。
var formContextKey = contextKey("form")

// errFormNotInContext はコンテキストにフォームがない場合のエラー。
var errFormNotInContext = errors.New("form not found in context")

// FormFinder はフォームインスタンスの検索に必要なインターフェース。
// newsletter.Registryの部分集合として定義する。
type FormFinder interface {
	Get(id string) (*newsletter.Form, bool)
}

// NewFormMiddleware はURLパラメータ{id}のフォームインスタンスを検索し、
// リクエストコンテキストに注入するミドルウェアを返す。
// 見つからない場合（期限切れで破棄された場合を含む）は404 FORM_NOT_FOUNDを返す。
func NewFormMiddleware(finder FormFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")

			form, ok := finder.Get(id)
			if !ok {
				WriteErrorResponse(w, http.StatusNotFound, model.NewFormNotFoundError(id))
				return
			}

			SetLogFormID(r.Context(), form.ID())
			next.ServeHTTP(w, r.WithContext(ContextWithForm(r.Context(), form)))
		})
	}
}

// FormFromContext はリクエストコンテキストからフォームインスタンスを取得する。
// フォームミドルウェアを通過したリクエストでのみ有効。
func FormFromContext(ctx context.Context) (*newsletter.Form, error) {
	form, ok := ctx.Value(formContextKey).(*newsletter.Form)
	if !ok || form == nil {
		return nil, errFormNotInContext
	}
	return form, nil
}

// ContextWithForm はコンテキストにフォームインスタンスを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithForm(ctx context.Context, form *newsletter.Form) context.Context {
	return context.WithValue(ctx, formContextKey, form)
}
