// Package page はランディングページのHTMLを描画する。
//
// テンプレートはバイナリに埋め込まれており、描画はコンテンツ・フォームの状態・
// CSRFトークン・年の純粋な関数になっている。
package page

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/hitoshi/skylaunch/internal/content"
	"github.com/hitoshi/skylaunch/internal/newsletter"
)

// FormView はテンプレートに渡すニュースレターフォームの表示状態。
type FormView struct {
	ID        string
	Email     string
	Submitted bool
	// DismissAfterMS は確認メッセージを隠すまでのミリ秒。Submittedのときのみ意味を持つ。
	DismissAfterMS int64
}

// NewFormView はフォームのスナップショットから表示状態を作る。
func NewFormView(s newsletter.Snapshot, now time.Time) FormView {
	return FormView{
		ID:             s.ID,
		Email:          s.Email,
		Submitted:      s.Submitted,
		DismissAfterMS: s.Remaining(now).Milliseconds(),
	}
}

// pageData はテンプレートのルートデータ。
type pageData struct {
	Site      *content.Site
	Form      FormView
	CSRFToken string
	Year      int
}

// Renderer はページテンプレートを保持する。並行に使用してよい。
type Renderer struct {
	tmpl *template.Template
	site *content.Site
}

// NewRenderer は埋め込みテンプレートを解析してRendererを生成する。
func NewRenderer(site *content.Site) (*Renderer, error) {
	tmpl, err := template.New("").
		Funcs(template.FuncMap{"icon": icon}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	return &Renderer{
		tmpl: tmpl,
		site: site,
	}, nil
}

// Render はページ全体をwに書き出す。
// テンプレートの実行に失敗した場合は何も書き出さずにエラーを返す。
func (r *Renderer) Render(w io.Writer, form FormView, csrfToken string, year int) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "page", pageData{
		Site:      r.site,
		Form:      form,
		CSRFToken: csrfToken,
		Year:      year,
	}); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write page: %w", err)
	}
	return nil
}
