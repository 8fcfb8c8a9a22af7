package content

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

// Sanitizer はMarkdownから生成したHTMLを安全なHTMLに変換する。
// security.ContentSanitizerServiceが満たす。
type Sanitizer interface {
	Sanitize(rawHTML string) string
}

// MarkdownRenderer はコピーテキストのMarkdownをサニタイズ済みHTMLに変換する。
type MarkdownRenderer struct {
	engine    goldmark.Markdown
	sanitizer Sanitizer
}

// NewMarkdownRenderer は新しいMarkdownRendererを生成する。
func NewMarkdownRenderer(sanitizer Sanitizer) *MarkdownRenderer {
	return &MarkdownRenderer{
		engine: goldmark.New(
			goldmark.WithExtensions(
				extension.Strikethrough,
				extension.Linkify,
			),
			goldmark.WithRendererOptions(
				htmlrenderer.WithHardWraps(),
			),
		),
		sanitizer: sanitizer,
	}
}

// Block はMarkdownを段落を含むHTMLに変換する。
func (r *MarkdownRenderer) Block(markdownText string) template.HTML {
	text := strings.TrimSpace(markdownText)
	if text == "" {
		return ""
	}

	var out bytes.Buffer
	if err := r.engine.Convert([]byte(text), &out); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}

	// サニタイズ済みの文字列のみtemplate.HTMLとして扱う
	return template.HTML(r.sanitizer.Sanitize(out.String()))
}

// Inline は見出しやボタンなど段落の中に置くテキスト向けに、
// 単一段落の場合は外側の<p>を取り除いたHTMLを返す。
func (r *MarkdownRenderer) Inline(markdownText string) template.HTML {
	html := strings.TrimSpace(string(r.Block(markdownText)))
	if strings.HasPrefix(html, "<p>") && strings.HasSuffix(html, "</p>") &&
		strings.Count(html, "<p>") == 1 {
		html = strings.TrimSuffix(strings.TrimPrefix(html, "<p>"), "</p>")
	}
	return template.HTML(html)
}
