// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はMarkdownから生成したコピーテキストのHTMLをサニタイズする。
// bluemondayの許可リストベースのポリシーで、インライン装飾と段落、リンクのみを通過させる。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はHTMLコンテンツのサニタイズ機能のインターフェースを定義する。
// コンテンツテーブルのMarkdownをHTMLに変換した後、テンプレートに渡す前に使用される。
type ContentSanitizerService interface {
	// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, a, strong, em, code, ul, ol, li）のみを通過させる。
	// aタグのhrefはhttps URLまたはページ内アンカーのみ許可し、
	// 外部リンクにはtarget="_blank"とrel="noopener noreferrer"が自動付与される。
	Sanitize(rawHTML string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	// script, iframe, style, img等は許可リストに含めないことで除去される
	p.AllowElements(
		"p", "br", "strong", "em", "code",
		"ul", "ol", "li",
	)

	// ページ内アンカー（#pricing等）は相対URLとして許可する
	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("https")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}
