package page

import (
	"html/template"
)

// iconPaths はアイコン名ごとのSVGの中身（24x24のストロークアイコン）。
var iconPaths = map[string]string{
	"rocket": `<path d="M4.5 16.5c-1.5 1.26-2 5-2 5s3.74-.5 5-2c.71-.84.7-2.13-.09-2.91a2.18 2.18 0 0 0-2.91-.09z"/>` +
		`<path d="m12 15-3-3a22 22 0 0 1 2-3.95A12.88 12.88 0 0 1 22 2c0 2.72-.78 7.5-6 11a22.35 22.35 0 0 1-4 2z"/>` +
		`<path d="M9 12H4s.55-3.03 2-4c1.62-1.08 5 0 5 0"/>` +
		`<path d="M12 15v5s3.03-.55 4-2c1.08-1.62 0-5 0-5"/>`,
	"zap": `<polygon points="13 2 3 14 12 14 11 22 21 10 12 10 13 2"/>`,
	"layers": `<polygon points="12 2 2 7 12 12 22 7 12 2"/>` +
		`<polyline points="2 17 12 22 22 17"/>` +
		`<polyline points="2 12 12 17 22 12"/>`,
	"users": `<path d="M16 21v-2a4 4 0 0 0-4-4H6a4 4 0 0 0-4 4v2"/>` +
		`<circle cx="9" cy="7" r="4"/>` +
		`<path d="M22 21v-2a4 4 0 0 0-3-3.87"/>` +
		`<path d="M16 3.13a4 4 0 0 1 0 7.75"/>`,
	"dollar-sign": `<line x1="12" x2="12" y1="2" y2="22"/>` +
		`<path d="M17 5H9.5a3.5 3.5 0 0 0 0 7h5a3.5 3.5 0 0 1 0 7H6"/>`,
	"mail": `<rect width="20" height="16" x="2" y="4" rx="2"/>` +
		`<path d="m22 7-8.97 5.7a1.94 1.94 0 0 1-2.06 0L2 7"/>`,
	"twitter": `<path d="M22 4s-.7 2.1-2 3.4c1.6 10-9.4 17.3-18 11.6 2.2.1 4.4-.6 6-2C3 15.5.5 9.6 3 5c2.2 2.6 5.6 4.1 9 4-.9-4.2 4-6.6 7-3.8 1.1 0 3-1.2 3-1.2z"/>`,
	"github": `<path d="M15 22v-4a4.8 4.8 0 0 0-1-3.5c3 0 6-2 6-5.5.08-1.25-.27-2.48-1-3.5.28-1.15.28-2.35 0-3.5 0 0-1 0-3 1.5-2.64-.5-5.36-.5-8 0C6 2 5 2 5 2c-.3 1.15-.3 2.35 0 3.5A5.403 5.403 0 0 0 4 9c0 3.5 3 5.5 6 5.5-.39.49-.68 1.05-.85 1.65-.17.6-.22 1.23-.15 1.85v4"/>` +
		`<path d="M9 18c-4.51 2-5-2-7-2"/>`,
	"linkedin": `<path d="M16 8a6 6 0 0 1 6 6v7h-4v-7a2 2 0 0 0-2-2 2 2 0 0 0-2 2v7h-4v-7a6 6 0 0 1 6-6z"/>` +
		`<rect width="4" height="12" x="2" y="9"/>` +
		`<circle cx="4" cy="4" r="2"/>`,
}

// icon は装飾用のインラインSVGを返す。未知の名前は空文字列。
func icon(name, class string) template.HTML {
	paths, ok := iconPaths[name]
	if !ok {
		return ""
	}
	return template.HTML(`<svg class="` + template.HTMLEscapeString(class) +
		`" xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" aria-hidden="true" focusable="false">` +
		paths + `</svg>`)
}
