package page

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static は/static/配下で配信する静的ファイル（CSS、JS）を返す。
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// 埋め込みのディレクトリ名は固定のため発生しない
		panic(err)
	}
	return sub
}
