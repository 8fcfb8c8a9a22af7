// Package linkcheck は描画済みページに含まれる外部リンクの死活を確認する。
package linkcheck

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// linkAttrs はリンク先を保持する属性名。
var linkAttrs = map[string]bool{
	"href": true,
	"src":  true,
}

// ExtractExternalLinks はHTML文書からhttp/httpsの絶対URLを持つhref・src属性の値を返す。
// 結果は文書順で、重複は除く。ページ内アンカーや相対パスは含めない。
func ExtractExternalLinks(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	seen := make(map[string]bool)
	var links []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, attr := range n.Attr {
				if !linkAttrs[attr.Key] {
					continue
				}
				link := strings.TrimSpace(attr.Val)
				if !isExternal(link) || seen[link] {
					continue
				}
				seen[link] = true
				links = append(links, link)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

func isExternal(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
