// Package content はランディングページの静的コンテンツ（データテーブル）を読み込む。
//
// 既定のコンテンツはバイナリに埋め込んだYAMLで、CONTENT_FILEで差し替えられる。
package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hitoshi/skylaunch/internal/model"
)

//go:embed default.yaml
var defaultYAML []byte

// URLValidator は外部URLを検証するインターフェース。
// security.URLGuardServiceが満たす。
type URLValidator interface {
	ValidateExternalURL(rawURL string) error
}

// Default は埋め込みの既定コンテンツを読み込む。
func Default(v URLValidator) (*model.Content, error) {
	return Parse(defaultYAML, v)
}

// Load はpathのYAMLファイルからコンテンツを読み込む。
// pathが空の場合は埋め込みの既定コンテンツを返す。
func Load(path string, v URLValidator) (*model.Content, error) {
	if path == "" {
		return Default(v)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file: %w", err)
	}

	c, err := Parse(data, v)
	if err != nil {
		return nil, fmt.Errorf("content file %s: %w", path, err)
	}
	return c, nil
}

// Parse はYAMLをデコードして検証する。未知のキーはエラーにする。
func Parse(data []byte, v URLValidator) (*model.Content, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c model.Content
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	if err := Validate(&c, v); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate はコンテンツの整合性を検証する。
// 見つかった問題はまとめて1つのエラーとして返す。
func Validate(c *model.Content, v URLValidator) error {
	var errs []error

	if strings.TrimSpace(c.Brand) == "" {
		errs = append(errs, errors.New("brand is required"))
	}
	if strings.TrimSpace(c.Newsletter.ButtonLabel) == "" {
		errs = append(errs, errors.New("newsletter.button_label is required"))
	}
	if strings.TrimSpace(c.Newsletter.Confirmation) == "" {
		errs = append(errs, errors.New("newsletter.confirmation is required"))
	}

	checkLink := func(field, href string) {
		if err := validateHref(href, v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}
	checkExternal := func(field, rawURL string) {
		if v == nil || rawURL == "" {
			return
		}
		if err := v.ValidateExternalURL(rawURL); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}

	if c.Hero.CTAHref != "" {
		checkLink("hero.cta_href", c.Hero.CTAHref)
	}
	checkExternal("hero.background_url", c.Hero.BackgroundURL)

	for i, t := range c.Testimonials {
		checkExternal(fmt.Sprintf("testimonials[%d].avatar", i), t.Avatar)
	}
	for i, l := range c.FooterLinks {
		checkLink(fmt.Sprintf("footer_links[%d].href", i), l.Href)
	}
	for i, l := range c.SocialLinks {
		checkLink(fmt.Sprintf("social_links[%d].href", i), l.Href)
	}

	recommended := 0
	for _, tier := range c.PricingTiers {
		if tier.Recommended {
			recommended++
		}
	}
	if recommended > 1 {
		errs = append(errs, fmt.Errorf("pricing_tiers: at most one tier can be recommended, got %d", recommended))
	}

	return errors.Join(errs...)
}

// validateHref はリンク先がページ内アンカーか、検証済みの外部https URLであることを確認する。
func validateHref(href string, v URLValidator) error {
	if href == "" {
		return errors.New("empty href")
	}
	if strings.HasPrefix(href, "#") {
		if len(href) == 1 {
			return errors.New("empty anchor")
		}
		return nil
	}
	if v == nil {
		return nil
	}
	return v.ValidateExternalURL(href)
}
