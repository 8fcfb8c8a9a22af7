package content

import (
	"html/template"

	"github.com/hitoshi/skylaunch/internal/model"
)

// Site はテンプレートに渡す表示用のコンテンツ。
// Markdownのフィールドはサニタイズ済みHTMLに変換済み。
type Site struct {
	Brand        string
	Copyright    string
	Hero         HeroView
	Sections     SectionsView
	Features     []FeatureView
	Testimonials []TestimonialView
	PricingTiers []model.PricingTier
	Newsletter   NewsletterView
	FooterLinks  []model.Link
	SocialLinks  []model.SocialLink
}

type HeroView struct {
	Headline      template.HTML
	Subheading    string
	CTALabel      string
	CTAAriaLabel  string
	CTAHref       string
	BackgroundURL string
}

type SectionsView struct {
	Features     template.HTML
	Testimonials template.HTML
	Pricing      template.HTML
}

type FeatureView struct {
	Icon        string
	Title       string
	Description template.HTML
}

type TestimonialView struct {
	Name   string
	Avatar string
	Quote  template.HTML
}

type NewsletterView struct {
	model.Newsletter
	BlurbHTML template.HTML
}

// BuildSite はコンテンツのMarkdownフィールドを変換して表示用のSiteを組み立てる。
// 起動時に1度だけ呼び出し、結果はリクエスト間で共有する（読み取り専用）。
func BuildSite(c *model.Content, md *MarkdownRenderer) *Site {
	site := &Site{
		Brand:     c.Brand,
		Copyright: c.Copyright,
		Hero: HeroView{
			Headline:      md.Inline(c.Hero.Headline),
			Subheading:    c.Hero.Subheading,
			CTALabel:      c.Hero.CTALabel,
			CTAAriaLabel:  c.Hero.CTAAriaLabel,
			CTAHref:       c.Hero.CTAHref,
			BackgroundURL: c.Hero.BackgroundURL,
		},
		Sections: SectionsView{
			Features:     md.Inline(c.Sections.Features),
			Testimonials: md.Inline(c.Sections.Testimonials),
			Pricing:      md.Inline(c.Sections.Pricing),
		},
		PricingTiers: c.PricingTiers,
		Newsletter: NewsletterView{
			Newsletter: c.Newsletter,
			BlurbHTML:  md.Inline(c.Newsletter.Blurb),
		},
		FooterLinks: c.FooterLinks,
		SocialLinks: c.SocialLinks,
	}
	if site.Copyright == "" {
		site.Copyright = c.Brand
	}

	site.Features = make([]FeatureView, 0, len(c.Features))
	for _, f := range c.Features {
		site.Features = append(site.Features, FeatureView{
			Icon:        f.Icon,
			Title:       f.Title,
			Description: md.Inline(f.Description),
		})
	}

	site.Testimonials = make([]TestimonialView, 0, len(c.Testimonials))
	for _, t := range c.Testimonials {
		site.Testimonials = append(site.Testimonials, TestimonialView{
			Name:   t.Name,
			Avatar: t.Avatar,
			Quote:  md.Inline(t.Quote),
		})
	}

	return site
}
