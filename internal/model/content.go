package model

// Content はランディングページに表示する静的コンテンツ一式。
// YAMLのデータテーブルから読み込む。
type Content struct {
	Brand        string        `yaml:"brand"`
	Hero         Hero          `yaml:"hero"`
	Sections     Sections      `yaml:"sections"`
	Features     []Feature     `yaml:"features"`
	Testimonials []Testimonial `yaml:"testimonials"`
	PricingTiers []PricingTier `yaml:"pricing_tiers"`
	Newsletter   Newsletter    `yaml:"newsletter"`
	FooterLinks  []Link        `yaml:"footer_links"`
	SocialLinks  []SocialLink  `yaml:"social_links"`
	Copyright    string        `yaml:"copyright"`
}

// Hero はファーストビューのバナー。
type Hero struct {
	// Headline はMarkdown。強調部分がアクセントカラーで表示される。
	Headline      string `yaml:"headline"`
	Subheading    string `yaml:"subheading"`
	CTALabel      string `yaml:"cta_label"`
	CTAAriaLabel  string `yaml:"cta_aria_label"`
	CTAHref       string `yaml:"cta_href"`
	BackgroundURL string `yaml:"background_url"`
}

// Sections は各セクションの見出し（Markdown）。
type Sections struct {
	Features     string `yaml:"features"`
	Testimonials string `yaml:"testimonials"`
	Pricing      string `yaml:"pricing"`
}

// Feature は機能紹介カード。
type Feature struct {
	Icon        string `yaml:"icon"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Testimonial は利用者の声。
type Testimonial struct {
	Name   string `yaml:"name"`
	Avatar string `yaml:"avatar"`
	Quote  string `yaml:"quote"`
}

// PricingTier は料金プラン。
type PricingTier struct {
	Name        string   `yaml:"name"`
	Price       string   `yaml:"price"`
	Features    []string `yaml:"features"`
	Recommended bool     `yaml:"recommended"`
}

// Newsletter はニュースレター登録セクションの文言。
type Newsletter struct {
	Heading      string `yaml:"heading"`
	Blurb        string `yaml:"blurb"`
	FormLabel    string `yaml:"form_label"`
	InputLabel   string `yaml:"input_label"`
	Placeholder  string `yaml:"placeholder"`
	ButtonLabel  string `yaml:"button_label"`
	ButtonAria   string `yaml:"button_aria_label"`
	Confirmation string `yaml:"confirmation"`
}

// Link はフッターのページ内リンク。
type Link struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

// SocialLink は外部SNSへのリンク。
type SocialLink struct {
	Label string `yaml:"label"`
	Icon  string `yaml:"icon"`
	Href  string `yaml:"href"`
}
