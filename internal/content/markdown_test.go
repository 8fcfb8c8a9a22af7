package content

import (
	"strings"
	"testing"

	"github.com/hitoshi/skylaunch/internal/security"
)

func TestMarkdownRenderer_Inline(t *testing.T) {
	md := NewMarkdownRenderer(security.NewContentSanitizer())

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "強調",
			input: "Launch Your Startup **10x Faster** with SkyLaunch AI",
			want:  "Launch Your Startup <strong>10x Faster</strong> with SkyLaunch AI",
		},
		{
			name:  "プレーンテキスト",
			input: "What Our Users Say",
			want:  "What Our Users Say",
		},
		{
			name:  "空文字列",
			input: "   ",
			want:  "",
		},
		{
			name:  "生のHTMLはエスケープまたは除去される",
			input: "Hello <script>alert(1)</script> world",
			want:  "Hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(md.Inline(tt.input))
			if tt.want == "" {
				if got != "" {
					t.Errorf("Inline(%q) = %q, want empty", tt.input, got)
				}
				return
			}
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("Inline(%q) = %q, want prefix %q", tt.input, got, tt.want)
			}
			if strings.Contains(got, "<script") {
				t.Errorf("Inline(%q) = %q contains script tag", tt.input, got)
			}
			if strings.HasPrefix(got, "<p>") {
				t.Errorf("Inline(%q) = %q should not be wrapped in <p>", tt.input, got)
			}
		})
	}
}

func TestMarkdownRenderer_Block_KeepsParagraphs(t *testing.T) {
	md := NewMarkdownRenderer(security.NewContentSanitizer())

	got := string(md.Block("First paragraph.\n\nSecond paragraph."))

	if strings.Count(got, "<p>") != 2 {
		t.Errorf("Block() = %q, want 2 paragraphs", got)
	}
	// 複数段落のInlineは<p>を残す
	inline := string(md.Inline("First paragraph.\n\nSecond paragraph."))
	if strings.Count(inline, "<p>") != 2 {
		t.Errorf("Inline() = %q, want paragraphs kept for multi-paragraph input", inline)
	}
}

func TestMarkdownRenderer_Links(t *testing.T) {
	md := NewMarkdownRenderer(security.NewContentSanitizer())

	tests := []struct {
		name       string
		input      string
		wantSubstr []string
		notSubstr  []string
	}{
		{
			name:       "外部httpsリンク",
			input:      "See [docs](https://example.com/docs)",
			wantSubstr: []string{`href="https://example.com/docs"`, `target="_blank"`, "noreferrer"},
		},
		{
			name:       "ページ内アンカー",
			input:      "See [pricing](#pricing)",
			wantSubstr: []string{`href="#pricing"`},
			notSubstr:  []string{`target="_blank"`},
		},
		{
			name:      "javascriptスキーム",
			input:     "[click](javascript:alert(1))",
			notSubstr: []string{"javascript:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(md.Inline(tt.input))
			for _, s := range tt.wantSubstr {
				if !strings.Contains(got, s) {
					t.Errorf("Inline(%q) = %q, want containing %q", tt.input, got, s)
				}
			}
			for _, s := range tt.notSubstr {
				if strings.Contains(got, s) {
					t.Errorf("Inline(%q) = %q, must not contain %q", tt.input, got, s)
				}
			}
		})
	}
}

func TestBuildSite(t *testing.T) {
	c, err := Default(security.NewURLGuard())
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	site := BuildSite(c, NewMarkdownRenderer(security.NewContentSanitizer()))

	if !strings.Contains(string(site.Hero.Headline), "<strong>10x Faster</strong>") {
		t.Errorf("Hero.Headline = %q, want emphasised accent", site.Hero.Headline)
	}
	if !strings.Contains(string(site.Sections.Features), "<strong>SkyLaunch AI</strong>") {
		t.Errorf("Sections.Features = %q", site.Sections.Features)
	}
	if len(site.Features) != 3 || site.Features[0].Title != "Instant App Launch" {
		t.Errorf("Features = %+v", site.Features)
	}
	if len(site.Testimonials) != 3 || site.Testimonials[1].Name != "Priya Nair" {
		t.Errorf("Testimonials = %+v", site.Testimonials)
	}
	if site.Newsletter.Confirmation != "Thanks for subscribing!" {
		t.Errorf("Newsletter.Confirmation = %q", site.Newsletter.Confirmation)
	}
	if site.Copyright != "SkyLaunch AI" {
		t.Errorf("Copyright = %q", site.Copyright)
	}
}
