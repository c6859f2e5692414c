package extract

import (
	"errors"
	"regexp"
	"testing"

	"github.com/use-agent/socialpulse/engine"
	"github.com/use-agent/socialpulse/models"
	"github.com/use-agent/socialpulse/normalize"
)

func page(html string) *engine.Page {
	return &engine.Page{URL: "https://example.test/", HTML: html}
}

func TestInstagramProfile(t *testing.T) {
	tests := []struct {
		name string
		html string
		want [3]int64
	}{
		{
			name: "og description",
			html: `<html><head><meta property="og:description" content="1,234 Followers, 56 Following, 7 Posts - See Instagram photos and videos from Sufi (@sufitramp)"></head></html>`,
			want: [3]int64{1234, 56, 7},
		},
		{
			name: "magnitudes and lower case",
			html: `<meta name="description" content="1.2m followers, 3,400 following, 12K posts">`,
			want: [3]int64{1_200_000, 3400, 12_000},
		},
		{
			name: "og wins over generic description",
			html: `<meta name="description" content="9 Followers, 9 Following, 9 Posts">
			       <meta property="og:description" content="1 Followers, 2 Following, 3 Posts">`,
			want: [3]int64{1, 2, 3},
		},
		{
			name: "falls back to generic description",
			html: `<meta property="og:description" content="See Instagram photos and videos">
			       <meta name="description" content="10 Followers, 20 Following, 30 Posts">`,
			want: [3]int64{10, 20, 30},
		},
		{
			name: "html entities in content",
			html: `<meta property="og:description" content="5&#x2c;000 Followers, 1 Following, 0 Posts">`,
			want: [3]int64{5000, 1, 0},
		},
	}

	ex := InstagramProfile()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ex.Extract(page(tt.html))
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			got := [3]int64{f.Count(Followers), f.Count(Following), f.Count(Posts)}
			if got != tt.want {
				t.Errorf("counts = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInstagramProfile_NotFound(t *testing.T) {
	for name, html := range map[string]string{
		"empty":          ``,
		"login wall":     `<html><head><title>Login • Instagram</title></head></html>`,
		"no content":     `<meta property="og:description">`,
		"partial fields": `<meta property="og:description" content="1,234 Followers, 56 Following">`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := InstagramProfile().Extract(page(html))
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestInstagramPost(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		likes    int64
		comments int64
		date     string
	}{
		{"month day year", "45.3K likes, 210 comments - user on June 6, 2025: \"caption\"", 45_300, 210, "2025-06-06"},
		{"day month year", "1,002 likes, 3 comments - mary.lou on 6 June 2025.", 1002, 3, "2025-06-06"},
		{"million likes", "2.1M likes, 10K comments - creator on December 31, 2024", 2_100_000, 10_000, "2024-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := `<meta property="og:description" content='` + tt.content + `'>`
			f, err := InstagramPost().Extract(page(html))
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if f.Count(Likes) != tt.likes || f.Count(Comments) != tt.comments || f.UploadDate != tt.date {
				t.Errorf("got likes=%d comments=%d date=%q, want %d %d %q",
					f.Count(Likes), f.Count(Comments), f.UploadDate, tt.likes, tt.comments, tt.date)
			}
		})
	}
}

func TestInstagramPost_UnparseableDateIsNormalizationFailure(t *testing.T) {
	html := `<meta property="og:description" content="5 likes, 1 comments - user on Smarch 3, 2020">`
	_, err := InstagramPost().Extract(page(html))

	if models.CodeOf(err) != models.ErrCodeNormalization {
		t.Fatalf("code = %s, want %s (err: %v)", models.CodeOf(err), models.ErrCodeNormalization, err)
	}
	if !models.IsRecoverable(err) {
		t.Error("normalization failure must be recoverable")
	}
}

func TestMetaDescription_FirstMatchWins(t *testing.T) {
	// The first matching tag has a malformed number; the later clean tag
	// must not be consulted.
	re := regexp.MustCompile(`(\S+) apples`)
	ex := NewMetaDescription(re, []Field{Likes}, `meta[name="a"]`, `meta[name="b"]`)

	_, err := ex.Extract(page(`<meta name="a" content="x1 apples"><meta name="b" content="5 apples">`))
	if !errors.Is(err, normalize.ErrFormat) {
		t.Fatalf("err = %v, want wrapped normalize.ErrFormat", err)
	}
}

const tiktokPage = `<html><head><title>Mary Lou (@marylou.sidibe) on TikTok</title></head><body>
<h1 data-e2e="user-title">marylou.sidibe</h1>
<strong data-e2e="following-count">321</strong>
<strong data-e2e="followers-count">1.2M</strong>
<strong data-e2e="likes-count">45.3K</strong>
<h2 data-e2e="user-bio">Singer <br>  Paris
  <span>🇫🇷</span></h2>
<a data-e2e="user-link" href="https://linktr.ee/marylou">linktr.ee/marylou</a>
</body></html>`

func TestTikTokProfile(t *testing.T) {
	f, err := TikTokProfile([]string{" on TikTok"}).Extract(page(tiktokPage))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if f.Count(Followers) != 1_200_000 || f.Count(Following) != 321 || f.Count(Likes) != 45_300 {
		t.Errorf("counts = %v", f.Counts)
	}
	if f.Bio != "Singer Paris 🇫🇷" {
		t.Errorf("Bio = %q", f.Bio)
	}
	if f.Link != "https://linktr.ee/marylou" {
		t.Errorf("Link = %q", f.Link)
	}
	if f.Name != "Mary Lou (@marylou.sidibe)" {
		t.Errorf("Name = %q", f.Name)
	}
}

func TestTikTokProfile_OptionalNodesAbsent(t *testing.T) {
	html := `<title>x</title>
<strong data-e2e="followers-count">1</strong>
<strong data-e2e="following-count">2</strong>
<strong data-e2e="likes-count">3</strong>`

	f, err := TikTokProfile([]string{" on TikTok"}).Extract(page(html))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if f.Bio != "" || f.Link != "" {
		t.Errorf("optional fields should be empty, got bio=%q link=%q", f.Bio, f.Link)
	}
	if f.Name != "x" {
		t.Errorf("Name = %q, want title unchanged", f.Name)
	}
}

func TestTikTokProfile_MissingCounterIsNotFound(t *testing.T) {
	html := `<strong data-e2e="followers-count">1</strong><strong data-e2e="likes-count">3</strong>`
	_, err := TikTokProfile(nil).Extract(page(html))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTikTokProfile_MalformedCounter(t *testing.T) {
	html := `<strong data-e2e="followers-count">lots</strong>
<strong data-e2e="following-count">2</strong>
<strong data-e2e="likes-count">3</strong>`
	_, err := TikTokProfile(nil).Extract(page(html))
	if models.CodeOf(err) != models.ErrCodeNormalization {
		t.Errorf("code = %s, want %s", models.CodeOf(err), models.ErrCodeNormalization)
	}
}

func TestTikTokProfile_TitleFallsBackToPageTitle(t *testing.T) {
	p := page(`<strong data-e2e="followers-count">1</strong>
<strong data-e2e="following-count">2</strong>
<strong data-e2e="likes-count">3</strong>`)
	p.Title = "Someone | TikTok"

	f, err := TikTokProfile([]string{" on TikTok", " | TikTok"}).Extract(p)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if f.Name != "Someone" {
		t.Errorf("Name = %q, want Someone", f.Name)
	}
}
