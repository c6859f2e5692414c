package extract

import "regexp"

// Open Graph description before the generic description.
var descriptionSelectors = []string{
	`meta[property="og:description"]`,
	`meta[name="description"]`,
}

var (
	// "1,234 Followers, 56 Following, 7 Posts - See Instagram photos ..."
	reInstagramProfile = regexp.MustCompile(
		`(?i)(\d[\d,.KMB]*)\s*Followers,\s*(\d[\d,.KMB]*)\s*Following,\s*(\d[\d,.KMB]*)\s*Posts`)

	// "45.3K likes, 210 comments - user on June 6, 2025: ..."
	// Both "Month Day, Year" and "Day Month Year" are accepted.
	reInstagramPost = regexp.MustCompile(
		`(?i)([\d,.KMB]+)\s*likes,\s*([\d,.KMB]+)\s*comments\s*-\s*[\w.]+\s*on\s*([A-Za-z]+\s*\d{1,2},\s*\d{4}|\d{1,2}\s*[A-Za-z]+\s*\d{4})`)
)

// InstagramProfile reads followers, following and post counts from the
// profile page's description meta tags.
func InstagramProfile() *MetaDescription {
	return NewMetaDescription(reInstagramProfile,
		[]Field{Followers, Following, Posts},
		descriptionSelectors...)
}

// InstagramPost reads likes, comments and the upload date from a post or
// reel page's description meta tags.
func InstagramPost() *MetaDescription {
	return NewMetaDescription(reInstagramPost,
		[]Field{Likes, Comments, UploadDate},
		descriptionSelectors...)
}

// TikTokProfile reads a TikTok profile from its data-e2e tagged nodes.
func TikTokProfile(titleSuffixes []string) *TaggedNode {
	return NewTaggedNode(TaggedNodeConfig{
		Counts: []CountNode{
			{Field: Followers, Selector: `strong[data-e2e="followers-count"]`},
			{Field: Following, Selector: `strong[data-e2e="following-count"]`},
			{Field: Likes, Selector: `strong[data-e2e="likes-count"]`},
		},
		BioSelector:   `h2[data-e2e="user-bio"]`,
		LinkSelector:  `a[data-e2e="user-link"]`,
		TitleSuffixes: titleSuffixes,
	})
}
