package models

// ProfileResult is a successfully scraped profile.
//
// The three counters are only ever populated together from a single matched
// fragment; a ProfileResult is never built from a partial match.
type ProfileResult struct {
	// Identifier is the username the profile was requested for.
	Identifier string

	Followers int64
	Following int64

	// PostsOrLikes is the post count on Instagram and the total like count
	// on TikTok.
	PostsOrLikes int64

	// Optional enrichments, empty when the page does not carry them.
	Bio          string
	ExternalLink string
	DisplayName  string
}

// PostResult is a successfully scraped post or reel.
type PostResult struct {
	SourceURL string
	Likes     int64
	Comments  int64

	// UploadDate is the canonical YYYY-MM-DD date.
	UploadDate string
}
