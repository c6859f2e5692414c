package models

// InstagramProfileResponse is the body for GET /api/profile.
type InstagramProfileResponse struct {
	ID        string `json:"ID"`
	Followers int64  `json:"Followers"`
	Following int64  `json:"Following"`
	Posts     int64  `json:"Posts"`
}

// NewInstagramProfileResponse converts a ProfileResult to the Instagram view.
func NewInstagramProfileResponse(r *ProfileResult) InstagramProfileResponse {
	return InstagramProfileResponse{
		ID:        r.Identifier,
		Followers: r.Followers,
		Following: r.Following,
		Posts:     r.PostsOrLikes,
	}
}

// ReelResponse is the body for GET /api/reel.
type ReelResponse struct {
	ReelURL    string `json:"Reel_URL"`
	Likes      int64  `json:"Likes"`
	Comments   int64  `json:"Comments"`
	UploadDate string `json:"Upload_Date"`
}

// NewReelResponse converts a PostResult to the reel view.
func NewReelResponse(r *PostResult) ReelResponse {
	return ReelResponse{
		ReelURL:    r.SourceURL,
		Likes:      r.Likes,
		Comments:   r.Comments,
		UploadDate: r.UploadDate,
	}
}

// TikTokProfileResponse is the body for GET /api/tiktok_profile.
type TikTokProfileResponse struct {
	Name      string `json:"name"`
	Followers int64  `json:"followers"`
	Following int64  `json:"following"`
	Likes     int64  `json:"likes"`
	Bio       string `json:"bio"`
	Link      string `json:"link"`
}

// NewTikTokProfileResponse converts a ProfileResult to the TikTok view.
func NewTikTokProfileResponse(r *ProfileResult) TikTokProfileResponse {
	return TikTokProfileResponse{
		Name:      r.DisplayName,
		Followers: r.Followers,
		Following: r.Following,
		Likes:     r.PostsOrLikes,
		Bio:       r.Bio,
		Link:      r.ExternalLink,
	}
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the response for GET /api/health.
type HealthResponse struct {
	Status         string `json:"status"` // "healthy" or "degraded"
	Uptime         string `json:"uptime"`
	Renderer       string `json:"renderer"`
	ActiveSessions int    `json:"active_sessions"`
	Version        string `json:"version"`
}
