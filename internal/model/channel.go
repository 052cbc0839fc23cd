package model

import "time"

// Channel represents a discovered YouTube channel with its commercial-fit score.
type Channel struct {
	ID                  string            `json:"id"`
	Title               string            `json:"title"`
	Description         string            `json:"description,omitempty"`
	ThumbnailURL        string            `json:"thumbnail_url"`
	SubscriberCount     int64             `json:"subscriber_count"`
	VideoCount          int64             `json:"video_count"`
	ViewCount           int64             `json:"view_count"`
	Region              string            `json:"region"`
	KeywordsMatched     []string          `json:"keywords_matched"`
	LastUploadDate      *time.Time        `json:"last_upload_date,omitempty"`
	DaysSinceLastUpload *int              `json:"days_since_last_upload,omitempty"`
	Score               float64           `json:"score"`
	ChannelURL          string            `json:"channel_url"`
	ContactEmail        *string           `json:"contact_email,omitempty"`
	SocialLinks         map[string]string `json:"social_links,omitempty"`
}

// SearchResponse is the API response for POST /api/search.
// TotalResults counts matches before truncation to the result limit.
type SearchResponse struct {
	Success       bool       `json:"success"`
	Data          []Channel  `json:"data"`
	TotalResults  int        `json:"total_results"`
	Params        FilterSpec `json:"params"`
	Timestamp     time.Time  `json:"timestamp"`
	UsingFallback bool       `json:"using_fallback"`
	Partial       bool       `json:"partial,omitempty"`
}
