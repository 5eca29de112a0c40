package model

import "time"

// Link maps a short code to its target URL
type Link struct {
	Code        string     `json:"code"`         // 6-8 alphanumeric characters
	URL         string     `json:"url"`          // stored verbatim
	Clicks      int64      `json:"clicks"`       // successful resolutions so far
	CreatedAt   time.Time  `json:"created_at"`   // set once at insertion
	LastClicked *time.Time `json:"last_clicked"` // nil until first resolution
}

// CreateLinkRequest is the API request body
type CreateLinkRequest struct {
	URL  string `json:"url"`
	Code string `json:"code,omitempty"` // optional caller-chosen code
}

// CreateLinkResponse is the API response
type CreateLinkResponse struct {
	Code     string `json:"code"`
	URL      string `json:"url"`
	ShortURL string `json:"short_url"` // base URL + "/" + code
}
