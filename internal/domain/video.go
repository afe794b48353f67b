package domain

import (
	"regexp"
	"strconv"
	"time"
)

// ShortFormThresholdMinutes is the duration at or below which a video is
// classified as short-form content.
const ShortFormThresholdMinutes = 1.05

// SearchHit is a single raw search result in provider relevance order.
type SearchHit struct {
	VideoID   string `json:"video_id"`
	ChannelID string `json:"channel_id"`
	Position  int    `json:"position"`
}

// SearchPage is one page of search results.
type SearchPage struct {
	Hits          []SearchHit
	NextPageToken string
}

// Channel holds normalized channel enrichment data.
type Channel struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subscribers int64  `json:"subscribers"`
	TotalViews  int64  `json:"total_views"`
	VideoCount  int64  `json:"video_count"`
	Country     string `json:"country,omitempty"`
	Verified    bool   `json:"verified"`
}

// VideoDetail holds normalized per-video statistics from the detail provider.
// PublishedAt is the zero time when the provider timestamp was unparsable;
// such records are dropped before scoring.
type VideoDetail struct {
	ID              string
	Title           string
	ChannelID       string
	ChannelTitle    string
	PublishedAt     time.Time
	Views           int64
	Likes           int64
	Comments        int64
	DurationMinutes float64
	Tags            []string
}

// Video is the denormalized record consumed by scoring: a detail record
// joined with its channel enrichment.
type Video struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	ChannelID         string    `json:"channel_id"`
	ChannelTitle      string    `json:"channel_title"`
	Subscribers       int64     `json:"subscribers"`
	ChannelTotalViews int64     `json:"channel_total_views"`
	ChannelVideoCount int64     `json:"channel_video_count"`
	ChannelVerified   bool      `json:"channel_verified"`
	PublishedAt       time.Time `json:"published_at"`
	Views             int64     `json:"views"`
	Likes             int64     `json:"likes"`
	Comments          int64     `json:"comments"`
	DurationMinutes   float64   `json:"duration_minutes"`
	IsShort           bool      `json:"is_short"`
	Tags              []string  `json:"tags,omitempty"`
}

// ViewsFloor returns the view count floored at 1, so that ratio computations
// are always well-defined.
func (v *Video) ViewsFloor() int64 {
	if v.Views < 1 {
		return 1
	}
	return v.Views
}

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseISODuration converts a compact ISO-8601 duration ("PT1H2M3S", any
// component optional) to fractional minutes. Unparsable input yields 0.
func ParseISODuration(s string) float64 {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	return float64(h)*60 + float64(min) + float64(sec)/60
}
