package domain

// CompetitionReport aggregates market statistics for one keyword plus the
// derived competition classification. Computed fresh per request; never
// persisted except inside a cached strategy payload.
type CompetitionReport struct {
	TotalVideos           int     `json:"total_videos"`
	AvgViews              float64 `json:"avg_views"`
	MedianViews           float64 `json:"median_views"`
	Top10AvgViews         float64 `json:"top_10_avg_views"`
	EngagementRate        float64 `json:"engagement_rate"`
	VideosLastWeek        int     `json:"videos_last_week"`
	VideosLastMonth       int     `json:"videos_last_month"`
	ShortsPercentage      float64 `json:"shorts_percentage"`
	UniqueChannels        int     `json:"unique_channels"`
	AvgChannelSubscribers float64 `json:"avg_channel_subscribers"`

	// CompetitionScore grows as the market gets less competitive.
	CompetitionScore  int    `json:"competition_score"`
	CompetitionLevel  string `json:"competition_level"`
	OpportunityRating int    `json:"opportunity_rating"`
}
