package domain

// CompetitionSignals is the per-keyword competition sample a tag score is
// computed from. Counters default to zero; TotalVideos == 0 marks an empty
// sample.
type CompetitionSignals struct {
	TotalVideos      int   `json:"total_videos"`
	OptimizedTitles  int   `json:"optimized_titles"`
	HighViewVideos   int   `json:"high_view_videos"`
	VerifiedChannels int   `json:"verified_channels"`
	AvgViews         int64 `json:"avg_views"`
}

// TagScore is the immutable scoring outcome for one keyword. All score
// fields are bounded to [0,100].
type TagScore struct {
	Keyword          string `json:"keyword"`
	SearchVolume     int    `json:"search_volume"`
	CompetitionScore int    `json:"competition_score"`
	SEOScore         int    `json:"seo_score"`
	OverallScore     int    `json:"overall_score"`
	Difficulty       string `json:"difficulty"`
}
