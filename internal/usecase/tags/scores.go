// Package tags implements per-keyword tag scoring: competition and SEO
// signals from a video sample, search volume estimation, and the combined
// overall score.
package tags

import (
	"math"
	"strings"

	"github.com/kailas-cloud/nichescope/internal/domain"
)

// highViewThreshold is the view count above which a video counts as a
// high-view competitor.
const highViewThreshold = 100000

// midpointScore is used when the sample is empty and no signal exists
// either way.
const midpointScore = 50

// seoFloor is the minimum SEO score: even a fully optimized market leaves
// some room.
const seoFloor = 10

// Scoring weights. The difficulty bands are calibrated against these.
const (
	weightOptimized  = 0.30
	weightHighViews  = 0.25
	weightVerified   = 0.20
	weightAvgViews   = 0.25
	avgViewsSaturate = 500000

	weightVolume      = 0.40
	weightCompetition = 0.35
	weightSEO         = 0.25
)

// BuildSignals derives the competition sample for a keyword from the video
// list using the given title match policy.
func BuildSignals(keyword string, videos []domain.Video, match domain.TitleMatchPolicy) domain.CompetitionSignals {
	var sig domain.CompetitionSignals
	sig.TotalVideos = len(videos)
	if len(videos) == 0 {
		return sig
	}

	var viewSum int64
	for _, v := range videos {
		if match(v.Title, keyword) {
			sig.OptimizedTitles++
		}
		if v.Views > highViewThreshold {
			sig.HighViewVideos++
		}
		if v.ChannelVerified {
			sig.VerifiedChannels++
		}
		viewSum += v.Views
	}
	sig.AvgViews = viewSum / int64(len(videos))
	return sig
}

// CalculateScores combines signals and search volume into a tag score.
// All outputs are bounded to [0,100].
func CalculateScores(keyword string, sig domain.CompetitionSignals, searchVolume int64) domain.TagScore {
	competition := midpointScore
	seo := midpointScore

	if sig.TotalVideos > 0 {
		total := float64(sig.TotalVideos)
		optimizedRatio := float64(sig.OptimizedTitles) / total
		highViewRatio := float64(sig.HighViewVideos) / total
		verifiedRatio := float64(sig.VerifiedChannels) / total
		avgViewsFactor := math.Min(float64(sig.AvgViews)/avgViewsSaturate, 1)

		competition = clamp100(int((optimizedRatio*weightOptimized +
			highViewRatio*weightHighViews +
			verifiedRatio*weightVerified +
			avgViewsFactor*weightAvgViews) * 100))

		seo = int((1 - optimizedRatio) * 100)
		if seo < seoFloor {
			seo = seoFloor
		}
	}

	volumeScore := math.Min(math.Log10(math.Max(float64(searchVolume), 1))*20, 100)
	overall := clamp100(int(volumeScore*weightVolume +
		float64(100-competition)*weightCompetition +
		float64(seo)*weightSEO))

	return domain.TagScore{
		Keyword:          keyword,
		SearchVolume:     int(searchVolume),
		CompetitionScore: competition,
		SEOScore:         seo,
		OverallScore:     overall,
		Difficulty:       difficultyFor(competition),
	}
}

// difficultyFor maps the competition score to a ranking-difficulty band.
func difficultyFor(competition int) string {
	switch {
	case competition <= 20:
		return "very low"
	case competition <= 40:
		return "low"
	case competition <= 60:
		return "moderate"
	case competition <= 80:
		return "high"
	default:
		return "very high"
	}
}

// popularQueryWords earn a volume bonus in the offline heuristic.
var popularQueryWords = map[string]struct{}{
	"how": {}, "what": {}, "why": {}, "guide": {}, "tutorial": {},
	"review": {}, "tips": {}, "lesson": {},
}

// EstimateVolumeBasic is the offline search-volume heuristic used when no
// remote estimator is configured or the remote call fails. Shorter, simpler
// phrases score higher; common query words earn a bonus.
func EstimateVolumeBasic(keyword string) int64 {
	words := strings.Fields(strings.ToLower(keyword))
	base := 5000 - int64(len(words))*500 - int64(len(keyword))*10
	if base < 1000 {
		base = 1000
	}
	for _, w := range words {
		if _, ok := popularQueryWords[w]; ok {
			base += 300
		}
	}
	if base > 50000 {
		base = 50000
	}
	return base
}

func clamp100(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
