// Package scoring computes the competition report for a keyword's video
// sample. It is pure: no I/O, no clock reads, deterministic for a given
// input and reference time.
package scoring

import (
	"sort"
	"time"

	"github.com/kailas-cloud/nichescope/internal/domain"
)

// competitionLabels maps the ladder score to a human label. The score grows
// as the market gets less competitive; anything above the top index clamps
// to "minimal competition".
var competitionLabels = [...]string{
	0:  "extreme competition",
	1:  "very high competition",
	2:  "very high competition",
	3:  "high competition",
	4:  "high competition",
	5:  "moderate competition",
	6:  "moderate competition",
	7:  "low competition",
	8:  "low competition",
	9:  "very low competition",
	10: "minimal competition",
}

// BuildReport aggregates the sample and applies the four threshold ladders.
// Videos with a zero publish time are dropped first; an empty remainder
// yields ErrNoReport.
func BuildReport(videos []domain.Video, now time.Time) (domain.CompetitionReport, error) {
	sample := make([]domain.Video, 0, len(videos))
	for _, v := range videos {
		if v.PublishedAt.IsZero() {
			continue
		}
		sample = append(sample, v)
	}
	if len(sample) == 0 {
		return domain.CompetitionReport{}, domain.ErrNoReport
	}

	var r domain.CompetitionReport
	r.TotalVideos = len(sample)

	views := make([]float64, 0, len(sample))
	var (
		viewSum       float64
		engagementSum float64
		shorts        int
		channelSubs   = make(map[string]int64)
	)
	for _, v := range sample {
		vf := float64(v.ViewsFloor())
		views = append(views, vf)
		viewSum += vf
		engagementSum += float64(v.Likes+v.Comments) / vf * 100
		if v.IsShort {
			shorts++
		}
		channelSubs[v.ChannelID] = v.Subscribers

		age := now.Sub(v.PublishedAt)
		if age <= 7*24*time.Hour {
			r.VideosLastWeek++
		}
		if age <= 30*24*time.Hour {
			r.VideosLastMonth++
		}
	}

	sort.Float64s(views)
	r.AvgViews = viewSum / float64(len(views))
	r.MedianViews = median(views)
	r.Top10AvgViews = topNAvg(views, 10)
	r.EngagementRate = engagementSum / float64(len(sample))
	r.ShortsPercentage = float64(shorts) / float64(len(sample)) * 100
	r.UniqueChannels = len(channelSubs)

	var subSum float64
	for _, subs := range channelSubs {
		subSum += float64(subs)
	}
	r.AvgChannelSubscribers = subSum / float64(len(channelSubs))

	r.CompetitionScore = ladderScore(r)
	r.CompetitionLevel = labelFor(r.CompetitionScore)
	r.OpportunityRating = r.CompetitionScore * 10
	if r.OpportunityRating > 100 {
		r.OpportunityRating = 100
	}
	return r, nil
}

// ladderScore applies the four fixed threshold ladders. Each step rewards a
// signal of weak competition.
func ladderScore(r domain.CompetitionReport) int {
	score := 0

	switch {
	case r.Top10AvgViews < 20000:
		score += 4
	case r.Top10AvgViews < 50000:
		score += 3
	case r.Top10AvgViews < 200000:
		score += 2
	case r.Top10AvgViews < 500000:
		score += 1
	}

	switch {
	case r.VideosLastWeek < 2:
		score += 3
	case r.VideosLastWeek < 5:
		score += 2
	case r.VideosLastWeek < 15:
		score += 1
	}

	switch {
	case r.UniqueChannels < 15:
		score += 2
	case r.UniqueChannels < 30:
		score += 1
	}

	switch {
	case r.EngagementRate < 1.5:
		score += 2
	case r.EngagementRate < 3:
		score += 1
	}

	return score
}

func labelFor(score int) string {
	if score >= len(competitionLabels) {
		score = len(competitionLabels) - 1
	}
	if score < 0 {
		score = 0
	}
	return competitionLabels[score]
}

// median expects views sorted ascending.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// topNAvg expects views sorted ascending and averages the n largest.
func topNAvg(sorted []float64, n int) float64 {
	if n > len(sorted) {
		n = len(sorted)
	}
	var sum float64
	for _, v := range sorted[len(sorted)-n:] {
		sum += v
	}
	return sum / float64(n)
}
