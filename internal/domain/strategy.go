package domain

import "time"

// Strategy source values.
const (
	StrategySourceAI    = "ai"
	StrategySourceRules = "rules"
)

// Strategy is a generated content strategy for a niche keyword.
type Strategy struct {
	Keyword     string    `json:"keyword"`
	Text        string    `json:"text"`
	Source      string    `json:"source"` // "ai" or "rules"
	GeneratedAt time.Time `json:"generated_at"`
}
