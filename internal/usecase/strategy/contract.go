package strategy

import (
	"context"

	"github.com/kailas-cloud/nichescope/internal/domain"
)

// Generator produces an AI strategy from a competition report. A nil
// generator selects the rule-based builder.
type Generator interface {
	Generate(ctx context.Context, keyword string, report domain.CompetitionReport) (domain.Strategy, error)
}
