package orchestrator

import (
	"context"
	"strings"

	appI18n "github.com/pavelanni/lumira/internal/i18n"
	"github.com/pavelanni/lumira/internal/model"
)

// ProgressText renders the results history followed by the aggregate score.
func ProgressText(ctx context.Context, p model.Progress) string {
	if len(p.Results) == 0 {
		return appI18n.T(ctx, "ProgressEmpty")
	}

	var b strings.Builder
	b.WriteString(appI18n.Tp(ctx, "ProgressHeader", len(p.Results)))
	for i, r := range p.Results {
		topic := r.Topic
		if topic == "" || topic == model.UnknownTheme {
			topic = appI18n.T(ctx, "UnknownTheme")
		}
		b.WriteString("\n")
		b.WriteString(appI18n.Td(ctx, "ProgressLine", map[string]any{
			"N":       i + 1,
			"Topic":   topic,
			"Score":   r.Score,
			"Total":   r.Total,
			"Percent": r.Percent,
		}))
	}

	b.WriteString("\n\n")
	if p.TotalQuestions > 0 {
		b.WriteString(appI18n.Td(ctx, "ProgressAverage", map[string]any{
			"Score":   p.TotalScore,
			"Total":   p.TotalQuestions,
			"Percent": p.Percent,
		}))
	} else {
		b.WriteString(appI18n.T(ctx, "ProgressNoData"))
	}
	return b.String()
}
