package insights

import (
	"fmt"

	"github.com/Dan9191/balancify/internal/models"
)

const maxSimulationRecommendations = 3

// SimulationInsights condenses an insight result and a simulation outcome into
// the summary shown next to the simulator charts.
func SimulationInsights(res models.InsightResult, out *models.SimulationOutcome, currency string) models.SimulationInsights {
	if currency == "" {
		currency = "₹"
	}
	s := models.SimulationInsights{
		GoalAchievability: res.Insights.GoalAchievability,
		TimeToGoal:        "not reachable at the current rate",
		Recommendations:   []string{},
	}
	if out == nil {
		return s
	}

	if t := out.Comparison.SimulatedTimeToGoal; t != models.UnreachableMonths {
		s.TimeToGoal = fmt.Sprintf("%d months", t)
	}

	delta := out.Comparison.MonthlySavingsDelta
	switch {
	case delta.IsNegative():
		s.SavingsImpact = FormatAmount(currency, delta.Neg()) + " less monthly savings"
	default:
		s.SavingsImpact = FormatAmount(currency, delta) + " additional monthly savings"
	}

	recs := append(append([]string{}, res.Recommendations.Immediate...), res.Recommendations.ShortTerm...)
	if len(recs) > maxSimulationRecommendations {
		recs = recs[:maxSimulationRecommendations]
	}
	s.Recommendations = recs
	return s
}
