package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Dan9191/balancify/internal/insights"
)

// BuildPrompt renders the analysis context into one request asking for both
// insights and recommendations.
func BuildPrompt(ic insights.Context) string {
	var b strings.Builder
	b.WriteString("Analyze this financial profile and provide insights and actionable recommendations.\n\n")

	if ic.Profile != nil {
		p := ic.Profile
		cur := ic.Currency
		if cur == "" {
			cur = "₹"
		}
		fmt.Fprintf(&b, "Income: %s%s\n", cur, p.MonthlyIncome.StringFixed(0))
		if ic.Analysis != nil {
			breakdown, _ := json.Marshal(ic.Analysis.SpendingBreakdown)
			fmt.Fprintf(&b, "Spending Breakdown: %s\n", breakdown)
			fmt.Fprintf(&b, "Needs vs Wants: %d%% needs, %d%% wants\n",
				ic.Analysis.NeedsWantsAnalysis.NeedsPercentage, ic.Analysis.NeedsWantsAnalysis.WantsPercentage)
		}
		fmt.Fprintf(&b, "Financial Discipline: %d/5\n", p.FinancialDiscipline)
		fmt.Fprintf(&b, "Risk Tolerance: %s\n", p.RiskTaking)
		fmt.Fprintf(&b, "Investment Types: %s\n", strings.Join(p.InvestmentTypes, ", "))
		fmt.Fprintf(&b, "Willingness to reduce expenses: %d/10\n", p.ExpenseReductionWill)

		goals := make([]string, 0, len(p.FinancialGoals))
		for _, g := range p.FinancialGoals {
			goals = append(goals, fmt.Sprintf("%s %s%s in %d months (%s priority)",
				g.Description, cur, g.TargetAmount.StringFixed(0), g.TimelineMonths, g.Priority))
		}
		fmt.Fprintf(&b, "Financial goals: %s\n", strings.Join(goals, "; "))
	}

	b.WriteString(`
Respond with a single JSON object of this shape:
{
  "insights": {
    "spendingPatterns": "analysis of spending behavior",
    "optimizationOpportunities": "areas for improvement",
    "investmentRecommendations": "investment advice based on risk profile",
    "riskAnalysis": "financial risk assessment",
    "goalAchievability": "assessment of goal achievability"
  },
  "recommendations": {
    "immediate": ["actions for the next 1-3 months"],
    "shortTerm": ["goals for 3-12 months"],
    "longTerm": ["strategies for 1+ years"],
    "emergencyFund": "emergency fund recommendation",
    "investmentStrategy": "investment strategy recommendation"
  }
}
`)
	return b.String()
}
