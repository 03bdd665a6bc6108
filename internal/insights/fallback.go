package insights

import (
	"fmt"

	"github.com/Dan9191/balancify/internal/engine"
	"github.com/Dan9191/balancify/internal/models"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// wantsGuideline is the discretionary share above which trimming is suggested.
const wantsGuideline = 30

// FormatAmount renders a whole-currency amount with thousands separators.
func FormatAmount(currency string, d decimal.Decimal) string {
	return currency + humanize.Comma(d.Round(0).IntPart())
}

// Fallback builds deterministic insight text from the numeric analysis.
func Fallback(ic Context) models.InsightResult {
	if ic.Profile == nil || ic.Analysis == nil {
		return genericFallback()
	}
	cur := ic.currency()
	p, a := ic.Profile, ic.Analysis
	b, nw := a.SpendingBreakdown, a.NeedsWantsAnalysis

	return models.InsightResult{
		Insights: models.FinancialInsights{
			SpendingPatterns:          spendingPatterns(cur, b, nw),
			OptimizationOpportunities: optimization(cur, nw),
			InvestmentRecommendations: investmentAdvice(cur, p),
			RiskAnalysis:              riskAnalysis(cur, p, b),
			GoalAchievability:         goalAchievability(cur, a.GoalTimeline),
		},
		Recommendations: models.Recommendations{
			Immediate:          immediateActions(p, nw),
			ShortTerm:          []string{"Build emergency fund", "Optimize subscriptions"},
			LongTerm:           []string{"Increase investment allocation", "Plan for major purchases"},
			EmergencyFund:      emergencyFund(cur, b),
			InvestmentStrategy: investmentStrategy(p.RiskTaking),
		},
	}
}

func genericFallback() models.InsightResult {
	return models.InsightResult{
		Insights: models.FinancialInsights{
			SpendingPatterns:          "Improved spending efficiency with your adjustments.",
			OptimizationOpportunities: "Further optimization possible with consistent tracking.",
			InvestmentRecommendations: "Consider diversified investment portfolio based on your risk profile.",
			RiskAnalysis:              "Moderate risk level with improved financial discipline.",
			GoalAchievability:         "Goals are more achievable with current adjustments.",
		},
		Recommendations: models.Recommendations{
			Immediate:          []string{"Track all expenses", "Set up automatic savings"},
			ShortTerm:          []string{"Build emergency fund", "Optimize subscriptions"},
			LongTerm:           []string{"Increase investment allocation", "Plan for major purchases"},
			EmergencyFund:      "Build 6 months of expenses as emergency fund",
			InvestmentStrategy: "Diversify across equity and debt instruments",
		},
	}
}

func spendingPatterns(cur string, b models.SpendingBreakdown, nw models.NeedsWantsAnalysis) string {
	if nw.NeedsPercentage == 0 && nw.WantsPercentage == 0 {
		return "No spending was reported yet, so there is no pattern to analyse."
	}
	name, amount := largestExpense(b)
	return fmt.Sprintf("Needs take %d%% of your spending and wants %d%%. Your largest expense is %s at %s a month.",
		nw.NeedsPercentage, nw.WantsPercentage, name, FormatAmount(cur, amount))
}

func largestExpense(b models.SpendingBreakdown) (string, decimal.Decimal) {
	candidates := []struct {
		name   string
		amount decimal.Decimal
	}{
		{"housing", b.Housing},
		{"food", b.Food},
		{"transportation", b.Transportation},
		{"entertainment", b.Entertainment},
		{"shopping", b.Shopping},
		{"subscriptions", b.Subscriptions},
		{"loan repayment", b.Loans},
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.amount.GreaterThan(best.amount) {
			best = c
		}
	}
	return best.name, best.amount
}

func optimization(cur string, nw models.NeedsWantsAnalysis) string {
	if nw.WantsPercentage > wantsGuideline {
		trim := nw.Wants.DiningOut.Add(nw.Wants.Shopping).Add(nw.Wants.Subscriptions)
		return fmt.Sprintf("Discretionary spending is %d%%, above the %d%% guideline. Dining out, shopping and subscriptions add up to %s a month and are the easiest to trim.",
			nw.WantsPercentage, wantsGuideline, FormatAmount(cur, trim))
	}
	return fmt.Sprintf("Discretionary spending is within the %d%% guideline. Keep tracking expenses to hold it there.", wantsGuideline)
}

func investmentAdvice(cur string, p *models.FinancialProfile) string {
	lead := "You are not investing yet."
	if p.MonthlyInvestment.IsPositive() {
		lead = fmt.Sprintf("You invest %s a month.", FormatAmount(cur, p.MonthlyInvestment))
	}
	switch p.RiskTaking {
	case "High":
		return lead + " A high risk appetite allows a larger equity allocation spread across index funds and direct equity."
	case "Medium":
		return lead + " A balanced mix of equity index funds and debt funds suits a medium risk appetite."
	}
	return lead + " With a low risk appetite, favour fixed deposits and debt funds, and start a small index-fund SIP."
}

func riskAnalysis(cur string, p *models.FinancialProfile, b models.SpendingBreakdown) string {
	msg := "Income was not reported, so the savings rate cannot be assessed."
	if p.MonthlyIncome.IsPositive() {
		rate := engine.MonthlySavings(p).Mul(decimal.NewFromInt(100)).Div(p.MonthlyIncome).Round(0)
		msg = fmt.Sprintf("You set aside %s%% of your income each month.", rate)
	}
	if b.Loans.IsPositive() {
		msg += fmt.Sprintf(" Loan repayments take %s a month.", FormatAmount(cur, b.Loans))
	}
	if p.FinancialDiscipline <= 2 {
		msg += " Low self-rated discipline makes automatic transfers important."
	}
	return msg
}

func goalAchievability(cur string, t models.GoalTimeline) string {
	if !t.Reachable {
		return fmt.Sprintf("%s is not reachable without a monthly contribution. Setting aside even a small amount starts progress.", t.GoalDescription)
	}
	if t.TimeToGoal == 0 {
		return fmt.Sprintf("%s is already funded.", t.GoalDescription)
	}
	return fmt.Sprintf("Your plan is achievable at the current trajectory: %s is reached in %s at %s a month.",
		t.GoalDescription, engine.FormatMonths(t.TimeToGoal), FormatAmount(cur, t.MonthlyContribution))
}

func immediateActions(p *models.FinancialProfile, nw models.NeedsWantsAnalysis) []string {
	out := []string{}
	if !p.TrackSpending {
		out = append(out, "Track all expenses")
	}
	out = append(out, "Set up automatic savings")
	if nw.WantsPercentage > wantsGuideline {
		out = append(out, "Cap discretionary spending at 30% of the budget")
	}
	return out
}

func emergencyFund(cur string, b models.SpendingBreakdown) string {
	expenses := b.Total().Sub(b.Savings).Sub(b.Investments).Sub(b.Other)
	if !expenses.IsPositive() {
		return "Build 6 months of expenses as emergency fund"
	}
	return fmt.Sprintf("Build 6 months of expenses as emergency fund, about %s", FormatAmount(cur, expenses.Mul(decimal.NewFromInt(6))))
}

func investmentStrategy(risk string) string {
	switch risk {
	case "High":
		return "Weight the portfolio towards equity while keeping the emergency fund in liquid instruments"
	case "Medium":
		return "Diversify across equity and debt instruments"
	}
	return "Prioritise capital protection with debt instruments and add equity gradually"
}
