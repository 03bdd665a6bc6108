package engine

import (
	"fmt"

	"github.com/Dan9191/balancify/internal/models"
	"github.com/shopspring/decimal"
)

var (
	lowFeasibilityRatio    = decimal.NewFromFloat(0.8)
	mediumFeasibilityRatio = decimal.NewFromFloat(0.5)
)

// GoalCapacity is the monthly amount each goal may draw on: all preferred
// savings plus the configured share of investment.
func (e *Engine) GoalCapacity(b models.SpendingBreakdown) decimal.Decimal {
	return b.Savings.Add(b.Investments.Mul(e.opts.GoalInvestmentShare))
}

// AssessGoals rates every goal independently against the same capacity.
// Goals are read, never modified.
func (e *Engine) AssessGoals(goals []models.FinancialGoal, b models.SpendingBreakdown, p *models.FinancialProfile) []models.GoalAssessment {
	available := e.GoalCapacity(b)
	out := make([]models.GoalAssessment, 0, len(goals))
	for _, g := range goals {
		out = append(out, e.assessGoal(g, available))
	}
	return out
}

func (e *Engine) assessGoal(g models.FinancialGoal, available decimal.Decimal) models.GoalAssessment {
	remaining := g.Remaining()
	a := models.GoalAssessment{
		Description:      g.Description,
		Category:         g.Category,
		Priority:         g.Priority,
		Amount:           g.TargetAmount,
		Remaining:        remaining,
		MonthlyAvailable: available.Round(2),
		MonthlyRequired:  decimalZero,
		Progress:         progress(g),
	}

	switch {
	case remaining.IsZero():
		a.Reachable = true
		a.Feasibility = models.FeasibilityHigh
	case !available.IsPositive():
		a.MonthsToAchieve = models.UnreachableMonths
		a.TimeToAchieve = e.opts.DisplayCap
		a.Feasibility = models.FeasibilityLow
	default:
		a.Reachable = true
		a.MonthsToAchieve = ceilMonths(remaining, available)
		a.TimeToAchieve = min(a.MonthsToAchieve, e.opts.DisplayCap)
		window := max(min(g.TimelineMonths, e.opts.DisplayCap), 1)
		required := remaining.Div(decimal.NewFromInt(int64(window)))
		a.MonthlyRequired = required.Round(2)
		a.Feasibility = feasibilityTier(required, available)
	}

	if !a.Reachable {
		a.TimeToAchieveText = "not reachable at the current rate"
	} else {
		a.TimeToAchieveText = FormatMonths(a.MonthsToAchieve)
	}
	return a
}

// feasibilityTier compares the required rate with the available one using
// strict inequalities at both thresholds.
func feasibilityTier(required, available decimal.Decimal) models.FeasibilityTier {
	if !available.IsPositive() {
		return models.FeasibilityLow
	}
	switch {
	case required.GreaterThan(available.Mul(lowFeasibilityRatio)):
		return models.FeasibilityLow
	case required.GreaterThan(available.Mul(mediumFeasibilityRatio)):
		return models.FeasibilityMedium
	default:
		return models.FeasibilityHigh
	}
}

func progress(g models.FinancialGoal) decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimalZero
	}
	return g.CurrentAmount.Mul(decimalHundred).Div(g.TargetAmount).Round(1)
}

// PrimaryGoal returns the highest-priority goal; the earliest one wins ties.
func PrimaryGoal(goals []models.FinancialGoal) (models.FinancialGoal, bool) {
	if len(goals) == 0 {
		return models.FinancialGoal{}, false
	}
	return goals[primaryIndex(goals)], true
}

// FormatMonths renders a month count as "X years and Y months".
func FormatMonths(months int) string {
	if months < 0 {
		return "not reachable at the current rate"
	}
	years, rest := months/12, months%12
	switch {
	case years == 0:
		return plural(rest, "month")
	case rest == 0:
		return plural(years, "year")
	}
	return plural(years, "year") + " and " + plural(rest, "month")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
