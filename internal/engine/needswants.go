package engine

import (
	"github.com/Dan9191/balancify/internal/models"
	"github.com/shopspring/decimal"
)

var (
	essentialFoodShare     = decimal.NewFromFloat(0.7)
	discretionaryFoodShare = decimal.NewFromFloat(0.3)
)

// ClassifyNeedsWants splits a breakdown into essential and discretionary
// spending. Percentages are rounded half away from zero and are both 0 when
// nothing is spent.
func ClassifyNeedsWants(p *models.FinancialProfile, b models.SpendingBreakdown) models.NeedsWantsAnalysis {
	res := models.NeedsWantsAnalysis{
		Needs: models.Needs{
			Housing:        b.Housing,
			FoodEssential:  b.Food.Mul(essentialFoodShare).Round(0),
			Transportation: b.Transportation,
			Utilities:      p.UtilityBills,
			LoanPayments:   b.Loans,
		},
		Wants: models.Wants{
			DiningOut:     b.Food.Mul(discretionaryFoodShare).Round(0),
			Entertainment: b.Entertainment,
			Shopping:      b.Shopping,
			Subscriptions: b.Subscriptions,
			Other:         b.Other,
		},
	}

	needs, wants := res.Needs.Total(), res.Wants.Total()
	total := needs.Add(wants)
	if !total.IsPositive() {
		return res
	}
	res.NeedsPercentage = percentOf(needs, total)
	res.WantsPercentage = percentOf(wants, total)
	return res
}

func percentOf(part, total decimal.Decimal) int {
	return int(part.Mul(decimalHundred).Div(total).Round(0).IntPart())
}
