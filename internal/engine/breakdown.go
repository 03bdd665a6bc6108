package engine

import (
	"github.com/Dan9191/balancify/internal/models"
	"github.com/shopspring/decimal"
)

var (
	weeksPerMonth           = decimal.NewFromInt(4)
	entertainmentUnitCost   = decimal.NewFromInt(500)
	entertainmentHoursScale = decimal.NewFromInt(10)
)

// CalculateBreakdown derives the ten monthly spending categories from a
// normalized profile.
func CalculateBreakdown(p *models.FinancialProfile) models.SpendingBreakdown {
	b := models.SpendingBreakdown{
		Housing:        p.HousingExpenses.Add(p.UtilityBills),
		Food:           p.GroceriesWeekly.Mul(weeksPerMonth).Add(p.DiningMonthly),
		Transportation: p.TransportMonthly,
		Entertainment:  EntertainmentCost(p),
		Shopping:       p.ShoppingMonthly,
		Subscriptions:  p.SubscriptionCost,
		Loans:          decimalZero,
		Investments:    p.MonthlyInvestment,
		Savings:        p.PreferredSavings,
	}
	if p.HasLoans {
		b.Loans = p.LoanRepayment
	}
	b.Other = nonNegative(p.MonthlyIncome.Sub(b.Allocated()))
	return b
}

// EntertainmentCost is a behavioural proxy rather than a reported expense:
// impulse scale × 500 × hours/10, rounded to a whole amount.
func EntertainmentCost(p *models.FinancialProfile) decimal.Decimal {
	return decimal.NewFromInt(int64(p.ImpulseShopping)).
		Mul(entertainmentUnitCost).
		Mul(p.EntertainmentHours.Div(entertainmentHoursScale)).
		Round(0)
}
