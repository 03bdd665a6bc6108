package engine

import (
	"testing"

	"github.com/Dan9191/balancify/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func assertDecimal(t *testing.T, want int64, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, got.Equal(d(want)), "%s: want %d, got %s", field, want, got)
}

func baseProfile() *models.FinancialProfile {
	p, err := NewNormalizer().Normalize(map[string]any{})
	if err != nil {
		panic(err)
	}
	return p
}

func goal(target int64, timeline int, priority models.Priority) models.FinancialGoal {
	return models.FinancialGoal{
		ID:             "g",
		Description:    "Goal",
		TargetAmount:   d(target),
		TimelineMonths: timeline,
		Priority:       priority,
		Category:       models.CategoryOther,
	}
}

func TestCalculateBreakdown_ScenarioA(t *testing.T) {
	p := baseProfile()
	p.MonthlyIncome = d(50000)
	p.HousingExpenses = d(15000)
	p.UtilityBills = d(2000)
	p.GroceriesWeekly = d(2000)
	p.DiningMonthly = d(3000)

	b := CalculateBreakdown(p)
	assertDecimal(t, 11000, b.Food, "food")
	assertDecimal(t, 17000, b.Housing, "housing")
	assertDecimal(t, 0, b.Entertainment, "entertainment")
	assertDecimal(t, 22000, b.Other, "other")

	nw := ClassifyNeedsWants(p, b)
	assertDecimal(t, 7700, nw.Needs.FoodEssential, "food_essential")
	assertDecimal(t, 3300, nw.Wants.DiningOut, "dining_out")
	assertDecimal(t, 2000, nw.Needs.Utilities, "utilities")
	assert.Equal(t, 51, nw.NeedsPercentage)
	assert.Equal(t, 49, nw.WantsPercentage)
}

func TestCalculateBreakdown_Conservation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *models.FinancialProfile)
	}{
		{"empty", func(p *models.FinancialProfile) {}},
		{"income only", func(p *models.FinancialProfile) { p.MonthlyIncome = d(80000) }},
		{"overspent", func(p *models.FinancialProfile) {
			p.MonthlyIncome = d(20000)
			p.HousingExpenses = d(25000)
			p.ShoppingMonthly = d(4000)
		}},
		{"loans counted only with flag", func(p *models.FinancialProfile) {
			p.MonthlyIncome = d(60000)
			p.LoanRepayment = d(9000)
		}},
		{"everything", func(p *models.FinancialProfile) {
			p.MonthlyIncome = d(150000)
			p.HousingExpenses = d(30000)
			p.UtilityBills = d(3000)
			p.GroceriesWeekly = d(2500)
			p.DiningMonthly = d(4000)
			p.TransportMonthly = d(3500)
			p.ImpulseShopping = 4
			p.EntertainmentHours = d(12)
			p.ShoppingMonthly = d(6000)
			p.SubscriptionCost = d(1200)
			p.HasLoans = true
			p.LoanRepayment = d(15000)
			p.MonthlyInvestment = d(10000)
			p.PreferredSavings = d(20000)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseProfile()
			tt.mutate(p)
			b := CalculateBreakdown(p)

			expected := p.MonthlyIncome.Sub(b.Allocated())
			if expected.IsNegative() {
				expected = decimal.Zero
			}
			assert.True(t, b.Other.Equal(expected), "other = %s, want %s", b.Other, expected)
			for name, v := range map[string]decimal.Decimal{
				"housing": b.Housing, "food": b.Food, "transportation": b.Transportation,
				"entertainment": b.Entertainment, "shopping": b.Shopping, "subscriptions": b.Subscriptions,
				"loans": b.Loans, "investments": b.Investments, "savings": b.Savings, "other": b.Other,
			} {
				assert.False(t, v.IsNegative(), "%s is negative", name)
			}
			if !p.HasLoans {
				assert.True(t, b.Loans.IsZero())
			}
		})
	}
}

func TestEntertainmentCost(t *testing.T) {
	p := baseProfile()
	p.ImpulseShopping = 3
	p.EntertainmentHours = d(7)
	assertDecimal(t, 1050, EntertainmentCost(p), "entertainment")

	p.ImpulseShopping = 1
	p.EntertainmentHours = decimal.RequireFromString("0.015")
	assertDecimal(t, 1, EntertainmentCost(p), "rounded entertainment")
}

func TestClassifyNeedsWants_PercentagesPartition(t *testing.T) {
	incomes := []int64{0, 1, 999, 12345, 50000, 333333}
	for _, income := range incomes {
		for _, housing := range []int64{0, 7, 5000, 40000} {
			p := baseProfile()
			p.MonthlyIncome = d(income)
			p.HousingExpenses = d(housing)
			p.GroceriesWeekly = d(333)
			p.ShoppingMonthly = d(1001)
			b := CalculateBreakdown(p)
			nw := ClassifyNeedsWants(p, b)

			sum := nw.NeedsPercentage + nw.WantsPercentage
			assert.InDelta(t, 100, sum, 1, "income=%d housing=%d", income, housing)
		}
	}
}

func TestClassifyNeedsWants_ZeroSpending(t *testing.T) {
	p := baseProfile()
	nw := ClassifyNeedsWants(p, CalculateBreakdown(p))
	assert.Equal(t, 0, nw.NeedsPercentage)
	assert.Equal(t, 0, nw.WantsPercentage)
}

func TestNew_SanitizesOptions(t *testing.T) {
	e := New(Options{Horizon: 500, GoalInvestmentShare: d(3), ComparisonMonths: 1000})
	opts := e.Options()
	assert.Equal(t, MaxProjectionHorizon, opts.Horizon)
	assert.True(t, opts.GoalInvestmentShare.Equal(decimal.NewFromFloat(0.3)))
	assert.Equal(t, DefaultDisplayCap, opts.DisplayCap)
	assert.Equal(t, MaxProjectionHorizon, opts.ComparisonMonths)

	e = New(Options{Horizon: 3})
	assert.Equal(t, MinProjectionHorizon, e.Options().Horizon)
}

func TestAnalyze_RunsAllComponents(t *testing.T) {
	p := baseProfile()
	p.MonthlyIncome = d(100000)
	p.PreferredSavings = d(10000)
	p.MonthlyInvestment = d(5000)

	a := New(DefaultOptions()).Analyze(p)
	require.NotNil(t, a)
	assertDecimal(t, 85000, a.SpendingBreakdown.Other, "other")
	require.Len(t, a.IndividualGoals, 1)
	assert.Equal(t, "Emergency Fund", a.IndividualGoals[0].Description)
	assert.Equal(t, "Emergency Fund", a.GoalTimeline.GoalDescription)
	assert.Equal(t, 34, a.GoalTimeline.TimeToGoal)
}
