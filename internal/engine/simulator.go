package engine

import (
	"math"

	"github.com/Dan9191/balancify/internal/models"
	"github.com/shopspring/decimal"
)

// MaxAdjustmentPercent bounds every simulation knob.
const MaxAdjustmentPercent = 100

// ValidateParameters rejects knobs outside [0, MaxAdjustmentPercent] and a
// negative goal target.
func ValidateParameters(params models.SimulationParameters) error {
	knobs := []struct {
		field string
		value float64
	}{
		{"incomeIncrease", params.IncomeIncrease},
		{"expenseReduction", params.ExpenseReduction},
		{"additionalSavings", params.AdditionalSavings},
		{"investmentBoost", params.InvestmentBoost},
	}
	for _, k := range knobs {
		if math.IsNaN(k.value) || math.IsInf(k.value, 0) {
			return newValidationError(k.field, "must be a finite number")
		}
		if k.value < 0 || k.value > MaxAdjustmentPercent {
			return newValidationError(k.field, "must be between 0 and %d, got %g", MaxAdjustmentPercent, k.value)
		}
	}
	if math.IsNaN(params.GoalTarget) || math.IsInf(params.GoalTarget, 0) || params.GoalTarget < 0 {
		return newValidationError("goalTarget", "must be a non-negative number")
	}
	return nil
}

// ApplyScenario derives a new profile from p. The source profile is never
// modified. Knobs set to zero leave their fields untouched, so the zero
// scenario reproduces p exactly.
func ApplyScenario(p *models.FinancialProfile, params models.SimulationParameters) *models.FinancialProfile {
	d := p.Clone()
	if !params.IsIdentity() {
		adjust(d, p, params)
	}
	if params.GoalTarget > 0 {
		overrideGoalTarget(d, decimal.NewFromFloat(params.GoalTarget))
	}
	return d
}

// adjust applies the percentage knobs to d, reading base values from p.
func adjust(d, p *models.FinancialProfile, params models.SimulationParameters) {
	if params.IncomeIncrease != 0 {
		d.MonthlyIncome = nonNegative(p.MonthlyIncome.Mul(growth(params.IncomeIncrease)))
	}
	if params.ExpenseReduction != 0 {
		f := reduction(params.ExpenseReduction)
		d.HousingExpenses = nonNegative(p.HousingExpenses.Mul(f))
		d.DiningMonthly = nonNegative(p.DiningMonthly.Mul(f))
		d.ShoppingMonthly = nonNegative(p.ShoppingMonthly.Mul(f))
		d.SubscriptionCost = nonNegative(p.SubscriptionCost.Mul(f))
	}
	if params.AdditionalSavings != 0 {
		extra := p.MonthlyIncome.Mul(percent(params.AdditionalSavings))
		d.PreferredSavings = nonNegative(p.PreferredSavings.Add(extra))
	}
	if params.InvestmentBoost != 0 {
		d.MonthlyInvestment = nonNegative(p.MonthlyInvestment.Mul(growth(params.InvestmentBoost)))
	}
}

func overrideGoalTarget(p *models.FinancialProfile, target decimal.Decimal) {
	if len(p.FinancialGoals) == 0 {
		p.FinancialGoals = []models.FinancialGoal{DefaultGoal()}
	}
	idx := primaryIndex(p.FinancialGoals)
	g := &p.FinancialGoals[idx]
	g.TargetAmount = target
	if g.CurrentAmount.GreaterThan(target) {
		g.CurrentAmount = target
	}
}

func primaryIndex(goals []models.FinancialGoal) int {
	best := 0
	for i := 1; i < len(goals); i++ {
		if goals[i].Priority.Rank() > goals[best].Priority.Rank() {
			best = i
		}
	}
	return best
}

func percent(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Div(decimalHundred)
}

func growth(v float64) decimal.Decimal {
	return decimal.NewFromInt(1).Add(percent(v))
}

func reduction(v float64) decimal.Decimal {
	return decimal.NewFromInt(1).Sub(percent(v))
}

// Simulate runs the full analysis on the original and derived profiles and
// compares them.
func (e *Engine) Simulate(p *models.FinancialProfile, params models.SimulationParameters) (*models.SimulationOutcome, error) {
	if err := ValidateParameters(params); err != nil {
		return nil, err
	}

	derived := ApplyScenario(p, params)
	original := e.Analyze(p)
	simulated := e.Analyze(derived)

	goal, _ := PrimaryGoal(derived.FinancialGoals)
	origRate := MonthlySavings(p)
	newRate := MonthlySavings(derived)
	delta := newRate.Sub(origRate)

	origTime, origOK := TimeToGoal(goal.Remaining(), origRate)
	simTime, simOK := TimeToGoal(goal.Remaining(), newRate)

	cmp := models.Comparison{
		OriginalMonthlySavings: origRate,
		NewMonthlySavings:      newRate,
		MonthlySavingsDelta:    delta,
		AnnualSavingsDelta:     delta.Mul(decimalTwelve),
		OriginalIncome:         p.MonthlyIncome,
		NewIncome:              derived.MonthlyIncome,
		GoalTarget:             goal.TargetAmount,
		OriginalTimeToGoal:     origTime,
		SimulatedTimeToGoal:    simTime,
	}
	if origOK && simOK {
		cmp.MonthsSaved = origTime - simTime
	}

	goalMonths := e.opts.Horizon
	if simOK {
		goalMonths = max(1, min(simTime+TimelinePadding, e.opts.Horizon))
	}

	return &models.SimulationOutcome{
		Parameters:       params,
		Original:         original,
		Simulated:        simulated,
		SimulatedProfile: derived,
		Comparison:       cmp,
		IndividualGoals:  simulated.IndividualGoals,
		Projections: models.Projections{
			MonthlyData: GenerateProjection(ProjectionRequest{
				Months:        e.opts.ComparisonMonths,
				CurrentRate:   origRate,
				SimulatedRate: newRate,
				GoalTarget:    goal.TargetAmount,
			}),
			GoalTimeline: GenerateProjection(ProjectionRequest{
				Months:        goalMonths,
				StartBalance:  goal.CurrentAmount,
				CurrentRate:   origRate,
				SimulatedRate: newRate,
				GoalTarget:    goal.TargetAmount,
			}),
		},
	}, nil
}
