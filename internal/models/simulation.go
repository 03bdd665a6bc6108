package models

import "github.com/shopspring/decimal"

// SimulationParameters are the what-if knobs, each a percentage.
type SimulationParameters struct {
	IncomeIncrease    float64 `json:"incomeIncrease" yaml:"income_increase"`
	ExpenseReduction  float64 `json:"expenseReduction" yaml:"expense_reduction"`
	AdditionalSavings float64 `json:"additionalSavings" yaml:"additional_savings"`
	InvestmentBoost   float64 `json:"investmentBoost" yaml:"investment_boost"`
	// GoalTarget overrides the primary goal target when positive.
	GoalTarget float64 `json:"goalTarget" yaml:"goal_target"`
}

// IsIdentity reports whether the parameters leave a profile unchanged.
func (p SimulationParameters) IsIdentity() bool {
	return p.IncomeIncrease == 0 && p.ExpenseReduction == 0 &&
		p.AdditionalSavings == 0 && p.InvestmentBoost == 0
}

// ProjectionPoint is one month of a projection series.
type ProjectionPoint struct {
	Month      int             `json:"month"`
	Label      string          `json:"label"`
	Current    decimal.Decimal `json:"current"`
	Simulated  decimal.Decimal `json:"simulated"`
	GoalTarget decimal.Decimal `json:"goalTarget"`
	Delta      decimal.Decimal `json:"delta"`
	Milestone  string          `json:"milestone,omitempty"`
}

// Projections carries both chart series of a simulation.
type Projections struct {
	MonthlyData  []ProjectionPoint `json:"monthlyData"`
	GoalTimeline []ProjectionPoint `json:"goalTimeline"`
}

// Comparison is the before/after savings summary.
type Comparison struct {
	OriginalMonthlySavings decimal.Decimal `json:"originalMonthlySavings"`
	NewMonthlySavings      decimal.Decimal `json:"newMonthlySavings"`
	MonthlySavingsDelta    decimal.Decimal `json:"monthlySavingsDelta"`
	AnnualSavingsDelta     decimal.Decimal `json:"annualSavingsDelta"`
	OriginalIncome         decimal.Decimal `json:"originalIncome"`
	NewIncome              decimal.Decimal `json:"newIncome"`
	GoalTarget             decimal.Decimal `json:"goalTarget"`
	OriginalTimeToGoal     int             `json:"originalTimeToGoal"`
	SimulatedTimeToGoal    int             `json:"simulatedTimeToGoal"`
	MonthsSaved            int             `json:"monthsSaved"`
}

// SimulationOutcome is the numeric result of a what-if run.
type SimulationOutcome struct {
	Parameters       SimulationParameters `json:"parameters"`
	Original         *Analysis            `json:"original"`
	Simulated        *Analysis            `json:"simulated"`
	SimulatedProfile *FinancialProfile    `json:"simulatedProfile"`
	Comparison       Comparison           `json:"comparison"`
	IndividualGoals  []GoalAssessment     `json:"individualGoals"`
	Projections      Projections          `json:"projections"`
}

// SimulationInsights is the narrative summary shown next to simulation charts.
type SimulationInsights struct {
	GoalAchievability string   `json:"goalAchievability"`
	TimeToGoal        string   `json:"timeToGoal"`
	SavingsImpact     string   `json:"savingsImpact"`
	Recommendations   []string `json:"recommendations"`
}

// SimulationResult is returned by the simulate endpoint.
type SimulationResult struct {
	QuestionnaireID string             `json:"questionnaireId,omitempty"`
	Preset          string             `json:"preset,omitempty"`
	Insights        SimulationInsights `json:"insights"`
	InsightSource   InsightSource      `json:"insightSource"`
	*SimulationOutcome
}
