package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SpendingBreakdown holds the ten derived monthly categories.
type SpendingBreakdown struct {
	Housing        decimal.Decimal `json:"housing"`
	Food           decimal.Decimal `json:"food"`
	Transportation decimal.Decimal `json:"transportation"`
	Entertainment  decimal.Decimal `json:"entertainment"`
	Shopping       decimal.Decimal `json:"shopping"`
	Subscriptions  decimal.Decimal `json:"subscriptions"`
	Loans          decimal.Decimal `json:"loans"`
	Investments    decimal.Decimal `json:"investments"`
	Savings        decimal.Decimal `json:"savings"`
	Other          decimal.Decimal `json:"other"`
}

// Allocated sums every category except Other.
func (b SpendingBreakdown) Allocated() decimal.Decimal {
	return decimal.Sum(b.Housing, b.Food, b.Transportation, b.Entertainment, b.Shopping,
		b.Subscriptions, b.Loans, b.Investments, b.Savings)
}

// Total sums all ten categories.
func (b SpendingBreakdown) Total() decimal.Decimal {
	return b.Allocated().Add(b.Other)
}

// Needs is the essential share of spending.
type Needs struct {
	Housing        decimal.Decimal `json:"housing"`
	FoodEssential  decimal.Decimal `json:"food_essential"`
	Transportation decimal.Decimal `json:"transportation"`
	Utilities      decimal.Decimal `json:"utilities"`
	LoanPayments   decimal.Decimal `json:"loan_payments"`
}

// Total of all needs.
func (n Needs) Total() decimal.Decimal {
	return decimal.Sum(n.Housing, n.FoodEssential, n.Transportation, n.Utilities, n.LoanPayments)
}

// Wants is the discretionary share of spending.
type Wants struct {
	DiningOut     decimal.Decimal `json:"dining_out"`
	Entertainment decimal.Decimal `json:"entertainment"`
	Shopping      decimal.Decimal `json:"shopping"`
	Subscriptions decimal.Decimal `json:"subscriptions"`
	Other         decimal.Decimal `json:"other"`
}

// Total of all wants.
func (w Wants) Total() decimal.Decimal {
	return decimal.Sum(w.DiningOut, w.Entertainment, w.Shopping, w.Subscriptions, w.Other)
}

// NeedsWantsAnalysis partitions spending. The two percentages sum to 100
// within one point of rounding, or are both 0 when nothing is spent.
type NeedsWantsAnalysis struct {
	Needs           Needs `json:"needs"`
	Wants           Wants `json:"wants"`
	NeedsPercentage int   `json:"needsPercentage"`
	WantsPercentage int   `json:"wantsPercentage"`
}

// FeasibilityTier expresses how achievable a goal is.
type FeasibilityTier string

const (
	FeasibilityLow    FeasibilityTier = "Low"
	FeasibilityMedium FeasibilityTier = "Medium"
	FeasibilityHigh   FeasibilityTier = "High"
)

// Rank orders tiers so that Low < Medium < High.
func (f FeasibilityTier) Rank() int {
	switch f {
	case FeasibilityHigh:
		return 2
	case FeasibilityMedium:
		return 1
	}
	return 0
}

// UnreachableMonths marks a goal that can never be reached at the given rate.
const UnreachableMonths = -1

// GoalAssessment is the per-goal feasibility verdict.
type GoalAssessment struct {
	Description      string          `json:"description"`
	Category         GoalCategory    `json:"category"`
	Priority         Priority        `json:"priority"`
	Amount           decimal.Decimal `json:"amount"`
	Remaining        decimal.Decimal `json:"remaining"`
	MonthlyAvailable decimal.Decimal `json:"monthlyAvailable"`
	MonthlyRequired  decimal.Decimal `json:"monthlyRequired"`
	// MonthsToAchieve is the uncapped estimate, or UnreachableMonths.
	MonthsToAchieve int `json:"monthsToAchieve"`
	// TimeToAchieve is MonthsToAchieve clamped for display.
	TimeToAchieve     int             `json:"timeToAchieve"`
	TimeToAchieveText string          `json:"timeToAchieveText"`
	Reachable         bool            `json:"reachable"`
	Feasibility       FeasibilityTier `json:"feasibility"`
	Progress          decimal.Decimal `json:"progress"`
}

// Milestone is a labeled checkpoint on a goal timeline.
type Milestone struct {
	Month       int             `json:"month"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// GoalTimeline tracks the primary goal at the full monthly contribution.
type GoalTimeline struct {
	GoalDescription     string          `json:"goalDescription"`
	CurrentSavings      decimal.Decimal `json:"currentSavings"`
	TargetAmount        decimal.Decimal `json:"targetAmount"`
	MonthlyContribution decimal.Decimal `json:"monthlyContribution"`
	TimeToGoal          int             `json:"timeToGoal"`
	Reachable           bool            `json:"reachable"`
	Milestones          []Milestone     `json:"milestones"`
}

// Analysis is the numeric result of one questionnaire.
type Analysis struct {
	SpendingBreakdown  SpendingBreakdown  `json:"spendingBreakdown"`
	NeedsWantsAnalysis NeedsWantsAnalysis `json:"needsWantsAnalysis"`
	IndividualGoals    []GoalAssessment   `json:"individualGoals"`
	GoalTimeline       GoalTimeline       `json:"goalTimeline"`
}

// AnalysisResponse is returned after a questionnaire submission.
type AnalysisResponse struct {
	QuestionnaireID string `json:"questionnaireId"`
	AnalysisID      string `json:"analysisId"`
	Analysis
	Insights        FinancialInsights `json:"insights"`
	Recommendations Recommendations   `json:"recommendations"`
	InsightSource   InsightSource     `json:"insightSource"`
	FinancialGoals  []FinancialGoal   `json:"financialGoals"`
}

// Questionnaire is a stored, normalized submission.
type Questionnaire struct {
	ID        string            `json:"id"`
	UserID    *string           `json:"userId"`
	Profile   *FinancialProfile `json:"data"`
	CreatedAt time.Time         `json:"createdAt"`
}

// StoredAnalysis is a persisted analysis linked to its questionnaire.
type StoredAnalysis struct {
	ID              string        `json:"id"`
	QuestionnaireID string        `json:"questionnaireId"`
	Analysis        Analysis      `json:"analysis"`
	Insights        InsightResult `json:"insights"`
	InsightSource   InsightSource `json:"insightSource"`
	CreatedAt       time.Time     `json:"createdAt"`
}
