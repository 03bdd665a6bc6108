package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Chart and dashboard clients consume amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// FinancialProfile is the normalized questionnaire submission. Every numeric
// field is present and non-negative once it leaves the normalizer.
type FinancialProfile struct {
	// Salary & income
	MonthlyIncome    decimal.Decimal `json:"monthly_income" yaml:"monthly_income"`
	SideIncome       bool            `json:"side_income" yaml:"side_income"`
	SideIncomeAmount decimal.Decimal `json:"side_income_amount" yaml:"side_income_amount"`
	BonusPay         string          `json:"bonus_pay" yaml:"bonus_pay"`

	// Living situation
	HousingStatus   string          `json:"housing_status" yaml:"housing_status"`
	HousingExpenses decimal.Decimal `json:"housing_expenses" yaml:"housing_expenses"`
	UtilityBills    decimal.Decimal `json:"utility_bills" yaml:"utility_bills"`
	HouseholdSize   int             `json:"household_size" yaml:"household_size"`

	// Food & dining
	GroceriesWeekly decimal.Decimal `json:"groceries_weekly" yaml:"groceries_weekly"`
	DiningMonthly   decimal.Decimal `json:"dining_monthly" yaml:"dining_monthly"`
	FoodOrdering    string          `json:"food_ordering" yaml:"food_ordering"`

	// Shopping
	ShoppingMonthly decimal.Decimal `json:"shopping_monthly" yaml:"shopping_monthly"`
	ImpulseShopping int             `json:"impulse_shopping" yaml:"impulse_shopping"`
	OnlineShopping  string          `json:"online_shopping" yaml:"online_shopping"`

	// Subscriptions & entertainment
	Subscriptions      []string        `json:"subscriptions" yaml:"subscriptions"`
	SubscriptionCost   decimal.Decimal `json:"subscription_cost" yaml:"subscription_cost"`
	EntertainmentHours decimal.Decimal `json:"entertainment_hours" yaml:"entertainment_hours"`

	// Transportation
	CommuteCost      decimal.Decimal `json:"commute_cost" yaml:"commute_cost"`
	TransportMode    string          `json:"transport_mode" yaml:"transport_mode"`
	TransportMonthly decimal.Decimal `json:"transport_monthly" yaml:"transport_monthly"`

	// Debt
	HasLoans      bool            `json:"has_loans" yaml:"has_loans"`
	LoanRepayment decimal.Decimal `json:"loan_repayment" yaml:"loan_repayment"`
	LoanType      string          `json:"loan_type,omitempty" yaml:"loan_type,omitempty"`

	// Investments & goals
	InvestmentTypes   []string        `json:"investment_types" yaml:"investment_types"`
	MonthlyInvestment decimal.Decimal `json:"monthly_investment" yaml:"monthly_investment"`
	FinancialGoals    []FinancialGoal `json:"financial_goals" yaml:"financial_goals"`

	// Behaviour & commitment
	TrackSpending        bool            `json:"track_spending" yaml:"track_spending"`
	ImpulseControl       int             `json:"impulse_control" yaml:"impulse_control"`
	SavingBehavior       int             `json:"saving_behavior" yaml:"saving_behavior"`
	RiskTaking           string          `json:"risk_taking" yaml:"risk_taking"`
	ExpenseReductionWill int             `json:"expense_reduction" yaml:"expense_reduction"`
	PreferredSavings     decimal.Decimal `json:"preferred_savings" yaml:"preferred_savings"`
	FinancialDiscipline  int             `json:"financial_discipline" yaml:"financial_discipline"`
}

// Clone returns a deep copy so simulations never mutate the source profile.
func (p *FinancialProfile) Clone() *FinancialProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.Subscriptions = append([]string(nil), p.Subscriptions...)
	c.InvestmentTypes = append([]string(nil), p.InvestmentTypes...)
	c.FinancialGoals = make([]FinancialGoal, len(p.FinancialGoals))
	for i, g := range p.FinancialGoals {
		c.FinancialGoals[i] = g
		if g.TargetDate != nil {
			t := *g.TargetDate
			c.FinancialGoals[i].TargetDate = &t
		}
	}
	return &c
}

// Priority of a financial goal.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities, higher first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// GoalCategory groups goals for display.
type GoalCategory string

const (
	CategoryEmergency  GoalCategory = "emergency"
	CategoryInvestment GoalCategory = "investment"
	CategoryPurchase   GoalCategory = "purchase"
	CategoryRetirement GoalCategory = "retirement"
	CategoryEducation  GoalCategory = "education"
	CategoryOther      GoalCategory = "other"
)

// FinancialGoal is a declared savings target. Goals are never mutated once an
// analysis has been computed from them.
type FinancialGoal struct {
	ID             string          `json:"id" yaml:"id"`
	Description    string          `json:"description" yaml:"description"`
	TargetAmount   decimal.Decimal `json:"target_amount" yaml:"target_amount"`
	CurrentAmount  decimal.Decimal `json:"current_amount" yaml:"current_amount"`
	TimelineMonths int             `json:"timeline_months" yaml:"timeline_months"`
	Priority       Priority        `json:"priority" yaml:"priority"`
	Category       GoalCategory    `json:"category" yaml:"category"`
	TargetDate     *time.Time      `json:"target_date,omitempty" yaml:"target_date,omitempty"`
	Reasoning      string          `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
}

// Remaining is the amount still to be saved, never negative.
func (g FinancialGoal) Remaining() decimal.Decimal {
	r := g.TargetAmount.Sub(g.CurrentAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}
