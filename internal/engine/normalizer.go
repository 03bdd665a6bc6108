package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Dan9191/balancify/internal/models"
	"github.com/shopspring/decimal"
)

const (
	// MinGoalTimeline and MaxGoalTimeline bound goal timelines in months.
	MinGoalTimeline = 1
	MaxGoalTimeline = 600

	defaultGoalTimeline = 24
)

// DefaultGoal is used when a submission declares no usable goal.
func DefaultGoal() models.FinancialGoal {
	return models.FinancialGoal{
		ID:             "goal-1",
		Description:    "Emergency Fund",
		TargetAmount:   decimal.NewFromInt(500000),
		CurrentAmount:  decimal.Zero,
		TimelineMonths: defaultGoalTimeline,
		Priority:       models.PriorityHigh,
		Category:       models.CategoryEmergency,
	}
}

type enumField struct {
	options  []string
	fallback string
}

var enums = map[string]enumField{
	"bonus_pay":       {options: []string{"Yes", "No", "Sometimes"}, fallback: "No"},
	"housing_status":  {options: []string{"Rent", "Own", "Living with family"}, fallback: "Rent"},
	"food_ordering":   {options: []string{"Daily", "Few times a week", "Rarely"}, fallback: "Rarely"},
	"online_shopping": {options: []string{"Daily", "Weekly", "Monthly", "Rarely"}, fallback: "Rarely"},
	"transport_mode":  {options: []string{"Public Transport", "Own Vehicle", "Both"}, fallback: "Public Transport"},
	"loan_type":       {options: []string{"Education", "Car", "Home", "Personal", "Credit Card"}, fallback: ""},
	"risk_taking":     {options: []string{"Low", "Medium", "High"}, fallback: "Low"},
}

type scaleField struct {
	max int
}

var scales = map[string]scaleField{
	"impulse_shopping":     {max: 5},
	"impulse_control":      {max: 5},
	"financial_discipline": {max: 5},
	"saving_behavior":      {max: 10},
	"expense_reduction":    {max: 10},
}

const maxEntertainmentHours = 168

// Normalizer turns a lenient questionnaire submission into a FinancialProfile.
type Normalizer struct {
	// Now is used to convert goal target dates into timelines.
	Now func() time.Time
}

// NewNormalizer returns a normalizer using the wall clock.
func NewNormalizer() *Normalizer {
	return &Normalizer{Now: time.Now}
}

// Normalize applies the default for every missing field and rejects only
// values whose type cannot be coerced at all.
func (n *Normalizer) Normalize(raw map[string]any) (*models.FinancialProfile, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	r := reader{raw: raw}

	p := &models.FinancialProfile{
		MonthlyIncome:     r.amount("monthly_income"),
		SideIncome:        r.flag("side_income"),
		SideIncomeAmount:  r.amount("side_income_amount"),
		BonusPay:          r.enum("bonus_pay"),
		HousingStatus:     r.enum("housing_status"),
		HousingExpenses:   r.amount("housing_expenses"),
		UtilityBills:      r.amount("utility_bills"),
		HouseholdSize:     r.integer("household_size"),
		GroceriesWeekly:   r.amount("groceries_weekly"),
		DiningMonthly:     r.amount("dining_monthly"),
		FoodOrdering:      r.enum("food_ordering"),
		ShoppingMonthly:   r.amount("shopping_monthly"),
		ImpulseShopping:   r.scale("impulse_shopping"),
		OnlineShopping:    r.enum("online_shopping"),
		Subscriptions:     r.strings("subscriptions"),
		SubscriptionCost:  r.amount("subscription_cost"),
		CommuteCost:       r.amount("commute_cost"),
		TransportMode:     r.enum("transport_mode"),
		TransportMonthly:  r.amount("transport_monthly"),
		HasLoans:          r.flag("has_loans"),
		LoanRepayment:     r.amount("loan_repayment"),
		LoanType:          r.enum("loan_type"),
		InvestmentTypes:   r.strings("investment_types"),
		MonthlyInvestment: r.amount("monthly_investment"),
		TrackSpending:     r.flag("track_spending"),
		ImpulseControl:    r.scale("impulse_control"),
		SavingBehavior:    r.scale("saving_behavior"),
		RiskTaking:        r.enum("risk_taking"),
		PreferredSavings:  r.amount("preferred_savings"),

		ExpenseReductionWill: r.scale("expense_reduction"),
		FinancialDiscipline:  r.scale("financial_discipline"),
	}

	hours := r.amount("entertainment_hours")
	if hours.GreaterThan(decimal.NewFromInt(maxEntertainmentHours)) {
		hours = decimal.NewFromInt(maxEntertainmentHours)
	}
	p.EntertainmentHours = hours

	if p.HouseholdSize < 1 {
		p.HouseholdSize = 1
	}
	if !p.SideIncome {
		p.SideIncomeAmount = decimal.Zero
	}
	if !p.HasLoans {
		p.LoanType = ""
	}

	goals, err := n.goals(raw)
	if err != nil {
		return nil, err
	}
	p.FinancialGoals = goals

	if r.err != nil {
		return nil, r.err
	}
	return p, nil
}

func (n *Normalizer) goals(raw map[string]any) ([]models.FinancialGoal, error) {
	value, key := raw["parsed_financial_goals"], "parsed_financial_goals"
	if isEmpty(value) {
		value, key = raw["financial_goals"], "financial_goals"
	}

	var goals []models.FinancialGoal
	switch v := value.(type) {
	case nil:
	case string:
		goals = ParseGoalText(v)
	case []any:
		for i, item := range v {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			g, keep, err := n.goal(fmt.Sprintf("%s[%d]", key, i), entry)
			if err != nil {
				return nil, err
			}
			if keep {
				goals = append(goals, g)
			}
		}
	case map[string]any:
		g, keep, err := n.goal(key, v)
		if err != nil {
			return nil, err
		}
		if keep {
			goals = append(goals, g)
		}
	default:
		return nil, newValidationError(key, "expected a list of goals or text, got %T", value)
	}

	if len(goals) == 0 {
		return []models.FinancialGoal{DefaultGoal()}, nil
	}
	for i := range goals {
		if goals[i].ID == "" {
			goals[i].ID = fmt.Sprintf("goal-%d", i+1)
		}
	}
	return goals, nil
}

// goal normalizes one structured goal. Entries without a positive target are
// dropped rather than rejected.
func (n *Normalizer) goal(prefix string, entry map[string]any) (models.FinancialGoal, bool, error) {
	r := reader{raw: entry, prefix: prefix + "."}

	g := models.FinancialGoal{
		ID:            r.text("id"),
		Description:   strings.TrimSpace(r.text("description")),
		TargetAmount:  r.amount("target_amount", "targetAmount", "amount"),
		CurrentAmount: r.amount("current_amount", "currentAmount"),
		Priority:      models.Priority(r.choice([]string{"high", "medium", "low"}, "medium", "priority")),
		Category: models.GoalCategory(r.choice([]string{"emergency", "investment", "purchase",
			"retirement", "education", "other"}, "other", "category")),
		Reasoning: strings.TrimSpace(r.text("reasoning")),
	}
	if r.err != nil {
		return g, false, r.err
	}
	if !g.TargetAmount.IsPositive() {
		return g, false, nil
	}
	if g.CurrentAmount.GreaterThan(g.TargetAmount) {
		g.CurrentAmount = g.TargetAmount
	}
	if g.Description == "" {
		g.Description = "Financial Goal"
	}

	if d := r.date("target_date", "targetDate"); d != nil {
		g.TargetDate = d
	}
	months, present := r.integerPresent("timeline_months", "timelineMonths")
	if r.err != nil {
		return g, false, r.err
	}
	switch {
	case present:
		g.TimelineMonths = months
	case g.TargetDate != nil:
		g.TimelineMonths = monthsUntil(n.now(), *g.TargetDate)
	default:
		g.TimelineMonths = defaultGoalTimeline
	}
	g.TimelineMonths = clampInt(g.TimelineMonths, MinGoalTimeline, MaxGoalTimeline)
	return g, true, nil
}

func (n *Normalizer) now() time.Time {
	if n == nil || n.Now == nil {
		return time.Now()
	}
	return n.Now()
}

func monthsUntil(now, target time.Time) int {
	months := (target.Year()-now.Year())*12 + int(target.Month()-now.Month())
	if target.Day() > now.Day() {
		months++
	}
	return months
}

// reader coerces loosely typed values and remembers the first hard failure.
type reader struct {
	raw    map[string]any
	prefix string
	err    error
}

func (r *reader) lookup(keys ...string) (any, string) {
	for _, k := range keys {
		if v, ok := r.raw[k]; ok && !isEmpty(v) {
			return v, k
		}
	}
	return nil, keys[0]
}

func (r *reader) fail(key, format string, args ...any) {
	if r.err == nil {
		r.err = newValidationError(r.prefix+key, format, args...)
	}
}

// amount reads a non-negative money value; absent means zero.
func (r *reader) amount(keys ...string) decimal.Decimal {
	v, key := r.lookup(keys...)
	if v == nil {
		return decimal.Zero
	}
	d, err := toDecimal(v)
	if err != nil {
		r.fail(key, "%v", err)
		return decimal.Zero
	}
	return nonNegative(d)
}

func (r *reader) integerPresent(keys ...string) (int, bool) {
	v, key := r.lookup(keys...)
	if v == nil {
		return 0, false
	}
	d, err := toDecimal(v)
	if err != nil {
		r.fail(key, "%v", err)
		return 0, false
	}
	d = d.Round(0)
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return math.MaxInt32, true
	}
	if d.LessThan(decimal.NewFromInt(math.MinInt32)) {
		return math.MinInt32, true
	}
	return int(d.IntPart()), true
}

func (r *reader) integer(keys ...string) int {
	v, _ := r.integerPresent(keys...)
	return v
}

// scale reads a questionnaire slider clamped into [0, max].
func (r *reader) scale(key string) int {
	return clampInt(r.integer(key), 0, scales[key].max)
}

func (r *reader) flag(key string) bool {
	v, _ := r.lookup(key)
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "yes", "y", "true", "1":
			return true
		}
	case float64:
		return t != 0
	case int:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	}
	return false
}

func (r *reader) enum(key string) string {
	e := enums[key]
	return r.choice(e.options, e.fallback, key)
}

// choice matches a string case-insensitively against options.
func (r *reader) choice(options []string, fallback string, keys ...string) string {
	v, _ := r.lookup(keys...)
	s, ok := v.(string)
	if !ok {
		return fallback
	}
	s = strings.TrimSpace(s)
	for _, o := range options {
		if strings.EqualFold(o, s) {
			return o
		}
	}
	return fallback
}

func (r *reader) text(keys ...string) string {
	v, _ := r.lookup(keys...)
	switch t := v.(type) {
	case string:
		return t
	case float64, int, json.Number:
		return fmt.Sprint(t)
	}
	return ""
}

func (r *reader) strings(key string) []string {
	v, _ := r.lookup(key)
	out := []string{}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, s := range t {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		for _, s := range strings.Split(t, ",") {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}

// date accepts RFC 3339 timestamps and plain YYYY-MM-DD dates. Unparsable
// dates are ignored.
func (r *reader) date(keys ...string) *time.Time {
	v, _ := r.lookup(keys...)
	s, ok := v.(string)
	if !ok {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return &t
		}
	}
	return nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	}
	return false
}

var amountReplacer = strings.NewReplacer(",", "", "₹", "", "$", "", " ", "", "_", "")

func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero, fmt.Errorf("not a finite number")
		}
		return decimal.NewFromFloat(t), nil
	case float32:
		return toDecimal(float64(t))
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case json.Number:
		return toDecimal(t.String())
	case decimal.Decimal:
		return t, nil
	case string:
		d, err := decimal.NewFromString(amountReplacer.Replace(strings.TrimSpace(t)))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%q is not a number", t)
		}
		return d, nil
	}
	return decimal.Zero, fmt.Errorf("expected a number, got %T", v)
}
