package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Dan9191/balancify/internal/models"
	"github.com/shopspring/decimal"
)

// goalPattern matches "Buy a car for ₹5 lakh", "House 4000000" or "trip 50k".
var goalPattern = regexp.MustCompile(`(?i)^(.+?)\s*(?:\bfor\s+)?(?:₹|rs\.?|inr)?\s*([\d][\d,]*(?:\.\d+)?)\s*(k|l|lakh|lakhs|lac|cr|crore|crores)?$`)

var amountSuffixes = map[string]decimal.Decimal{
	"k":      decimal.NewFromInt(1_000),
	"l":      decimal.NewFromInt(100_000),
	"lac":    decimal.NewFromInt(100_000),
	"lakh":   decimal.NewFromInt(100_000),
	"lakhs":  decimal.NewFromInt(100_000),
	"cr":     decimal.NewFromInt(10_000_000),
	"crore":  decimal.NewFromInt(10_000_000),
	"crores": decimal.NewFromInt(10_000_000),
}

var categoryKeywords = []struct {
	category models.GoalCategory
	words    []string
}{
	{models.CategoryEmergency, []string{"emergency", "rainy day", "safety"}},
	{models.CategoryRetirement, []string{"retire", "pension"}},
	{models.CategoryEducation, []string{"education", "college", "school", "degree", "course", "mba"}},
	{models.CategoryInvestment, []string{"invest", "stock", "mutual fund", "portfolio", "sip"}},
	{models.CategoryPurchase, []string{"house", "home", "car", "bike", "buy", "purchase", "phone", "laptop", "wedding", "trip", "vacation"}},
}

// ParseGoalText extracts goals from comma-separated free text. Parts without
// a recognizable amount are skipped.
func ParseGoalText(text string) []models.FinancialGoal {
	var goals []models.FinancialGoal
	for _, part := range splitGoalText(text) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m := goalPattern.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		description := strings.TrimSpace(m[1])
		amount, err := decimal.NewFromString(strings.ReplaceAll(m[2], ",", ""))
		if err != nil || description == "" {
			continue
		}
		if mult, ok := amountSuffixes[strings.ToLower(m[3])]; ok {
			amount = amount.Mul(mult)
		}
		if !amount.IsPositive() {
			continue
		}
		goals = append(goals, models.FinancialGoal{
			ID:             fmt.Sprintf("goal-%d", len(goals)+1),
			Description:    description,
			TargetAmount:   amount,
			CurrentAmount:  decimal.Zero,
			TimelineMonths: defaultGoalTimeline,
			Priority:       models.PriorityMedium,
			Category:       inferCategory(description),
		})
	}
	return goals
}

// splitGoalText splits on commas, except those directly followed by a digit,
// which are thousands separators ("5,00,000").
func splitGoalText(text string) []string {
	var parts []string
	for _, part := range strings.Split(text, ",") {
		if n := len(parts); n > 0 && part != "" && part[0] >= '0' && part[0] <= '9' {
			parts[n-1] += "," + part
			continue
		}
		parts = append(parts, part)
	}
	return parts
}

func inferCategory(description string) models.GoalCategory {
	d := strings.ToLower(description)
	for _, c := range categoryKeywords {
		for _, w := range c.words {
			if strings.Contains(d, w) {
				return c.category
			}
		}
	}
	return models.CategoryOther
}
