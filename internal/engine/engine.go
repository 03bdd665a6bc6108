// Package engine implements the deterministic financial model: profile
// normalization, spending breakdown, needs/wants split, goal feasibility,
// projection series and what-if simulation. Everything here is pure.
package engine

import (
	"math"

	"github.com/Dan9191/balancify/internal/models"
	"github.com/shopspring/decimal"
)

const (
	// MaxProjectionHorizon is the hard upper bound on any generated series.
	MaxProjectionHorizon = 60
	// MinProjectionHorizon is the smallest configurable horizon.
	MinProjectionHorizon = 24
	// DefaultDisplayCap clamps per-goal months for display.
	DefaultDisplayCap = 120
	// DefaultComparisonMonths is the length of the before/after savings series.
	DefaultComparisonMonths = 24
	// TimelinePadding extends the goal series past the simulated goal month.
	TimelinePadding = 6
	// MilestoneInterval spaces milestones on every series.
	MilestoneInterval = 12
)

var (
	decimalZero    = decimal.Zero
	decimalHundred = decimal.NewFromInt(100)
	decimalTwelve  = decimal.NewFromInt(12)
)

// Options tunes the engine.
type Options struct {
	// Horizon caps goal timeline series, clamped into [24, 60].
	Horizon int
	// GoalInvestmentShare is the fraction of monthly investment that is
	// available for goal funding on top of preferred savings.
	GoalInvestmentShare decimal.Decimal
	// DisplayCap clamps per-goal months for display.
	DisplayCap int
	// ComparisonMonths is the length of the before/after series.
	ComparisonMonths int
}

// DefaultOptions returns the reference policy.
func DefaultOptions() Options {
	return Options{
		Horizon:             MaxProjectionHorizon,
		GoalInvestmentShare: decimal.NewFromFloat(0.3),
		DisplayCap:          DefaultDisplayCap,
		ComparisonMonths:    DefaultComparisonMonths,
	}
}

// Engine runs the analysis pipeline with a fixed set of options.
type Engine struct {
	opts Options
}

// New creates an engine, replacing out-of-range options with defaults.
func New(opts Options) *Engine {
	def := DefaultOptions()
	if opts.Horizon <= 0 {
		opts.Horizon = def.Horizon
	}
	opts.Horizon = clampInt(opts.Horizon, MinProjectionHorizon, MaxProjectionHorizon)
	if opts.GoalInvestmentShare.IsNegative() || opts.GoalInvestmentShare.GreaterThan(decimal.NewFromInt(1)) {
		opts.GoalInvestmentShare = def.GoalInvestmentShare
	}
	if opts.DisplayCap <= 0 {
		opts.DisplayCap = def.DisplayCap
	}
	if opts.ComparisonMonths <= 0 {
		opts.ComparisonMonths = def.ComparisonMonths
	}
	opts.ComparisonMonths = clampInt(opts.ComparisonMonths, 1, MaxProjectionHorizon)
	return &Engine{opts: opts}
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Analyze runs breakdown, needs/wants, goal feasibility and the goal timeline.
func (e *Engine) Analyze(p *models.FinancialProfile) *models.Analysis {
	breakdown := CalculateBreakdown(p)
	return &models.Analysis{
		SpendingBreakdown:  breakdown,
		NeedsWantsAnalysis: ClassifyNeedsWants(p, breakdown),
		IndividualGoals:    e.AssessGoals(p.FinancialGoals, breakdown, p),
		GoalTimeline:       e.BuildGoalTimeline(p),
	}
}

// MonthlySavings is the full monthly contribution: preferred savings plus investment.
func MonthlySavings(p *models.FinancialProfile) decimal.Decimal {
	return p.PreferredSavings.Add(p.MonthlyInvestment)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimalZero
	}
	return d
}

var maxMonths = decimal.NewFromInt(math.MaxInt32)

// ceilMonths divides amount by rate and rounds up. The rate must be positive.
func ceilMonths(amount, rate decimal.Decimal) int {
	q := amount.Div(rate).Ceil()
	if q.GreaterThan(maxMonths) {
		return math.MaxInt32
	}
	return int(q.IntPart())
}
