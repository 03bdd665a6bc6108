package engine

import (
	"fmt"

	"github.com/Dan9191/balancify/internal/models"
	"github.com/shopspring/decimal"
)

// BuildGoalTimeline tracks the primary goal at the full monthly contribution.
func (e *Engine) BuildGoalTimeline(p *models.FinancialProfile) models.GoalTimeline {
	goal, ok := PrimaryGoal(p.FinancialGoals)
	if !ok {
		goal = DefaultGoal()
	}
	return e.goalTimeline(goal, MonthlySavings(p))
}

func (e *Engine) goalTimeline(g models.FinancialGoal, contribution decimal.Decimal) models.GoalTimeline {
	t := models.GoalTimeline{
		GoalDescription:     g.Description,
		CurrentSavings:      g.CurrentAmount,
		TargetAmount:        g.TargetAmount,
		MonthlyContribution: contribution,
		Milestones:          []models.Milestone{},
	}
	t.TimeToGoal, t.Reachable = TimeToGoal(g.Remaining(), contribution)

	last := e.opts.Horizon
	if t.Reachable {
		last = min(t.TimeToGoal, e.opts.Horizon)
	}
	for m := MilestoneInterval; m <= last; m += MilestoneInterval {
		t.Milestones = append(t.Milestones, models.Milestone{
			Month:       m,
			Amount:      g.CurrentAmount.Add(contribution.Mul(decimal.NewFromInt(int64(m)))),
			Description: milestoneLabel(m),
		})
	}
	return t
}

// TimeToGoal returns ceil(remaining / rate), or UnreachableMonths when the
// rate is not positive and something remains.
func TimeToGoal(remaining, rate decimal.Decimal) (int, bool) {
	if !remaining.IsPositive() {
		return 0, true
	}
	if !rate.IsPositive() {
		return models.UnreachableMonths, false
	}
	return ceilMonths(remaining, rate), true
}

func milestoneLabel(month int) string {
	return fmt.Sprintf("Year %d milestone", month/MilestoneInterval)
}

// ProjectionRequest describes one cumulative savings series.
type ProjectionRequest struct {
	// Months is the series length; it is capped at MaxProjectionHorizon.
	Months        int
	StartBalance  decimal.Decimal
	CurrentRate   decimal.Decimal
	SimulatedRate decimal.Decimal
	GoalTarget    decimal.Decimal
}

// GenerateProjection produces months 1..N with both trajectories side by side.
// The length never exceeds MaxProjectionHorizon whatever the rates are.
func GenerateProjection(req ProjectionRequest) []models.ProjectionPoint {
	n := clampInt(req.Months, 0, MaxProjectionHorizon)
	points := make([]models.ProjectionPoint, 0, n)
	for m := 1; m <= n; m++ {
		month := decimal.NewFromInt(int64(m))
		current := req.StartBalance.Add(req.CurrentRate.Mul(month))
		simulated := req.StartBalance.Add(req.SimulatedRate.Mul(month))
		pt := models.ProjectionPoint{
			Month:      m,
			Label:      fmt.Sprintf("Month %d", m),
			Current:    current,
			Simulated:  simulated,
			GoalTarget: req.GoalTarget,
			Delta:      simulated.Sub(current),
		}
		if m%MilestoneInterval == 0 {
			pt.Milestone = milestoneLabel(m)
		}
		points = append(points, pt)
	}
	return points
}
