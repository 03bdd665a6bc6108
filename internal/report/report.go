// Package report renders a stored analysis as a downloadable XML document.
package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Dan9191/balancify/internal/models"
	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// Renderer builds analysis reports.
type Renderer struct {
	currency string
	now      func() time.Time
}

// NewRenderer creates a renderer that labels amounts with currency.
func NewRenderer(currency string) *Renderer {
	return &Renderer{currency: currency, now: time.Now}
}

// Render produces an indented XML report for one questionnaire.
func (r *Renderer) Render(questionnaireID string, p *models.FinancialProfile, a *models.Analysis) ([]byte, error) {
	if p == nil || a == nil {
		return nil, fmt.Errorf("failed to render report %s: profile and analysis are required", questionnaireID)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("analysisReport")
	root.CreateAttr("questionnaireId", questionnaireID)
	root.CreateAttr("generatedAt", r.now().UTC().Format(time.RFC3339))
	root.CreateAttr("currency", r.currency)

	profile := root.CreateElement("profile")
	amount(profile, "monthlyIncome", p.MonthlyIncome)
	if p.SideIncome {
		amount(profile, "sideIncome", p.SideIncomeAmount)
	}
	amount(profile, "preferredSavings", p.PreferredSavings)
	amount(profile, "monthlyInvestment", p.MonthlyInvestment)
	profile.CreateElement("riskTaking").SetText(p.RiskTaking)
	profile.CreateElement("householdSize").SetText(strconv.Itoa(p.HouseholdSize))

	r.breakdown(root, a.SpendingBreakdown)
	r.needsWants(root, a.NeedsWantsAnalysis)
	r.goals(root, a.IndividualGoals)
	r.timeline(root, a.GoalTimeline)

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	return out, nil
}

func (r *Renderer) breakdown(root *etree.Element, b models.SpendingBreakdown) {
	el := root.CreateElement("spendingBreakdown")
	el.CreateAttr("total", b.Total().String())
	categories := []struct {
		name  string
		value decimal.Decimal
	}{
		{"housing", b.Housing},
		{"food", b.Food},
		{"transportation", b.Transportation},
		{"entertainment", b.Entertainment},
		{"shopping", b.Shopping},
		{"subscriptions", b.Subscriptions},
		{"loans", b.Loans},
		{"investments", b.Investments},
		{"savings", b.Savings},
		{"other", b.Other},
	}
	for _, c := range categories {
		cat := el.CreateElement("category")
		cat.CreateAttr("name", c.name)
		cat.SetText(c.value.String())
	}
}

func (r *Renderer) needsWants(root *etree.Element, nw models.NeedsWantsAnalysis) {
	el := root.CreateElement("needsWants")
	needs := el.CreateElement("needs")
	needs.CreateAttr("percentage", strconv.Itoa(nw.NeedsPercentage))
	needs.SetText(nw.Needs.Total().String())
	wants := el.CreateElement("wants")
	wants.CreateAttr("percentage", strconv.Itoa(nw.WantsPercentage))
	wants.SetText(nw.Wants.Total().String())
}

func (r *Renderer) goals(root *etree.Element, goals []models.GoalAssessment) {
	el := root.CreateElement("goals")
	for _, g := range goals {
		goal := el.CreateElement("goal")
		goal.CreateAttr("category", string(g.Category))
		goal.CreateAttr("priority", string(g.Priority))
		goal.CreateAttr("feasibility", string(g.Feasibility))
		goal.CreateAttr("reachable", strconv.FormatBool(g.Reachable))
		goal.CreateElement("description").SetText(g.Description)
		amount(goal, "amount", g.Amount)
		amount(goal, "remaining", g.Remaining)
		amount(goal, "monthlyRequired", g.MonthlyRequired)
		amount(goal, "monthlyAvailable", g.MonthlyAvailable)
		goal.CreateElement("timeToAchieve").SetText(g.TimeToAchieveText)
		goal.CreateElement("progress").SetText(g.Progress.String())
	}
}

func (r *Renderer) timeline(root *etree.Element, t models.GoalTimeline) {
	el := root.CreateElement("goalTimeline")
	el.CreateAttr("goal", t.GoalDescription)
	el.CreateAttr("reachable", strconv.FormatBool(t.Reachable))
	el.CreateAttr("timeToGoal", strconv.Itoa(t.TimeToGoal))
	amount(el, "currentSavings", t.CurrentSavings)
	amount(el, "targetAmount", t.TargetAmount)
	amount(el, "monthlyContribution", t.MonthlyContribution)
	milestones := el.CreateElement("milestones")
	for _, m := range t.Milestones {
		ms := milestones.CreateElement("milestone")
		ms.CreateAttr("month", strconv.Itoa(m.Month))
		ms.CreateAttr("amount", m.Amount.String())
		ms.SetText(m.Description)
	}
}

func amount(parent *etree.Element, tag string, v decimal.Decimal) {
	parent.CreateElement(tag).SetText(v.String())
}
