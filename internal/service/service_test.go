package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Dan9191/balancify/internal/config"
	"github.com/Dan9191/balancify/internal/engine"
	"github.com/Dan9191/balancify/internal/insights"
	"github.com/Dan9191/balancify/internal/metrics"
	"github.com/Dan9191/balancify/internal/models"
	"github.com/Dan9191/balancify/internal/repository"
	"github.com/Dan9191/balancify/internal/simulation"
	"github.com/Dan9191/balancify/internal/utils"
	"github.com/Dan9191/balancify/internal/utils/email"
	jemail "github.com/jordan-wright/email"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }

func (failingProvider) Generate(ctx context.Context, ic insights.Context) (*models.InsightResult, error) {
	return nil, insights.NewTransientError("failing", insights.ReasonQuota, errors.New("429"))
}

type fixture struct {
	svc     *Service
	repo    *repository.Repository
	metrics *metrics.Metrics
	reg     *prometheus.Registry
	sent    []*jemail.Email
}

func testConfig() *config.Config {
	return &config.Config{
		CurrencySymbol:      "₹",
		ProjectionHorizon:   60,
		GoalInvestmentShare: 0.3,
		GoalDisplayCap:      120,
		RetentionDays:       90,
		InsightTimeout:      time.Second,
		SenderEmail:         "noreply@balancify.local",
	}
}

func newFixture(t *testing.T, provider insights.Provider) *fixture {
	t.Helper()
	ctx := context.Background()
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := testConfig()

	db, err := repository.Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	key, err := utils.ParseKey(testKey)
	require.NoError(t, err)
	repo := repository.NewRepository(db, "sqlite", key)
	require.NoError(t, repo.Migrate(ctx))

	reg := prometheus.NewRegistry()
	f := &fixture{repo: repo, reg: reg, metrics: metrics.New(reg)}
	mailer := email.NewSender(cfg, log).WithTransport(func(e *jemail.Email) error {
		f.sent = append(f.sent, e)
		return nil
	})
	f.svc, err = NewService(log, cfg, Deps{
		Repo:    repo,
		Guard:   insights.NewGuard(provider, time.Second, log, f.metrics),
		Mailer:  mailer,
		Metrics: f.metrics,
	})
	require.NoError(t, err)
	return f
}

func carSubmission() map[string]any {
	return map[string]any{
		"monthly_income":     60000.0,
		"housing_expenses":   15000.0,
		"preferred_savings":  10000.0,
		"monthly_investment": 5000.0,
		"financial_goals": []any{
			map[string]any{
				"description":     "Car",
				"target_amount":   300000.0,
				"timeline_months": 24.0,
				"priority":        "high",
			},
		},
	}
}

func TestSubmitQuestionnaire(t *testing.T) {
	f := newFixture(t, insights.StaticProvider{})
	ctx := context.Background()

	resp, err := f.svc.SubmitQuestionnaire(ctx, carSubmission(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.QuestionnaireID)
	assert.NotEmpty(t, resp.AnalysisID)
	assert.Equal(t, models.InsightSourceProvider, resp.InsightSource)
	assert.Equal(t, "Car", resp.GoalTimeline.GoalDescription)
	assert.Equal(t, 20, resp.GoalTimeline.TimeToGoal)
	require.Len(t, resp.IndividualGoals, 1)
	assert.NotEmpty(t, resp.Insights.SpendingPatterns)
	require.NoError(t, testutil.GatherAndCompare(f.reg, strings.NewReader(`
# HELP balancify_analyses_total Questionnaire analyses computed.
# TYPE balancify_analyses_total counter
balancify_analyses_total 1
`), "balancify_analyses_total"))

	got, err := f.svc.GetAnalysis(ctx, resp.QuestionnaireID)
	require.NoError(t, err)
	assert.Equal(t, resp.AnalysisID, got.AnalysisID)
	assert.Equal(t, resp.Insights, got.Insights)
	assert.True(t, got.SpendingBreakdown.Housing.Equal(resp.SpendingBreakdown.Housing))
	require.Len(t, got.FinancialGoals, 1)
	assert.Equal(t, "Car", got.FinancialGoals[0].Description)
}

func TestSubmitQuestionnaireRejectsInvalidInput(t *testing.T) {
	f := newFixture(t, insights.StaticProvider{})

	_, err := f.svc.SubmitQuestionnaire(context.Background(), map[string]any{"monthly_income": "lots"}, nil)
	require.Error(t, err)
	var verr *engine.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "monthly_income", verr.Field)
}

func TestSubmitQuestionnaireFallsBackOnProviderFailure(t *testing.T) {
	f := newFixture(t, failingProvider{})

	resp, err := f.svc.SubmitQuestionnaire(context.Background(), carSubmission(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.InsightSourceFallback, resp.InsightSource)
	assert.Equal(t, 20, resp.GoalTimeline.TimeToGoal)
	assert.NotEmpty(t, resp.Insights.GoalAchievability)
}

func TestGetAnalysisNotFound(t *testing.T) {
	f := newFixture(t, insights.StaticProvider{})
	_, err := f.svc.GetAnalysis(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSimulateStoredQuestionnaireWithPreset(t *testing.T) {
	f := newFixture(t, insights.StaticProvider{})
	ctx := context.Background()

	resp, err := f.svc.SubmitQuestionnaire(ctx, carSubmission(), nil)
	require.NoError(t, err)

	res, err := f.svc.Simulate(ctx, SimulationRequest{QuestionnaireID: resp.QuestionnaireID, Preset: "moderate"})
	require.NoError(t, err)

	// moderate: +10% of income saved, investment +5%: 10000 + 6000 + 5250.
	assert.True(t, res.Comparison.NewMonthlySavings.Equal(decimal.NewFromInt(21250)), res.Comparison.NewMonthlySavings.String())
	assert.Equal(t, 20, res.Comparison.OriginalTimeToGoal)
	assert.Equal(t, 15, res.Comparison.SimulatedTimeToGoal)
	assert.Equal(t, 5, res.Comparison.MonthsSaved)
	assert.Equal(t, "15 months", res.Insights.TimeToGoal)
	assert.Equal(t, "₹6,250 additional monthly savings", res.Insights.SavingsImpact)
	assert.LessOrEqual(t, len(res.Insights.Recommendations), 3)
	assert.Equal(t, "moderate", res.Preset)
	require.NoError(t, testutil.GatherAndCompare(f.reg, strings.NewReader(`
# HELP balancify_simulations_total What-if simulations computed.
# TYPE balancify_simulations_total counter
balancify_simulations_total 1
`), "balancify_simulations_total"))
}

func TestSimulateInlineProfileWithOverrides(t *testing.T) {
	f := newFixture(t, insights.StaticProvider{})
	savings := 0.0
	target := 600000.0

	res, err := f.svc.Simulate(context.Background(), SimulationRequest{
		Profile:    carSubmission(),
		Preset:     "moderate",
		Simulation: simulation.Overrides{AdditionalSavings: &savings, GoalTarget: &target},
	})
	require.NoError(t, err)
	assert.Equal(t, 15.0, res.Parameters.IncomeIncrease)
	assert.Equal(t, 0.0, res.Parameters.AdditionalSavings)
	assert.True(t, res.Comparison.GoalTarget.Equal(decimal.NewFromInt(600000)))
	assert.True(t, res.Comparison.NewMonthlySavings.Equal(decimal.NewFromInt(15250)))
}

func TestSimulateValidation(t *testing.T) {
	f := newFixture(t, insights.StaticProvider{})
	tooMuch := 150.0

	tests := []struct {
		name  string
		req   SimulationRequest
		field string
	}{
		{"no profile", SimulationRequest{}, "questionnaireId"},
		{"unknown preset", SimulationRequest{Profile: carSubmission(), Preset: "reckless"}, "preset"},
		{"out of range", SimulationRequest{Profile: carSubmission(), Simulation: simulation.Overrides{IncomeIncrease: &tooMuch}}, "incomeIncrease"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Simulate(context.Background(), tt.req)
			var verr *engine.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestReportAndEmail(t *testing.T) {
	f := newFixture(t, insights.StaticProvider{})
	ctx := context.Background()

	resp, err := f.svc.SubmitQuestionnaire(ctx, carSubmission(), nil)
	require.NoError(t, err)

	doc, err := f.svc.RenderReport(ctx, resp.QuestionnaireID)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "<analysisReport")

	require.NoError(t, f.svc.EmailReport(ctx, resp.QuestionnaireID, "asha@example.com"))
	require.Len(t, f.sent, 1)
	assert.Equal(t, []string{"asha@example.com"}, f.sent[0].To)
	require.Len(t, f.sent[0].Attachments, 1)
	assert.Contains(t, string(f.sent[0].Text), `Goal "Car": 1 year and 8 months.`)

	assert.Error(t, f.svc.EmailReport(ctx, resp.QuestionnaireID, "not-an-address"))
	assert.ErrorIs(t, f.svc.EmailReport(ctx, "missing", "asha@example.com"), repository.ErrNotFound)
}

func TestPurgeExpired(t *testing.T) {
	f := newFixture(t, insights.StaticProvider{})
	ctx := context.Background()

	old := &models.Questionnaire{ID: "old", Profile: &models.FinancialProfile{}, CreatedAt: time.Now().AddDate(0, 0, -120)}
	require.NoError(t, f.repo.CreateQuestionnaire(ctx, old))
	resp, err := f.svc.SubmitQuestionnaire(ctx, carSubmission(), nil)
	require.NoError(t, err)

	n, err := f.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.svc.GetAnalysis(ctx, resp.QuestionnaireID)
	assert.NoError(t, err)
}

func TestWithoutStorage(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc, err := NewService(log, testConfig(), Deps{})
	require.NoError(t, err)
	ctx := context.Background()

	resp, err := svc.Evaluate(ctx, carSubmission())
	require.NoError(t, err)
	assert.Empty(t, resp.QuestionnaireID)
	assert.Equal(t, 20, resp.GoalTimeline.TimeToGoal)

	_, err = svc.SubmitQuestionnaire(ctx, carSubmission(), nil)
	assert.ErrorIs(t, err, ErrStorageDisabled)
	_, err = svc.Simulate(ctx, SimulationRequest{QuestionnaireID: "q-1"})
	assert.ErrorIs(t, err, ErrStorageDisabled)
	_, err = svc.PurgeExpired(ctx)
	assert.ErrorIs(t, err, ErrStorageDisabled)
	assert.Len(t, svc.Presets(), 3)
}
