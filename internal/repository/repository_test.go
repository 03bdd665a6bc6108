package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Dan9191/balancify/internal/models"
	"github.com/Dan9191/balancify/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	key, err := utils.ParseKey(testKey)
	require.NoError(t, err)
	repo := NewRepository(db, "sqlite", key)
	require.NoError(t, repo.Migrate(ctx))
	return repo
}

func testProfile() *models.FinancialProfile {
	return &models.FinancialProfile{
		MonthlyIncome:    decimal.NewFromInt(80000),
		HousingExpenses:  decimal.NewFromInt(20000),
		PreferredSavings: decimal.NewFromInt(10000),
		HouseholdSize:    2,
		FinancialGoals: []models.FinancialGoal{{
			ID:             "goal-1",
			Description:    "Car",
			TargetAmount:   decimal.NewFromInt(400000),
			TimelineMonths: 24,
			Priority:       models.PriorityMedium,
			Category:       models.CategoryPurchase,
		}},
	}
}

func TestQuestionnaireRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	user := "user-7"
	q := &models.Questionnaire{ID: uuid.NewString(), UserID: &user, Profile: testProfile()}
	require.NoError(t, repo.CreateQuestionnaire(ctx, q))
	assert.False(t, q.CreatedAt.IsZero())

	got, err := repo.FindQuestionnaire(ctx, q.ID)
	require.NoError(t, err)
	require.NotNil(t, got.UserID)
	assert.Equal(t, user, *got.UserID)
	assert.True(t, got.Profile.MonthlyIncome.Equal(decimal.NewFromInt(80000)))
	require.Len(t, got.Profile.FinancialGoals, 1)
	assert.Equal(t, "Car", got.Profile.FinancialGoals[0].Description)
	assert.WithinDuration(t, q.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestQuestionnairePayloadIsEncrypted(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	q := &models.Questionnaire{ID: uuid.NewString(), Profile: testProfile()}
	require.NoError(t, repo.CreateQuestionnaire(ctx, q))

	var payload string
	require.NoError(t, repo.db.QueryRowContext(ctx, `SELECT payload FROM questionnaires WHERE id = ?`, q.ID).Scan(&payload))
	assert.NotContains(t, payload, "monthly_income")
	assert.NotContains(t, payload, "Car")
}

func TestFindMissing(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.FindQuestionnaire(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.FindAnalysisByQuestionnaire(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnalysisRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	q := &models.Questionnaire{ID: uuid.NewString(), Profile: testProfile()}
	require.NoError(t, repo.CreateQuestionnaire(ctx, q))

	a := &models.StoredAnalysis{
		ID:              uuid.NewString(),
		QuestionnaireID: q.ID,
		Analysis: models.Analysis{
			SpendingBreakdown: models.SpendingBreakdown{Housing: decimal.NewFromInt(20000)},
			GoalTimeline:      models.GoalTimeline{GoalDescription: "Car", TimeToGoal: 40, Reachable: true},
		},
		Insights: models.InsightResult{
			Insights: models.FinancialInsights{SpendingPatterns: "Housing dominates."},
		},
		InsightSource: models.InsightSourceFallback,
	}
	require.NoError(t, repo.CreateAnalysis(ctx, a))

	got, err := repo.FindAnalysisByQuestionnaire(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.True(t, got.Analysis.SpendingBreakdown.Housing.Equal(decimal.NewFromInt(20000)))
	assert.Equal(t, 40, got.Analysis.GoalTimeline.TimeToGoal)
	assert.Equal(t, "Housing dominates.", got.Insights.Insights.SpendingPatterns)
	assert.Equal(t, models.InsightSourceFallback, got.InsightSource)
}

func TestPurgeOlderThan(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now()

	old := &models.Questionnaire{ID: uuid.NewString(), Profile: testProfile(), CreatedAt: now.AddDate(0, 0, -100)}
	fresh := &models.Questionnaire{ID: uuid.NewString(), Profile: testProfile(), CreatedAt: now}
	require.NoError(t, repo.CreateQuestionnaire(ctx, old))
	require.NoError(t, repo.CreateQuestionnaire(ctx, fresh))
	require.NoError(t, repo.CreateAnalysis(ctx, &models.StoredAnalysis{
		ID: uuid.NewString(), QuestionnaireID: old.ID, InsightSource: models.InsightSourceProvider,
	}))

	n, err := repo.PurgeOlderThan(ctx, now.AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindQuestionnaire(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.FindAnalysisByQuestionnaire(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.FindQuestionnaire(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestPlaceholderRebind(t *testing.T) {
	sqlite := &Repository{driver: "sqlite"}
	pg := &Repository{driver: "postgres"}
	query := "SELECT 1 WHERE a = $1 AND b = $2"

	assert.Equal(t, "SELECT 1 WHERE a = ? AND b = ?", sqlite.q(query))
	assert.Equal(t, query, pg.q(query))
}
