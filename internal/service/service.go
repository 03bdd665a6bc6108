package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/balancify/internal/config"
	"github.com/Dan9191/balancify/internal/engine"
	"github.com/Dan9191/balancify/internal/insights"
	"github.com/Dan9191/balancify/internal/metrics"
	"github.com/Dan9191/balancify/internal/models"
	"github.com/Dan9191/balancify/internal/report"
	"github.com/Dan9191/balancify/internal/repository"
	"github.com/Dan9191/balancify/internal/simulation"
	"github.com/Dan9191/balancify/internal/utils/email"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrStorageDisabled is returned by operations that need the repository when
// the service runs without one.
var ErrStorageDisabled = errors.New("storage is not configured")

// Service handles business logic
type Service struct {
	repo       *repository.Repository
	log        *logrus.Logger
	config     *config.Config
	engine     *engine.Engine
	normalizer *engine.Normalizer
	guard      *insights.Guard
	presets    simulation.Presets
	renderer   *report.Renderer
	mailer     *email.Sender
	metrics    *metrics.Metrics
}

// Deps are the optional collaborators of a Service. A nil Repo disables
// persistence, a nil Mailer disables e-mail.
type Deps struct {
	Repo    *repository.Repository
	Guard   *insights.Guard
	Mailer  *email.Sender
	Metrics *metrics.Metrics
}

// NewService initializes a new service
func NewService(log *logrus.Logger, cfg *config.Config, deps Deps) (*Service, error) {
	presets, err := simulation.LoadPresets()
	if err != nil {
		return nil, fmt.Errorf("failed to load presets: %w", err)
	}
	guard := deps.Guard
	if guard == nil {
		guard = insights.NewGuard(insights.StaticProvider{}, cfg.InsightTimeout, log, deps.Metrics)
	}
	return &Service{
		repo:   deps.Repo,
		log:    log,
		config: cfg,
		engine: engine.New(engine.Options{
			Horizon:             cfg.ProjectionHorizon,
			GoalInvestmentShare: decimal.NewFromFloat(cfg.GoalInvestmentShare),
			DisplayCap:          cfg.GoalDisplayCap,
		}),
		normalizer: engine.NewNormalizer(),
		guard:      guard,
		presets:    presets,
		renderer:   report.NewRenderer(cfg.CurrencySymbol),
		mailer:     deps.Mailer,
		metrics:    deps.Metrics,
	}, nil
}

// Presets lists the named simulation scenarios.
func (s *Service) Presets() simulation.Presets {
	return s.presets
}

// Evaluate normalizes and analyzes a raw submission without storing it.
func (s *Service) Evaluate(ctx context.Context, raw map[string]any) (*models.AnalysisResponse, error) {
	profile, analysis, out, err := s.analyze(ctx, raw)
	if err != nil {
		return nil, err
	}
	return &models.AnalysisResponse{
		Analysis:        *analysis,
		Insights:        out.Result.Insights,
		Recommendations: out.Result.Recommendations,
		InsightSource:   out.Source,
		FinancialGoals:  profile.FinancialGoals,
	}, nil
}

// analyze runs the numeric pipeline, then asks for insights on its result.
func (s *Service) analyze(ctx context.Context, raw map[string]any) (*models.FinancialProfile, *models.Analysis, insights.Outcome, error) {
	profile, err := s.normalizer.Normalize(raw)
	if err != nil {
		return nil, nil, insights.Outcome{}, err
	}
	analysis := s.engine.Analyze(profile)
	s.metrics.AnalysisComputed()

	out := s.guard.Generate(ctx, insights.Context{
		Profile:  profile,
		Analysis: analysis,
		Currency: s.config.CurrencySymbol,
	})
	return profile, analysis, out, nil
}

// SubmitQuestionnaire analyzes a raw submission and persists the questionnaire
// together with its analysis.
func (s *Service) SubmitQuestionnaire(ctx context.Context, raw map[string]any, userID *string) (*models.AnalysisResponse, error) {
	if s.repo == nil {
		return nil, ErrStorageDisabled
	}
	profile, analysis, out, err := s.analyze(ctx, raw)
	if err != nil {
		return nil, err
	}

	q := &models.Questionnaire{ID: uuid.NewString(), UserID: userID, Profile: profile}
	if err := s.repo.CreateQuestionnaire(ctx, q); err != nil {
		return nil, err
	}
	stored := &models.StoredAnalysis{
		ID:              uuid.NewString(),
		QuestionnaireID: q.ID,
		Analysis:        *analysis,
		Insights:        out.Result,
		InsightSource:   out.Source,
	}
	if err := s.repo.CreateAnalysis(ctx, stored); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"questionnaire": q.ID,
		"goals":         len(profile.FinancialGoals),
		"insights":      out.Source,
	}).Info("Questionnaire analyzed")
	return response(q, stored), nil
}

// GetAnalysis returns the latest stored analysis of a questionnaire.
func (s *Service) GetAnalysis(ctx context.Context, questionnaireID string) (*models.AnalysisResponse, error) {
	q, stored, err := s.load(ctx, questionnaireID)
	if err != nil {
		return nil, err
	}
	return response(q, stored), nil
}

// SimulationRequest selects a profile and the what-if parameters. Profile is
// used only when QuestionnaireID is empty. Overrides apply on top of Preset.
type SimulationRequest struct {
	QuestionnaireID string               `json:"questionnaireId"`
	Profile         map[string]any       `json:"profile"`
	Preset          string               `json:"preset"`
	Simulation      simulation.Overrides `json:"simulation"`
}

// Simulate runs a what-if scenario. Narrative text falls back to templates
// when the insight provider fails.
func (s *Service) Simulate(ctx context.Context, req SimulationRequest) (*models.SimulationResult, error) {
	params, err := s.parameters(req)
	if err != nil {
		return nil, err
	}
	profile, err := s.simulationProfile(ctx, req)
	if err != nil {
		return nil, err
	}

	outcome, err := s.engine.Simulate(profile, params)
	if err != nil {
		return nil, err
	}
	s.metrics.SimulationComputed()

	out := s.guard.Generate(ctx, insights.Context{
		Profile:  outcome.SimulatedProfile,
		Analysis: outcome.Simulated,
		Currency: s.config.CurrencySymbol,
	})

	s.log.WithFields(logrus.Fields{
		"questionnaire": req.QuestionnaireID,
		"preset":        req.Preset,
		"monthsSaved":   outcome.Comparison.MonthsSaved,
		"insights":      out.Source,
	}).Info("Simulation computed")

	return &models.SimulationResult{
		QuestionnaireID:   req.QuestionnaireID,
		Preset:            req.Preset,
		Insights:          insights.SimulationInsights(out.Result, outcome, s.config.CurrencySymbol),
		InsightSource:     out.Source,
		SimulationOutcome: outcome,
	}, nil
}

func (s *Service) parameters(req SimulationRequest) (models.SimulationParameters, error) {
	var base models.SimulationParameters
	if req.Preset != "" {
		preset, ok := s.presets.Get(req.Preset)
		if !ok {
			return base, &engine.ValidationError{Field: "preset", Message: fmt.Sprintf("unknown preset %q", req.Preset)}
		}
		base = preset.Parameters
	}
	return req.Simulation.Apply(base), nil
}

func (s *Service) simulationProfile(ctx context.Context, req SimulationRequest) (*models.FinancialProfile, error) {
	if req.QuestionnaireID != "" {
		if s.repo == nil {
			return nil, ErrStorageDisabled
		}
		q, err := s.repo.FindQuestionnaire(ctx, req.QuestionnaireID)
		if err != nil {
			return nil, err
		}
		return q.Profile, nil
	}
	if req.Profile != nil {
		return s.normalizer.Normalize(req.Profile)
	}
	return nil, &engine.ValidationError{Field: "questionnaireId", Message: "a questionnaire id or an inline profile is required"}
}

// RenderReport renders the stored analysis of a questionnaire as XML.
func (s *Service) RenderReport(ctx context.Context, questionnaireID string) ([]byte, error) {
	q, stored, err := s.load(ctx, questionnaireID)
	if err != nil {
		return nil, err
	}
	return s.renderer.Render(q.ID, q.Profile, &stored.Analysis)
}

// EmailReport renders the report and mails it to the given address.
func (s *Service) EmailReport(ctx context.Context, questionnaireID, to string) error {
	if s.mailer == nil {
		return errors.New("e-mail is not configured")
	}
	q, stored, err := s.load(ctx, questionnaireID)
	if err != nil {
		return err
	}
	doc, err := s.renderer.Render(q.ID, q.Profile, &stored.Analysis)
	if err != nil {
		return err
	}
	if err := s.mailer.SendAnalysisReport(to, q.ID, summary(&stored.Analysis), doc); err != nil {
		return err
	}
	s.log.Infof("Report for questionnaire %s e-mailed", q.ID)
	return nil
}

// PurgeExpired deletes questionnaires older than the retention period.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	if s.repo == nil {
		return 0, ErrStorageDisabled
	}
	cutoff := time.Now().AddDate(0, 0, -s.config.RetentionDays)
	return s.repo.PurgeOlderThan(ctx, cutoff)
}

func (s *Service) load(ctx context.Context, questionnaireID string) (*models.Questionnaire, *models.StoredAnalysis, error) {
	if s.repo == nil {
		return nil, nil, ErrStorageDisabled
	}
	q, err := s.repo.FindQuestionnaire(ctx, questionnaireID)
	if err != nil {
		return nil, nil, err
	}
	stored, err := s.repo.FindAnalysisByQuestionnaire(ctx, questionnaireID)
	if err != nil {
		return nil, nil, err
	}
	return q, stored, nil
}

func response(q *models.Questionnaire, stored *models.StoredAnalysis) *models.AnalysisResponse {
	return &models.AnalysisResponse{
		QuestionnaireID: q.ID,
		AnalysisID:      stored.ID,
		Analysis:        stored.Analysis,
		Insights:        stored.Insights.Insights,
		Recommendations: stored.Insights.Recommendations,
		InsightSource:   stored.InsightSource,
		FinancialGoals:  q.Profile.FinancialGoals,
	}
}

func summary(a *models.Analysis) string {
	t := a.GoalTimeline
	goal := fmt.Sprintf("Goal %q: %s.", t.GoalDescription, engine.FormatMonths(t.TimeToGoal))
	if !t.Reachable {
		goal = fmt.Sprintf("Goal %q is not reachable at the current rate.", t.GoalDescription)
	}
	return fmt.Sprintf("%s Needs take %d%% of spending and wants %d%%.", goal,
		a.NeedsWantsAnalysis.NeedsPercentage, a.NeedsWantsAnalysis.WantsPercentage)
}
