package insights

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/balancify/internal/metrics"
	"github.com/Dan9191/balancify/internal/models"
	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds a provider call when none is configured.
const DefaultTimeout = 20 * time.Second

// Outcome is the result of a guarded insight call.
type Outcome struct {
	Result models.InsightResult
	Source models.InsightSource
	// Reason is empty when the provider answered in full.
	Reason string
}

// Guard calls a provider under a timeout and fills every missing or failed
// field from Fallback. It never returns an error.
type Guard struct {
	provider Provider
	timeout  time.Duration
	logger   *logrus.Logger
	metrics  *metrics.Metrics
}

// NewGuard wraps provider. A nil provider always yields fallback text.
func NewGuard(provider Provider, timeout time.Duration, logger *logrus.Logger, m *metrics.Metrics) *Guard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Guard{provider: provider, timeout: timeout, logger: logger, metrics: m}
}

// ProviderName reports the wrapped provider, or "none".
func (g *Guard) ProviderName() string {
	if g.provider == nil {
		return "none"
	}
	return g.provider.Name()
}

type reply struct {
	result *models.InsightResult
	err    error
}

// Generate asks the provider for insights and falls back to the rule-based
// result on failure. Fields the provider leaves empty come from the fallback.
func (g *Guard) Generate(ctx context.Context, ic Context) Outcome {
	start := time.Now()
	fallback := Fallback(ic)

	if g.provider == nil {
		return g.finish(Outcome{Result: fallback, Source: models.InsightSourceFallback, Reason: ReasonDisabled}, start)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	name := g.provider.Name()
	ch := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- reply{err: NewFatalError(name, ReasonUnavailable, fmt.Errorf("provider panic: %v", r))}
			}
		}()
		res, err := g.provider.Generate(ctx, ic)
		ch <- reply{result: res, err: err}
	}()

	var r reply
	select {
	case r = <-ch:
	case <-ctx.Done():
		r.err = NewTransientError(name, ReasonTimeout, ctx.Err())
	}

	if r.err == nil && r.result == nil {
		r.err = NewFatalError(name, ReasonMalformed, errors.New("empty result"))
	}
	if r.err != nil {
		reason := reasonOf(r.err)
		if errors.Is(r.err, context.DeadlineExceeded) {
			reason = ReasonTimeout
		}
		g.logger.WithFields(logrus.Fields{
			"provider": name,
			"reason":   reason,
			"error":    r.err,
		}).Warn("Insight provider failed, using fallback")
		return g.finish(Outcome{Result: fallback, Source: models.InsightSourceFallback, Reason: reason}, start)
	}

	merged, missing := merge(*r.result, fallback)
	if len(missing) > 0 {
		g.logger.WithFields(logrus.Fields{
			"provider": name,
			"missing":  missing,
		}).Warn("Insight provider returned partial result, filling from fallback")
		return g.finish(Outcome{Result: merged, Source: models.InsightSourcePartial, Reason: ReasonPartial}, start)
	}
	return g.finish(Outcome{Result: merged, Source: models.InsightSourceProvider}, start)
}

func (g *Guard) finish(o Outcome, start time.Time) Outcome {
	elapsed := time.Since(start)
	g.metrics.InsightObserved(string(o.Source), o.Reason, elapsed)
	g.logger.WithFields(logrus.Fields{
		"source":   o.Source,
		"duration": elapsed.String(),
	}).Debug("Insights generated")
	return o
}

// merge replaces every blank field of got with the fallback value and
// returns the names of the replaced fields.
func merge(got, fb models.InsightResult) (models.InsightResult, []string) {
	var missing []string
	text := func(name string, dst *string, def string) {
		if isBlank(*dst) {
			*dst = def
			missing = append(missing, name)
		}
	}
	list := func(name string, dst *[]string, def []string) {
		cleaned := make([]string, 0, len(*dst))
		for _, s := range *dst {
			if !isBlank(s) {
				cleaned = append(cleaned, s)
			}
		}
		if len(cleaned) == 0 {
			cleaned = append([]string(nil), def...)
			missing = append(missing, name)
		}
		*dst = cleaned
	}

	in, rec := &got.Insights, &got.Recommendations
	text("spendingPatterns", &in.SpendingPatterns, fb.Insights.SpendingPatterns)
	text("optimizationOpportunities", &in.OptimizationOpportunities, fb.Insights.OptimizationOpportunities)
	text("investmentRecommendations", &in.InvestmentRecommendations, fb.Insights.InvestmentRecommendations)
	text("riskAnalysis", &in.RiskAnalysis, fb.Insights.RiskAnalysis)
	text("goalAchievability", &in.GoalAchievability, fb.Insights.GoalAchievability)
	list("immediate", &rec.Immediate, fb.Recommendations.Immediate)
	list("shortTerm", &rec.ShortTerm, fb.Recommendations.ShortTerm)
	list("longTerm", &rec.LongTerm, fb.Recommendations.LongTerm)
	text("emergencyFund", &rec.EmergencyFund, fb.Recommendations.EmergencyFund)
	text("investmentStrategy", &rec.InvestmentStrategy, fb.Recommendations.InvestmentStrategy)
	return got, missing
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
