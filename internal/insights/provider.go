// Package insights produces the narrative part of an analysis. Providers may
// fail in any way; the Guard turns every failure into deterministic text so
// numeric results are always returned.
package insights

import (
	"context"

	"github.com/Dan9191/balancify/internal/models"
)

// Context is everything a provider may use to write insights. The numeric
// analysis is always computed before a provider is called.
type Context struct {
	Profile  *models.FinancialProfile
	Analysis *models.Analysis
	// Currency prefixes amounts in generated text.
	Currency string
}

func (c Context) currency() string {
	if c.Currency == "" {
		return "₹"
	}
	return c.Currency
}

// Provider generates narrative insights. Implementations return an
// *ExternalServiceError on failure and must honour ctx cancellation.
type Provider interface {
	Name() string
	Generate(ctx context.Context, ic Context) (*models.InsightResult, error)
}

// StaticProvider answers with the deterministic fallback text. It is used
// offline and when no external provider is configured.
type StaticProvider struct{}

func (StaticProvider) Name() string { return "static" }

func (StaticProvider) Generate(ctx context.Context, ic Context) (*models.InsightResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewFatalError("static", ReasonTimeout, err)
	}
	res := Fallback(ic)
	return &res, nil
}
