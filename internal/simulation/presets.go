// Package simulation holds the named what-if scenarios offered next to the
// custom simulator knobs.
package simulation

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/Dan9191/balancify/internal/engine"
	"github.com/Dan9191/balancify/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetsSource []byte

// Preset is a named set of simulation parameters.
type Preset struct {
	ID          string                      `yaml:"id" json:"id"`
	Name        string                      `yaml:"name" json:"name"`
	Description string                      `yaml:"description" json:"description"`
	Parameters  models.SimulationParameters `yaml:"parameters" json:"params"`
}

// Presets is an ordered preset list.
type Presets []Preset

// LoadPresets parses the embedded preset file.
func LoadPresets() (Presets, error) {
	return ParsePresets(presetsSource)
}

// ParsePresets parses and validates a preset document.
func ParsePresets(data []byte) (Presets, error) {
	var doc struct {
		Presets Presets `yaml:"presets"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	seen := make(map[string]bool, len(doc.Presets))
	for _, p := range doc.Presets {
		if p.ID == "" {
			return nil, fmt.Errorf("preset %q has no id", p.Name)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate preset %q", p.ID)
		}
		seen[p.ID] = true
		if err := engine.ValidateParameters(p.Parameters); err != nil {
			return nil, fmt.Errorf("preset %q: %w", p.ID, err)
		}
	}
	return doc.Presets, nil
}

// Get looks a preset up by id, ignoring case.
func (ps Presets) Get(id string) (Preset, bool) {
	for _, p := range ps {
		if strings.EqualFold(p.ID, strings.TrimSpace(id)) {
			return p, true
		}
	}
	return Preset{}, false
}

// Overrides are knobs that replace a preset value when set.
type Overrides struct {
	IncomeIncrease    *float64 `json:"incomeIncrease,omitempty"`
	ExpenseReduction  *float64 `json:"expenseReduction,omitempty"`
	AdditionalSavings *float64 `json:"additionalSavings,omitempty"`
	InvestmentBoost   *float64 `json:"investmentBoost,omitempty"`
	GoalTarget        *float64 `json:"goalTarget,omitempty"`
}

// Apply returns base with every set override replacing its value.
func (o Overrides) Apply(base models.SimulationParameters) models.SimulationParameters {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&base.IncomeIncrease, o.IncomeIncrease)
	set(&base.ExpenseReduction, o.ExpenseReduction)
	set(&base.AdditionalSavings, o.AdditionalSavings)
	set(&base.InvestmentBoost, o.InvestmentBoost)
	set(&base.GoalTarget, o.GoalTarget)
	return base
}
