package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profileYAML = `
monthly_income: 60000
housing_expenses: 15000
preferred_savings: 10000
monthly_investment: 5000
financial_goals:
  - description: Car
    target_amount: 300000
    timeline_months: 24
    priority: high
`

func run(t *testing.T, args ...string) (map[string]any, []any, error) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("CONFIG_FILE", "")

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		return nil, nil, err
	}

	var v any
	require.NoError(t, json.Unmarshal(out.Bytes(), &v), out.String())
	switch x := v.(type) {
	case map[string]any:
		return x, nil, nil
	case []any:
		return nil, x, nil
	}
	t.Fatalf("unexpected output %s", out.String())
	return nil, nil, nil
}

func writeProfile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(profileYAML), 0o600))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "balancify", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	names := []string{}
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"analyze", "simulate", "presets"}, names)
}

func TestAnalyzeCommand(t *testing.T) {
	out, _, err := run(t, "analyze", "--file", writeProfile(t))
	require.NoError(t, err)

	timeline := out["goalTimeline"].(map[string]any)
	assert.Equal(t, "Car", timeline["goalDescription"])
	assert.Equal(t, float64(20), timeline["timeToGoal"])
	assert.Equal(t, "provider", out["insightSource"])
}

func TestSimulateCommand(t *testing.T) {
	out, _, err := run(t, "simulate", "--file", writeProfile(t), "--preset", "moderate", "--savings", "0")
	require.NoError(t, err)

	params := out["parameters"].(map[string]any)
	assert.Equal(t, float64(15), params["incomeIncrease"])
	assert.Equal(t, float64(0), params["additionalSavings"])
	cmp := out["comparison"].(map[string]any)
	assert.Equal(t, float64(15250), cmp["newMonthlySavings"])
}

func TestSimulateCommandRejectsBadInput(t *testing.T) {
	_, _, err := run(t, "simulate", "--file", writeProfile(t), "--income", "500")
	assert.Error(t, err)

	_, _, err = run(t, "simulate")
	assert.Error(t, err)

	_, _, err = run(t, "analyze", "--file", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPresetsCommand(t *testing.T) {
	_, list, err := run(t, "presets")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "aggressive", list[2].(map[string]any)["id"])
}
