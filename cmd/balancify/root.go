package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Dan9191/balancify/internal/config"
	"github.com/Dan9191/balancify/internal/insights"
	"github.com/Dan9191/balancify/internal/integrations/gemini"
	"github.com/Dan9191/balancify/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "balancify",
		Short:        "Personal finance questionnaire analyzer",
		Long:         "Analyze a questionnaire profile and explore what-if savings scenarios without running the API server.",
		SilenceUsage: true,
	}
	root.AddCommand(analyzeCmd(), simulateCmd(), presetsCmd())
	return root
}

// newService builds a storage-less service. Insights come from Gemini when
// GEMINI_API_KEY is set and from templates otherwise.
func newService(stderr io.Writer) (*service.Service, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetLevel(logrus.WarnLevel)

	var provider insights.Provider = insights.StaticProvider{}
	if cfg.GeminiAPIKey != "" {
		provider = gemini.NewClient(cfg, logger)
	}
	return service.NewService(logger, cfg, service.Deps{
		Guard: insights.NewGuard(provider, cfg.InsightTimeout, logger, nil),
	})
}

// readProfile loads a raw questionnaire from a YAML or JSON file.
func readProfile(path string) (map[string]any, error) {
	if path == "" {
		return nil, fmt.Errorf("--file is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	return raw, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func analyzeCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a questionnaire profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readProfile(file)
			if err != nil {
				return err
			}
			svc, err := newService(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			resp, err := svc.Evaluate(context.Background(), raw)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Profile file (YAML or JSON)")
	return cmd
}

func simulateCmd() *cobra.Command {
	var (
		file   string
		preset string
		knobs  struct{ income, expense, savings, investment, target float64 }
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a what-if simulation on a questionnaire profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readProfile(file)
			if err != nil {
				return err
			}
			svc, err := newService(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			req := service.SimulationRequest{Profile: raw, Preset: preset}
			flags := cmd.Flags()
			set := func(name string, v *float64) *float64 {
				if flags.Changed(name) {
					return v
				}
				return nil
			}
			req.Simulation.IncomeIncrease = set("income", &knobs.income)
			req.Simulation.ExpenseReduction = set("expense", &knobs.expense)
			req.Simulation.AdditionalSavings = set("savings", &knobs.savings)
			req.Simulation.InvestmentBoost = set("investment", &knobs.investment)
			req.Simulation.GoalTarget = set("target", &knobs.target)

			res, err := svc.Simulate(context.Background(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "", "Profile file (YAML or JSON)")
	f.StringVarP(&preset, "preset", "p", "", "Named scenario (conservative, moderate, aggressive)")
	f.Float64Var(&knobs.income, "income", 0, "Income increase in percent")
	f.Float64Var(&knobs.expense, "expense", 0, "Discretionary expense reduction in percent")
	f.Float64Var(&knobs.savings, "savings", 0, "Additional savings as percent of income")
	f.Float64Var(&knobs.investment, "investment", 0, "Investment boost in percent")
	f.Float64Var(&knobs.target, "target", 0, "Override the primary goal target")
	return cmd
}

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the predefined simulation scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), svc.Presets())
		},
	}
}
