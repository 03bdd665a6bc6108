package models

// FinancialInsights holds the five narrative fields produced by the insight provider.
type FinancialInsights struct {
	SpendingPatterns          string `json:"spendingPatterns"`
	OptimizationOpportunities string `json:"optimizationOpportunities"`
	InvestmentRecommendations string `json:"investmentRecommendations"`
	RiskAnalysis              string `json:"riskAnalysis"`
	GoalAchievability         string `json:"goalAchievability"`
}

// Recommendations groups actions by horizon plus two summary strings.
type Recommendations struct {
	Immediate          []string `json:"immediate"`
	ShortTerm          []string `json:"shortTerm"`
	LongTerm           []string `json:"longTerm"`
	EmergencyFund      string   `json:"emergencyFund"`
	InvestmentStrategy string   `json:"investmentStrategy"`
}

// InsightResult is the complete narrative payload.
type InsightResult struct {
	Insights        FinancialInsights `json:"insights"`
	Recommendations Recommendations   `json:"recommendations"`
}

// InsightSource records where narrative text came from.
type InsightSource string

const (
	InsightSourceProvider InsightSource = "provider"
	InsightSourcePartial  InsightSource = "partial"
	InsightSourceFallback InsightSource = "fallback"
)
