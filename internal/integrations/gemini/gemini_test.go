package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Dan9191/balancify/internal/config"
	"github.com/Dan9191/balancify/internal/engine"
	"github.com/Dan9191/balancify/internal/insights"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelText = "```json\n" + `{
  "insights": {
    "spendingPatterns": "Housing dominates",
    "optimizationOpportunities": "Cook at home",
    "investmentRecommendations": "Index funds",
    "riskAnalysis": "Low debt",
    "goalAchievability": "On track"
  },
  "recommendations": {
    "immediate": ["Track expenses"],
    "shortTerm": ["Emergency fund"],
    "longTerm": ["Retirement plan"],
    "emergencyFund": "Six months",
    "investmentStrategy": "Balanced"
  }
}` + "\n```"

func modelResponse(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content":      map[string]any{"parts": []any{map[string]any{"text": text}}},
			"finishReason": "STOP",
		}},
	})
	return string(b)
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	c := NewClient(&config.Config{
		GeminiURL:      url,
		GeminiModel:    "gemini-test",
		GeminiAPIKey:   "key-123",
		InsightTimeout: 5 * time.Second,
	}, log)
	return c.WithRetry(RetryConfig{MaxAttempts: 3, BackoffBase: time.Millisecond, BackoffMultiplier: 2, MaxBackoff: 5 * time.Millisecond})
}

func testContext(t *testing.T) insights.Context {
	t.Helper()
	p, err := engine.NewNormalizer().Normalize(map[string]any{
		"monthly_income":   60000.0,
		"housing_expenses": 18000.0,
		"risk_taking":      "High",
		"investment_types": []any{"Stocks", "SIP"},
		"financial_goals":  "Car for 4 lakh",
	})
	require.NoError(t, err)
	return insights.Context{Profile: p, Analysis: engine.New(engine.DefaultOptions()).Analyze(p)}
}

func TestGenerate_Success(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, modelResponse(modelText))
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv.URL).Generate(context.Background(), testContext(t))
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/gemini-test:generateContent", gotPath)
	assert.Equal(t, "key-123", gotKey)
	assert.Equal(t, "application/json", gotBody.GenerationConfig.ResponseMimeType)
	require.Len(t, gotBody.Contents, 1)
	prompt := gotBody.Contents[0].Parts[0].Text
	assert.Contains(t, prompt, "Income: ₹60000")
	assert.Contains(t, prompt, "Risk Tolerance: High")
	assert.Contains(t, prompt, "Investment Types: Stocks, SIP")
	assert.Contains(t, prompt, "Car ₹400000")

	assert.Equal(t, "Housing dominates", res.Insights.SpendingPatterns)
	assert.Equal(t, []string{"Retirement plan"}, res.Recommendations.LongTerm)
}

func TestGenerate_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			_, _ = io.WriteString(w, modelResponse(modelText))
		}
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv.URL).Generate(context.Background(), testContext(t))
	require.NoError(t, err)
	assert.Equal(t, "On track", res.Insights.GoalAchievability)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		reason    string
		transient bool
		calls     int32
	}{
		{"quota exhausted", http.StatusTooManyRequests, `{"error":"quota"}`, insights.ReasonQuota, true, 3},
		{"bad request", http.StatusBadRequest, `{"error":"bad"}`, insights.ReasonRejected, false, 1},
		{"unauthorized", http.StatusUnauthorized, ``, insights.ReasonRejected, false, 1},
		{"not json", http.StatusOK, `<html>`, insights.ReasonMalformed, false, 1},
		{"no candidates", http.StatusOK, `{"candidates": []}`, insights.ReasonMalformed, false, 1},
		{"blocked", http.StatusOK, `{"promptFeedback": {"blockReason": "SAFETY"}}`, insights.ReasonRejected, false, 1},
		{"model prose", http.StatusOK, modelResponse("I cannot answer that"), insights.ReasonMalformed, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv.URL).Generate(context.Background(), testContext(t))
			require.Error(t, err)
			var serr *insights.ExternalServiceError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.reason, serr.Reason)
			assert.Equal(t, tt.transient, insights.IsTransient(err))
			assert.Equal(t, tt.calls, calls.Load())
		})
	}
}

func TestGenerate_HonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newTestClient(t, srv.URL).Generate(ctx, testContext(t))
	require.Error(t, err)
	var serr *insights.ExternalServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, insights.ReasonTimeout, serr.Reason)
}

func TestGenerate_MissingKey(t *testing.T) {
	c := NewClient(&config.Config{GeminiURL: "http://127.0.0.1:0", GeminiModel: "m"}, logrus.New())
	_, err := c.Generate(context.Background(), testContext(t))
	require.Error(t, err)
	assert.False(t, insights.IsTransient(err))
}

func TestGuardWithGemini_FallsBackOnOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	log := logrus.New()
	log.SetOutput(io.Discard)
	g := insights.NewGuard(newTestClient(t, srv.URL), time.Second, log, nil)
	ic := testContext(t)
	out := g.Generate(context.Background(), ic)
	assert.Equal(t, insights.Fallback(ic), out.Result)
	assert.Equal(t, insights.ReasonUnavailable, out.Reason)
}
