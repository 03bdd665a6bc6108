package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/Dan9191/balancify/internal/config"
	"github.com/Dan9191/balancify/internal/insights"
	"github.com/Dan9191/balancify/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	providerName    = "gemini"
	maxResponseSize = 1 << 20
)

// RetryConfig controls retries of transient failures.
type RetryConfig struct {
	MaxAttempts       int
	BackoffBase       time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
}

// DefaultRetryConfig keeps total retry time well inside the insight timeout.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       500 * time.Millisecond,
		BackoffMultiplier: 2.0,
		MaxBackoff:        4 * time.Second,
	}
}

// Client generates insights with the Gemini generateContent API.
type Client struct {
	url    string
	model  string
	apiKey string
	retry  RetryConfig
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new Gemini client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url:    strings.TrimRight(cfg.GeminiURL, "/"),
		model:  cfg.GeminiModel,
		apiKey: cfg.GeminiAPIKey,
		retry:  DefaultRetryConfig(),
		client: &http.Client{
			Timeout: cfg.InsightTimeout,
		},
		log: log,
	}
}

// WithRetry replaces the retry policy.
func (c *Client) WithRetry(r RetryConfig) *Client {
	c.retry = r
	return c
}

func (c *Client) Name() string { return providerName }

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	Temperature      float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Generate sends one combined prompt and retries transient failures.
func (c *Client) Generate(ctx context.Context, ic insights.Context) (*models.InsightResult, error) {
	if c.apiKey == "" {
		return nil, insights.NewFatalError(providerName, insights.ReasonDisabled, fmt.Errorf("GEMINI_API_KEY is not set"))
	}
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: BuildPrompt(ic)}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			Temperature:      0.4,
		},
	})
	if err != nil {
		return nil, insights.NewFatalError(providerName, insights.ReasonRejected, fmt.Errorf("failed to encode request: %w", err))
	}

	var lastErr error
	for attempt := 1; attempt <= max(c.retry.MaxAttempts, 1); attempt++ {
		res, err := c.sendRequest(ctx, body)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !insights.IsTransient(err) || attempt >= c.retry.MaxAttempts {
			break
		}

		backoff := c.backoff(attempt)
		c.log.WithFields(logrus.Fields{
			"attempt": attempt,
			"backoff": backoff.String(),
			"error":   err,
		}).Debug("Gemini request failed, retrying")
		select {
		case <-ctx.Done():
			return nil, insights.NewTransientError(providerName, insights.ReasonTimeout, ctx.Err())
		case <-time.After(backoff):
		}
	}
	return nil, lastErr
}

// backoff is exponential with +/-25% jitter.
func (c *Client) backoff(attempt int) time.Duration {
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= c.retry.BackoffMultiplier
	}
	d := time.Duration(float64(c.retry.BackoffBase) * multiplier)
	if d > c.retry.MaxBackoff {
		d = c.retry.MaxBackoff
	}
	jitter := float64(d) * 0.25 * (rand.Float64()*2 - 1)
	return d + time.Duration(jitter)
}

// sendRequest performs a single generateContent call
func (c *Client) sendRequest(ctx context.Context, body []byte) (*models.InsightResult, error) {
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.url, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, insights.NewFatalError(providerName, insights.ReasonRejected, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, insights.NewTransientError(providerName, insights.ReasonTimeout, err)
		}
		return nil, insights.NewTransientError(providerName, insights.ReasonUnavailable, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, insights.NewTransientError(providerName, insights.ReasonUnavailable, fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, raw)
	}

	c.log.Debugf("Gemini response: %d bytes", len(raw))

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return nil, insights.NewFatalError(providerName, insights.ReasonMalformed, fmt.Errorf("failed to decode response: %w", err))
	}
	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return nil, insights.NewFatalError(providerName, insights.ReasonRejected, fmt.Errorf("prompt blocked: %s", gr.PromptFeedback.BlockReason))
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, insights.NewFatalError(providerName, insights.ReasonMalformed, fmt.Errorf("empty response from model"))
	}

	var text strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	res, err := insights.ParseResult(text.String())
	if err != nil {
		return nil, insights.NewFatalError(providerName, insights.ReasonMalformed, err)
	}
	return res, nil
}

// classifyStatus maps HTTP failures: 429 and 5xx are transient, the rest fatal.
func classifyStatus(status int, body []byte) error {
	snippet := string(body)
	if len(snippet) > 200 {
		snippet = snippet[:200] + "..."
	}
	err := fmt.Errorf("unexpected status code %d: %s", status, snippet)

	switch {
	case status == http.StatusTooManyRequests:
		return insights.NewTransientError(providerName, insights.ReasonQuota, err)
	case status >= 500:
		return insights.NewTransientError(providerName, insights.ReasonUnavailable, err)
	default:
		return insights.NewFatalError(providerName, insights.ReasonRejected, err)
	}
}
