package insights

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Dan9191/balancify/internal/models"
)

var (
	// jsonBlockPattern matches an object inside a markdown code fence.
	jsonBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	// jsonObjectPattern is the greedy fallback for bare objects.
	jsonObjectPattern    = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON pulls a JSON object out of model output, removing code fences,
// line comments and trailing commas.
func ExtractJSON(content string) string {
	raw := ""
	if m := jsonBlockPattern.FindStringSubmatch(content); len(m) > 1 {
		raw = m[1]
	} else {
		raw = jsonObjectPattern.FindString(content)
	}
	if raw == "" {
		return ""
	}
	return cleanJSON(raw)
}

func cleanJSON(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = stripLineComment(line)
	}
	return trailingCommaPattern.ReplaceAllString(strings.Join(lines, "\n"), "$1")
}

// stripLineComment removes a // comment that is outside any string value.
func stripLineComment(line string) string {
	if !strings.Contains(line, "//") {
		return line
	}
	inString, escaped := false, false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case !inString && ch == '/' && i+1 < len(line) && line[i+1] == '/':
			return strings.TrimRight(line[:i], " \t")
		}
	}
	return line
}

// payload accepts both the nested shape and a flat object carrying all
// fields at the top level.
type payload struct {
	models.FinancialInsights
	Insights        *models.FinancialInsights `json:"insights"`
	Recommendations *models.Recommendations   `json:"recommendations"`
}

// ParseResult decodes model output into an InsightResult. Missing fields are
// left empty for the guard to fill.
func ParseResult(content string) (*models.InsightResult, error) {
	body := ExtractJSON(content)
	if body == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}
	var p payload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, fmt.Errorf("decode insight payload: %w", err)
	}
	res := &models.InsightResult{Insights: p.FinancialInsights}
	if p.Insights != nil {
		res.Insights = *p.Insights
	}
	if p.Recommendations != nil {
		res.Recommendations = *p.Recommendations
	}
	return res, nil
}
