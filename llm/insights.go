package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"domatrend/database/types"
)

// List caps for insight fields; anything beyond these is truncated.
const (
	maxHighlights      = 5
	maxRecommendations = 3
	maxRiskFactors     = 3
)

// completer is the slice of Client the analyzer needs; narrowed for tests
type completer interface {
	ChatCompletion(ctx context.Context, req ChatRequest) (string, error)
}

// Analyzer turns a scored domain into structured investment commentary.
// Entirely best-effort: a disabled analyzer, a timeout, or a malformed
// response all yield (nil, error-or-nil), never a blocked caller.
type Analyzer struct {
	client      completer
	enabled     bool
	maxTokens   int
	temperature float64
	timeout     time.Duration
}

// NewAnalyzer creates an insight analyzer. A nil client or disabled flag
// makes Generate return nil immediately.
func NewAnalyzer(client *Client, enabled bool, maxTokens int, temperature float64, timeout time.Duration) *Analyzer {
	a := &Analyzer{
		enabled:     enabled,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
	}
	if client != nil {
		a.client = client
	}
	return a
}

// Enabled reports whether the analyzer will attempt generation
func (a *Analyzer) Enabled() bool {
	return a.enabled && a.client != nil
}

// rawInsight mirrors the JSON shape the model is asked to produce
type rawInsight struct {
	Summary         string   `json:"summary"`
	Sentiment       string   `json:"sentiment"`
	Confidence      *float64 `json:"confidence"`
	KeyHighlights   []string `json:"keyHighlights"`
	Recommendations []string `json:"recommendations"`
	RiskFactors     []string `json:"riskFactors"`
}

// Generate requests a structured insight for a scored domain. Returns
// (nil, nil) when disabled and (nil, err) on transport or validation
// failure; callers treat both as "no insight available yet".
func (a *Analyzer) Generate(ctx context.Context, req types.InsightRequest) (*types.AiInsight, error) {
	if !a.Enabled() {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	content, err := a.client.ChatCompletion(ctx, ChatRequest{
		Messages: []Message{
			{Role: "user", Content: buildPrompt(req)},
		},
		Temperature:    a.temperature,
		MaxTokens:      a.maxTokens,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("LLM returned empty response")
	}

	var parsed rawInsight
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse insight JSON: %w", err)
	}

	if parsed.Summary == "" || len(parsed.KeyHighlights) == 0 || len(parsed.Recommendations) == 0 {
		return nil, fmt.Errorf("insight response missing required fields")
	}

	sentiment := parsed.Sentiment
	switch sentiment {
	case "positive", "neutral", "negative":
	default:
		sentiment = "neutral"
	}

	confidence := req.TrendScore.Metadata.Confidence
	if parsed.Confidence != nil && *parsed.Confidence >= 0 && *parsed.Confidence <= 1 {
		confidence = *parsed.Confidence
	}

	return &types.AiInsight{
		Summary:         parsed.Summary,
		Sentiment:       sentiment,
		Confidence:      confidence,
		KeyHighlights:   truncate(parsed.KeyHighlights, maxHighlights),
		Recommendations: truncate(parsed.Recommendations, maxRecommendations),
		RiskFactors:     truncate(parsed.RiskFactors, maxRiskFactors),
	}, nil
}

// buildPrompt renders the fixed-structure valuation prompt with the score
// breakdown and signal summaries embedded.
func buildPrompt(req types.InsightRequest) string {
	trendLabel := "stable"
	if req.TrendScore.Breakdown.TrendDirection >= 66 {
		trendLabel = "growing"
	} else if req.TrendScore.Breakdown.TrendDirection <= 33 {
		trendLabel = "declining"
	}

	var sb strings.Builder
	sb.Grow(2048)

	sb.WriteString("You are a specialized AI analyst for Web3 domain valuation and investment. ")
	sb.WriteString(fmt.Sprintf("Assess the investment potential of the domain %q for Web3 projects, crypto brands, and resale.\n\n", req.DomainName))

	sb.WriteString("Search trend metrics:\n")
	sb.WriteString(fmt.Sprintf("- Trend score: %.2f / 100 (%s)\n", req.TrendScore.Breakdown.TrendDirection, trendLabel))
	sb.WriteString(fmt.Sprintf("- Search volume score: %.2f / 100\n", req.TrendScore.Breakdown.SearchVolume))
	sb.WriteString(fmt.Sprintf("- Trend strength: %.2f%%\n", req.SearchMetrics.Trend*100))
	sb.WriteString(fmt.Sprintf("- Related queries: %d\n", len(req.SearchMetrics.RelatedQueries)))
	sb.WriteString(fmt.Sprintf("- Geographic spread: %d regions\n\n", len(req.SearchMetrics.GeographicData)))

	sb.WriteString("On-chain metrics (Doma registry activity):\n")
	sb.WriteString(fmt.Sprintf("- Activity score: %.2f / 100\n", req.TrendScore.Breakdown.OnChainActivity))
	sb.WriteString(fmt.Sprintf("- Transactions: %d\n", req.OnChain.TransactionCount))
	sb.WriteString(fmt.Sprintf("- Unique owners: %d\n", req.OnChain.UniqueOwners))
	sb.WriteString(fmt.Sprintf("- Average price: %.4f\n", req.OnChain.AveragePrice))
	sb.WriteString(fmt.Sprintf("- Liquidity score: %.2f\n", req.OnChain.Liquidity))
	sb.WriteString(fmt.Sprintf("- Rarity score: %.2f / 100\n\n", req.TrendScore.Breakdown.Rarity))

	sb.WriteString(fmt.Sprintf("Overall investment score: %.2f / 100\n", req.TrendScore.Score))
	sb.WriteString(fmt.Sprintf("Confidence level: %.0f%%\n\n", req.TrendScore.Metadata.Confidence*100))

	sb.WriteString("Respond with valid JSON only, no text before or after, using this structure:\n")
	sb.WriteString(`{
  "summary": "investment opportunity analysis, max 3 sentences",
  "sentiment": "positive" | "neutral" | "negative",
  "confidence": 0.0-1.0,
  "keyHighlights": ["why this domain could be valuable"],
  "recommendations": ["buy now / wait / develop / hold"],
  "riskFactors": ["market, competition or technical risks"]
}`)
	sb.WriteString("\n\nFocus on Web3 domain investment potential, market timing, and profit opportunities.")

	return sb.String()
}

func truncate(items []string, max int) []string {
	if len(items) > max {
		return items[:max]
	}
	return items
}
