package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"dealdesk/internal/advisory/metrics"
	"dealdesk/internal/platform/config"
)

// Analyzer analyzes one contract clause. Implementations never fail: on
// unrecoverable errors they return the fixed fallback advisory flagged for
// manual review, so the pipeline continues unaffected.
type Analyzer interface {
	Analyze(ctx context.Context, clauseText string) ClauseAdvisory
}

const systemPrompt = `You are a contract clause analyst for enterprise B2B SaaS deals.
Analyze the provided clause and return a JSON object with exactly these fields:

{
  "summary": "<1-2 sentence plain-English summary of what the clause requires>",
  "risk_level": "<Low | Medium | High>",
  "categories": ["<one or more of: Audit, Data Residency, IP, Other>"],
  "confidence": <float 0.0 to 1.0 indicating your confidence in the analysis>
}

Rules:
- categories MUST be a list with at least one value
- risk_level MUST be exactly one of: Low, Medium, High
- confidence MUST be a number between 0.0 and 1.0
- Return ONLY valid JSON, no markdown fences, no extra text`

// maxAttempts bounds the retry loop: one initial call plus two retries.
const maxAttempts = 3

// Mock is a deterministic analyzer for tests and demo deployments.
type Mock struct{}

// Analyze returns a fixed medium-risk advisory for any clause.
func (Mock) Analyze(_ context.Context, clauseText string) ClauseAdvisory {
	const confidence = 0.87
	return ClauseAdvisory{
		Summary:        "This clause requires annual third-party security audits and data residency within the EU.",
		RiskLevel:      RiskMedium,
		Categories:     []Category{CategoryAudit, CategoryDataResidency},
		Confidence:     confidence,
		ReviewRequired: confidence < ReviewConfidenceFloor,
		RawClause:      clauseText,
		ModelUsed:      "mock",
	}
}

// Client calls the Anthropic messages API with bounded retries and a fixed
// fallback once they are exhausted.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewClient builds a live analyzer from advisory configuration.
func NewClient(cfg config.Advisory, logger *slog.Logger, m *metrics.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     logger,
		metrics:    m,
	}
}

// NewAnalyzer picks the analyzer implied by configuration: live when
// requested, deterministic mock otherwise.
func NewAnalyzer(cfg config.Advisory, logger *slog.Logger, m *metrics.Metrics) Analyzer {
	if cfg.Mode == "live" {
		return NewClient(cfg, logger, m)
	}
	return Mock{}
}

// messagesRequest is the subset of the Anthropic messages API this client uses.
type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Analyze calls the model with strict-JSON prompting, retrying transport
// failures and malformed responses up to maxAttempts before degrading to the
// fallback advisory carrying the last error.
func (c *Client) Analyze(ctx context.Context, clauseText string) ClauseAdvisory {
	var advisory ClauseAdvisory
	attempt := 0

	operation := func() error {
		attempt++
		adv, err := c.callOnce(ctx, clauseText)
		if err != nil {
			c.logger.WarnContext(ctx, "advisory attempt failed",
				"attempt", attempt,
				"max_attempts", maxAttempts,
				"error", err,
			)
			return fmt.Errorf("attempt %d/%d: %w", attempt, maxAttempts, err)
		}
		advisory = adv
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxAttempts-1), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		c.logger.ErrorContext(ctx, "advisory retries exhausted", "error", err)
		c.metrics.IncrementAnalyses("fallback")
		return c.fallback(clauseText, err)
	}

	c.metrics.IncrementAnalyses("ok")
	return advisory
}

func (c *Client) callOnce(ctx context.Context, clauseText string) (ClauseAdvisory, error) {
	body, err := json.Marshal(messagesRequest{
		Model:       c.model,
		MaxTokens:   512,
		Temperature: 0,
		System:      systemPrompt,
		Messages: []message{
			{Role: "user", Content: "Analyze this contract clause:\n\n" + clauseText},
		},
	})
	if err != nil {
		return ClauseAdvisory{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return ClauseAdvisory{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ClauseAdvisory{}, fmt.Errorf("call model: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ClauseAdvisory{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return ClauseAdvisory{}, fmt.Errorf("model returned status %d", resp.StatusCode)
	}

	var mr messagesResponse
	if err := json.Unmarshal(raw, &mr); err != nil {
		return ClauseAdvisory{}, fmt.Errorf("decode response envelope: %w", err)
	}
	if len(mr.Content) == 0 {
		return ClauseAdvisory{}, fmt.Errorf("response contained no content blocks")
	}

	return c.parseAdvisory(mr.Content[0].Text, clauseText)
}

// parseAdvisory turns the model's raw JSON text into a validated advisory.
func (c *Client) parseAdvisory(raw, clauseText string) (ClauseAdvisory, error) {
	var adv ClauseAdvisory
	if err := json.Unmarshal([]byte(raw), &adv); err != nil {
		return ClauseAdvisory{}, fmt.Errorf("parse advisory JSON: %w", err)
	}
	adv.ReviewRequired = adv.Confidence < ReviewConfidenceFloor
	adv.RawClause = clauseText
	adv.ModelUsed = c.model
	adv.Error = ""
	if err := adv.validate(); err != nil {
		return ClauseAdvisory{}, fmt.Errorf("invalid advisory: %w", err)
	}
	return adv, nil
}

// fallback is the fixed advisory returned once retries are exhausted.
func (c *Client) fallback(clauseText string, lastErr error) ClauseAdvisory {
	return ClauseAdvisory{
		Summary:        "Unable to analyze clause — flagged for manual review.",
		RiskLevel:      RiskMedium,
		Categories:     []Category{CategoryOther},
		Confidence:     0,
		ReviewRequired: true,
		RawClause:      clauseText,
		ModelUsed:      c.model,
		Error:          lastErr.Error(),
	}
}
