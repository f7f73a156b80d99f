package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL         = "https://api.anthropic.com"
	defaultModel           = "claude-3-5-haiku-20241022"
	defaultScoreTimeout    = 30 * time.Second
	defaultValidateTimeout = 15 * time.Second
	apiVersion             = "2023-06-01"
)

// ClientConfig configures the remote oracle client.
type ClientConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	ScoreTimeout    time.Duration
	ValidateTimeout time.Duration
}

// Client is the remote Oracle implementation backed by a messages API.
// Every method issues exactly one batched call with a single timeout.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

// Verify Client satisfies Oracle at compile time.
var _ Oracle = (*Client)(nil)

// NewClient creates a remote oracle client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.ScoreTimeout <= 0 {
		cfg.ScoreTimeout = defaultScoreTimeout
	}
	if cfg.ValidateTimeout <= 0 {
		cfg.ValidateTimeout = defaultValidateTimeout
	}
	return &Client{cfg: cfg, http: &http.Client{}}
}

// ScoreCandidates scores every candidate title against the source document
// in one batched call and extracts anchor patterns describing what each
// target teaches. The response must contain exactly one evaluation per
// candidate, in request order.
func (c *Client) ScoreCandidates(ctx context.Context, sourceTitle, sourceExcerpt string, candidateTitles []string) ([]Evaluation, error) {
	if len(candidateTitles) == 0 {
		return nil, nil
	}

	var list strings.Builder
	for i, t := range candidateTitles {
		fmt.Fprintf(&list, "%d. %q\n", i+1, t)
	}
	excerptLine := ""
	if sourceExcerpt != "" {
		excerptLine = "Description: " + sourceExcerpt + "\n"
	}

	prompt := fmt.Sprintf(`You are evaluating internal links for a published document.

SOURCE DOCUMENT: %q
%s
CANDIDATE LINKS (potential pages to link TO from the source document):
%s
For EACH candidate, provide:
1. score (1-10): Would a reader of the SOURCE benefit from this link?
2. anchors: 2-4 phrases that describe what the TARGET document is about

SCORING:
- 9-10: Directly related (same problem, complementary technique)
- 7-8: Related topic (same domain, natural reader interest)
- 4-6: Loosely related (same category, different focus)
- 1-3: Unrelated (no reader benefit)

ANCHOR PATTERN RULES:
- Patterns must describe what the TARGET document teaches or covers
- Use the CORE TOPIC, not generic words from the title
- If the target is a NICHE document, patterns must reflect that specificity

Respond with ONLY a JSON array, one object per candidate:
[{"score": 8, "anchors": ["pattern1", "pattern2"]}, {"score": 3, "anchors": []}]`,
		sourceTitle, excerptLine, list.String())

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ScoreTimeout)
	defer cancel()

	text, err := c.complete(ctx, prompt, 500)
	if err != nil {
		return nil, err
	}

	var parsed []struct {
		Score   float64  `json:"score"`
		Anchors []string `json:"anchors"`
	}
	if err := json.Unmarshal([]byte(stripFences(text)), &parsed); err != nil {
		return nil, fmt.Errorf("oracle: decode score response: %w", err)
	}
	if len(parsed) != len(candidateTitles) {
		return nil, fmt.Errorf("oracle: score response length %d, want %d", len(parsed), len(candidateTitles))
	}

	out := make([]Evaluation, len(parsed))
	for i, p := range parsed {
		out[i] = Evaluation{Score: int(p.Score), AnchorPatterns: p.Anchors}
	}
	return out, nil
}

// ValidateContexts checks, in one batched call, whether each anchor's
// usage in context matches its target's topic and whether the anchor's
// generality matches the target's scope. The response must contain one
// boolean per check, in request order.
func (c *Client) ValidateContexts(ctx context.Context, checks []ContextCheck) ([]bool, error) {
	if len(checks) == 0 {
		return nil, nil
	}

	var list strings.Builder
	for i, chk := range checks {
		snippet := chk.Context
		if len(snippet) > 100 {
			snippet = snippet[:100] + "..."
		}
		fmt.Fprintf(&list, "%d. Anchor: %q | Context: %q | Target: %q\n",
			i+1, chk.AnchorText, snippet, chk.TargetTitle)
	}

	prompt := fmt.Sprintf(`For each link below, evaluate if the anchor text should link to the target document.

%s
Check TWO things:
1. CONTEXT: Is the anchor text used in a way that relates to the target topic?
2. SPECIFICITY: Does the anchor text accurately represent the target document's scope?
   A general anchor must not point to a niche target, and vice versa.

Answer with ONLY a JSON array of booleans, like: [true, false, true]
- true = context is appropriate AND anchor specificity matches target scope
- false = wrong context OR anchor is too general/specific for the target`, list.String())

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ValidateTimeout)
	defer cancel()

	text, err := c.complete(ctx, prompt, 100)
	if err != nil {
		return nil, err
	}

	var verdicts []bool
	if err := json.Unmarshal([]byte(stripFences(text)), &verdicts); err != nil {
		return nil, fmt.Errorf("oracle: decode validation response: %w", err)
	}
	if len(verdicts) != len(checks) {
		return nil, fmt.Errorf("oracle: validation response length %d, want %d", len(verdicts), len(checks))
	}
	return verdicts, nil
}

// complete issues one messages-API call and returns the first text block.
func (c *Client) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model":      c.cfg.Model,
		"max_tokens": maxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("oracle: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("oracle: build request: %w", err)
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("oracle: call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oracle: status %d", resp.StatusCode)
	}

	var payload struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("oracle: decode response: %w", err)
	}
	if len(payload.Content) == 0 {
		return "", fmt.Errorf("oracle: empty response")
	}
	return strings.TrimSpace(payload.Content[0].Text), nil
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if i := strings.Index(text, "\n"); i >= 0 {
		text = text[i+1:]
	}
	if i := strings.LastIndex(text, "```"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}
