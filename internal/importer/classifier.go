package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultClassifierModel is the fallback model when none is configured.
	DefaultClassifierModel = "openai/gpt-4o-mini"

	// DefaultClassifierTimeout bounds the classifier call so a slow or hung
	// provider always falls through to the regex fallback.
	DefaultClassifierTimeout = 10 * time.Second

	// classifierSampleRows is how many data rows are sent alongside the
	// headers to help the model disambiguate column content.
	classifierSampleRows = 3
)

// ClassifierConfig holds settings for the AI-assisted mapping strategy.
type ClassifierConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	Logger  *logrus.Entry
}

// Classifier is the AI-assisted mapping strategy. It submits the header set
// and a small row sample to an OpenRouter-compatible chat completions
// endpoint and expects a JSON object assigning candidate columns to canonical
// fields. Any failure is returned to the caller, which falls back to the
// deterministic regex mapper.
type Classifier struct {
	config     ClassifierConfig
	httpClient *http.Client
	logger     *logrus.Entry
}

// NewClassifier creates the AI mapping strategy.
func NewClassifier(config ClassifierConfig) *Classifier {
	if config.Model == "" {
		config.Model = DefaultClassifierModel
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://openrouter.ai/api/v1"
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultClassifierTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}

	return &Classifier{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger.WithField("component", "import-classifier"),
	}
}

// IsConfigured reports whether the classifier has an API key to call with.
func (c *Classifier) IsConfigured() bool {
	return c.config.APIKey != ""
}

func (c *Classifier) Name() string {
	return "ai-classifier"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const classifierSystemPrompt = `You map spreadsheet columns onto a fixed product schema for a fashion marketplace.
Respond with a single JSON object whose keys are exactly: title, description, price, currency, stock, size, tags, images, category, metadata.
Each value is an array of source column names from the provided header list, best candidate first.
Use an empty array for fields with no matching column. Do not invent column names and do not add commentary.`

func (c *Classifier) ProposeMapping(ctx context.Context, headers []string, sample []RawRow) (FieldMapping, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("classifier API key not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	content, err := c.complete(ctx, classifierSystemPrompt, c.buildPrompt(headers, sample))
	if err != nil {
		return nil, err
	}

	proposed, err := parseClassifierOutput(content)
	if err != nil {
		return nil, err
	}

	mapping := proposed.sanitize(headers)
	c.logger.WithField("headers", len(headers)).Debug("Classifier proposed column mapping")
	return mapping, nil
}

// buildPrompt serializes the headers and up to classifierSampleRows rows of
// sample data for the model.
func (c *Classifier) buildPrompt(headers []string, sample []RawRow) string {
	if len(sample) > classifierSampleRows {
		sample = sample[:classifierSampleRows]
	}

	var b strings.Builder
	b.WriteString("Headers:\n")
	headerJSON, _ := json.Marshal(headers)
	b.Write(headerJSON)
	b.WriteString("\n\nSample rows:\n")
	for _, row := range sample {
		cells := make(map[string]string, len(headers))
		for _, h := range headers {
			cells[h] = row[h]
		}
		rowJSON, _ := json.Marshal(cells)
		b.Write(rowJSON)
		b.WriteString("\n")
	}
	return b.String()
}

func (c *Classifier) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody, err := json.Marshal(chatCompletionRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.1,
		MaxTokens:   600,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("classifier request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response choices from classifier")
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// parseClassifierOutput decodes the model's JSON object. Models occasionally
// wrap output in a markdown code fence; that is stripped before decoding.
// Keys outside the canonical field set are ignored.
func parseClassifierOutput(content string) (FieldMapping, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	var raw map[string][]string
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("classifier returned malformed output: %w", err)
	}

	mapping := make(FieldMapping, len(CanonicalFields()))
	for _, field := range CanonicalFields() {
		mapping[field] = raw[string(field)]
	}
	return mapping, nil
}
