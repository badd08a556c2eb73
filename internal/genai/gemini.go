// Package genai calls the generation service and extracts a single text
// completion. It performs no retries: a failed call surfaces to the caller.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// GeminiClient is a plain HTTP client for the Gemini generateContent endpoint.
type GeminiClient struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Model      string
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Role  string         `json:"role,omitempty"`
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateCandidate struct {
	Content *generateContent `json:"content"`
}

type generateResponse struct {
	Candidates []generateCandidate `json:"candidates"`
}

// NewGeminiClient constructs a client with a sane default model and timeout.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	if model == "" {
		model = "gemini-1.5-flash-latest"
	}
	return &GeminiClient{
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
		BaseURL:    defaultBaseURL,
		APIKey:     apiKey,
		Model:      model,
	}
}

// Generate sends the prompt as a single user turn and returns the first
// candidate's first text part.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("gemini: api key missing")
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(c.BaseURL, "/"), c.Model)

	body, _ := json.Marshal(generateRequest{
		Contents: []generateContent{{Role: "user", Parts: []generatePart{{Text: prompt}}}},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-goog-api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("gemini: status=%d body=%s", resp.StatusCode, string(b))
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || gr.Candidates[0].Content == nil || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty candidates")
	}
	text := gr.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini: empty text part")
	}
	return strings.TrimSpace(text), nil
}
