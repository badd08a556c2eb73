// Package store pushes the transcript and feedback to the external interview
// store. Writes are last-write-wins partial updates; there is no offline queue
// and no retry, a failed write surfaces to the caller.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Kapil690789/Ai-Interviewer-Agent/internal/interview"
)

// ErrUnauthorized marks a rejected credential. Callers treat it as fatal for
// the session, not for the process.
var ErrUnauthorized = errors.New("store: unauthorized")

// Client talks to the interview store REST API with a bearer credential.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// Partial is an update carrying one or both of messages and feedback.
type Partial struct {
	Messages []interview.Message `json:"messages,omitempty"`
	Feedback string              `json:"feedback,omitempty"`
}

type createRequest struct {
	Role      string              `json:"role"`
	TechStack string              `json:"techStack"`
	Messages  []interview.Message `json:"messages"`
}

// NewClient constructs a store client for the given base URL.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Create persists a new interview and returns it with the assigned id.
func (c *Client) Create(ctx context.Context, role, techStack string, messages []interview.Message) (*interview.Session, error) {
	body, _ := json.Marshal(createRequest{Role: role, TechStack: techStack, Messages: messages})
	var sess interview.Session
	if err := c.do(ctx, http.MethodPost, "/api/interviews", body, &sess); err != nil {
		return nil, err
	}
	if sess.ID == "" {
		return nil, fmt.Errorf("store: create returned no id")
	}
	return &sess, nil
}

// UpdateMessages replaces the stored transcript for id.
func (c *Client) UpdateMessages(ctx context.Context, id string, messages []interview.Message) error {
	body, _ := json.Marshal(Partial{Messages: messages})
	return c.do(ctx, http.MethodPut, "/api/interviews/"+id, body, nil)
}

// UpdateFeedback sets the stored feedback for id.
func (c *Client) UpdateFeedback(ctx context.Context, id string, feedback string) error {
	body, _ := json.Marshal(Partial{Feedback: feedback})
	return c.do(ctx, http.MethodPut, "/api/interviews/"+id, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	if c.BaseURL == "" {
		return fmt.Errorf("store: base url missing")
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("store: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("store: %s %s: status=%d body=%s", method, path, resp.StatusCode, string(b))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("store: decode response: %w", err)
		}
	}
	return nil
}
