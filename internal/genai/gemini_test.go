package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewGeminiClient("test-key", "")
	c.BaseURL = srv.URL
	return c
}

func TestGenerate_ExtractsFirstCandidateText(t *testing.T) {
	var gotPath, gotKey string
	var gotReq generateRequest
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(generateResponse{
			Candidates: []generateCandidate{{Content: &generateContent{
				Parts: []generatePart{{Text: "  What is a goroutine?  "}},
			}}},
		})
	})

	got, err := c.Generate(context.Background(), "ask a question")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "What is a goroutine?" {
		t.Fatalf("text not trimmed: %q", got)
	}
	if gotPath != "/v1beta/models/gemini-1.5-flash-latest:generateContent" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("api key header missing, got %q", gotKey)
	}
	if len(gotReq.Contents) != 1 || gotReq.Contents[0].Parts[0].Text != "ask a question" {
		t.Fatalf("prompt not forwarded: %+v", gotReq)
	}
}

func TestGenerate_MissingAPIKey(t *testing.T) {
	c := NewGeminiClient("", "")
	if _, err := c.Generate(context.Background(), "hi"); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestGenerate_Non2xxStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	})
	_, err := c.Generate(context.Background(), "hi")
	if err == nil || !strings.Contains(err.Error(), "status=429") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestGenerate_EmptyCandidates(t *testing.T) {
	cases := map[string]string{
		"no candidates": `{"candidates":[]}`,
		"nil content":   `{"candidates":[{}]}`,
		"no parts":      `{"candidates":[{"content":{"parts":[]}}]}`,
		"blank text":    `{"candidates":[{"content":{"parts":[{"text":"   "}]}}]}`,
	}
	for name, body := range cases {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		if _, err := c.Generate(context.Background(), "hi"); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestGenerate_MalformedJSON(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})
	if _, err := c.Generate(context.Background(), "hi"); err == nil {
		t.Fatalf("expected decode error")
	}
}
