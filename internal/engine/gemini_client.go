package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"prompt-forge/server/internal/config"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultTimeout       = 120 * time.Second
)

// GeminiClient calls the Gemini generateContent endpoint
type GeminiClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// GeminiPart is one piece of content
type GeminiPart struct {
	Text string `json:"text,omitempty"`
}

// GeminiContent is a role-tagged list of parts
type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiRequest is the generateContent request body
type GeminiRequest struct {
	Contents []GeminiContent `json:"contents"`
}

// GeminiCandidate is one generated answer. Fields are pointers so that
// absent keys can be told apart from empty values.
type GeminiCandidate struct {
	Content *struct {
		Parts []struct {
			Text *string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
	FinishReason string `json:"finishReason,omitempty"`
}

// GeminiResponse is the generateContent response body
type GeminiResponse struct {
	Candidates []GeminiCandidate `json:"candidates"`
	Error      *GeminiAPIError   `json:"error,omitempty"`
}

// GeminiAPIError is the error object returned by Google APIs
type GeminiAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// NewGeminiClient creates a new Gemini API client
func NewGeminiClient(cfg config.GeminiConfig) *GeminiClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &GeminiClient{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *GeminiClient) Name() string {
	return "gemini/" + c.model
}

// Generate sends prompt as a single user turn and returns the first text part
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(&GeminiRequest{
		Contents: []GeminiContent{{
			Role:  "user",
			Parts: []GeminiPart{{Text: prompt}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errorResp GeminiResponse
		if err := json.Unmarshal(respBody, &errorResp); err == nil && errorResp.Error != nil {
			return "", &StatusError{StatusCode: resp.StatusCode, Message: errorResp.Error.Message}
		}
		return "", &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	var genResp GeminiResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return genResp.Text()
}

// Text extracts candidates[0].content.parts[0].text
func (r *GeminiResponse) Text() (string, error) {
	if len(r.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrMalformedResponse)
	}
	content := r.Candidates[0].Content
	if content == nil {
		return "", fmt.Errorf("%w: candidate has no content", ErrMalformedResponse)
	}
	if len(content.Parts) == 0 {
		return "", fmt.Errorf("%w: content has no parts", ErrMalformedResponse)
	}
	if content.Parts[0].Text == nil {
		return "", fmt.Errorf("%w: part has no text", ErrMalformedResponse)
	}
	return *content.Parts[0].Text, nil
}
