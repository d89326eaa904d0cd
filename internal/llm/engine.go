// Package llm provides the translation engine that drives an
// OpenAI-compatible chat-completions endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"doc-translator/internal/config"
	"doc-translator/internal/logger"
	"doc-translator/internal/types"
)

const (
	// DefaultTimeout is the HTTP client timeout for completion calls.
	// A full document translation can take tens of seconds.
	DefaultTimeout = 180 * time.Second
	// MaxRetries is the maximum number of attempts for retryable API errors.
	MaxRetries = 3
	// BaseRetryDelay is the base delay between retries.
	BaseRetryDelay = 2 * time.Second
	// DefaultMaxTokens bounds the completion size for a document translation.
	DefaultMaxTokens = 16384
)

// Engine calls an OpenAI-compatible chat-completions API. One Engine is safe
// for sequential use by one job; it holds no per-request state besides the
// shared HTTP client.
type Engine struct {
	apiKey     string
	model      string
	apiURL     string
	client     *http.Client
	retries    int
	retryDelay time.Duration
}

// NewEngine creates an Engine from resolved LLM settings.
func NewEngine(settings *config.LLMSettings) *Engine {
	return &Engine{
		apiKey:     settings.APIKey,
		model:      settings.Model,
		apiURL:     normalizeAPIURL(settings.BaseURL),
		client:     &http.Client{Timeout: DefaultTimeout},
		retries:    MaxRetries,
		retryDelay: BaseRetryDelay,
	}
}

// normalizeAPIURL completes a base URL to the chat-completions endpoint.
func normalizeAPIURL(url string) string {
	url = strings.TrimSuffix(url, "/")
	if strings.HasSuffix(url, "/chat/completions") {
		return url
	}
	return url + "/chat/completions"
}

// Model returns the model the engine sends requests for.
func (e *Engine) Model() string {
	return e.model
}

// SetAPIURL overrides the endpoint URL. Used by tests to point the engine at
// a mock server.
func (e *Engine) SetAPIURL(url string) {
	e.apiURL = normalizeAPIURL(url)
}

// chatRequest is the request body for the chat-completions API.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the response from the chat-completions API.
type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Translate sends the prompt and returns the completion text and the total
// tokens used. Transient API failures are retried with linear backoff; all
// other failures propagate to the caller unchanged.
func (e *Engine) Translate(ctx context.Context, prompt string) (string, int, error) {
	if e.apiKey == "" {
		return "", 0, types.NewAppError(types.ErrConfig, "LLM API key is not configured", nil)
	}

	var lastErr error
	for attempt := 1; attempt <= e.retries; attempt++ {
		logger.Debug("translation attempt", logger.Int("attempt", attempt), logger.String("model", e.model))

		text, tokens, err := e.complete(ctx, prompt)
		if err == nil {
			return text, tokens, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", 0, types.NewAppError(types.ErrNetwork, "translation canceled", ctx.Err())
		}
		if !isRetryable(err) {
			logger.Error("non-retryable LLM error", err)
			return "", 0, err
		}
		logger.Warn("translation attempt failed", logger.Int("attempt", attempt), logger.Err(err))

		if attempt < e.retries {
			select {
			case <-time.After(e.retryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return "", 0, types.NewAppError(types.ErrNetwork, "translation canceled", ctx.Err())
			}
		}
	}

	logger.Error("translation failed after all retries", lastErr, logger.Int("maxRetries", e.retries))
	return "", 0, types.NewAppErrorWithDetails(types.ErrAPICall,
		"translation failed after multiple retries",
		fmt.Sprintf("attempted %d times", e.retries), lastErr)
}

// complete performs a single chat-completions call.
func (e *Engine) complete(ctx context.Context, prompt string) (string, int, error) {
	reqBody := chatRequest{
		Model:     e.model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: DefaultMaxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, types.NewAppError(types.ErrInternal, "failed to marshal completion request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.apiURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", 0, types.NewAppError(types.ErrInternal, "failed to create HTTP request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", 0, types.NewAppError(types.ErrNetwork, "LLM API request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, types.NewAppError(types.ErrNetwork, "failed to read LLM API response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, httpStatusError(resp.StatusCode, body)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", 0, types.NewAppError(types.ErrAPICall, "invalid LLM API response format", err)
	}
	if chatResp.Error != nil {
		return "", 0, types.NewAppErrorWithDetails(types.ErrAPICall, "LLM API error", chatResp.Error.Message, nil)
	}
	if len(chatResp.Choices) == 0 {
		return "", 0, types.NewAppError(types.ErrAPICall, "LLM returned no choices", nil)
	}

	return chatResp.Choices[0].Message.Content, chatResp.Usage.TotalTokens, nil
}

// TestConnection verifies the endpoint, key, and model with a minimal
// round trip.
func (e *Engine) TestConnection(ctx context.Context) error {
	logger.Info("testing LLM API connection", logger.String("apiURL", e.apiURL), logger.String("model", e.model))

	if e.apiKey == "" {
		return types.NewAppError(types.ErrConfig, "LLM API key is not configured", nil)
	}

	reply, _, err := e.complete(ctx, "Reply with only the word 'ok', nothing else.")
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(strings.TrimSpace(reply)), "ok") {
		return types.NewAppErrorWithDetails(types.ErrAPICall, "unexpected LLM response",
			fmt.Sprintf("expected 'ok', got: %s", reply), nil)
	}
	return nil
}

// httpStatusError maps an HTTP error status to an AppError.
func httpStatusError(status int, body []byte) error {
	msg := string(body)
	var errResp struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
		msg = errResp.Error.Message
	}

	switch {
	case status == http.StatusUnauthorized:
		return types.NewAppErrorWithDetails(types.ErrAPICall, "LLM API authentication failed", msg, nil)
	case status == http.StatusTooManyRequests:
		return types.NewAppErrorWithDetails(types.ErrRateLimit, "LLM API rate limit exceeded", msg, nil)
	case status >= 500:
		return types.NewAppErrorWithDetails(types.ErrAPICall,
			fmt.Sprintf("LLM API server error (status %d)", status), msg, nil)
	default:
		return types.NewAppErrorWithDetails(types.ErrAPICall,
			fmt.Sprintf("LLM API error (status %d)", status), msg, nil)
	}
}

// isRetryable reports whether an error is worth another attempt:
// rate limits, server errors, and transport failures.
func isRetryable(err error) bool {
	appErr, ok := err.(*types.AppError)
	if !ok {
		return false
	}
	switch appErr.Code {
	case types.ErrRateLimit, types.ErrNetwork:
		return true
	case types.ErrAPICall:
		return strings.Contains(appErr.Message, "server error")
	default:
		return false
	}
}
