package textmodel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/afschowdhury/excavator-video-analyzer/logger"
	"github.com/afschowdhury/excavator-video-analyzer/metrics"
	"github.com/afschowdhury/excavator-video-analyzer/visionmodel"
)

// HTTPClient speaks the same OpenAI-compatible chat completion protocol as
// visionmodel.HTTPClient but sends text-only messages and expects free-form
// prose back; it reuses visionmodel's pooled transport and capability
// registry rather than duplicating them, since both clients target the same
// family of chat endpoints.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHTTPClient creates an HTTPClient with a pooled transport.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout, Transport: visionmodel.NewPooledTransport()},
	}
}

// Close releases pooled idle connections.
func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Generate sends the structured cycle data as a user message and returns
// the model's prose response.
func (c *HTTPClient) Generate(ctx context.Context, req Request) (Response, error) {
	payload := map[string]any{
		"model": req.Model,
		"messages": []map[string]string{
			{"role": "system", "content": req.SystemPrompt},
			{"role": "user", "content": string(req.StructuredCycleData)},
		},
	}
	visionmodel.BuildTokenLimitField(payload, req.Model, req.TokenLimit)
	visionmodel.BuildSamplingFields(payload, req.Model, req.Temperature, 1.0)

	logger.ModelCall("text", "narrative", "model", req.Model)
	start := time.Now()

	body, err := c.post(ctx, "/chat/completions", payload)
	if err != nil {
		status := "failure"
		if visionmodel.IsTransient(err) {
			status = "retry"
		}
		metrics.RecordProviderRequest("text", req.Model, status, time.Since(start).Seconds())
		return Response{}, err
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		metrics.RecordProviderRequest("text", req.Model, "failure", time.Since(start).Seconds())
		return Response{}, fmt.Errorf("decode chat response: %w", err)
	}
	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		metrics.RecordProviderRequest("text", req.Model, "failure", time.Since(start).Seconds())
		return Response{}, fmt.Errorf("text model returned an empty response")
	}

	logger.ModelResponse("text", "narrative", time.Since(start))
	metrics.RecordProviderRequest("text", req.Model, "success", time.Since(start).Seconds())
	return Response{Text: decoded.Choices[0].Message.Content}, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	reqBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &visionmodel.TransientError{Cause: err}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &visionmodel.TransientError{Cause: fmt.Errorf("status %d: %s", resp.StatusCode, string(respBytes))}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("text model request failed (status %d): %s", resp.StatusCode, string(respBytes))
	}
	return respBytes, nil
}
