package visionmodel

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/afschowdhury/excavator-video-analyzer/logger"
	"github.com/afschowdhury/excavator-video-analyzer/metrics"
)

// Connection-pooling defaults shared with the text-model client, matching
// the teacher's BaseProvider transport tuning.
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 20
	defaultIdleConnTimeout     = 90 * time.Second
	defaultTLSHandshakeTimeout = 10 * time.Second
	defaultDialTimeout         = 30 * time.Second
	defaultDialKeepAlive       = 30 * time.Second
)

// NewPooledTransport creates an *http.Transport tuned for sustained,
// moderate-concurrency calls to a single external model endpoint.
func NewPooledTransport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   defaultDialTimeout,
			KeepAlive: defaultDialKeepAlive,
		}).DialContext,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		MaxIdleConns:        defaultMaxIdleConns,
		MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
		IdleConnTimeout:     defaultIdleConnTimeout,
		TLSHandshakeTimeout: defaultTLSHandshakeTimeout,
		ForceAttemptHTTP2:   true,
	}
}

// HTTPClient is the production Client, speaking a structured-JSON chat
// completion protocol to an OpenAI-compatible vision endpoint.
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
		http:    &http.Client{Timeout: timeout, Transport: NewPooledTransport()},
	}
}

// Close releases pooled idle connections.
func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

type chatMessageContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

type chatMessage struct {
	Role    string                `json:"role"`
	Content []chatMessageContent `json:"content"`
}

type classificationBody struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Note       string  `json:"note,omitempty"`
}

// Classify sends one frame to the configured vision model and parses its
// structured {"label","confidence","note"} reply. Any transport or
// validation error is returned to the caller unmodified; the caller
// (classifier) is responsible for the soft-failure Classification contract.
func (c *HTTPClient) Classify(ctx context.Context, req Request) (Response, error) {
	userText := fmt.Sprintf("Previous activity label: %s", req.PreviousLabel)
	imageDataURL := fmt.Sprintf("data:%s;base64,%s", req.ImageEncoding, base64.StdEncoding.EncodeToString(req.ImageBytes))

	payload := map[string]any{
		"model": req.Model,
		"messages": []chatMessage{
			{Role: "system", Content: []chatMessageContent{{Type: "text", Text: req.SystemPrompt}}},
			{Role: "user", Content: []chatMessageContent{
				{Type: "text", Text: userText},
				{Type: "image_url", ImageURL: &struct {
					URL string `json:"url"`
				}{URL: imageDataURL}},
			}},
		},
		"response_format": map[string]string{"type": "json_object"},
	}
	BuildTokenLimitField(payload, req.Model, req.TokenLimit)
	BuildSamplingFields(payload, req.Model, req.Temperature, 1.0)

	logger.ModelCall("vision", "classify", "model", req.Model)
	start := time.Now()

	body, err := c.post(ctx, "/chat/completions", payload)
	if err != nil {
		status := "failure"
		if IsTransient(err) {
			status = "retry"
		}
		metrics.RecordProviderRequest("vision", req.Model, status, time.Since(start).Seconds())
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
		metrics.RecordProviderRequest("vision", req.Model, "failure", time.Since(start).Seconds())
		return Response{}, fmt.Errorf("decode chat response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		metrics.RecordProviderRequest("vision", req.Model, "failure", time.Since(start).Seconds())
		return Response{}, fmt.Errorf("vision model returned no choices")
	}

	var cls classificationBody
	if err := json.Unmarshal([]byte(decoded.Choices[0].Message.Content), &cls); err != nil {
		metrics.RecordProviderRequest("vision", req.Model, "failure", time.Since(start).Seconds())
		return Response{}, fmt.Errorf("decode classification body: %w", err)
	}
	if cls.Confidence < 0 || cls.Confidence > 1 {
		metrics.RecordProviderRequest("vision", req.Model, "failure", time.Since(start).Seconds())
		return Response{}, fmt.Errorf("vision model confidence %v outside [0,1]", cls.Confidence)
	}

	logger.ModelResponse("vision", "classify", time.Since(start))
	metrics.RecordProviderRequest("vision", req.Model, "success", time.Since(start).Seconds())
	return Response{Label: cls.Label, Confidence: cls.Confidence, Note: cls.Note}, nil
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
		return nil, &TransientError{Cause: err}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &TransientError{Cause: fmt.Errorf("status %d: %s", resp.StatusCode, string(respBytes))}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision model request failed (status %d): %s", resp.StatusCode, string(respBytes))
	}
	return respBytes, nil
}

// TransientError wraps a network error or retryable HTTP status (5xx, 429)
// so retry.Do's classifier can distinguish it from a terminal failure such
// as authentication or quota exhaustion.
type TransientError struct {
	Cause error
}

func (e *TransientError) Error() string { return e.Cause.Error() }
func (e *TransientError) Unwrap() error { return e.Cause }

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	_, ok := err.(*TransientError)
	return ok
}
