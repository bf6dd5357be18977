// Package flash is a client for the FLASH startup prediction API.
package flash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://localhost:8000"

// Client scores feature vectors against the prediction backend.
type Client interface {
	Predict(ctx context.Context, features map[string]any) (*PredictResponse, error)
	Health(ctx context.Context) error
}

// PredictResponse is the response body of POST /predict.
type PredictResponse struct {
	SuccessProbability float64            `json:"success_probability"`
	CampScores         map[string]float64 `json:"camp_scores"`
	Verdict            string             `json:"verdict"`
	Confidence         string             `json:"confidence,omitempty"`
	RiskLevel          string             `json:"risk_level,omitempty"`
	Insights           []string           `json:"insights,omitempty"`
}

// StatusError is returned for any non-200 response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("flash: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Transient reports whether the request may succeed if retried.
func (e *StatusError) Transient() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return e.StatusCode >= 500
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithAPIKey sends the key as a bearer token.
func WithAPIKey(key string) Option {
	return func(c *httpClient) {
		c.apiKey = key
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit throttles requests to rps with the given burst. A
// non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a prediction API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *httpClient) Predict(ctx context.Context, features map[string]any) (*PredictResponse, error) {
	body, err := json.Marshal(features)
	if err != nil {
		return nil, eris.Wrap(err, "flash: marshal features")
	}

	respBody, err := c.do(ctx, http.MethodPost, "/predict", body)
	if err != nil {
		return nil, err
	}

	var result PredictResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "flash: unmarshal response")
	}
	return &result, nil
}

func (c *httpClient) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", nil)
	return err
}

func (c *httpClient) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "flash: rate limit")
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, eris.Wrap(err, "flash: create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "flash: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "flash: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
