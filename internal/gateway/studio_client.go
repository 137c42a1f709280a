package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout covers text generation calls
	DefaultTimeout = 60 * time.Second
	// ImageTimeout covers image generation calls, which run much longer
	ImageTimeout = 120 * time.Second
)

// StudioClient talks to the studio generation engine over HTTP.
type StudioClient struct {
	baseURL       string
	defaultClient *http.Client
	imageClient   *http.Client
	limiter       *rate.Limiter
}

// NewStudioClient creates a client for the engine at baseURL, throttled to
// ratePerMinute outbound calls.
func NewStudioClient(baseURL string, ratePerMinute int) *StudioClient {
	if ratePerMinute <= 0 {
		ratePerMinute = 30
	}
	return &StudioClient{
		baseURL: baseURL,
		defaultClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		imageClient: &http.Client{
			Timeout: ImageTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(float64(ratePerMinute)/60.0), 1),
	}
}

type researchResponse struct {
	OK       bool      `json:"ok"`
	Research *Research `json:"research"`
}

// GenerateResearch asks the engine for contextual research notes.
func (c *StudioClient) GenerateResearch(ctx context.Context, req ResearchRequest) (*Research, error) {
	logger := NewLogger(ctx)
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	resp, err := c.post(ctx, c.defaultClient, "/v1/research", req)
	duration := time.Since(start)
	if err != nil {
		logger.LogError("generate_research", err)
		recordTextCall(duration, err)
		return nil, err
	}
	defer resp.Body.Close()

	var out researchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		logger.LogError("generate_research", err)
		recordTextCall(duration, err)
		return nil, fmt.Errorf("decode research: %w", err)
	}
	if resp.StatusCode >= 400 || !out.OK || out.Research == nil {
		err := fmt.Errorf("engine research failed (status %d)", resp.StatusCode)
		logger.LogWarnf("generate_research", "engine returned status %d", resp.StatusCode)
		recordTextCall(duration, err)
		return nil, err
	}

	recordTextCall(duration, nil)
	return out.Research, nil
}

type imageResponse struct {
	OK      bool   `json:"ok"`
	Payload string `json:"payload"`
}

// GenerateImage asks the engine for one image. Undecodable reference images
// are dropped from the request; an undecodable base image fails the call.
func (c *StudioClient) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	logger := NewLogger(ctx)

	if req.BaseImage != "" {
		if _, err := DecodePayload(req.BaseImage); err != nil {
			return "", fmt.Errorf("base image: %w", err)
		}
	}
	req.ReferenceImages = FilterDecodable(req.ReferenceImages)

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	resp, err := c.post(ctx, c.imageClient, "/v1/images", req)
	duration := time.Since(start)
	if err != nil {
		logger.LogError("generate_image", err)
		recordImageCall(duration, err)
		return "", err
	}
	defer resp.Body.Close()

	var out imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		logger.LogError("generate_image", err)
		recordImageCall(duration, err)
		return "", fmt.Errorf("decode image response: %w", err)
	}
	if resp.StatusCode >= 400 || !out.OK {
		err := fmt.Errorf("engine image failed (status %d)", resp.StatusCode)
		logger.LogWarnf("generate_image", "engine returned status %d", resp.StatusCode)
		recordImageCall(duration, err)
		return "", err
	}

	recordImageCall(duration, nil)
	return out.Payload, nil
}

func (c *StudioClient) post(ctx context.Context, client *http.Client, path string, body any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if rid := NewLogger(ctx).requestID; rid != "unknown" {
		httpReq.Header.Set("X-Request-Id", rid)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("engine request failed: %w", err)
	}
	return resp, nil
}
