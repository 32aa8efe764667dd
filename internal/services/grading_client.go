package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/codyseavey/card-grader/internal/metrics"
)

const (
	gradingGradePath      = "/card-grader/v2/grade"
	gradingDefaultTimeout = 30 * time.Second
	gradingDefaultCache   = 128
	maxGradingBodyBytes   = 4 << 20
)

// ErrGradingDisabled is returned when no API token is configured.
var ErrGradingDisabled = errors.New("grading API token not configured")

// Grader obtains a raw grading response for an image reference.
type Grader interface {
	Grade(ctx context.Context, imageRef string) ([]byte, error)
}

// GradingClient calls the Ximilar card grading API.
type GradingClient struct {
	client  *http.Client
	apiKey  string
	baseURL string
	limiter *rate.Limiter
	cache   *lru.Cache[string, []byte] // imageRef -> raw response body
}

// GradingClientOptions configures a GradingClient. Zero values pick defaults.
type GradingClientOptions struct {
	BaseURL   string
	APIToken  string
	RateLimit float64 // requests per second
	RateBurst int
	CacheSize int
	Timeout   time.Duration
}

type gradingRequest struct {
	Records []gradingRequestRecord `json:"records"`
}

type gradingRequestRecord struct {
	URL    string `json:"_url,omitempty"`
	Base64 string `json:"_base64,omitempty"`
}

// NewGradingClient creates a new grading API client
func NewGradingClient(opts GradingClientOptions) *GradingClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = gradingDefaultTimeout
	}
	cacheSize := opts.CacheSize
	if cacheSize <= 0 {
		cacheSize = gradingDefaultCache
	}
	limit := rate.Limit(opts.RateLimit)
	if opts.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := opts.RateBurst
	if burst <= 0 {
		burst = 1
	}

	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		log.Printf("Grading client: failed to create response cache: %v", err)
	}

	c := &GradingClient{
		client:  &http.Client{Timeout: timeout},
		apiKey:  opts.APIToken,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		limiter: rate.NewLimiter(limit, burst),
		cache:   cache,
	}

	if c.IsEnabled() {
		log.Printf("Grading client: enabled (base=%s, cache=%d)", c.baseURL, cacheSize)
	} else {
		log.Printf("Grading client: disabled (no GRADING_API_TOKEN)")
	}
	return c
}

// IsEnabled returns whether an API token is configured
func (c *GradingClient) IsEnabled() bool {
	return c.apiKey != ""
}

// Grade sends the image reference to the grading API and returns the raw body.
// HTTP(S) references are sent as URLs; anything else is forwarded as base64 data.
func (c *GradingClient) Grade(ctx context.Context, imageRef string) ([]byte, error) {
	if !c.IsEnabled() {
		return nil, ErrGradingDisabled
	}

	if c.cache != nil {
		if body, ok := c.cache.Get(imageRef); ok {
			metrics.GradingCacheHits.Inc()
			return body, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.GradingRequestsTotal.WithLabelValues("rate_limited").Inc()
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	record := gradingRequestRecord{}
	if isRemoteURL(imageRef) {
		record.URL = imageRef
	} else {
		record.Base64 = imageRef
	}

	reqJSON, err := json.Marshal(gradingRequest{Records: []gradingRequestRecord{record}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+gradingGradePath, bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Token "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	metrics.GradingAPILatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GradingRequestsTotal.WithLabelValues("network").Inc()
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGradingBodyBytes))
	if err != nil {
		metrics.GradingRequestsTotal.WithLabelValues("read").Inc()
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.GradingRequestsTotal.WithLabelValues("api").Inc()
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	metrics.GradingRequestsTotal.WithLabelValues("success").Inc()
	if c.cache != nil {
		c.cache.Add(imageRef, body)
	}
	return body, nil
}

func isRemoteURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
