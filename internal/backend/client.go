// Package backend is the typed HTTP client for the UniBio tools service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"unibio.dev/workbench/internal/metrics"
)

const (
	DefaultTimeout     = 30 * time.Second
	DefaultChatTimeout = 120 * time.Second

	maxResponseBytes = 16 << 20
)

// Backend paths.
const (
	pathHealth        = "/health"
	pathDesignPrimers = "/design-primers"
	pathAnalyzePrimer = "/analyze-primer"
	pathCompatibility = "/check-compatibility"
	pathSpecificity   = "/check-specificity"
	pathRestriction   = "/find-restriction-sites"
	pathGibson        = "/design-gibson"
	pathNCBISearch    = "/ncbi/search"
	pathNCBIFetch     = "/ncbi/fetch"
	pathPaperSearch   = "/papers/search"
	pathPaperFetch    = "/papers/fetch"
	pathChat          = "/chat"
	pathModels        = "/models"
)

type Client struct {
	baseURL     string
	httpClient  *http.Client
	timeout     time.Duration
	chatTimeout time.Duration
	metrics     *metrics.Backend
	cache       *lookupCache
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeouts(request, chat time.Duration) Option {
	return func(c *Client) {
		if request > 0 {
			c.timeout = request
		}
		if chat > 0 {
			c.chatTimeout = chat
		}
	}
}

func WithMetrics(m *metrics.Backend) Option {
	return func(c *Client) { c.metrics = m }
}

// WithCache keeps successful NCBI fetches, paper fetches and the model list for ttl.
func WithCache(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.cache = newLookupCache(ttl)
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{},
		timeout:     DefaultTimeout,
		chatTimeout: DefaultChatTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, "health", http.MethodGet, pathHealth, c.timeout, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DesignPrimers(ctx context.Context, req PrimerDesignRequest) (*PrimerDesignResponse, error) {
	var out PrimerDesignResponse
	if err := c.do(ctx, "design primers", http.MethodPost, pathDesignPrimers, c.timeout, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AnalyzePrimer(ctx context.Context, req PrimerAnalysisRequest) (*PrimerAnalysisResponse, error) {
	var out PrimerAnalysisResponse
	if err := c.do(ctx, "analyze primer", http.MethodPost, pathAnalyzePrimer, c.timeout, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CheckCompatibility(ctx context.Context, req CompatibilityRequest) (*CompatibilityResponse, error) {
	var out CompatibilityResponse
	if err := c.do(ctx, "check compatibility", http.MethodPost, pathCompatibility, c.timeout, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CheckSpecificity(ctx context.Context, req SpecificityRequest) (*SpecificityResponse, error) {
	var out SpecificityResponse
	if err := c.do(ctx, "check specificity", http.MethodPost, pathSpecificity, c.timeout, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FindRestrictionSites(ctx context.Context, req RestrictionRequest) (*RestrictionResponse, error) {
	var out RestrictionResponse
	if err := c.do(ctx, "restriction sites", http.MethodPost, pathRestriction, c.timeout, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DesignGibson(ctx context.Context, req GibsonRequest) (*GibsonResponse, error) {
	var out GibsonResponse
	if err := c.do(ctx, "gibson design", http.MethodPost, pathGibson, c.timeout, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SearchNCBI(ctx context.Context, req NCBISearchRequest) (*NCBISearchResponse, error) {
	var out NCBISearchResponse
	if err := c.do(ctx, "ncbi search", http.MethodPost, pathNCBISearch, c.timeout, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchNCBI(ctx context.Context, req NCBIFetchRequest) (*NCBISequence, error) {
	const op = "ncbi fetch"
	return cached(c, ctx, op, req.AccessionID, func(ctx context.Context) (*NCBISequence, bool, error) {
		var out NCBISequence
		if err := c.do(ctx, op, http.MethodPost, pathNCBIFetch, c.timeout, req, &out); err != nil {
			return nil, false, err
		}
		return &out, out.Success, nil
	})
}

func (c *Client) SearchPapers(ctx context.Context, req PaperSearchRequest) (*PaperSearchResponse, error) {
	var out PaperSearchResponse
	if err := c.do(ctx, "paper search", http.MethodPost, pathPaperSearch, c.timeout, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchPaper(ctx context.Context, req PaperFetchRequest) (*PaperDetails, error) {
	const op = "paper fetch"
	return cached(c, ctx, op, req.PMID, func(ctx context.Context) (*PaperDetails, bool, error) {
		var out PaperDetails
		if err := c.do(ctx, op, http.MethodPost, pathPaperFetch, c.timeout, req, &out); err != nil {
			return nil, false, err
		}
		return &out, out.Success, nil
	})
}

func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.History == nil {
		req.History = []ChatHistoryEntry{}
	}
	var out ChatResponse
	if err := c.do(ctx, "chat", http.MethodPost, pathChat, c.chatTimeout, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListModels(ctx context.Context) (*ModelsResponse, error) {
	const op = "models list"
	return cached(c, ctx, op, "", func(ctx context.Context) (*ModelsResponse, bool, error) {
		var out ModelsResponse
		if err := c.do(ctx, op, http.MethodGet, pathModels, c.timeout, nil, &out); err != nil {
			return nil, false, err
		}
		return &out, len(out.AvailableModels) > 0, nil
	})
}

func (c *Client) do(ctx context.Context, op, method, path string, timeout time.Duration, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		be := transportError(op, c.baseURL, err)
		c.metrics.Observe(op, string(be.Kind), time.Since(start))
		return be
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		be := transportError(op, c.baseURL, err)
		c.metrics.Observe(op, string(be.Kind), time.Since(start))
		return be
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.Observe(op, string(KindServer), time.Since(start))
		return &Error{
			Op:      op,
			Kind:    KindServer,
			Status:  resp.StatusCode,
			Detail:  serverDetail(data),
			BaseURL: c.baseURL,
		}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			c.metrics.Observe(op, string(KindDecode), time.Since(start))
			return &Error{Op: op, Kind: KindDecode, Status: resp.StatusCode, BaseURL: c.baseURL, Err: err}
		}
	}

	c.metrics.Observe(op, "ok", time.Since(start))
	return nil
}
