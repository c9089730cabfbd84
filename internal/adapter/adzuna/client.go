// Package adzuna provides an HTTP client for the Adzuna job-search API.
package adzuna

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Ankitanand2411/Agent-x402/internal/domain"
	"github.com/Ankitanand2411/Agent-x402/internal/port/cache"
	"github.com/Ankitanand2411/Agent-x402/internal/resilience"
)

// requestTimeout bounds every upstream call; on expiry the in-flight
// request is cancelled, not abandoned.
const requestTimeout = 10 * time.Second

// SearchParams are the caller-supplied filters for job queries. Country is
// required by every endpoint; the rest are optional.
type SearchParams struct {
	Country        string
	Keywords       string
	Location       string
	Category       string
	Months         int
	Page           int
	ResultsPerPage int
}

// Client talks to the Adzuna API.
type Client struct {
	baseURL    string
	appID      string
	appKey     string
	httpClient *http.Client
	breaker    *resilience.Breaker
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewClient creates a new Adzuna client.
func NewClient(baseURL, appID, appKey string) *Client {
	return &Client{
		baseURL: baseURL,
		appID:   appID,
		appKey:  appKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// SetCache attaches a short-lived response cache. Only successful payloads
// are cached; failures always hit upstream again.
func (c *Client) SetCache(cc cache.Cache, ttl time.Duration) {
	c.cache = cc
	c.cacheTTL = ttl
}

// SearchJobs queries job listings for a country, paginated.
func (c *Client) SearchJobs(ctx context.Context, p SearchParams) (json.RawMessage, error) {
	page := p.Page
	if page < 1 {
		page = 1
	}
	perPage := p.ResultsPerPage
	if perPage < 1 {
		perPage = 10
	}

	q := c.baseQuery()
	q.Set("results_per_page", strconv.Itoa(perPage))
	addFilters(q, p)

	return c.get(ctx, fmt.Sprintf("/jobs/%s/search/%d", url.PathEscape(p.Country), page), q)
}

// Categories returns the valid job category tags for a country.
func (c *Client) Categories(ctx context.Context, country string) (json.RawMessage, error) {
	return c.get(ctx, "/jobs/"+url.PathEscape(country)+"/categories", c.baseQuery())
}

// SalaryHistogram returns the salary distribution for matching jobs.
func (c *Client) SalaryHistogram(ctx context.Context, p SearchParams) (json.RawMessage, error) {
	q := c.baseQuery()
	addFilters(q, p)
	return c.get(ctx, "/jobs/"+url.PathEscape(p.Country)+"/histogram", q)
}

// TopCompanies returns the top hiring companies for a country.
func (c *Client) TopCompanies(ctx context.Context, p SearchParams) (json.RawMessage, error) {
	q := c.baseQuery()
	addFilters(q, p)
	return c.get(ctx, "/jobs/"+url.PathEscape(p.Country)+"/top_companies", q)
}

// Geodata returns job counts and salaries by region.
func (c *Client) Geodata(ctx context.Context, p SearchParams) (json.RawMessage, error) {
	q := c.baseQuery()
	addFilters(q, p)
	return c.get(ctx, "/jobs/"+url.PathEscape(p.Country)+"/geodata", q)
}

// SalaryHistory returns historical salary averages.
func (c *Client) SalaryHistory(ctx context.Context, p SearchParams) (json.RawMessage, error) {
	q := c.baseQuery()
	addFilters(q, p)
	if p.Months > 0 {
		q.Set("months", strconv.Itoa(p.Months))
	}
	return c.get(ctx, "/jobs/"+url.PathEscape(p.Country)+"/history", q)
}

func (c *Client) baseQuery() url.Values {
	q := url.Values{}
	q.Set("app_id", c.appID)
	q.Set("app_key", c.appKey)
	return q
}

func addFilters(q url.Values, p SearchParams) {
	if p.Keywords != "" {
		q.Set("what", p.Keywords)
	}
	if p.Location != "" {
		q.Set("where", p.Location)
	}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
}

// get performs a bounded, cancellable GET and normalizes failures into
// domain.UpstreamError values the executor can classify.
func (c *Client) get(ctx context.Context, path string, q url.Values) (json.RawMessage, error) {
	fullURL := c.baseURL + path + "?" + q.Encode()

	if c.cache != nil {
		if data, hit, _ := c.cache.Get(ctx, fullURL); hit {
			return data, nil
		}
	}

	var result json.RawMessage
	call := func() error {
		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, fullURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
				return &domain.UpstreamError{Kind: domain.UpstreamTimeout}
			}
			return &domain.UpstreamError{Kind: domain.UpstreamUnreachable}
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return &domain.UpstreamError{
				Kind:       domain.UpstreamStatus,
				StatusCode: resp.StatusCode,
				Body:       data,
			}
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
	} else if err := call(); err != nil {
		return nil, err
	}

	if c.cache != nil && c.cacheTTL > 0 {
		_ = c.cache.Set(ctx, fullURL, result, c.cacheTTL)
	}
	return result, nil
}

// isTimeout reports whether err is a network timeout.
func isTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
