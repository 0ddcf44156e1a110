// Package shopify is a minimal Admin REST API client covering what the
// pacer needs: listing products with date/status filters and cursor
// pagination.
package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/vaama/inventorypacer/internal/core/domain"
	"github.com/vaama/inventorypacer/internal/tracking/metrics"
)

const (
	// APIVersion is the pinned Admin API version.
	APIVersion = "2024-10"

	// pageLimit is the maximum products per page the Admin API allows.
	pageLimit = 250

	defaultTimeout = 30 * time.Second
	maxRetries     = 3
)

var (
	// ErrUnauthorized is returned on 401: invalid or expired access token.
	ErrUnauthorized = errors.New("unauthorized shopify api access")
)

// Config holds connection settings for one store.
type Config struct {
	StoreID     domain.StoreID
	Domain      string // e.g. "vaama-jewels.myshopify.com"
	AccessToken string
	Timeout     time.Duration
	BaseURL     string // overrides the https://<domain> base, for tests
}

// Client talks to one store's Admin API.
type Client struct {
	storeID    domain.StoreID
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new Admin API client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://" + cfg.Domain
	}

	return &Client{
		storeID: cfg.StoreID,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   cfg.AccessToken,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Query selects which products to fetch.
type Query struct {
	Mode domain.FetchMode
	Date time.Time // target date for the by-date modes
}

// FetchProducts retrieves the catalog for the query, following
// Link-header pagination until the last page. For the active modes the
// result is additionally post-filtered to listed products.
func (c *Client) FetchProducts(ctx context.Context, q Query) ([]*domain.Product, error) {
	pageURL := c.firstPageURL(q)

	var all []*domain.Product
	for pageURL != "" {
		products, next, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		all = append(all, products...)
		pageURL = next
	}

	if q.Mode.IncludesInactive() {
		return all, nil
	}

	// Extra safety: the status filter is applied server-side, but drafts
	// can slip through around publication boundaries.
	listed := all[:0]
	for _, p := range all {
		if p.Listed() {
			listed = append(listed, p)
		}
	}
	return listed, nil
}

// firstPageURL builds the initial request URL. Subsequent pages come
// verbatim from the Link header and carry their own query params.
func (c *Client) firstPageURL(q Query) string {
	params := url.Values{}
	params.Set("limit", fmt.Sprint(pageLimit))

	switch q.Mode {
	case domain.FetchByDate, domain.FetchActiveByDate:
		day := q.Date
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		end := start.Add(24*time.Hour - time.Nanosecond)
		params.Set("created_at_min", start.Format(time.RFC3339))
		params.Set("created_at_max", end.Format(time.RFC3339))
	}

	switch q.Mode {
	case domain.FetchActiveOnly, domain.FetchActiveByDate:
		params.Set("status", "active")
	}

	return fmt.Sprintf("%s/admin/api/%s/products.json?%s", c.baseURL, APIVersion, params.Encode())
}

// fetchPage requests one page, retrying transient failures with
// exponential backoff. 401 is terminal, 429 and 5xx are retryable.
func (c *Client) fetchPage(ctx context.Context, pageURL string) ([]*domain.Product, string, error) {
	var products []*domain.Product
	var next string

	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		products, next, err = c.doPage(ctx, pageURL)
		return err
	})
	return products, next, err
}

func (c *Client) doPage(ctx context.Context, pageURL string) ([]*domain.Product, string, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordCall("error", start)
		return nil, "", retry.RetryableError(fmt.Errorf("products request: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.recordCall("unauthorized", start)
		return nil, "", ErrUnauthorized

	case resp.StatusCode == http.StatusTooManyRequests:
		c.recordCall("throttled", start)
		waitRetryAfter(ctx, resp.Header.Get("Retry-After"))
		return nil, "", retry.RetryableError(fmt.Errorf("rate limited (429)"))

	case resp.StatusCode >= 500:
		c.recordCall("error", start)
		return nil, "", retry.RetryableError(fmt.Errorf("http %d", resp.StatusCode))

	case resp.StatusCode != http.StatusOK:
		c.recordCall("error", start)
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Products []*domain.Product `json:"products"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.recordCall("error", start)
		return nil, "", fmt.Errorf("parse response: %w", err)
	}

	c.recordCall("ok", start)
	return payload.Products, parseNextLink(resp.Header.Get("Link")), nil
}

// waitRetryAfter honors Shopify's throttle hint (seconds, typically "2.0")
// before the backoff retry fires. Waits are capped at 30s.
func waitRetryAfter(ctx context.Context, header string) {
	secs, err := strconv.ParseFloat(header, 64)
	if err != nil || secs <= 0 {
		return
	}
	wait := min(time.Duration(secs*float64(time.Second)), 30*time.Second)
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}

func (c *Client) recordCall(status string, start time.Time) {
	store := string(c.storeID)
	metrics.ShopifyCallsTotal.WithLabelValues(store, status).Inc()
	metrics.ShopifyCallLatency.WithLabelValues(store).Observe(time.Since(start).Seconds())
}

// parseNextLink extracts the rel="next" URL from a Link header, e.g.
//
//	<https://x.myshopify.com/admin/api/2024-10/products.json?page_info=abc>; rel="next"
//
// The header may carry several comma-separated segments (previous/next).
func parseNextLink(header string) string {
	if header == "" {
		return ""
	}
	for _, segment := range strings.Split(header, ",") {
		parts := strings.Split(segment, ";")
		if len(parts) < 2 {
			continue
		}
		if !strings.Contains(parts[1], `rel="next"`) {
			continue
		}
		return strings.Trim(strings.TrimSpace(parts[0]), "<>")
	}
	return ""
}
