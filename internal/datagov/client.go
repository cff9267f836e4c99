// Package datagov provides a client for the Data.gov.in open data API.
// Responses are cached in memory with a TTL and paginated fetches are
// throttled so the upstream rate limits are respected.
package datagov

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"aadhaarpulse/internal/config"
	apperrors "aadhaarpulse/internal/errors"
)

// Record is a single raw record from a Data.gov.in resource. Field values
// arrive as strings or numbers depending on the dataset, so accessors coerce
// malformed values to zero defaults instead of failing.
type Record map[string]interface{}

// String returns the named field as a trimmed string, or "" when absent
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// Int returns the named field as an integer, coercing unparseable values to 0
func (r Record) Int(field string) int {
	v, ok := r[field]
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return int(parsed)
	default:
		return 0
	}
}

// Date parses the named field using the dataset's DD-MM-YYYY convention.
// Unparseable dates return the zero time.
func (r Record) Date(field string) time.Time {
	s := r.String(field)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"02-01-2006", "2006-01-02", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ResourceResponse is the envelope returned by a resource fetch
type ResourceResponse struct {
	Title       string   `json:"title"`
	Org         []string `json:"org"`
	UpdatedDate string   `json:"updated_date"`
	Total       int      `json:"total"`
	Count       int      `json:"count"`
	Records     []Record `json:"records"`
}

type cacheEntry struct {
	response *ResourceResponse
	fetched  time.Time
}

// Client fetches resources from the Data.gov.in API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cacheTTL   time.Duration
	logger     *slog.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewClient creates a new Data.gov.in client from configuration
func NewClient(cfg config.DataGovConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.FetchTimeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		cacheTTL:   cfg.CacheTTL,
		cache:      make(map[string]cacheEntry),
		logger:     logger,
	}
}

// FetchResource fetches one page of a resource. Results are cached by
// resource ID and query parameters for the configured TTL.
func (c *Client) FetchResource(ctx context.Context, resourceID string, limit, offset int, filters map[string]string) (*ResourceResponse, error) {
	params := url.Values{}
	params.Set("api-key", c.apiKey)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	for key, value := range filters {
		params.Set(fmt.Sprintf("filters[%s]", key), value)
	}

	cacheKey := c.cacheKey(resourceID, params)
	if cached, ok := c.fromCache(cacheKey); ok {
		c.logger.DebugContext(ctx, "returning cached resource data",
			slog.String("resource_id", resourceID))
		return cached, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, resourceID, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to fetch resource", err).
			WithContext("resource_id", resourceID)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("unexpected status %d from Data.gov.in", resp.StatusCode), nil).
			WithContext("resource_id", resourceID)
	}

	var data ResourceResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, apperrors.NewParsingError("failed to decode resource response", err).
			WithContext("resource_id", resourceID)
	}

	c.store(cacheKey, &data)

	c.logger.InfoContext(ctx, "fetched records from Data.gov.in",
		slog.String("resource_id", resourceID),
		slog.Int("records", len(data.Records)),
		slog.Int("total_available", data.Total))

	return &data, nil
}

// FetchAllRecords fetches up to maxRecords records of a resource, paging
// through the API. A failed page stops pagination and returns whatever was
// collected so far along with the error from the failing page when nothing
// was collected at all.
func (c *Client) FetchAllRecords(ctx context.Context, resourceID string, filters map[string]string, pageSize, maxRecords int) ([]Record, error) {
	var all []Record
	offset := 0

	for len(all) < maxRecords {
		data, err := c.FetchResource(ctx, resourceID, pageSize, offset, filters)
		if err != nil {
			if len(all) == 0 {
				return nil, err
			}
			c.logger.WarnContext(ctx, "pagination stopped early",
				slog.String("resource_id", resourceID),
				slog.Int("offset", offset),
				slog.String("error", err.Error()))
			break
		}

		if len(data.Records) == 0 {
			break
		}

		all = append(all, data.Records...)
		offset += pageSize
	}

	if len(all) > maxRecords {
		all = all[:maxRecords]
	}
	return all, nil
}

func (c *Client) cacheKey(resourceID string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(resourceID)
	for _, k := range keys {
		b.WriteString("&")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(params.Get(k))
	}
	return b.String()
}

func (c *Client) fromCache(key string) (*ResourceResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[key]
	if !ok || time.Since(entry.fetched) >= c.cacheTTL {
		return nil, false
	}
	return entry.response, true
}

func (c *Client) store(key string, resp *ResourceResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cacheEntry{response: resp, fetched: time.Now()}
}
