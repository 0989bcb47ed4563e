// Package partner proxies requests to the upstream BeSpoked partner API,
// caching read responses so bursts of list traffic do not hammer the
// upstream service.
package partner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/HAESOL87/beSpoked-bikes/internal/cache"
	"github.com/HAESOL87/beSpoked-bikes/internal/store"
)

// Resource names as the upstream spells them in its URL paths.
const (
	ResourceProducts     = "Products"
	ResourceSalesPersons = "SalesPersons"
	ResourceCustomers    = "Customers"
	ResourceSales        = "Sales"
	ResourceDiscounts    = "Discounts"
)

// Error marks a failure reported by (or while reaching) the upstream API.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("external api error: %s", e.Message)
}

type Client struct {
	baseURL  string
	httpc    *http.Client
	cache    cache.PartnerCache
	cacheTTL time.Duration
}

func NewClient(baseURL string, timeout time.Duration, partnerCache cache.PartnerCache, cacheTTL time.Duration) *Client {
	if partnerCache == nil {
		partnerCache = cache.NoopPartnerCache{}
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		httpc:    &http.Client{Timeout: timeout},
		cache:    partnerCache,
		cacheTTL: cacheTTL,
	}
}

// List fetches the upstream collection, serving from cache when a fresh
// copy is available.
func (c *Client) List(ctx context.Context, resource string) (json.RawMessage, error) {
	key := cacheKey(resource)
	if cached, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		return cached, nil
	}

	payload, err := c.do(ctx, http.MethodGet, c.baseURL+"/"+resource, nil)
	if err != nil {
		return nil, err
	}

	_ = c.cache.Set(ctx, key, payload, c.cacheTTL)
	return payload, nil
}

// GetByID fetches a single upstream record. A 404 from the upstream comes
// back as store.ErrNotFound.
func (c *Client) GetByID(ctx context.Context, resource string, id int) (json.RawMessage, error) {
	key := cacheKey(resource, id)
	if cached, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		return cached, nil
	}

	payload, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%s/%d", c.baseURL, resource, id), nil)
	if err != nil {
		return nil, err
	}

	_ = c.cache.Set(ctx, key, payload, c.cacheTTL)
	return payload, nil
}

// Create posts a new record upstream and drops the stale collection cache.
func (c *Client) Create(ctx context.Context, resource string, body json.RawMessage) (json.RawMessage, error) {
	payload, err := c.do(ctx, http.MethodPost, c.baseURL+"/"+resource, body)
	if err != nil {
		return nil, err
	}

	_ = c.cache.Delete(ctx, cacheKey(resource))
	return payload, nil
}

// Update modifies a record upstream and drops both the collection and the
// record from the cache.
func (c *Client) Update(ctx context.Context, resource string, id int, body json.RawMessage) (json.RawMessage, error) {
	payload, err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/%s/%d", c.baseURL, resource, id), body)
	if err != nil {
		return nil, err
	}

	_ = c.cache.Delete(ctx, cacheKey(resource), cacheKey(resource, id))
	return payload, nil
}

func (c *Client) do(ctx context.Context, method string, url string, body json.RawMessage) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, store.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Message: upstreamMessage(resp.StatusCode, payload)}
	}

	return payload, nil
}

// upstreamMessage pulls an error message out of the upstream body when it
// has one, falling back to the HTTP status text.
func upstreamMessage(status int, payload []byte) string {
	var body struct {
		Message string `json:"message"`
		ErrMsg  string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.ErrMsg != "" {
			return body.ErrMsg
		}
	}
	return fmt.Sprintf("upstream returned status %d %s", status, http.StatusText(status))
}

func cacheKey(resource string, id ...int) string {
	key := "partner:" + strings.ToLower(resource)
	if len(id) > 0 {
		key = fmt.Sprintf("%s:%d", key, id[0])
	}
	return key
}

// IsUpstream reports whether err came from the partner API.
func IsUpstream(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}
