package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cardtracker/cardtracker/caching"
	"github.com/cardtracker/cardtracker/config"
	"github.com/cardtracker/cardtracker/logger"
	"github.com/cardtracker/cardtracker/web/entity"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"
)

// ErrUpstream means the TCG API could not be reached at all.
var ErrUpstream = errors.New("tcg api unreachable")

const (
	tcgMaxAttempts = 3
	tcgBaseDelay   = 500 * time.Millisecond
	tcgMaxDelay    = 5 * time.Second
)

// UpstreamResponse is a TCG API response passed back to the client as is.
type UpstreamResponse struct {
	StatusCode int
	Body       []byte
	Cached     bool
}

func (r *UpstreamResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type TCGPrice struct {
	Low    *float64 `json:"low"`
	Mid    *float64 `json:"mid"`
	High   *float64 `json:"high"`
	Market *float64 `json:"market"`
}

type TCGCard struct {
	Id       string   `json:"id"`
	Name     string   `json:"name"`
	Number   string   `json:"number"`
	Rarity   string   `json:"rarity"`
	Subtypes []string `json:"subtypes"`
	Images   struct {
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"images"`
	TCGPlayer *struct {
		Prices map[string]TCGPrice `json:"prices"`
	} `json:"tcgplayer"`
}

// HolofoilPrices returns the tcgplayer holofoil prices, or nil.
func (c *TCGCard) HolofoilPrices() *TCGPrice {
	if c.TCGPlayer == nil {
		return nil
	}
	p, ok := c.TCGPlayer.Prices["holofoil"]
	if !ok {
		return nil
	}
	return &p
}

// TCGClient talks to the Pokémon TCG API. Single card responses are kept
// in memory and concurrent misses for one id share a request.
type TCGClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *caching.Cache
	group      singleflight.Group

	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func NewTCGClient(baseURL, apiKey string, timeout time.Duration, c *caching.Cache) *TCGClient {
	if c == nil {
		c = caching.NewCache(config.GetTCGCacheTTL())
	}
	return &TCGClient{
		baseURL:     baseURL,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: timeout},
		cache:       c,
		maxAttempts: tcgMaxAttempts,
		baseDelay:   tcgBaseDelay,
		maxDelay:    tcgMaxDelay,
	}
}

// NewTCGClientFromConfig builds a client from the tcg.* settings.
func NewTCGClientFromConfig() *TCGClient {
	return NewTCGClient(
		config.GetTCGBaseURL(),
		config.GetTCGAPIKey(),
		config.GetTCGTimeout(),
		caching.NewCache(config.GetTCGCacheTTL()),
	)
}

// SearchCards forwards the supported search parameters to /cards.
func (c *TCGClient) SearchCards(ctx context.Context, q entity.TCGSearchQuery) (*UpstreamResponse, error) {
	params := url.Values{}
	for k, v := range map[string]string{
		"q":        q.Q,
		"page":     q.Page,
		"pageSize": q.PageSize,
		"orderBy":  q.OrderBy,
		"select":   q.Select,
	} {
		if v != "" {
			params.Set(k, v)
		}
	}
	return c.do(ctx, "/cards", params)
}

// GetCard fetches /cards/:id. Successful bodies are cached under card:<id>.
func (c *TCGClient) GetCard(ctx context.Context, id string) (*UpstreamResponse, error) {
	key := "card:" + id
	if body, ok := c.cache.Get(key); ok {
		return &UpstreamResponse{StatusCode: http.StatusOK, Body: body, Cached: true}, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		resp, err := c.do(context.WithoutCancel(ctx), "/cards/"+url.PathEscape(id), nil)
		if err != nil {
			return nil, err
		}
		if resp.OK() {
			c.cache.Set(key, resp.Body)
		}
		return resp, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*UpstreamResponse), nil
	}
}

// LookupCard fetches and decodes a single card. Any non-2xx answer is an error.
func (c *TCGClient) LookupCard(ctx context.Context, id string) (*TCGCard, error) {
	resp, err := c.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("tcg card %s: status %d", id, resp.StatusCode)
	}
	var envelope struct {
		Data TCGCard `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("tcg card %s: %w", id, err)
	}
	return &envelope.Data, nil
}

func (c *TCGClient) do(ctx context.Context, path string, params url.Values) (*UpstreamResponse, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := c.wait(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		resp, err := c.fetch(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			logger.Debugf("tcg: attempt %d/%d for %s failed: %v", attempt+1, c.maxAttempts, path, err)
			continue
		}
		if retryable(resp.StatusCode) && attempt < c.maxAttempts-1 {
			logger.Debugf("tcg: attempt %d/%d for %s got status %d", attempt+1, c.maxAttempts, path, resp.StatusCode)
			continue
		}
		return resp, nil
	}
	return nil, errors.Join(ErrUpstream, lastErr)
}

func (c *TCGClient) fetch(ctx context.Context, target string) (*UpstreamResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &UpstreamResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

// wait sleeps baseDelay*2^n, capped at maxDelay.
func (c *TCGClient) backoff(n int) time.Duration {
	delay := c.baseDelay << n
	if delay <= 0 || delay > c.maxDelay {
		delay = c.maxDelay
	}
	return delay
}

// Budget is the longest a single call can take: every attempt running
// into the HTTP timeout plus the backoff between attempts.
func (c *TCGClient) Budget() time.Duration {
	total := time.Duration(c.maxAttempts) * c.httpClient.Timeout
	for n := 0; n < c.maxAttempts-1; n++ {
		total += c.backoff(n)
	}
	return total
}

func (c *TCGClient) wait(ctx context.Context, n int) error {
	t := time.NewTimer(c.backoff(n))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// Close drops idle upstream connections.
func (c *TCGClient) Close() {
	c.httpClient.CloseIdleConnections()
}
