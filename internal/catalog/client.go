package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/llehouerou/streamwave/internal/playlist"
)

const (
	defaultBaseURL = "http://localhost:8080"
	userAgent      = "streamwave/0.1"
	defaultTimeout = 15 * time.Second
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables limiting
	Burst     int
}

// Client talks to a catalog proxy over HTTP/JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Verify Client implements Catalog at compile time.
var _ Catalog = (*Client)(nil)

// NewClient creates a catalog client.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

// Host returns the host:port of the catalog, used for connectivity probes.
func (c *Client) Host() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	if u.Port() != "" {
		return u.Host
	}
	if u.Scheme == "https" {
		return u.Host + ":443"
	}
	return u.Host + ":80"
}

// Player fetches the playable-stream descriptor of a track.
func (c *Client) Player(ctx context.Context, videoID string) (*PlayerResponse, error) {
	params := url.Values{}
	params.Set("videoId", videoID)

	var resp PlayerResponse
	if err := c.get(ctx, "/player", params, &resp); err != nil {
		return nil, fmt.Errorf("player %s: %w", videoID, err)
	}
	return &resp, nil
}

// Next fetches a watch sequence page.
func (c *Client) Next(ctx context.Context, endpoint Endpoint, continuation string) (*WatchPage, error) {
	params := url.Values{}
	if endpoint.VideoID != "" {
		params.Set("videoId", endpoint.VideoID)
	}
	if endpoint.PlaylistID != "" {
		params.Set("playlistId", endpoint.PlaylistID)
	}
	if endpoint.Params != "" {
		params.Set("params", endpoint.Params)
	}
	if endpoint.Index > 0 {
		params.Set("index", fmt.Sprint(endpoint.Index))
	}
	if continuation != "" {
		params.Set("continuation", continuation)
	}

	var page WatchPage
	if err := c.get(ctx, "/next", params, &page); err != nil {
		return nil, fmt.Errorf("next: %w", err)
	}
	return &page, nil
}

// Related fetches tracks related to a track.
func (c *Client) Related(ctx context.Context, videoID string) ([]playlist.Track, error) {
	params := url.Values{}
	params.Set("videoId", videoID)

	var result struct {
		Tracks []playlist.Track `json:"tracks"`
	}
	if err := c.get(ctx, "/related", params, &result); err != nil {
		return nil, fmt.Errorf("related %s: %w", videoID, err)
	}
	return result.Tracks, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return limitError(ctx, err)
	}

	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &StatusError{Code: resp.StatusCode, Err: ErrNotFound}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return &StatusError{Code: resp.StatusCode, Detail: errResp.Detail}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// limitError makes a limiter refusal caused by the context deadline match
// context.DeadlineExceeded, since the limiter gives up before the deadline
// actually passes.
func limitError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("rate limit: %w", ctxErr)
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("rate limit: %w: %w", context.DeadlineExceeded, err)
	}
	return fmt.Errorf("rate limit: %w", err)
}
