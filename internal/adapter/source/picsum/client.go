package picsum

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/reel/internal/domain"
)

const (
	defaultTimeout  = 15 * time.Second
	userAgent       = "Reel/1.0"
	maxListingBytes = 4 << 20
)

// Client implements domain.CatalogSource and domain.ImageProber for the Picsum listing API
type Client struct {
	baseURL    string
	locator    Locator
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new listing client. Image locators are derived from loc.
func NewClient(baseURL string, loc Locator, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if loc.BaseURL == "" {
		loc.BaseURL = baseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		locator: loc,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Locator returns the image locator used for mapped stories
func (c *Client) Locator() Locator {
	return c.locator
}

// doRequest performs a GET and returns the body of a 2xx response
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("listing request", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListingBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status code %d", domain.ErrUpstream, resp.StatusCode)
	}

	return body, nil
}

// ListStories fetches up to limit stories from /v2/list in upstream order
func (c *Client) ListStories(ctx context.Context, limit int) ([]domain.Story, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.doRequest(ctx, "/v2/list", query)
	if err != nil {
		return nil, err
	}

	var images []Image
	if err := json.Unmarshal(body, &images); err != nil {
		c.logger.Error("listing parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	stories := MapStories(images, c.locator)
	c.logger.Debug("listing fetched", "requested", limit, "received", len(images), "mapped", len(stories))
	return stories, nil
}

// Probe checks that an image URL resolves to an image, reading only headers
func (c *Client) Probe(ctx context.Context, imageURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrImageUnavailable, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrImageUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", domain.ErrImageUnavailable, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("%w: content type %q", domain.ErrImageUnavailable, ct)
	}
	return nil
}
