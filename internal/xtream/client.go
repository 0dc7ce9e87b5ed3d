// Package xtream is a client for the Xtream Codes player API.
package xtream

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

	"golang.org/x/time/rate"
)

// ErrAuth is returned when the provider rejects the credentials.
var ErrAuth = errors.New("xtream: authentication failed")

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	Status int
	Action string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("xtream: %s returned HTTP %d", e.Action, e.Status)
}

func (e *HTTPError) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return ErrAuth
	}
	return nil
}

// StreamKind selects the URL namespace of a stream.
type StreamKind string

const (
	KindMovie  StreamKind = "movie"
	KindSeries StreamKind = "series"
)

// Client talks to one provider with one set of credentials.
type Client struct {
	baseURL   string
	username  string
	password  string
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

// WithRateLimit caps the number of requests per second. Zero or less
// disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a client for the provider at baseURL.
func NewClient(baseURL, username, password string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		username: username,
		password: password,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StreamURL builds the playback URL written into .strm files.
func (c *Client) StreamURL(kind StreamKind, id, ext string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s.%s", c.baseURL, kind, c.username, c.password, id, ext)
}

func (c *Client) VODCategories(ctx context.Context) ([]Category, error) {
	var cats []Category
	return cats, c.get(ctx, "get_vod_categories", nil, &cats)
}

func (c *Client) SeriesCategories(ctx context.Context) ([]Category, error) {
	var cats []Category
	return cats, c.get(ctx, "get_series_categories", nil, &cats)
}

func (c *Client) VODStreams(ctx context.Context) ([]VODStream, error) {
	var streams []VODStream
	return streams, c.get(ctx, "get_vod_streams", nil, &streams)
}

func (c *Client) Series(ctx context.Context) ([]Series, error) {
	var series []Series
	return series, c.get(ctx, "get_series", nil, &series)
}

// VODInfo fetches the detailed metadata of one movie.
func (c *Client) VODInfo(ctx context.Context, streamID int64) (*VODInfo, error) {
	var info VODInfo
	params := url.Values{"vod_id": {strconv.FormatInt(streamID, 10)}}
	if err := c.get(ctx, "get_vod_info", params, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SeriesInfo fetches the seasons and episodes of one series.
func (c *Client) SeriesInfo(ctx context.Context, seriesID int64) (*SeriesInfo, error) {
	var info SeriesInfo
	params := url.Values{"series_id": {strconv.FormatInt(seriesID, 10)}}
	if err := c.get(ctx, "get_series_info", params, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) get(ctx context.Context, action string, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	q := url.Values{}
	q.Set("username", c.username)
	q.Set("password", c.password)
	q.Set("action", action)
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/player_api.php?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("xtream: %s: %w", action, redact(err, c.password))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &HTTPError{Status: resp.StatusCode, Action: action}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("xtream: reading %s: %w", action, err)
	}
	// Some panels answer an empty body or "null" when a list is empty.
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("xtream: decoding %s: %w", action, err)
	}
	return nil
}

// redact keeps the password out of errors that embed the request URL.
func redact(err error, password string) error {
	var uerr *url.Error
	if password == "" || !errors.As(err, &uerr) {
		return err
	}
	return &url.Error{
		Op:  uerr.Op,
		URL: strings.ReplaceAll(uerr.URL, url.QueryEscape(password), "***"),
		Err: uerr.Err,
	}
}
