// Package backend talks to the upstream REST API that owns persistence,
// server-side validation and file storage.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"buildtrack/internal/logger"
	"buildtrack/internal/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout      = 15 * time.Second
	defaultDialTimeout  = 3 * time.Second
	defaultIdleTimeout  = 90 * time.Second
	maxErrorBody        = 1 << 20
	defaultRateBurstMin = 5
)

type Options struct {
	Timeout time.Duration
	// RequestsPerSecond throttles outbound calls. Zero disables throttling.
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            *zerolog.Logger
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

func NewClient(baseURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: 30 * time.Second}).DialContext,
				MaxIdleConns:        64,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     defaultIdleTimeout,
				TLSHandshakeTimeout: defaultDialTimeout,
			},
		}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < defaultRateBurstMin {
			burst = defaultRateBurstMin
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	log := logger.WithComponent("backend")
	if opts.Logger != nil {
		log = *opts.Logger
	}

	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/",
		httpClient: hc,
		limiter:    limiter,
		log:        log,
	}
}

// URL resolves a resource path such as "projects/12/siteplan/" against the
// base URL.
func (c *Client) URL(path string, query url.Values) string {
	u := c.baseURL + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", nil, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, "", nil, nil)
}

func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	return c.sendJSON(ctx, http.MethodPost, path, body, out)
}

func (c *Client) PatchJSON(ctx context.Context, path string, body, out any) error {
	return c.sendJSON(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) PostForm(ctx context.Context, path string, form *Form, progress ProgressFunc, out any) error {
	return c.sendForm(ctx, http.MethodPost, path, form, progress, out)
}

func (c *Client) PatchForm(ctx context.Context, path string, form *Form, progress ProgressFunc, out any) error {
	return c.sendForm(ctx, http.MethodPatch, path, form, progress, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	return c.do(ctx, method, path, nil, raw, "application/json", nil, out)
}

func (c *Client) sendForm(ctx context.Context, method, path string, form *Form, progress ProgressFunc, out any) error {
	raw, contentType, err := form.Encode()
	if err != nil {
		return fmt.Errorf("encode multipart body: %w", err)
	}
	return c.do(ctx, method, path, nil, raw, contentType, progress, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, contentType string, progress ProgressFunc, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var reader io.Reader
	if body != nil {
		reader = newProgressReader(bytes.NewReader(body), int64(len(body)), progress)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, query), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.ContentLength = int64(len(body))
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", token)
	}

	log := logger.WithContext(ctx, c.log)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordBackendRequest(method, "transport", elapsed.Seconds())
		log.Error().Err(err).Str("method", method).Str("path", path).Msg("backend request failed")
		return fmt.Errorf("backend %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		metrics.RecordBackendRequest(method, outcome(resp.StatusCode), elapsed.Seconds())
		ev := log.Warn()
		if resp.StatusCode == http.StatusNotFound {
			ev = log.Debug()
		}
		ev.Str("method", method).Str("path", path).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("backend returned error status")
		return newAPIError(method, path, resp.StatusCode, raw)
	}
	metrics.RecordBackendRequest(method, "ok", elapsed.Seconds())
	log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("backend request")

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func outcome(status int) string {
	switch {
	case status == http.StatusNotFound:
		return "not_found"
	case status >= 500:
		return "server_error"
	default:
		return "client_error"
	}
}
