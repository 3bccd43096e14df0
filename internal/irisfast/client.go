package irisfast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

// Client talks to the Iris HTTP API (/reply, /config).
type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

// WithRetry sets the attempt budget used for idempotent and reply calls.
func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 32},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) GetConfig(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/config", nil, &cfg, true); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Client) SendMessage(ctx context.Context, room, message string) error {
	return c.reply(ctx, ReplyRequest{Type: "text", Room: room, Data: message})
}

func (c *Client) SendImage(ctx context.Context, room, imageBase64 string) error {
	return c.reply(ctx, ReplyRequest{Type: "image", Room: room, Data: imageBase64})
}

// reply retries only on 5xx; a duplicate chat line is preferred over a dropped match result.
func (c *Client) reply(ctx context.Context, req ReplyRequest) error {
	if strings.TrimSpace(req.Room) == "" {
		return errors.New("reply room is empty")
	}
	return c.doJSON(ctx, fasthttp.MethodPost, "/reply", req, nil, true)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := sleepWithContext(ctx, backoffDuration(attempt-1)); err != nil {
				return lastErr
			}
		}
		if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}
		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			lastErr = fmt.Errorf("iris api error: status=%d body=%s", status, truncate(string(resp.Body()), 512))
			if !shouldRetryStatus(status) {
				return lastErr
			}
			continue
		}
		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoffDuration: 100ms, 200ms, 400ms ... capped at 3.2s
func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
