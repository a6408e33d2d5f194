// Package webhook implements the synchronous Discord webhook delivery
// client: validate, serialize, POST, and a single bounded retry when
// the platform answers 429.
//
// A Client is cheap and holds one underlying HTTP session. It is safe
// for sequential reuse; callers that need concurrent delivery should
// use one Client per goroutine or serialize access externally.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"hookrelay/internal/discord"
	logx "hookrelay/pkg/logx"
)

const (
	// BypassTarget disables all I/O; Notify validates and succeeds.
	// Meant for tests.
	BypassTarget = "bypass"

	// LogTarget (or an empty target) switches the client to log-only
	// mode: the serialized payload goes to the logger instead of the
	// network. Meant for local development.
	LogTarget = "print"

	defaultTimeout = 30 * time.Second

	// Applied when a 429 response carries no usable retry_after.
	fallbackRetryAfter = time.Second
)

type mode int

const (
	modeSend mode = iota
	modeLog
	modeBypass
)

// Client delivers notifications to a single webhook target.
type Client struct {
	url  string
	mode mode

	defaultUsername  string
	defaultAvatarURL string
	wait             bool

	httpc    *http.Client
	ownsHTTP bool
	log      logx.Logger

	// Injection point for the rate-limit wait; tests record instead of
	// sleeping.
	sleep func(time.Duration)
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithDefaults sets the username and avatar merged into payloads that
// do not set their own.
func WithDefaults(username, avatarURL string) Option {
	return func(c *Client) {
		c.defaultUsername = username
		c.defaultAvatarURL = avatarURL
	}
}

// WithWait controls the ?wait query parameter. When true (the default)
// Discord processes the message before responding, so errors surface
// on the POST instead of being swallowed.
func WithWait(wait bool) Option {
	return func(c *Client) { c.wait = wait }
}

// WithTimeout bounds each HTTP attempt. Ignored when an external
// *http.Client is injected.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 && c.ownsHTTP {
			c.httpc.Timeout = d
		}
	}
}

// WithHTTPClient injects an HTTP session. The caller keeps ownership;
// Close will not touch it.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpc = h
			c.ownsHTTP = false
		}
	}
}

// WithLogger sets the logger used for log-only mode and debug output.
func WithLogger(log logx.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New builds a client for target. Target is a webhook URL, the literal
// "bypass", or ""/"print" for log-only mode. No I/O happens here.
func New(target string, opts ...Option) *Client {
	c := &Client{
		url:      target,
		wait:     true,
		httpc:    &http.Client{Timeout: defaultTimeout},
		ownsHTTP: true,
		log:      logx.Nop(),
		sleep:    time.Sleep,
	}
	switch target {
	case "", LogTarget:
		c.mode = modeLog
	case BypassTarget:
		c.mode = modeBypass
	default:
		c.mode = modeSend
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Close releases the underlying HTTP session. Safe to call multiple
// times and after a failed Notify.
func (c *Client) Close() error {
	if c.ownsHTTP && c.httpc != nil {
		c.httpc.CloseIdleConnections()
	}
	return nil
}

// Notify validates n and delivers it to the configured target.
//
// Every call runs the same sequence: validate, dispatch on mode, send,
// and at most one retry when the response is 429. Validation failures
// return *discord.ValidationError before any network I/O. Non-2xx
// responses (after the bounded retry) return *discord.StatusError with
// the status and body preserved. Transport failures are wrapped and
// never retried.
func (c *Client) Notify(ctx context.Context, n discord.Notification) error {
	if err := discord.Validate(n); err != nil {
		return err
	}

	payload := c.mergeDefaults(n.Normalized())
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}

	switch c.mode {
	case modeLog:
		c.log.Info("discord notification (log-only)", logx.String("payload", string(body)))
		return nil
	case modeBypass:
		return nil
	}

	status, respBody, header, err := c.post(ctx, body)
	if err != nil {
		return fmt.Errorf("discord: post webhook: %w", err)
	}
	if status != http.StatusTooManyRequests {
		return statusResult(status, respBody)
	}

	// Rate limited: honor retry_after, then retry exactly once.
	wait := retryAfter(header, respBody)
	c.log.Debug("webhook rate limited",
		logx.Duration("retry_after", wait),
	)
	c.sleep(wait)

	status, respBody, _, err = c.post(ctx, body)
	if err != nil {
		return fmt.Errorf("discord: post webhook (retry): %w", err)
	}
	return statusResult(status, respBody)
}

func (c *Client) mergeDefaults(n discord.Notification) discord.Notification {
	if c.defaultUsername != "" && n.Username == "" {
		n.Username = c.defaultUsername
	}
	if c.defaultAvatarURL != "" && n.AvatarURL == "" {
		n.AvatarURL = c.defaultAvatarURL
	}
	return n
}

func (c *Client) post(ctx context.Context, body []byte) (int, []byte, http.Header, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	target := c.url
	if c.wait {
		target = withWaitParam(target)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	// Webhook responses are small; cap reads anyway.
	b, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return 0, nil, nil, err
	}
	return resp.StatusCode, b, resp.Header, nil
}

func withWaitParam(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("wait", "true")
	u.RawQuery = q.Encode()
	return u.String()
}

func statusResult(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	return &discord.StatusError{StatusCode: status, Body: body}
}

// retryAfter extracts the rate-limit wait from a 429 response. The
// JSON body ("retry_after", fractional seconds) wins over the
// Retry-After header. A missing or bogus value falls back to one
// second so a broken response can't turn into a zero-delay hammer.
func retryAfter(header http.Header, body []byte) time.Duration {
	var payload struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.RetryAfter > 0 {
		return time.Duration(payload.RetryAfter * float64(time.Second))
	}
	if header != nil {
		if v := header.Get("Retry-After"); v != "" {
			if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
				return time.Duration(secs * float64(time.Second))
			}
		}
	}
	return fallbackRetryAfter
}
