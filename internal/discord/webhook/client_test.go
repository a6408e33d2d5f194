package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"hookrelay/internal/discord"
	logx "hookrelay/pkg/logx"
)

// countingTransport fails the test if it is ever used.
type countingTransport struct {
	t     *testing.T
	calls atomic.Int64
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls.Add(1)
	c.t.Fatalf("unexpected HTTP call")
	return nil, nil
}

func countLines(b *bytes.Buffer) int {
	s := strings.TrimSpace(b.String())
	if s == "" {
		return 0
	}
	return len(strings.Split(s, "\n"))
}

func TestLogOnlyModeLogsPayload(t *testing.T) {
	var buf bytes.Buffer
	tr := &countingTransport{t: t}
	c := New("",
		WithLogger(logx.NewJSON(&buf, "DEBUG")),
		WithHTTPClient(&http.Client{Transport: tr}),
	)
	defer c.Close()

	err := c.Notify(context.Background(), discord.Notification{Content: "hello world"})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got := tr.calls.Load(); got != 0 {
		t.Fatalf("expected 0 HTTP calls, got %d", got)
	}
	if n := countLines(&buf); n != 1 {
		t.Fatalf("expected exactly 1 log record, got %d:\n%s", n, buf.String())
	}
	if !strings.Contains(buf.String(), "hello world") {
		t.Fatalf("log record does not contain serialized payload:\n%s", buf.String())
	}
}

func TestBypassModeSkipsNetworkAndLogs(t *testing.T) {
	var buf bytes.Buffer
	tr := &countingTransport{t: t}
	c := New(BypassTarget,
		WithLogger(logx.NewJSON(&buf, "DEBUG")),
		WithHTTPClient(&http.Client{Transport: tr}),
	)
	defer c.Close()

	if err := c.Notify(context.Background(), discord.Notification{Content: "ignored"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got := tr.calls.Load(); got != 0 {
		t.Fatalf("expected 0 HTTP calls, got %d", got)
	}
	if n := countLines(&buf); n != 0 {
		t.Fatalf("expected 0 log records, got %d:\n%s", n, buf.String())
	}
}

func TestValidationFailsBeforeNetwork(t *testing.T) {
	tr := &countingTransport{t: t}
	c := New("https://example.com/webhook", WithHTTPClient(&http.Client{Transport: tr}))
	defer c.Close()

	err := c.Notify(context.Background(), discord.Notification{Embeds: make([]discord.Embed, discord.MaxEmbeds+1)})
	var verr *discord.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *discord.ValidationError, got %T (%v)", err, err)
	}
	if verr.Constraint != "embeds.count" {
		t.Fatalf("unexpected constraint %q", verr.Constraint)
	}
	if got := tr.calls.Load(); got != 0 {
		t.Fatalf("expected 0 HTTP calls, got %d", got)
	}
}

func TestDefaultsWaitParamAndNormalization(t *testing.T) {
	var (
		gotQuery string
		gotBody  discord.Notification
		calls    atomic.Int64
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		gotQuery = r.URL.RawQuery
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, WithDefaults("bot", "https://example.com/icon.png"))
	defer c.Close()

	n := discord.Notification{
		Content: "with embed",
		Embeds: []discord.Embed{
			{Color: 0xFF0000, Fields: []discord.Field{{Name: "ID", Value: ""}}},
		},
	}
	if err := c.Notify(context.Background(), n); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 HTTP call, got %d", calls.Load())
	}
	if gotQuery != "wait=true" {
		t.Fatalf("expected wait=true query, got %q", gotQuery)
	}
	if gotBody.Username != "bot" || gotBody.AvatarURL != "https://example.com/icon.png" {
		t.Fatalf("defaults not merged: %+v", gotBody)
	}
	if gotBody.Embeds[0].Fields[0].Value != discord.EmptyFieldPlaceholder {
		t.Fatalf("field value not normalized: %q", gotBody.Embeds[0].Fields[0].Value)
	}
}

func TestPayloadOverridesBeatDefaults(t *testing.T) {
	var gotBody discord.Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, WithDefaults("bot", "icon"), WithWait(false))
	defer c.Close()

	n := discord.Notification{Content: "hi", Username: "override"}
	if err := c.Notify(context.Background(), n); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if gotBody.Username != "override" {
		t.Fatalf("payload username lost: %+v", gotBody)
	}
	if gotBody.AvatarURL != "icon" {
		t.Fatalf("default avatar not merged: %+v", gotBody)
	}
}

func TestRateLimitRetriesOnce(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"retry_after": 0.5}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL)
	defer c.Close()
	var sleeps []time.Duration
	c.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	if err := c.Notify(context.Background(), discord.Notification{Content: "retry me"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 HTTP calls, got %d", calls.Load())
	}
	if len(sleeps) != 1 {
		t.Fatalf("expected 1 sleep, got %v", sleeps)
	}
	if sleeps[0] != 500*time.Millisecond {
		t.Fatalf("expected 500ms wait, got %v", sleeps[0])
	}
}

func TestRateLimitTwiceGivesUp(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"retry_after": 0.01}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	defer c.Close()
	c.sleep = func(time.Duration) {}

	err := c.Notify(context.Background(), discord.Notification{Content: "never"})
	var serr *discord.StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *discord.StatusError, got %T (%v)", err, err)
	}
	if !serr.IsRateLimited() {
		t.Fatalf("expected 429, got %d", serr.StatusCode)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected exactly 2 HTTP calls, got %d", calls.Load())
	}
}

func TestServerErrorDoesNotRetry(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message": "boom"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	defer c.Close()
	c.sleep = func(time.Duration) { t.Fatalf("unexpected sleep") }

	err := c.Notify(context.Background(), discord.Notification{Content: "bad"})
	var serr *discord.StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *discord.StatusError, got %T (%v)", err, err)
	}
	if serr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", serr.StatusCode)
	}
	if !strings.Contains(string(serr.Body), "boom") {
		t.Fatalf("body not preserved: %q", serr.Body)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly 1 HTTP call, got %d", calls.Load())
	}
}

type errTransport struct{ calls atomic.Int64 }

func (e *errTransport) RoundTrip(*http.Request) (*http.Response, error) {
	e.calls.Add(1)
	return nil, errors.New("connection refused")
}

func TestTransportErrorPropagatesWithoutRetry(t *testing.T) {
	tr := &errTransport{}
	c := New("https://example.com/webhook", WithHTTPClient(&http.Client{Transport: tr}))
	defer c.Close()
	c.sleep = func(time.Duration) { t.Fatalf("unexpected sleep") }

	err := c.Notify(context.Background(), discord.Notification{Content: "x"})
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected transport error, got %v", err)
	}
	var serr *discord.StatusError
	if errors.As(err, &serr) {
		t.Fatalf("transport failure should not become StatusError")
	}
	if tr.calls.Load() != 1 {
		t.Fatalf("expected exactly 1 HTTP call, got %d", tr.calls.Load())
	}
}

func TestRetryAfterHeaderFallback(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0.25")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL)
	defer c.Close()
	var sleeps []time.Duration
	c.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	if err := c.Notify(context.Background(), discord.Notification{Content: "x"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(sleeps) != 1 || sleeps[0] != 250*time.Millisecond {
		t.Fatalf("expected one 250ms wait, got %v", sleeps)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New(BypassTarget)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
