package dispatch

import (
	"context"
	"time"

	"hookrelay/internal/discord"
)

// Sender delivers one notification. *webhook.Client satisfies this.
type Sender interface {
	Notify(ctx context.Context, n discord.Notification) error
}

// Message is one unit of work for the pipeline.
type Message struct {
	// Route names the webhook to deliver through. Empty means the
	// configured default route.
	Route string

	// Priority tags the content with a severity marker. 0 means none.
	Priority int

	Note discord.Notification
}

// Config controls the async delivery pipeline.
type Config struct {
	Enabled         bool
	Workers         int
	QueueSize       int
	RatePerSec      int
	RetryMax        int
	RetryBase       time.Duration
	RetryMaxDelay   time.Duration
	DedupWindow     time.Duration
	DedupMaxEntries int
	PersistDedup    bool
	DefaultRoute    string
}

type HistoryItem struct {
	At    time.Time
	Route string
	Text  string
}

// DeliveryEvent is emitted on the event bus for pipeline lifecycle
// events. Keep it small; Data may be logged/serialized by subscribers.
type DeliveryEvent struct {
	Route string    `json:"route"`
	Key   string    `json:"key"`
	At    time.Time `json:"at"`
	Error string    `json:"error,omitempty"`
}
