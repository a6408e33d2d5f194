package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (jsonl + snapshot)
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Delivery outcome values.
const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// DeliveryEntry records the outcome of one dispatched notification.
// Keep it compact and schema-stable.
type DeliveryEntry struct {
	At       time.Time `json:"at"`
	Route    string    `json:"route"`
	Status   string    `json:"status"` // DeliverySent or DeliveryFailed
	Attempts int       `json:"attempts"`
	Error    string    `json:"err,omitempty"`
	Summary  string    `json:"summary,omitempty"` // short payload digest, not the wire body
	TookMS   int64     `json:"took_ms"`
}
