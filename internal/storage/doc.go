// Package storage provides a minimal persistence layer for the relay.
//
// It currently supports:
//   - Delivery log appends (outcome of every dispatched notification)
//   - Optional dispatch dedup state (to survive restarts)
package storage
