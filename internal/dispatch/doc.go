// Package dispatch implements the async delivery pipeline in front of
// the webhook clients: a bounded queue, a worker pool, rate limiting,
// bounded retry with backoff, and duplicate suppression.
//
// Producers hand a Message to Notify and never block on network I/O.
// Workers pick a route, apply the rate limit, and deliver through the
// route's Sender. Every terminal outcome is appended to the delivery
// log when storage is configured.
package dispatch
