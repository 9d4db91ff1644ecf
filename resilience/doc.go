// Package resilience guards calls to slow or failing upstreams with a
// circuit breaker, a concurrency bulkhead and a keyed sliding-window limiter.
// It has no retry helper; transcription failures are reported once.
package resilience
