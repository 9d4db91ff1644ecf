// Package redis publishes pipeline events to Redis through go-redis.
//
// Each terminal event is sent with PUBLISH on the configured channel and,
// when a stream is configured, appended with XADD so consumers that were
// offline can catch up.
package redis
