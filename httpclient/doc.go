// Package httpclient is the outbound HTTP client used by the provider
// adapters.
//
// A Client joins paths to a base URL, attaches credentials, streams
// multipart uploads with progress reporting and classifies failures into
// *Error values. A circuit breaker and a bulkhead can be enabled per client.
// Calls are never retried.
package httpclient
