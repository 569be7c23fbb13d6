// Package api provides the HTTP API for growth statistics and
// engagement scores, with request-scoped logging, metrics, and
// tracing middleware.
package api
