// Package httputil provides HTTP handler utilities for consistent
// error responses, JSON encoding, and query parameter parsing.
package httputil
