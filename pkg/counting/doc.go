// Package counting is the HTTP client for the external candidate
// search index's count API, the only source of ground-truth counts.
// The service is rate limited and slow for historical ranges, which
// is why growthstats caches its answers per day.
//
// Failures map to the growthstats error taxonomy: transport errors
// and non-2xx responses become ServiceError, an unknown container
// becomes NotFoundError.
package counting
