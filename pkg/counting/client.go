package counting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/talentiq/talentstats/pkg/entities"
	"github.com/talentiq/talentstats/pkg/growthstats"
	"github.com/talentiq/talentstats/pkg/observability"
)

var countTracer = otel.Tracer("talentstats/counting/client")

// Filters identifies the container whose candidates are counted.
type Filters struct {
	Kind     entities.Kind
	EntityID int64
	DomainID int64
}

// Config holds count service client settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// Client calls the candidate count endpoints. Calls carry a bounded
// retry loop for transient failures; persistent failures surface as
// growthstats.ServiceError.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	metrics    *observability.Metrics
}

// NewClient creates a count service client.
func NewClient(cfg Config, metrics *observability.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 2
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: retries,
		metrics:    metrics,
	}
}

// countRequest is the wire request for both count endpoints.
type countRequest struct {
	Container   string `json:"container"`
	EntityID    int64  `json:"entity_id"`
	DomainID    int64  `json:"domain_id"`
	DateFrom    string `json:"date_from"`
	DateTo      string `json:"date_to"`
	FacetByHour bool   `json:"facet_by_hour,omitempty"`
}

// countResponse is the wire response.
type countResponse struct {
	TotalFound  int64   `json:"total_found"`
	FacetByHour []int64 `json:"facet_by_hour,omitempty"`
}

// Count returns the number of matching candidates in [from, to].
func (c *Client) Count(ctx context.Context, f Filters, from, to time.Time) (int64, error) {
	resp, err := c.call(ctx, "count", f, from, to, false)
	if err != nil {
		return 0, err
	}
	return resp.TotalFound, nil
}

// CountWithHourFacet returns the total plus a per-hour breakdown for
// a single-day range.
func (c *Client) CountWithHourFacet(ctx context.Context, f Filters, from, to time.Time) (int64, [24]int64, error) {
	var facets [24]int64
	resp, err := c.call(ctx, "count_with_hour_facet", f, from, to, true)
	if err != nil {
		return 0, facets, err
	}
	if len(resp.FacetByHour) != 24 {
		return 0, facets, &growthstats.ServiceError{
			Operation: "count_with_hour_facet",
			Err:       fmt.Errorf("expected 24 hour facets, got %d", len(resp.FacetByHour)),
		}
	}
	copy(facets[:], resp.FacetByHour)
	return resp.TotalFound, facets, nil
}

func (c *Client) call(ctx context.Context, operation string, f Filters, from, to time.Time, facet bool) (*countResponse, error) {
	ctx, span := countTracer.Start(ctx, operation)
	defer span.End()
	span.SetAttributes(
		attribute.String("container", f.Kind.String()),
		attribute.Int64("entity_id", f.EntityID),
	)

	body, err := json.Marshal(countRequest{
		Container:   f.Kind.String(),
		EntityID:    f.EntityID,
		DomainID:    f.DomainID,
		DateFrom:    from.UTC().Format(time.RFC3339),
		DateTo:      to.UTC().Format(time.RFC3339),
		FacetByHour: facet,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal count request: %w", err)
	}

	url := c.baseURL + "/api/v1/candidates/count"
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Linear backoff keeps retries inside typical handler
			// deadlines; the count service rate-limits aggressive
			// clients.
			select {
			case <-time.After(time.Duration(attempt) * 250 * time.Millisecond):
			case <-ctx.Done():
				c.metrics.ObserveCountCall(operation, "canceled", time.Since(start))
				return nil, &growthstats.ServiceError{Operation: operation, Err: ctx.Err()}
			}
		}

		resp, retryable, err := c.doOnce(ctx, url, body)
		if err == nil {
			c.metrics.ObserveCountCall(operation, "ok", time.Since(start))
			return resp, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}

	c.metrics.ObserveCountCall(operation, "error", time.Since(start))
	var nf *growthstats.NotFoundError
	if errors.As(lastErr, &nf) {
		return nil, lastErr
	}
	return nil, &growthstats.ServiceError{Operation: operation, Err: lastErr}
}

// doOnce performs a single HTTP exchange. The second return reports
// whether the failure is worth retrying.
func (c *Client) doOnce(ctx context.Context, url string, body []byte) (*countResponse, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer httpResp.Body.Close()

	switch {
	case httpResp.StatusCode == http.StatusNotFound:
		return nil, false, &growthstats.NotFoundError{Resource: "container"}
	case httpResp.StatusCode >= 500:
		io.Copy(io.Discard, httpResp.Body)
		return nil, true, fmt.Errorf("count service returned status %d", httpResp.StatusCode)
	case httpResp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, httpResp.Body)
		return nil, false, fmt.Errorf("count service returned status %d", httpResp.StatusCode)
	}

	var resp countResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, false, fmt.Errorf("failed to decode count response: %w", err)
	}
	return &resp, false, nil
}
