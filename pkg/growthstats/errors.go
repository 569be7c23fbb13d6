package growthstats

import "fmt"

// InvalidUsageError reports a request validation failure: bad offset,
// bad interval, inverted or expired range, future end date.
type InvalidUsageError struct {
	Reason string
}

func (e *InvalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage: %s", e.Reason)
}

// NewInvalidUsage builds an InvalidUsageError from a format string.
func NewInvalidUsage(format string, args ...interface{}) *InvalidUsageError {
	return &InvalidUsageError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown entity or domain.
type NotFoundError struct {
	Resource string
	Err      error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s not found: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ForbiddenError reports an authorization mismatch. The decision is
// made by the external authorizer; this type only carries it through.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Reason)
}

// ServiceError reports a count-service network or protocol failure.
type ServiceError struct {
	Operation string
	Err       error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("count service %s failed: %v", e.Operation, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }
