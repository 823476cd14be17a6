package weather

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable is the sentinel every source client converts its
// transport and provider failures into. Callers decide whether that means
// degrading or failing the query.
var ErrSourceUnavailable = errors.New("weather source unavailable")

// UpstreamError is a hard failure: the query cannot produce a snapshot at
// all, either because coordinates could not be resolved or because the
// current-conditions source is unreachable.
type UpstreamError struct {
	Source  string
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %s unavailable: %s: %v", e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("upstream %s unavailable: %s", e.Source, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError creates a new upstream hard-failure error
func NewUpstreamError(source, message string, err error) *UpstreamError {
	return &UpstreamError{
		Source:  source,
		Message: message,
		Err:     err,
	}
}

// ErrLocationNotFound reports an unknown location identifier.
var ErrLocationNotFound = errors.New("location not found")
