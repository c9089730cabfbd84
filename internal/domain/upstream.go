package domain

import (
	"encoding/json"
	"fmt"
)

// Upstream failure kinds, matching the executor's failure taxonomy.
const (
	UpstreamStatus      = "upstream-non-success"
	UpstreamTimeout     = "timeout"
	UpstreamUnreachable = "upstream-unreachable"
)

// UpstreamError describes a failed call to a downstream capability. The
// status and body are forwarded verbatim to the caller.
type UpstreamError struct {
	Kind       string          // one of the Upstream* constants
	StatusCode int             // upstream HTTP status, 0 when none was received
	Body       json.RawMessage // upstream error payload, may be nil
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	switch e.Kind {
	case UpstreamTimeout:
		return "upstream call timed out"
	case UpstreamUnreachable:
		return "upstream unreachable"
	default:
		return fmt.Sprintf("upstream returned %d", e.StatusCode)
	}
}
