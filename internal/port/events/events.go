// Package events defines the port for publishing gateway payment events.
package events

import "context"

// Publisher sends payment lifecycle events to an external stream. Used for
// observability only; publish failures are logged, never surfaced to the
// request path.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Subjects for gateway payment events.
const (
	SubjectChallenge = "payments.challenge" // 402 issued
	SubjectAdmitted  = "payments.admitted"  // proof accepted, tool executing
	SubjectRejected  = "payments.rejected"  // proof failed verification
)
