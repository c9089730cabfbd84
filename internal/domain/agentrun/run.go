// Package agentrun defines the client-side orchestration session: one per
// user query, discarded when the query completes.
package agentrun

import (
	"encoding/json"

	"github.com/Ankitanand2411/Agent-x402/internal/domain/payment"
)

// State names the orchestrator's position in the pay-per-call handshake.
type State string

// Session states, in forward order. Failed is reachable from every state
// after Discovering.
const (
	StateIdle         State = "idle"
	StateDiscovering  State = "discovering"
	StateSelecting    State = "selecting"
	StateNoToolNeeded State = "no_tool_needed"
	StateSelected     State = "selected"
	StatePaying       State = "paying"
	StateInvoking     State = "invoking"
	StateComposing    State = "composing"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// FailureKind classifies why a session aborted, so a human can tell payment
// problems apart from tool problems apart from network problems.
type FailureKind string

const (
	FailNone      FailureKind = ""
	FailDiscovery FailureKind = "discovery_unavailable"
	FailSelection FailureKind = "selection_failed"
	FailPayment   FailureKind = "payment_error"
	FailTool      FailureKind = "tool_error"
	FailCompose   FailureKind = "compose_error"
)

// Session is the per-query orchestration record. Entirely owned by the
// orchestrator; no cross-session state.
type Session struct {
	ID       string
	Query    string
	State    State
	Tool     string
	ToolArgs map[string]any
	Cost     float64
	Proof    *payment.Proof
	Failure  FailureKind
}

// Outcome is what a completed (or failed) session reports back to the caller.
type Outcome struct {
	Answer     string          `json:"answer"`
	ToolUsed   string          `json:"tool_used,omitempty"`
	ToolArgs   map[string]any  `json:"tool_args,omitempty"`
	ToolOutput json.RawMessage `json:"tool_output,omitempty"`
	AudioPath  string          `json:"audio_path,omitempty"`
	Cost       float64         `json:"cost"`
	Proof      *payment.Proof  `json:"proof,omitempty"`
	Failure    FailureKind     `json:"failure,omitempty"`
}

// Event is a fire-and-forget progress notification emitted as the session
// advances. Sinks must never block or fail the orchestration.
type Event struct {
	SessionID string         `json:"session_id"`
	Step      string         `json:"step"`
	Message   string         `json:"message"`
	Tool      string         `json:"tool,omitempty"`
	Args      map[string]any `json:"args,omitempty"`
	Amount    float64        `json:"amount,omitempty"`
	TxHash    string         `json:"tx_hash,omitempty"`
}

// Progress step names as emitted to observers.
const (
	StepAnalyzing          = "analyzing"
	StepToolSelected       = "tool_selected"
	StepPaymentRequired    = "payment_required"
	StepProcessingPayment  = "processing_payment"
	StepPaymentConfirmed   = "payment_confirmed"
	StepGeneratingResponse = "generating_response"
	StepDone               = "done"
	StepFailed             = "failed"
)
