package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Ankitanand2411/Agent-x402/internal/adapter/otel"
	"github.com/Ankitanand2411/Agent-x402/internal/domain/payment"
	"github.com/Ankitanand2411/Agent-x402/internal/domain/tool"
	"github.com/Ankitanand2411/Agent-x402/internal/port/events"
)

// PaymentGate gates execution of priced tools on presence of a payment
// proof. A request without an acceptable X-402-Payment header receives an
// HTTP 402 challenge populated from the tool's catalog entry; an admitted
// request proceeds to the executor with the decision logged.
//
// The gate never blocks on external verification itself; verifiers that do
// network round trips must carry their own timeouts.
type PaymentGate struct {
	catalog  *tool.Catalog
	terms    payment.Terms
	verifier payment.Verifier
	metrics  *otel.Metrics
	events   events.Publisher // nil disables event publishing
}

// NewPaymentGate creates the gate. metrics and publisher may be nil.
func NewPaymentGate(catalog *tool.Catalog, terms payment.Terms, verifier payment.Verifier, metrics *otel.Metrics, publisher events.Publisher) *PaymentGate {
	return &PaymentGate{
		catalog:  catalog,
		terms:    terms,
		verifier: verifier,
		metrics:  metrics,
		events:   publisher,
	}
}

// gateEvent is the payload published on payment lifecycle subjects.
type gateEvent struct {
	Tool    string `json:"tool"`
	Price   string `json:"price"`
	Network string `json:"network"`
	Reason  string `json:"reason,omitempty"`
}

// Require returns middleware that enforces payment for the named tool.
// The tool must exist in the catalog; unknown names panic at route
// registration time rather than serving unpriced calls.
func (g *PaymentGate) Require(toolName string) func(http.Handler) http.Handler {
	desc, ok := g.catalog.Get(toolName)
	if !ok {
		panic("payment gate: unknown tool " + toolName)
	}
	challenge := payment.NewChallenge(desc, g.terms)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw := r.Header.Get(payment.ProofHeader)

			if raw == "" {
				slog.Info("payment challenge issued", "tool", toolName, "price", challenge.Price, "currency", challenge.Currency)
				if g.metrics != nil {
					g.metrics.Challenges.Add(ctx, 1)
				}
				g.publish(r, events.SubjectChallenge, gateEvent{Tool: toolName, Price: challenge.Price, Network: challenge.Network})

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusPaymentRequired)
				_ = json.NewEncoder(w).Encode(challenge)
				return
			}

			if err := g.verifier.Verify(ctx, raw, challenge); err != nil {
				if !errors.Is(err, payment.ErrProofRejected) {
					slog.Error("proof verification failed", "tool", toolName, "error", err)
				} else {
					slog.Warn("payment proof rejected", "tool", toolName, "error", err)
				}
				if g.metrics != nil {
					g.metrics.Rejections.Add(ctx, 1)
				}
				g.publish(r, events.SubjectRejected, gateEvent{Tool: toolName, Price: challenge.Price, Network: challenge.Network, Reason: err.Error()})

				// Invalid proof re-challenges; the caller must pay again,
				// it is never a generic client error.
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusPaymentRequired)
				_ = json.NewEncoder(w).Encode(challenge)
				return
			}

			slog.Info("payment received", "tool", toolName, "proof", truncateProof(raw))
			if g.metrics != nil {
				g.metrics.Admissions.Add(ctx, 1)
			}
			g.publish(r, events.SubjectAdmitted, gateEvent{Tool: toolName, Price: challenge.Price, Network: challenge.Network})

			next.ServeHTTP(w, r)
		})
	}
}

// publish sends a gate event; failures are logged and dropped.
func (g *PaymentGate) publish(r *http.Request, subject string, ev gateEvent) {
	if g.events == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := g.events.Publish(r.Context(), subject, data); err != nil {
		slog.Warn("payment event publish failed", "subject", subject, "error", err)
	}
}

// truncateProof shortens the opaque proof for log lines.
func truncateProof(raw string) string {
	if len(raw) <= 50 {
		return raw
	}
	return raw[:50] + "..."
}
