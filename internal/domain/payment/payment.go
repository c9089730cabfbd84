// Package payment defines the pay-per-call handshake types: the 402
// challenge, the settlement proof, and the pluggable proof verifier.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ankitanand2411/Agent-x402/internal/domain/tool"
)

// ProofHeader is the request header carrying the opaque payment proof.
const ProofHeader = "X-402-Payment"

// Challenge is the structured "payment required" response body. It is
// stateless and reproducible: generating it twice for the same tool yields
// identical content.
type Challenge struct {
	Error       string `json:"error"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	Network     string `json:"network"`
	Asset       string `json:"asset"`
	PayTo       string `json:"payTo"`
	Description string `json:"description"`
}

// Terms identifies the settlement rails a gateway charges on.
type Terms struct {
	Currency string
	Network  string
	Asset    string
	PayTo    string
}

// NewChallenge builds the challenge for a tool from its catalog entry.
func NewChallenge(desc tool.Descriptor, terms Terms) Challenge {
	currency := desc.Currency
	if currency == "" {
		currency = terms.Currency
	}
	return Challenge{
		Error:       "Payment Required",
		Price:       desc.Price,
		Currency:    currency,
		Network:     terms.Network,
		Asset:       terms.Asset,
		PayTo:       terms.PayTo,
		Description: "Payment for " + desc.Name,
	}
}

// Proof is the settlement receipt a client submits on retry. The wire form
// is a JSON object in the X-402-Payment header.
type Proof struct {
	TxHash    string `json:"txHash"`
	Network   string `json:"network"`
	From      string `json:"from"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// Encode renders the proof as its header value.
func (p Proof) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode proof: %w", err)
	}
	return string(data), nil
}

// ParseProof decodes a proof header value. The minimal protocol never calls
// this on the gateway side; hardened verifiers do.
func ParseProof(raw string) (Proof, error) {
	var p Proof
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Proof{}, fmt.Errorf("parse proof: %w", err)
	}
	return p, nil
}

// NewProof builds a proof for a settled transaction, stamped now.
func NewProof(txHash, network, from string) Proof {
	return Proof{
		TxHash:    txHash,
		Network:   network,
		From:      from,
		Timestamp: time.Now().UnixMilli(),
	}
}

// ErrProofRejected is returned by verifiers when the submitted proof is
// unacceptable; the gateway re-challenges instead of admitting.
var ErrProofRejected = errors.New("payment proof rejected")

// Verifier decides whether a raw proof satisfies a challenge.
//
// Verification may need an asynchronous round trip to a settlement network;
// implementations must respect ctx and time out rather than block the gate.
type Verifier interface {
	Verify(ctx context.Context, rawProof string, ch Challenge) error
}

// AcceptPresence admits any non-empty proof. This reproduces the original
// protocol exactly: presence alone is sufficient, no cryptographic or
// on-chain check is performed. A known weak point, not a design goal.
type AcceptPresence struct{}

// Verify implements Verifier.
func (AcceptPresence) Verify(_ context.Context, rawProof string, _ Challenge) error {
	if rawProof == "" {
		return ErrProofRejected
	}
	return nil
}

// RejectAll refuses every proof. It is the secure default for deployments
// that have not plugged in a real settlement verifier.
type RejectAll struct{}

// Verify implements Verifier.
func (RejectAll) Verify(_ context.Context, _ string, _ Challenge) error {
	return fmt.Errorf("%w: no verifier configured", ErrProofRejected)
}
