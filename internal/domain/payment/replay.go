package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/Ankitanand2411/Agent-x402/internal/port/cache"
)

// ReplayGuard wraps a Verifier and rejects proofs whose transaction hash
// has already been admitted within the retention window. The minimal
// protocol has no nonce, so the transaction hash is the only replay handle
// available.
type ReplayGuard struct {
	next  Verifier
	seen  cache.Cache
	ttl   time.Duration
	clock func() time.Time // for testing
}

// NewReplayGuard wraps next with proof-reuse detection backed by the given
// cache. ttl bounds how long an admitted hash stays hot.
func NewReplayGuard(next Verifier, seen cache.Cache, ttl time.Duration) *ReplayGuard {
	return &ReplayGuard{next: next, seen: seen, ttl: ttl, clock: time.Now}
}

// Verify implements Verifier.
func (g *ReplayGuard) Verify(ctx context.Context, rawProof string, ch Challenge) error {
	if err := g.next.Verify(ctx, rawProof, ch); err != nil {
		return err
	}

	p, err := ParseProof(rawProof)
	if err != nil || p.TxHash == "" {
		// Unstructured proofs carry no replay handle; the wrapped verifier
		// already accepted them, so pass through.
		return nil
	}

	key := "proof:" + p.TxHash
	if _, hit, _ := g.seen.Get(ctx, key); hit {
		return fmt.Errorf("%w: transaction %s already used", ErrProofRejected, p.TxHash)
	}

	stamp := g.clock().UTC().Format(time.RFC3339)
	if err := g.seen.Set(ctx, key, []byte(stamp), g.ttl); err != nil {
		return fmt.Errorf("record proof: %w", err)
	}
	return nil
}
