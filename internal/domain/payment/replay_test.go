package payment

import (
	"context"
	"errors"
	"testing"
	"time"
)

// mapCache is an in-memory cache.Cache for tests.
type mapCache struct {
	data map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (m *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *mapCache) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestReplayGuardAdmitsFirstUse(t *testing.T) {
	g := NewReplayGuard(AcceptPresence{}, newMapCache(), time.Hour)
	raw, _ := NewProof("0x1", "sepolia", "0xme").Encode()

	if err := g.Verify(context.Background(), raw, Challenge{}); err != nil {
		t.Fatalf("first use rejected: %v", err)
	}
}

func TestReplayGuardRejectsReuse(t *testing.T) {
	g := NewReplayGuard(AcceptPresence{}, newMapCache(), time.Hour)
	raw, _ := NewProof("0x1", "sepolia", "0xme").Encode()
	ctx := context.Background()

	if err := g.Verify(ctx, raw, Challenge{}); err != nil {
		t.Fatalf("first use rejected: %v", err)
	}
	if err := g.Verify(ctx, raw, Challenge{}); !errors.Is(err, ErrProofRejected) {
		t.Fatalf("reuse: got %v, want ErrProofRejected", err)
	}
}

func TestReplayGuardDistinctHashes(t *testing.T) {
	g := NewReplayGuard(AcceptPresence{}, newMapCache(), time.Hour)
	ctx := context.Background()

	one, _ := NewProof("0x1", "sepolia", "0xme").Encode()
	two, _ := NewProof("0x2", "sepolia", "0xme").Encode()
	if err := g.Verify(ctx, one, Challenge{}); err != nil {
		t.Fatal(err)
	}
	if err := g.Verify(ctx, two, Challenge{}); err != nil {
		t.Fatalf("distinct hash rejected: %v", err)
	}
}

func TestReplayGuardPassesUnstructuredProofs(t *testing.T) {
	g := NewReplayGuard(AcceptPresence{}, newMapCache(), time.Hour)
	ctx := context.Background()

	// No txHash to key on; the wrapped verifier's decision stands.
	if err := g.Verify(ctx, "opaque-proof", Challenge{}); err != nil {
		t.Fatalf("unstructured proof rejected: %v", err)
	}
	if err := g.Verify(ctx, "opaque-proof", Challenge{}); err != nil {
		t.Fatalf("repeated unstructured proof rejected: %v", err)
	}
}

func TestReplayGuardFailsClosedOnNext(t *testing.T) {
	g := NewReplayGuard(RejectAll{}, newMapCache(), time.Hour)
	raw, _ := NewProof("0x1", "sepolia", "0xme").Encode()

	if err := g.Verify(context.Background(), raw, Challenge{}); !errors.Is(err, ErrProofRejected) {
		t.Fatalf("got %v, want ErrProofRejected from wrapped verifier", err)
	}
}
