package yellow

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
)

type recordingWallet struct {
	balance    *big.Int
	balanceErr error
	allowance  *big.Int
	approves   int
	allowCalls int
}

func (w *recordingWallet) Address() string { return "0xme" }

func (w *recordingWallet) TokenBalance(context.Context, string) (*big.Int, error) {
	if w.balanceErr != nil {
		return nil, w.balanceErr
	}
	return w.balance, nil
}

func (w *recordingWallet) Allowance(context.Context, string, string) (*big.Int, error) {
	w.allowCalls++
	return w.allowance, nil
}

func (w *recordingWallet) Approve(_ context.Context, _, _ string, amount *big.Int) (string, error) {
	w.approves++
	// An approval raises the recorded allowance so the next payment sees it.
	w.allowance = new(big.Int).Set(amount)
	return "0xapprove", nil
}

func (w *recordingWallet) Transfer(context.Context, string, string, *big.Int) (string, error) {
	return "0xtransfer", nil
}

func (w *recordingWallet) WaitConfirmed(context.Context, string) error { return nil }

func newReady(t *testing.T, w *recordingWallet) *Service {
	t.Helper()
	s := NewService(w, "0xtoken")
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return s
}

func TestInitializeIdempotent(t *testing.T) {
	w := &recordingWallet{balance: big.NewInt(1000000)}
	s := NewService(w, "0xtoken")

	for i := 0; i < 3; i++ {
		if err := s.Initialize(context.Background()); err != nil {
			t.Fatalf("initialize #%d: %v", i+1, err)
		}
	}
	if !s.Ready() {
		t.Fatal("service not ready after initialize")
	}
}

func TestInitializeFailsWhenUnreachable(t *testing.T) {
	w := &recordingWallet{balanceErr: errors.New("rpc down")}
	s := NewService(w, "0xtoken")

	if err := s.Initialize(context.Background()); err == nil {
		t.Fatal("expected initialize error")
	}
	if s.Ready() {
		t.Fatal("service ready despite failed init")
	}
}

func TestPayRefusesUninitialized(t *testing.T) {
	s := NewService(&recordingWallet{balance: big.NewInt(1)}, "0xtoken")
	if _, err := s.Pay(context.Background(), "0xgateway", big.NewInt(1)); err == nil {
		t.Fatal("expected refusal before initialization")
	}
}

func TestPayApprovesOnlyWhenAllowanceShort(t *testing.T) {
	w := &recordingWallet{balance: big.NewInt(1000000), allowance: big.NewInt(0)}
	s := newReady(t, w)
	ctx := context.Background()

	amount := big.NewInt(40000)
	if _, err := s.Pay(ctx, "0xgateway", amount); err != nil {
		t.Fatal(err)
	}
	if w.approves != 1 {
		t.Fatalf("approves = %d, want 1 for the first payment", w.approves)
	}

	// Second payment within the approved allowance must not re-approve.
	if _, err := s.Pay(ctx, "0xgateway", amount); err != nil {
		t.Fatal(err)
	}
	if w.approves != 1 {
		t.Fatalf("approves = %d after repeat payment, want still 1", w.approves)
	}
	if w.allowCalls != 2 {
		t.Fatalf("allowance checked %d times, want once per payment", w.allowCalls)
	}
}

func TestPaySkipsApproveWithSufficientAllowance(t *testing.T) {
	w := &recordingWallet{balance: big.NewInt(1000000), allowance: big.NewInt(1000000)}
	s := newReady(t, w)

	if _, err := s.Pay(context.Background(), "0xgateway", big.NewInt(40000)); err != nil {
		t.Fatal(err)
	}
	if w.approves != 0 {
		t.Fatalf("approves = %d, want 0 when allowance already covers the amount", w.approves)
	}
}

func TestPayReturnsChannelSettlementID(t *testing.T) {
	w := &recordingWallet{balance: big.NewInt(1000000), allowance: big.NewInt(1000000)}
	s := newReady(t, w)

	id, err := s.Pay(context.Background(), "0xgateway", big.NewInt(1))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(id, "yellow-") {
		t.Fatalf("settlement id = %q", id)
	}
}
