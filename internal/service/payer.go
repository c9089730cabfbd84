package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/Ankitanand2411/Agent-x402/internal/domain"
	"github.com/Ankitanand2411/Agent-x402/internal/domain/payment"
	"github.com/Ankitanand2411/Agent-x402/internal/port/settlement"
)

// fallbackNetwork labels proofs settled by direct on-chain transfer rather
// than through the payment channel.
const fallbackNetwork = "ethereum-network"

// ChannelSettler is the primary settlement path: an off-chain channel that
// settles instantly when available.
type ChannelSettler interface {
	Ready() bool
	Pay(ctx context.Context, payTo string, amount *big.Int) (string, error)
}

// Payer settles a payment challenge. It tries the channel first and falls
// back to a direct ERC-20 transfer confirmed on chain. Either path yields a
// proof the gateway will accept on retry.
type Payer struct {
	channel        ChannelSettler // nil when no channel is configured
	wallet         settlement.Wallet
	confirmTimeout time.Duration
	log            *slog.Logger
}

// NewPayer creates a Payer. channel may be nil; wallet must be non-nil for
// the fallback path to exist.
func NewPayer(channel ChannelSettler, wallet settlement.Wallet, confirmTimeout time.Duration, log *slog.Logger) *Payer {
	return &Payer{
		channel:        channel,
		wallet:         wallet,
		confirmTimeout: confirmTimeout,
		log:            log,
	}
}

// Configured reports whether any settlement path exists.
func (p *Payer) Configured() bool {
	return p.wallet != nil || (p.channel != nil && p.channel.Ready())
}

// Pay settles the challenge and returns the proof to retry with. The proof's
// network field records which path settled: the channel's network for the
// primary path, fallbackNetwork for the on-chain transfer.
func (p *Payer) Pay(ctx context.Context, ch payment.Challenge) (payment.Proof, error) {
	amount, err := settlement.ParseUnits(ch.Price, settlement.USDCDecimals)
	if err != nil {
		return payment.Proof{}, fmt.Errorf("%w: bad challenge price: %v", domain.ErrSettlement, err)
	}

	if p.channel != nil && p.channel.Ready() {
		txHash, err := p.channel.Pay(ctx, ch.PayTo, amount)
		if err == nil {
			network := ch.Network
			if network == "" {
				network = "yellow-testnet"
			}
			p.log.Info("channel payment settled", "payTo", ch.PayTo, "amount", ch.Price, "tx", txHash)
			return payment.NewProof(txHash, network, p.from()), nil
		}
		p.log.Warn("channel payment failed, falling back to on-chain transfer", "error", err)
	}

	return p.payOnChain(ctx, ch, amount)
}

func (p *Payer) payOnChain(ctx context.Context, ch payment.Challenge, amount *big.Int) (payment.Proof, error) {
	// Missing signer is a configuration fault, not a failed settlement.
	if p.wallet == nil {
		return payment.Proof{}, fmt.Errorf("%w: no settlement wallet configured", domain.ErrNotInitialized)
	}

	txHash, err := p.wallet.Transfer(ctx, ch.Asset, ch.PayTo, amount)
	if err != nil {
		return payment.Proof{}, fmt.Errorf("%w: transfer: %v", domain.ErrSettlement, err)
	}
	p.log.Info("on-chain transfer sent", "payTo", ch.PayTo, "amount", ch.Price, "tx", txHash)

	waitCtx, cancel := context.WithTimeout(ctx, p.confirmTimeout)
	defer cancel()
	if err := p.wallet.WaitConfirmed(waitCtx, txHash); err != nil {
		return payment.Proof{}, fmt.Errorf("%w: confirmation: %v", domain.ErrSettlement, err)
	}
	p.log.Info("on-chain transfer confirmed", "tx", txHash)

	return payment.NewProof(txHash, fallbackNetwork, p.from()), nil
}

func (p *Payer) from() string {
	if p.wallet != nil {
		return p.wallet.Address()
	}
	return ""
}
