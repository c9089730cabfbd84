// Package settlement defines the port for the on-chain settlement account:
// an ERC-20 wallet the Payer spends from. Addresses, assets and transaction
// hashes are opaque strings to the rest of the system.
package settlement

import (
	"context"
	"fmt"
	"math/big"
	"strings"
)

// Wallet is the settlement-account capability the Payer needs. All amounts
// are in the token's smallest unit.
type Wallet interface {
	// Address returns the payer's account address.
	Address() string

	// TokenBalance returns the account's balance of the given token.
	TokenBalance(ctx context.Context, token string) (*big.Int, error)

	// Allowance returns the current spending approval granted to spender.
	Allowance(ctx context.Context, token, spender string) (*big.Int, error)

	// Approve raises the spending approval for spender and returns the
	// transaction hash.
	Approve(ctx context.Context, token, spender string, amount *big.Int) (string, error)

	// Transfer sends tokens to the given address and returns the
	// transaction hash without waiting for confirmation.
	Transfer(ctx context.Context, token, to string, amount *big.Int) (string, error)

	// WaitConfirmed blocks until the transaction is final or ctx expires.
	WaitConfirmed(ctx context.Context, txHash string) error
}

// USDCDecimals is the decimal precision of the USDC token.
const USDCDecimals = 6

// ParseUnits converts a decimal amount string such as "0.04" into the
// token's smallest unit without a float round trip.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	whole, frac, _ := strings.Cut(amount, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("amount %q exceeds %d decimal places", amount, decimals)
	}
	frac += strings.Repeat("0", decimals-len(frac))

	v, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	return v, nil
}

// FormatUnits renders a smallest-unit amount as a decimal string,
// trimming trailing zeros but keeping at least two decimal places.
func FormatUnits(v *big.Int, decimals int) string {
	s := v.String()
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}
	whole, frac := s[:len(s)-decimals], s[len(s)-decimals:]
	frac = strings.TrimRight(frac, "0")
	for len(frac) < 2 {
		frac += "0"
	}
	return whole + "." + frac
}
