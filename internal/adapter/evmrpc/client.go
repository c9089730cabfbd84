// Package evmrpc implements the settlement wallet port against an Ethereum
// JSON-RPC node. Transactions are signed by the node's managed account
// (eth_sendTransaction); key custody stays outside this process.
package evmrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"
)

// Wallet is a settlement account backed by a JSON-RPC node.
type Wallet struct {
	rpcURL       string
	from         string
	httpClient   *http.Client
	pollInterval time.Duration
	nextID       atomic.Int64
}

// NewWallet creates a wallet for the given node URL and account address.
func NewWallet(rpcURL, from string, pollInterval time.Duration) *Wallet {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Wallet{
		rpcURL: rpcURL,
		from:   from,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		pollInterval: pollInterval,
	}
}

// Address returns the wallet's account address.
func (w *Wallet) Address() string {
	return w.from
}

// TokenBalance returns the account's ERC-20 balance.
func (w *Wallet) TokenBalance(ctx context.Context, token string) (*big.Int, error) {
	return w.callUint(ctx, token, packBalanceOf(w.from))
}

// Allowance returns the spending approval granted to spender.
func (w *Wallet) Allowance(ctx context.Context, token, spender string) (*big.Int, error) {
	return w.callUint(ctx, token, packAllowance(w.from, spender))
}

// Approve raises the spending approval for spender.
func (w *Wallet) Approve(ctx context.Context, token, spender string, amount *big.Int) (string, error) {
	return w.sendTransaction(ctx, token, packApprove(spender, amount))
}

// Transfer sends amount tokens to the given address.
func (w *Wallet) Transfer(ctx context.Context, token, to string, amount *big.Int) (string, error) {
	return w.sendTransaction(ctx, token, packTransfer(to, amount))
}

// WaitConfirmed polls for the transaction receipt until the transaction is
// mined or ctx expires. A reverted transaction is an error, not a retry.
func (w *Wallet) WaitConfirmed(ctx context.Context, txHash string) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		var receipt struct {
			Status      string `json:"status"`
			BlockNumber string `json:"blockNumber"`
		}
		found, err := w.rpcCall(ctx, "eth_getTransactionReceipt", []any{txHash}, &receipt)
		if err != nil {
			return fmt.Errorf("receipt %s: %w", txHash, err)
		}
		if found {
			if receipt.Status == "0x0" {
				return fmt.Errorf("transaction %s reverted", txHash)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("confirm %s: %w", txHash, ctx.Err())
		case <-ticker.C:
		}
	}
}

// callUint performs an eth_call returning a single uint256.
func (w *Wallet) callUint(ctx context.Context, to, data string) (*big.Int, error) {
	var hexResult string
	_, err := w.rpcCall(ctx, "eth_call", []any{
		map[string]string{"to": to, "data": data},
		"latest",
	}, &hexResult)
	if err != nil {
		return nil, err
	}
	return parseHexUint(hexResult)
}

func (w *Wallet) sendTransaction(ctx context.Context, to, data string) (string, error) {
	var txHash string
	_, err := w.rpcCall(ctx, "eth_sendTransaction", []any{
		map[string]string{"from": w.from, "to": to, "data": data},
	}, &txHash)
	if err != nil {
		return "", err
	}
	return txHash, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int64  `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcCall performs one JSON-RPC round trip. Returns false when the node
// answered with a null result (e.g. a receipt that does not exist yet).
func (w *Wallet) rpcCall(ctx context.Context, method string, params []any, out any) (bool, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      w.nextID.Add(1),
	})
	if err != nil {
		return false, fmt.Errorf("marshal %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.rpcURL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return false, fmt.Errorf("decode %s response: %w", method, err)
	}
	if envelope.Error != nil {
		return false, fmt.Errorf("%s: rpc error %d: %s", method, envelope.Error.Code, envelope.Error.Message)
	}
	if len(envelope.Result) == 0 || bytes.Equal(envelope.Result, []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return false, fmt.Errorf("unmarshal %s result: %w", method, err)
	}
	return true, nil
}

// parseHexUint decodes a 0x-prefixed big-endian integer.
func parseHexUint(s string) (*big.Int, error) {
	if len(s) >= 2 && s[:2] == "0x" {
		s = s[2:]
	}
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex quantity %q", s)
	}
	return v, nil
}
