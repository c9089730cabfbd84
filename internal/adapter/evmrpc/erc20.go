package evmrpc

import (
	"fmt"
	"math/big"
	"strings"
)

// ERC-20 function selectors: the first four bytes of the keccak-256 hash of
// each canonical signature.
const (
	selTransfer  = "a9059cbb" // transfer(address,uint256)
	selApprove   = "095ea7b3" // approve(address,uint256)
	selAllowance = "dd62ed3e" // allowance(address,address)
	selBalanceOf = "70a08231" // balanceOf(address)
)

func packTransfer(to string, amount *big.Int) string {
	return "0x" + selTransfer + packAddress(to) + packUint(amount)
}

func packApprove(spender string, amount *big.Int) string {
	return "0x" + selApprove + packAddress(spender) + packUint(amount)
}

func packAllowance(owner, spender string) string {
	return "0x" + selAllowance + packAddress(owner) + packAddress(spender)
}

func packBalanceOf(owner string) string {
	return "0x" + selBalanceOf + packAddress(owner)
}

// packAddress left-pads a 20-byte address to a 32-byte ABI word.
func packAddress(addr string) string {
	a := strings.ToLower(strings.TrimPrefix(addr, "0x"))
	return fmt.Sprintf("%064s", a)
}

// packUint encodes an unsigned integer as a 32-byte ABI word.
func packUint(v *big.Int) string {
	return fmt.Sprintf("%064s", v.Text(16))
}
