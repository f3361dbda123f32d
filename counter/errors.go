package counter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	ErrNoHandle       = errors.New("contract not bound")
	ErrNetworkFailure = errors.New("network failure")
	ErrCallReverted   = errors.New("contract call reverted")
	ErrValueOverflow  = errors.New("value out of range")
	ErrInvalidAmount  = errors.New("invalid amount")
)

// JSON-RPC error code geth and Hardhat use for reverted calls.
const revertErrorCode = 3

// classify wraps err with ErrCallReverted when the node reported a revert or there is
// no code at the address, and with ErrNetworkFailure otherwise.
func classify(err error) error {
	if isRevert(err) {
		return fmt.Errorf("%w: %w", ErrCallReverted, err)
	}
	return fmt.Errorf("%w: %w", ErrNetworkFailure, err)
}

func isRevert(err error) bool {
	if errors.Is(err, bind.ErrNoCode) {
		return true
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == revertErrorCode {
		return true
	}
	// bind flattens gas estimation errors into plain strings.
	return strings.Contains(err.Error(), "execution reverted")
}
