package counter

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/NethermindEth/incrementer/chain"
	"github.com/NethermindEth/incrementer/contract"
	"github.com/NethermindEth/incrementer/wallet"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// Handle is a callable reference to a deployed Incrementer contract.
type Handle struct {
	address  common.Address
	contract *bind.BoundContract
	backend  chain.Backend
	session  *wallet.Session

	listener       EventListener
	confirmTimeout time.Duration
}

// Bind composes a handle without touching the network. A handle with a nil session
// can read but not increment. Whether code exists at address, or matches contractABI,
// is only discovered when calling.
func Bind(address common.Address, contractABI abi.ABI, backend chain.Backend, session *wallet.Session) *Handle {
	return &Handle{
		address:  address,
		contract: bind.NewBoundContract(address, contractABI, backend, backend, backend),
		backend:  backend,
		session:  session,
		listener: &SelectiveListener{},
	}
}

func (h *Handle) WithListener(listener EventListener) *Handle {
	h.listener = listener
	return h
}

// WithConfirmationTimeout bounds how long Increment waits for the receipt. Zero waits
// for as long as the caller's context allows.
func (h *Handle) WithConfirmationTimeout(timeout time.Duration) *Handle {
	h.confirmTimeout = timeout
	return h
}

func (h *Handle) Address() common.Address {
	return h.address
}

// Account is the signing account, or the zero address for read-only handles.
func (h *Handle) Account() common.Address {
	if h.session == nil {
		return common.Address{}
	}
	return h.session.Account
}

// Read returns the counter's current value. Failures return zero alongside the error.
func Read(ctx context.Context, h *Handle) (*uint256.Int, error) {
	if h == nil {
		return new(uint256.Int), ErrNoHandle
	}

	start := time.Now()
	value, err := h.read(ctx)
	h.listener.OnRead(time.Since(start), err)
	return value, err
}

func (h *Handle) read(ctx context.Context) (*uint256.Int, error) {
	var out []any
	if err := h.contract.Call(&bind.CallOpts{Context: ctx, From: h.Account()}, &out, contract.MethodGetValue); err != nil {
		return new(uint256.Int), classify(err)
	}
	if len(out) != 1 {
		return new(uint256.Int), fmt.Errorf("%w: %s returned %d values", ErrCallReverted, contract.MethodGetValue, len(out))
	}

	raw, ok := out[0].(*big.Int)
	if !ok {
		return new(uint256.Int), fmt.Errorf("%w: %s returned %T", ErrCallReverted, contract.MethodGetValue, out[0])
	}
	value, overflow := uint256.FromBig(raw)
	if overflow || raw.Sign() < 0 {
		return new(uint256.Int), fmt.Errorf("%w: %s", ErrValueOverflow, raw)
	}
	return value, nil
}

// Increment submits increment(amount) and blocks until the transaction is mined.
// There is no retry; a failure leaves nothing pending on the handle.
func Increment(ctx context.Context, h *Handle, amount *uint256.Int) (*types.Receipt, error) {
	if h == nil {
		return nil, ErrNoHandle
	}
	if amount == nil {
		return nil, fmt.Errorf("%w: nil", ErrInvalidAmount)
	}
	if h.session == nil {
		return nil, wallet.ErrEnvironmentMissing
	}

	start := time.Now()
	receipt, err := h.increment(ctx, amount)
	h.listener.OnIncrement(time.Since(start), err)
	return receipt, err
}

func (h *Handle) increment(ctx context.Context, amount *uint256.Int) (*types.Receipt, error) {
	tx, err := h.contract.Transact(h.session.TransactOpts(ctx), contract.MethodIncrement, amount.ToBig())
	if err != nil {
		return nil, classify(err)
	}

	if h.confirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.confirmTimeout)
		defer cancel()
	}
	receipt, err := bind.WaitMined(ctx, h.backend, tx)
	if err != nil {
		return nil, classify(fmt.Errorf("wait for %s: %w", tx.Hash().Hex(), err))
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: transaction %s failed in block %s", ErrCallReverted, tx.Hash().Hex(), receipt.BlockNumber)
	}
	return receipt, nil
}
