package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/NethermindEth/incrementer/utils"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

var ErrChainMismatch = errors.New("endpoint serves a different chain than the configured network")

type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// Backend is what a contract handle needs from an Ethereum node: calls, transaction
// submission, receipts and the chain ID used for signing.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainIDReader
}

type Client struct {
	*ethclient.Client
}

var _ Backend = (*Client)(nil)

func Dial(ctx context.Context, url string) (*Client, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial Ethereum client: %w", err)
	}
	return &Client{Client: ethclient.NewClient(client)}, nil
}

// CheckChainID returns the chain ID served by backend and fails if it differs from the
// one expected for network. Custom networks accept any chain.
func CheckChainID(ctx context.Context, backend ChainIDReader, network utils.Network) (*big.Int, error) {
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain ID: %w", err)
	}
	if expected := network.ChainID(); expected != nil && expected.Cmp(chainID) != 0 {
		return nil, fmt.Errorf("%w: %s expects chain %s, got %s", ErrChainMismatch, network, expected, chainID)
	}
	return chainID, nil
}
