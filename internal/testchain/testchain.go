// Package testchain runs an in-process Ethereum chain with a funded account for tests.
package testchain

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/NethermindEth/incrementer/chain"
	"github.com/NethermindEth/incrementer/contract"
	"github.com/NethermindEth/incrementer/utils"
	"github.com/NethermindEth/incrementer/wallet"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

// ChainID of the simulated backend.
const ChainID = 1337

// RevertingBytecode deploys a contract whose every call reverts.
const RevertingBytecode = "0x600480600b6000396000f3600080fd"

type Chain struct {
	backend *simulated.Backend
	client  *minedClient
	Key     *ecdsa.PrivateKey
	Account common.Address
}

func New(t *testing.T) *Chain {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	account := crypto.PubkeyToAddress(key.PublicKey)

	balance := new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18))
	backend := simulated.NewBackend(types.GenesisAlloc{
		account: {Balance: balance},
	})
	t.Cleanup(func() {
		require.NoError(t, backend.Close())
	})

	return &Chain{
		backend: backend,
		client:  &minedClient{Client: backend.Client(), backend: backend},
		Key:     key,
		Account: account,
	}
}

// minedClient seals a block after every accepted transaction so receipts are
// available as soon as SendTransaction returns.
type minedClient struct {
	simulated.Client
	backend *simulated.Backend
}

func (c *minedClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := c.Client.SendTransaction(ctx, tx); err != nil {
		return err
	}
	c.backend.Commit()
	return nil
}

func (c *Chain) Client() chain.Backend {
	return c.client
}

func (c *Chain) Provider() *wallet.KeyProvider {
	return wallet.NewKeyProviderFromECDSA(c.Key)
}

func (c *Chain) Session(t *testing.T) *wallet.Session {
	t.Helper()

	session, err := wallet.NewConnector(c.Provider(), c.client, utils.NewNopZapLogger()).Connect(context.Background())
	require.NoError(t, err)
	return session
}

func (c *Chain) transactor(t *testing.T) *bind.TransactOpts {
	t.Helper()

	opts, err := bind.NewKeyedTransactorWithChainID(c.Key, big.NewInt(ChainID))
	require.NoError(t, err)
	return opts
}

// Deploy deploys the embedded Incrementer and seeds it with initial.
func (c *Chain) Deploy(t *testing.T, initial uint64) common.Address {
	t.Helper()

	artifact := contract.DefaultArtifact()
	address, _, err := artifact.Deploy(c.transactor(t), c.client)
	require.NoError(t, err)

	if initial > 0 {
		parsed, err := artifact.Parse()
		require.NoError(t, err)
		bound := bind.NewBoundContract(address, parsed, c.client, c.client, c.client)
		_, err = bound.Transact(c.transactor(t), contract.MethodIncrement, uint256.NewInt(initial).ToBig())
		require.NoError(t, err)
	}
	return address
}

// DeployReverting deploys RevertingBytecode behind the Incrementer ABI.
func (c *Chain) DeployReverting(t *testing.T) common.Address {
	t.Helper()

	artifact := contract.DefaultArtifact()
	artifact.Bytecode = RevertingBytecode
	address, _, err := artifact.Deploy(c.transactor(t), c.client)
	require.NoError(t, err)
	return address
}
