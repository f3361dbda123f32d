package wallet_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/NethermindEth/incrementer/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Hardhat and Anvil default account 0.
const (
	devKey     = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAccount = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestKeyProvider(t *testing.T) {
	for name, key := range map[string]string{
		"bare":     devKey,
		"prefixed": "0x" + devKey,
		"padded":   "  " + devKey + "\n",
	} {
		t.Run(name, func(t *testing.T) {
			provider, err := wallet.NewKeyProvider(key)
			require.NoError(t, err)

			accounts, err := provider.RequestAccounts(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []common.Address{common.HexToAddress(devAccount)}, accounts)

			opts, err := provider.Transactor(context.Background(), accounts[0], big.NewInt(31337))
			require.NoError(t, err)
			assert.Equal(t, accounts[0], opts.From)
		})
	}

	t.Run("invalid key", func(t *testing.T) {
		_, err := wallet.NewKeyProvider("not-a-key")
		require.ErrorIs(t, err, wallet.ErrAuthorizationDenied)
	})

	t.Run("foreign account", func(t *testing.T) {
		provider, err := wallet.NewKeyProvider(devKey)
		require.NoError(t, err)

		_, err = provider.Transactor(context.Background(), common.HexToAddress("0x1"), big.NewInt(1))
		require.ErrorIs(t, err, wallet.ErrAuthorizationDenied)
	})
}
