package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyProvider signs with a single raw secp256k1 key, the way Hardhat reads PRIVATE_KEY.
type KeyProvider struct {
	key     *ecdsa.PrivateKey
	account common.Address
}

var _ Provider = (*KeyProvider)(nil)

// NewKeyProvider accepts a hex key with or without the 0x prefix.
func NewKeyProvider(hexKey string) (*KeyProvider, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid private key: %w", ErrAuthorizationDenied, err)
	}
	return NewKeyProviderFromECDSA(key), nil
}

func NewKeyProviderFromECDSA(key *ecdsa.PrivateKey) *KeyProvider {
	return &KeyProvider{
		key:     key,
		account: crypto.PubkeyToAddress(key.PublicKey),
	}
}

func (p *KeyProvider) RequestAccounts(context.Context) ([]common.Address, error) {
	return []common.Address{p.account}, nil
}

func (p *KeyProvider) Transactor(_ context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	if account != p.account {
		return nil, fmt.Errorf("%w: key does not control %s", ErrAuthorizationDenied, account.Hex())
	}
	return bind.NewKeyedTransactorWithChainID(p.key, chainID)
}
