package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
)

var ErrNoKeystoreAccounts = errors.New("keystore holds no accounts")

// PassphraseFunc obtains the passphrase for account, typically by prompting the user.
type PassphraseFunc func(ctx context.Context, account common.Address) (string, error)

// KeystoreProvider signs with an account from an encrypted go-ethereum keystore. The
// account stays unlocked for the lifetime of the provider once authorised.
type KeystoreProvider struct {
	ks         *keystore.KeyStore
	selected   *common.Address
	passphrase PassphraseFunc

	mu       sync.Mutex
	unlocked map[common.Address]accounts.Account
}

var _ Provider = (*KeystoreProvider)(nil)

// NewKeystoreProvider signs from ks. When selected is nil the first account in ks
// is used.
func NewKeystoreProvider(ks *keystore.KeyStore, selected *common.Address, passphrase PassphraseFunc) *KeystoreProvider {
	return &KeystoreProvider{
		ks:         ks,
		selected:   selected,
		passphrase: passphrase,
		unlocked:   make(map[common.Address]accounts.Account),
	}
}

func OpenKeystore(dir string) *keystore.KeyStore {
	return keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)
}

func (p *KeystoreProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	account, err := p.account()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.unlocked[account.Address]; ok {
		return []common.Address{account.Address}, nil
	}

	passphrase, err := p.passphrase(ctx, account.Address)
	if err != nil {
		return nil, fmt.Errorf("passphrase for %s: %w", account.Address.Hex(), err)
	}
	if err := p.ks.Unlock(account, passphrase); err != nil {
		return nil, fmt.Errorf("unlock %s: %w", account.Address.Hex(), err)
	}
	p.unlocked[account.Address] = account
	return []common.Address{account.Address}, nil
}

func (p *KeystoreProvider) Transactor(_ context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	p.mu.Lock()
	acc, ok := p.unlocked[account]
	p.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s is locked", ErrAuthorizationDenied, account.Hex())
	}
	return bind.NewKeyStoreTransactorWithChainID(p.ks, acc, chainID)
}

func (p *KeystoreProvider) account() (accounts.Account, error) {
	if p.selected != nil {
		account, err := p.ks.Find(accounts.Account{Address: *p.selected})
		if err != nil {
			return accounts.Account{}, fmt.Errorf("find %s: %w", p.selected.Hex(), err)
		}
		return account, nil
	}
	all := p.ks.Accounts()
	if len(all) == 0 {
		return accounts.Account{}, ErrNoKeystoreAccounts
	}
	return all[0], nil
}
