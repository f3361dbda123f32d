package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/NethermindEth/incrementer/utils"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrEnvironmentMissing is returned when no wallet provider is configured.
	ErrEnvironmentMissing = errors.New("wallet required")
	// ErrAuthorizationDenied is returned when the provider refuses account access.
	ErrAuthorizationDenied = errors.New("wallet authorization denied")
)

//go:generate mockgen -destination=../mocks/mock_provider.go -package=mocks github.com/NethermindEth/incrementer/wallet Provider
type Provider interface {
	// RequestAccounts asks the provider to authorise access and returns the accounts it
	// is willing to sign for. It may block on user interaction.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// Transactor returns signing options for account on the given chain.
	Transactor(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error)
}

type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// Session is a signing capability bound to one account on one chain.
type Session struct {
	Account common.Address
	ChainID *big.Int
	signer  *bind.TransactOpts
}

// TransactOpts returns a copy of the session signer bound to ctx.
func (s *Session) TransactOpts(ctx context.Context) *bind.TransactOpts {
	opts := *s.signer
	opts.Context = ctx
	return &opts
}

type Connector struct {
	provider Provider
	chain    ChainIDReader
	log      utils.SimpleLogger
}

// NewConnector accepts a nil provider; Connect then reports ErrEnvironmentMissing.
func NewConnector(provider Provider, chain ChainIDReader, log utils.SimpleLogger) *Connector {
	return &Connector{
		provider: provider,
		chain:    chain,
		log:      log,
	}
}

// Connect requests account access and derives a Session for the first authorised account.
func (c *Connector) Connect(ctx context.Context) (*Session, error) {
	if c.provider == nil {
		c.log.Warnw("No wallet provider configured")
		return nil, ErrEnvironmentMissing
	}

	accounts, err := c.provider.RequestAccounts(ctx)
	if err != nil {
		c.log.Warnw("Wallet refused account access", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrAuthorizationDenied, err)
	}
	if len(accounts) == 0 {
		c.log.Warnw("Wallet authorised no accounts")
		return nil, fmt.Errorf("%w: no accounts", ErrAuthorizationDenied)
	}
	account := accounts[0]

	chainID, err := c.chain.ChainID(ctx)
	if err != nil {
		c.log.Errorw("Failed to read chain ID", "err", err)
		return nil, fmt.Errorf("get chain ID: %w", err)
	}

	signer, err := c.provider.Transactor(ctx, account, chainID)
	if err != nil {
		c.log.Warnw("Wallet refused to sign", "account", account.Hex(), "err", err)
		return nil, fmt.Errorf("%w: %w", ErrAuthorizationDenied, err)
	}

	c.log.Infow("Connected wallet", "account", account.Hex(), "chainID", chainID)
	return &Session{
		Account: account,
		ChainID: chainID,
		signer:  signer,
	}, nil
}
