package node

import (
	"os"

	"github.com/NethermindEth/incrementer/wallet"
	"github.com/ethereum/go-ethereum/common"
)

// newProvider picks the signer from config: a raw key, then a keystore. With neither
// the controller runs without a wallet and connect reports it as missing.
func newProvider(cfg *Config) (wallet.Provider, error) {
	switch {
	case cfg.PrivateKey != "":
		provider, err := wallet.NewKeyProvider(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		return provider, nil
	case cfg.Keystore != "":
		var selected *common.Address
		if cfg.Account != "" {
			account := common.HexToAddress(cfg.Account)
			selected = &account
		}
		passphrase := wallet.TerminalPassphrase(os.Stdin, os.Stderr)
		if cfg.PasswordFile != "" {
			passphrase = wallet.FilePassphrase(cfg.PasswordFile)
		}
		return wallet.NewKeystoreProvider(wallet.OpenKeystore(cfg.Keystore), selected, passphrase), nil
	default:
		return nil, nil
	}
}
