package utils

import (
	"encoding"
	"encoding/json"
	"errors"
	"math/big"

	"github.com/spf13/pflag"
)

var ErrUnknownNetwork = errors.New("unknown network (known: mainnet, sepolia, holesky, localhost, custom)")

// Network is the Ethereum network the Incrementer contract is deployed on.
type Network int

// The following are necessary for Cobra and Viper, respectively, to unmarshal network
// CLI/config parameters properly.
var (
	_ pflag.Value              = (*Network)(nil)
	_ encoding.TextUnmarshaler = (*Network)(nil)
)

const (
	Mainnet Network = iota + 1
	Sepolia
	Holesky
	Localhost
	// Custom skips the chain ID check and has no default endpoint.
	Custom
)

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Sepolia:
		return "sepolia"
	case Holesky:
		return "holesky"
	case Localhost:
		return "localhost"
	case Custom:
		return "custom"
	default:
		// Should not happen.
		panic(ErrUnknownNetwork)
	}
}

func (n Network) MarshalYAML() (any, error) {
	return n.String(), nil
}

func (n *Network) MarshalJSON() ([]byte, error) {
	return json.RawMessage(`"` + n.String() + `"`), nil
}

func (n *Network) Set(s string) error {
	switch s {
	case "MAINNET", "mainnet":
		*n = Mainnet
	case "SEPOLIA", "sepolia":
		*n = Sepolia
	case "HOLESKY", "holesky":
		*n = Holesky
	case "LOCALHOST", "localhost", "hardhat":
		*n = Localhost
	case "CUSTOM", "custom":
		*n = Custom
	default:
		return ErrUnknownNetwork
	}
	return nil
}

func (n *Network) Type() string {
	return "Network"
}

func (n *Network) UnmarshalText(text []byte) error {
	return n.Set(string(text))
}

// ChainID returns the EIP-155 chain ID, or nil for Custom.
func (n Network) ChainID() *big.Int {
	var chainID int64
	switch n {
	case Mainnet:
		chainID = 1
	case Sepolia:
		chainID = 11155111
	case Holesky:
		chainID = 17000
	case Localhost:
		chainID = 31337
	case Custom:
		return nil
	default:
		// Should not happen.
		panic(ErrUnknownNetwork)
	}
	return big.NewInt(chainID)
}

// DefaultEthNode returns the endpoint used when none is configured. Only the local
// development chain has one; public networks need an explicit provider URL.
func (n Network) DefaultEthNode() string {
	if n == Localhost {
		return "http://127.0.0.1:8545"
	}
	return ""
}
