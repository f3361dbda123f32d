package contract

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	MethodGetValue  = "getValue"
	MethodIncrement = "increment"
)

var (
	ErrMissingMethod = errors.New("artifact ABI is missing a required method")
	ErrNoBytecode    = errors.New("artifact has no bytecode")
)

//go:embed Incrementer.json
var incrementerArtifact []byte

// Artifact is the subset of a Hardhat compilation artifact needed to call and deploy
// the Incrementer contract.
type Artifact struct {
	ContractName string          `json:"contractName"`
	SourceName   string          `json:"sourceName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

// DefaultArtifact returns the Incrementer artifact compiled into the binary.
func DefaultArtifact() *Artifact {
	a, err := ParseArtifact(incrementerArtifact)
	if err != nil {
		// Should not happen.
		panic(err)
	}
	return a
}

func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	a, err := ParseArtifact(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

func ParseArtifact(data []byte) (*Artifact, error) {
	a := new(Artifact)
	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if len(a.ABI) == 0 {
		return nil, errors.New("artifact has no abi field")
	}
	return a, nil
}

// Parse decodes the ABI and checks that it exposes the accessor and the mutator.
// It says nothing about the code actually deployed at any address.
func (a *Artifact) Parse() (abi.ABI, error) {
	parsed, err := abi.JSON(bytes.NewReader(a.ABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse ABI: %w", err)
	}
	for _, name := range []string{MethodGetValue, MethodIncrement} {
		if _, ok := parsed.Methods[name]; !ok {
			return abi.ABI{}, fmt.Errorf("%w: %s", ErrMissingMethod, name)
		}
	}
	return parsed, nil
}

// Deploy creates the contract from the artifact bytecode. The transaction is not
// waited for.
func (a *Artifact) Deploy(opts *bind.TransactOpts, backend bind.ContractBackend) (common.Address, *types.Transaction, error) {
	parsed, err := a.Parse()
	if err != nil {
		return common.Address{}, nil, err
	}
	if a.Bytecode == "" || a.Bytecode == "0x" {
		return common.Address{}, nil, ErrNoBytecode
	}
	code, err := hexutil.Decode(a.Bytecode)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("decode bytecode: %w", err)
	}
	address, tx, _, err := bind.DeployContract(opts, parsed, code, backend)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("deploy %s: %w", a.ContractName, err)
	}
	return address, tx, nil
}
