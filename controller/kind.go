package controller

import (
	"errors"
	"fmt"

	"github.com/NethermindEth/incrementer/counter"
	"github.com/NethermindEth/incrementer/wallet"
)

var (
	ErrBusy         = errors.New("a transaction is already in progress")
	ErrNotConnected = errors.New("wallet not connected")
)

// Kind is the user-facing class of a failure.
type Kind int

const (
	None Kind = iota
	EnvironmentMissing
	AuthorizationDenied
	NetworkFailure
	CallReverted
	InvalidInput
	Busy
	NotConnected
	Overflow
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case EnvironmentMissing:
		return "environment_missing"
	case AuthorizationDenied:
		return "authorization_denied"
	case NetworkFailure:
		return "network_failure"
	case CallReverted:
		return "call_reverted"
	case InvalidInput:
		return "invalid_input"
	case Busy:
		return "busy"
	case NotConnected:
		return "not_connected"
	case Overflow:
		return "overflow"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Message is the text shown to the user for a failure of this kind.
func (k Kind) Message() string {
	switch k {
	case EnvironmentMissing:
		return "A wallet is required to use this app."
	case AuthorizationDenied:
		return "Wallet connection was refused."
	case NetworkFailure:
		return "Could not reach the Ethereum node. See logs for details."
	case CallReverted:
		return "Transaction failed. The contract rejected the call."
	case InvalidInput:
		return "Please enter a valid number."
	case Busy:
		return "A transaction is already in progress."
	case NotConnected:
		return "Please connect your wallet first!"
	case Overflow:
		return "The counter value is out of range."
	default:
		return ""
	}
}

// Classify maps an error returned by the wallet, counter or controller packages to
// its Kind. Unrecognised errors are treated as network failures.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return None
	case errors.Is(err, wallet.ErrEnvironmentMissing):
		return EnvironmentMissing
	case errors.Is(err, wallet.ErrAuthorizationDenied):
		return AuthorizationDenied
	case errors.Is(err, counter.ErrInvalidAmount):
		return InvalidInput
	case errors.Is(err, ErrBusy):
		return Busy
	case errors.Is(err, ErrNotConnected), errors.Is(err, counter.ErrNoHandle):
		return NotConnected
	case errors.Is(err, counter.ErrValueOverflow):
		return Overflow
	case errors.Is(err, counter.ErrCallReverted):
		return CallReverted
	default:
		return NetworkFailure
	}
}
