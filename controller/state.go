package controller

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid state transition")

type State int

const (
	Disconnected State = iota
	Connecting
	Idle
	Submitting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Connected reports whether a contract handle is held.
func (s State) Connected() bool {
	return s == Idle || s == Submitting
}

type event int

const (
	connectRequested event = iota
	connectFailed
	connected
	submitRequested
	submitFinished
)

func (e event) String() string {
	switch e {
	case connectRequested:
		return "connect requested"
	case connectFailed:
		return "connect failed"
	case connected:
		return "connected"
	case submitRequested:
		return "submit requested"
	case submitFinished:
		return "submit finished"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

func next(s State, e event) (State, error) {
	switch s {
	case Disconnected:
		if e == connectRequested {
			return Connecting, nil
		}
	case Connecting:
		switch e {
		case connectFailed:
			return Disconnected, nil
		case connected:
			return Idle, nil
		}
	case Idle:
		if e == submitRequested {
			return Submitting, nil
		}
	case Submitting:
		if e == submitFinished {
			return Idle, nil
		}
	}
	return s, fmt.Errorf("%w: %s while %s", ErrInvalidTransition, e, s)
}
