package counter

import "time"

type EventListener interface {
	OnRead(took time.Duration, err error)
	OnIncrement(took time.Duration, err error)
}

type SelectiveListener struct {
	OnReadCb      func(took time.Duration, err error)
	OnIncrementCb func(took time.Duration, err error)
}

func (l *SelectiveListener) OnRead(took time.Duration, err error) {
	if l.OnReadCb != nil {
		l.OnReadCb(took, err)
	}
}

func (l *SelectiveListener) OnIncrement(took time.Duration, err error) {
	if l.OnIncrementCb != nil {
		l.OnIncrementCb(took, err)
	}
}
