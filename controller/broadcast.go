package controller

import "sync"

// broadcaster fans snapshots out to subscribers. Every subscriber holds at most one
// pending snapshot; a newer one replaces it, so slow readers only ever see the latest.
type broadcaster struct {
	mu     sync.Mutex // protects subs and nextID.
	subs   map[uint64]*Subscription
	nextID uint64
}

type Subscription struct {
	c         chan Snapshot
	b         *broadcaster
	unsubOnce sync.Once
	id        uint64
}

func (s *Subscription) Recv() <-chan Snapshot {
	return s.c
}

func (s *Subscription) Unsubscribe() {
	s.unsubOnce.Do(func() {
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		close(s.c)
		delete(s.b.subs, s.id)
	})
}

func newBroadcaster() *broadcaster {
	return &broadcaster{
		subs: make(map[uint64]*Subscription),
	}
}

// subscribe registers a subscriber primed with current.
func (b *broadcaster) subscribe(current Snapshot) *Subscription {
	ch := make(chan Snapshot, 1)
	ch <- current

	b.mu.Lock()
	defer b.mu.Unlock()
	s := &Subscription{
		c:  ch,
		b:  b,
		id: b.nextID,
	}
	b.nextID++
	b.subs[s.id] = s
	return s
}

func (b *broadcaster) send(v Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		select {
		case sub.c <- v:
		default:
			select {
			case <-sub.c:
			// The subscriber drained it concurrently.
			default:
			}
			// Only send holds b.mu, so the buffer slot is free.
			sub.c <- v
		}
	}
}
