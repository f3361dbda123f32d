package controller

import (
	"context"
	"sync"
	"time"

	"github.com/NethermindEth/incrementer/counter"
	"github.com/NethermindEth/incrementer/utils"
	"github.com/NethermindEth/incrementer/wallet"
	"github.com/holiman/uint256"
)

const (
	DefaultBannerDelay = 3 * time.Second
	SuccessBanner      = "Transaction successful! Value has been incremented."
)

type Wallet interface {
	Connect(ctx context.Context) (*wallet.Session, error)
}

// BindFunc turns a fresh session into the contract handle the controller keeps.
type BindFunc func(session *wallet.Session) *counter.Handle

// Snapshot is what the user sees.
type Snapshot struct {
	State    State  `json:"state"`
	Account  string `json:"account,omitempty"`
	Contract string `json:"contract,omitempty"`
	Value    string `json:"value"`
	Banner   string `json:"banner,omitempty"`
	Message  string `json:"message,omitempty"`
	Kind     Kind   `json:"kind"`
}

// Controller drives connect, read and increment for a single user. Network I/O never
// happens under mu; the Submitting state is what keeps submissions exclusive.
type Controller struct {
	wallet      Wallet
	bind        BindFunc
	log         utils.SimpleLogger
	bannerDelay time.Duration
	afterFunc   func(time.Duration, func())

	mu        sync.Mutex
	state     State
	handle    *counter.Handle
	value     *uint256.Int
	valueGen  uint64
	banner    string
	bannerGen uint64
	failure   Kind
	feed      *broadcaster
}

func New(w Wallet, bind BindFunc, log utils.SimpleLogger) *Controller {
	return &Controller{
		wallet:      w,
		bind:        bind,
		log:         log,
		bannerDelay: DefaultBannerDelay,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		state: Disconnected,
		value: new(uint256.Int),
		feed:  newBroadcaster(),
	}
}

func (c *Controller) WithBannerDelay(delay time.Duration) *Controller {
	c.bannerDelay = delay
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Value returns a copy of the displayed value.
func (c *Controller) Value() *uint256.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(uint256.Int).Set(c.value)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe returns a subscription primed with the current snapshot.
func (c *Controller) Subscribe() *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.feed.subscribe(c.snapshotLocked())
}

// Connect obtains a session, binds the contract and reads its value. A failed read
// still leaves the controller connected with a zero value. Connecting again once
// connected does nothing; the session is never replaced.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case Connecting, Submitting:
		c.mu.Unlock()
		return ErrBusy
	case Idle:
		c.mu.Unlock()
		return nil
	}
	c.mustTransitionLocked(connectRequested)
	c.failure = None
	c.publishLocked()
	c.mu.Unlock()

	session, err := c.wallet.Connect(ctx)
	if err != nil {
		c.log.Warnw("Failed to connect wallet", "err", err)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.mustTransitionLocked(connectFailed)
		c.failure = Classify(err)
		c.publishLocked()
		return err
	}

	handle := c.bind(session)
	value, readErr := counter.Read(ctx, handle)
	if readErr != nil {
		c.log.Warnw("Failed to read counter", "contract", handle.Address().Hex(), "err", readErr)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.mustTransitionLocked(connected)
	c.handle = handle
	c.setValueLocked(value)
	c.failure = Classify(readErr)
	c.publishLocked()
	return readErr
}

// Refresh re-reads the counter while idle.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case Disconnected, Connecting:
		c.mu.Unlock()
		return ErrNotConnected
	case Submitting:
		c.mu.Unlock()
		return ErrBusy
	}
	handle, gen := c.handle, c.valueGen
	c.mu.Unlock()

	value, err := counter.Read(ctx, handle)
	if err != nil {
		c.log.Warnw("Failed to read counter", "contract", handle.Address().Hex(), "err", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valueGen != gen {
		// A submission landed meanwhile and its read is newer.
		return err
	}
	c.setValueLocked(value)
	c.failure = Classify(err)
	c.publishLocked()
	return err
}

// Submit validates input and, if it is an amount, increments the counter by it and
// refreshes the displayed value. While a submission is in flight further calls fail
// with ErrBusy without touching the network.
func (c *Controller) Submit(ctx context.Context, input string) error {
	c.mu.Lock()
	switch c.state {
	case Disconnected, Connecting:
		c.failure = NotConnected
		c.publishLocked()
		c.mu.Unlock()
		return ErrNotConnected
	case Submitting:
		c.mu.Unlock()
		return ErrBusy
	}

	amount, err := counter.ParseAmount(input)
	if err != nil {
		c.failure = InvalidInput
		c.publishLocked()
		c.mu.Unlock()
		c.log.Debugw("Rejected increment amount", "input", input, "err", err)
		return err
	}

	c.mustTransitionLocked(submitRequested)
	c.clearBannerLocked()
	c.failure = None
	handle := c.handle
	c.publishLocked()
	c.mu.Unlock()

	receipt, err := counter.Increment(ctx, handle, amount)
	if err != nil {
		c.log.Errorw("Failed to increment counter", "amount", amount.Dec(), "err", err)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.mustTransitionLocked(submitFinished)
		c.failure = Classify(err)
		c.publishLocked()
		return err
	}
	c.log.Infow("Incremented counter", "amount", amount.Dec(), "tx", receipt.TxHash.Hex(), "block", receipt.BlockNumber)

	value, readErr := counter.Read(ctx, handle)
	if readErr != nil {
		c.log.Warnw("Failed to read counter", "contract", handle.Address().Hex(), "err", readErr)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.mustTransitionLocked(submitFinished)
	c.setValueLocked(value)
	c.failure = Classify(readErr)
	c.armBannerLocked()
	c.publishLocked()
	return readErr
}

func (c *Controller) transitionLocked(e event) error {
	to, err := next(c.state, e)
	if err != nil {
		return err
	}
	c.state = to
	return nil
}

func (c *Controller) mustTransitionLocked(e event) {
	if err := c.transitionLocked(e); err != nil {
		// Should not happen.
		panic(err)
	}
}

func (c *Controller) setValueLocked(v *uint256.Int) {
	c.value = v
	c.valueGen++
}

func (c *Controller) armBannerLocked() {
	c.bannerGen++
	gen := c.bannerGen
	c.banner = SuccessBanner
	c.afterFunc(c.bannerDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.bannerGen != gen {
			return
		}
		c.banner = ""
		c.publishLocked()
	})
}

func (c *Controller) clearBannerLocked() {
	c.bannerGen++
	c.banner = ""
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:   c.state,
		Value:   c.value.Dec(),
		Banner:  c.banner,
		Kind:    c.failure,
		Message: c.failure.Message(),
	}
	if c.handle != nil {
		s.Account = c.handle.Account().Hex()
		s.Contract = c.handle.Address().Hex()
	}
	return s
}

func (c *Controller) publishLocked() {
	c.feed.send(c.snapshotLocked())
}
