package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NethermindEth/incrementer/chain"
	"github.com/NethermindEth/incrementer/controller"
	"github.com/NethermindEth/incrementer/counter"
	"github.com/NethermindEth/incrementer/internal/testchain"
	"github.com/NethermindEth/incrementer/utils"
	"github.com/NethermindEth/incrementer/wallet"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) uint16 {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return uint16(port)
}

func newTestNode(t *testing.T, initial uint64, modify func(cfg *Config)) (*Node, *testchain.Chain) {
	t.Helper()

	sim := testchain.New(t)
	return newTestNodeOn(t, sim, sim.Client(), initial, modify), sim
}

func newTestNodeOn(t *testing.T, sim *testchain.Chain, backend chain.Backend, initial uint64, modify func(cfg *Config)) *Node {
	t.Helper()

	cfg := &Config{
		LogLevel:        *utils.NewLogLevel(utils.ERROR),
		Network:         utils.Custom,
		ContractAddress: sim.Deploy(t, initial).Hex(),
		PrivateKey:      hexutil.Encode(crypto.FromECDSA(sim.Key)),
		HTTPHost:        "127.0.0.1",
		HTTPPort:        freePort(t),
		BannerDelay:     time.Minute,
	}
	if modify != nil {
		modify(cfg)
	}

	n, err := newNode(cfg, "v0.0.1-test", backend, func() {})
	require.NoError(t, err)
	return n
}

// flakyBackend fails the first failures contract calls.
type flakyBackend struct {
	chain.Backend
	failures atomic.Int32
}

func (b *flakyBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if b.failures.Add(-1) >= 0 {
		return nil, errors.New("connection reset by peer")
	}
	return b.Backend.CallContract(ctx, call, blockNumber)
}

func TestRead(t *testing.T) {
	n, _ := newTestNode(t, 5, nil)

	value, err := n.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(5), value)
}

func TestIncrement(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		n, sim := newTestNode(t, 5, nil)

		snapshot, err := n.Increment(context.Background(), "3")
		require.NoError(t, err)
		assert.Equal(t, "8", snapshot.Value)
		assert.Equal(t, controller.SuccessBanner, snapshot.Banner)
		assert.Equal(t, sim.Account.Hex(), snapshot.Account)
	})

	t.Run("invalid amount", func(t *testing.T) {
		n, _ := newTestNode(t, 5, nil)

		snapshot, err := n.Increment(context.Background(), "three")
		require.ErrorIs(t, err, counter.ErrInvalidAmount)
		assert.Equal(t, "5", snapshot.Value)
		assert.Equal(t, controller.InvalidInput, snapshot.Kind)
	})

	t.Run("read failure after connecting", func(t *testing.T) {
		sim := testchain.New(t)
		backend := &flakyBackend{Backend: sim.Client()}
		backend.failures.Store(1)
		n := newTestNodeOn(t, sim, backend, 5, nil)

		snapshot, err := n.Increment(context.Background(), "3")
		require.NoError(t, err)
		assert.Equal(t, "8", snapshot.Value)
		assert.Equal(t, controller.None, snapshot.Kind)
	})

	t.Run("no wallet configured", func(t *testing.T) {
		n, _ := newTestNode(t, 5, func(cfg *Config) { cfg.PrivateKey = "" })

		snapshot, err := n.Increment(context.Background(), "3")
		require.ErrorIs(t, err, wallet.ErrEnvironmentMissing)
		assert.Equal(t, controller.Disconnected, snapshot.State)
	})
}

func TestChainMismatch(t *testing.T) {
	n, _ := newTestNode(t, 5, func(cfg *Config) { cfg.Network = utils.Mainnet })

	_, err := n.Read(context.Background())
	require.ErrorIs(t, err, chain.ErrChainMismatch)

	_, err = n.Increment(context.Background(), "1")
	require.ErrorIs(t, err, chain.ErrChainMismatch)

	require.ErrorIs(t, n.Run(context.Background()), chain.ErrChainMismatch)
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, http.NoBody)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestRun(t *testing.T) {
	n, _ := newTestNode(t, 5, func(cfg *Config) {
		cfg.Metrics = true
		cfg.MetricsPort = freePort(t)
		cfg.Pprof = true
		cfg.PprofPort = freePort(t)
	})
	cfg := n.Config()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- n.Run(ctx)
	}()

	base := fmt.Sprintf("http://127.0.0.1:%d", cfg.HTTPPort)
	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", cfg.HTTPPort))
		if err != nil {
			return false
		}
		return conn.Close() == nil
	}, 5*time.Second, 10*time.Millisecond)

	code, body := get(t, base+"/api/state")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"state":"disconnected"`)

	code, body = get(t, base+"/log/level")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "error\n", body)

	require.NoError(t, n.Controller().Connect(ctx))

	code, body = get(t, fmt.Sprintf("http://127.0.0.1:%d/metrics", cfg.MetricsPort))
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "incrementer_controller_state 2")
	assert.Contains(t, body, `incrementer_contract_calls{method="getValue",result="ok"} 1`)

	code, _ = get(t, fmt.Sprintf("http://127.0.0.1:%d/debug/pprof/", cfg.PprofPort))
	assert.Equal(t, http.StatusOK, code)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		require.FailNow(t, "node did not shut down")
	}
}

func TestRunPortInUse(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	n, _ := newTestNode(t, 0, func(cfg *Config) {
		cfg.HTTPPort = uint16(l.Addr().(*net.TCPAddr).Port)
	})
	require.Error(t, n.Run(context.Background()))
}

func TestRunReleasesListenersOnFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	n, _ := newTestNode(t, 0, func(cfg *Config) {
		cfg.Metrics = true
		cfg.MetricsPort = uint16(l.Addr().(*net.TCPAddr).Port)
	})
	require.Error(t, n.Run(context.Background()))

	ui, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", n.Config().HTTPPort))
	require.NoError(t, err)
	require.NoError(t, ui.Close())
}
