package node

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/NethermindEth/incrementer/chain"
	"github.com/NethermindEth/incrementer/contract"
	"github.com/NethermindEth/incrementer/controller"
	"github.com/NethermindEth/incrementer/counter"
	"github.com/NethermindEth/incrementer/service"
	"github.com/NethermindEth/incrementer/utils"
	"github.com/NethermindEth/incrementer/validator"
	"github.com/NethermindEth/incrementer/wallet"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sourcegraph/conc"
)

var ErrNoEthNode = errors.New("no Ethereum endpoint configured")

// Config is the top-level incrementer configuration.
type Config struct {
	LogLevel utils.LogLevel `mapstructure:"log-level"`
	Colour   bool           `mapstructure:"colour"`
	LogFile  string         `mapstructure:"log-file"`

	Network         utils.Network `mapstructure:"network" validate:"required"`
	EthNode         string        `mapstructure:"eth-node" validate:"omitempty,url"`
	ContractAddress string        `mapstructure:"contract-address" validate:"required,eth_addr"`
	ABIPath         string        `mapstructure:"abi-path" validate:"omitempty,file"`

	Keystore     string `mapstructure:"keystore" validate:"omitempty,dir,excluded_with=PrivateKey"`
	Account      string `mapstructure:"account" validate:"omitempty,eth_addr"`
	PasswordFile string `mapstructure:"password-file" validate:"omitempty,file"`
	PrivateKey   string `mapstructure:"private-key" validate:"omitempty,private_key"`

	HTTPHost    string        `mapstructure:"http-host" validate:"required"`
	HTTPPort    uint16        `mapstructure:"http-port"`
	CORSOrigins []string      `mapstructure:"cors-origins"`
	BannerDelay time.Duration `mapstructure:"banner-delay" validate:"min=0"`
	TxTimeout   time.Duration `mapstructure:"tx-timeout" validate:"min=0"`

	Metrics     bool   `mapstructure:"metrics"`
	MetricsPort uint16 `mapstructure:"metrics-port"`
	Pprof       bool   `mapstructure:"pprof"`
	PprofPort   uint16 `mapstructure:"pprof-port"`
}

// Incrementer is what the CLI drives: a long-running server plus one-shot commands.
type Incrementer interface {
	Run(ctx context.Context) error
	Read(ctx context.Context) (*uint256.Int, error)
	Increment(ctx context.Context, amount string) (controller.Snapshot, error)
	Config() Config
}

type NewFn func(cfg *Config, version string) (Incrementer, error)

type Node struct {
	cfg     *Config
	backend chain.Backend
	closeFn func()

	address    common.Address
	abi        abi.ABI
	listener   counter.EventListener
	registry   *prometheus.Registry
	controller *controller.Controller

	log     utils.Logger
	version string
}

var _ Incrementer = (*Node)(nil)

// New validates cfg, builds the logger and dials the Ethereum endpoint. Dialling HTTP
// endpoints is lazy, so an unreachable node only surfaces in Run or the one-shot
// commands.
func New(cfg *Config, version string) (*Node, error) {
	if err := validator.Validator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ethNode := cfg.EthNode
	if ethNode == "" {
		if ethNode = cfg.Network.DefaultEthNode(); ethNode == "" {
			return nil, fmt.Errorf("%w: set eth-node for network %s", ErrNoEthNode, cfg.Network)
		}
	}

	client, err := chain.Dial(context.Background(), ethNode)
	if err != nil {
		return nil, err
	}
	n, err := newNode(cfg, version, client, client.Close)
	if err != nil {
		client.Close()
		return nil, err
	}
	n.log.Infow("Using Ethereum endpoint", "url", ethNode, "network", cfg.Network)
	return n, nil
}

func newNode(cfg *Config, version string, backend chain.Backend, closeFn func()) (*Node, error) {
	log, err := utils.NewZapLogger(&cfg.LogLevel, cfg.Colour, cfg.LogFile)
	if err != nil {
		return nil, err
	}

	artifact := contract.DefaultArtifact()
	if cfg.ABIPath != "" {
		if artifact, err = contract.LoadArtifact(cfg.ABIPath); err != nil {
			return nil, err
		}
	}
	parsed, err := artifact.Parse()
	if err != nil {
		return nil, err
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}

	n := &Node{
		cfg:      cfg,
		backend:  backend,
		closeFn:  closeFn,
		address:  common.HexToAddress(cfg.ContractAddress),
		abi:      parsed,
		listener: &counter.SelectiveListener{},
		registry: prometheus.NewRegistry(),
		log:      log,
		version:  version,
	}
	if cfg.Metrics {
		n.listener = makeCounterMetrics(n.registry)
	}

	connector := wallet.NewConnector(provider, backend, log.Named("wallet"))
	n.controller = controller.New(connector, n.bind, log.Named("controller"))
	if cfg.BannerDelay > 0 {
		n.controller.WithBannerDelay(cfg.BannerDelay)
	}
	if cfg.Metrics {
		makeControllerMetrics(n.registry, n.controller)
	}
	return n, nil
}

func (n *Node) bind(session *wallet.Session) *counter.Handle {
	return counter.Bind(n.address, n.abi, n.backend, session).
		WithListener(n.listener).
		WithConfirmationTimeout(n.cfg.TxTimeout)
}

// Run checks the endpoint serves the configured network, then serves the UI and, if
// enabled, metrics and pprof until ctx is cancelled or a service fails.
func (n *Node) Run(ctx context.Context) error {
	defer n.closeFn()

	chainID, err := chain.CheckChainID(ctx, n.backend, n.cfg.Network)
	if err != nil {
		n.log.Errorw("Ethereum endpoint check failed", "err", err)
		return err
	}

	services, err := n.makeServices()
	if err != nil {
		return err
	}
	n.log.Infow("Starting incrementer", "version", n.version, "chainID", chainID,
		"contract", n.address.Hex(), "ui", fmt.Sprintf("http://%s:%d", n.cfg.HTTPHost, n.cfg.HTTPPort))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var runErr error
	errCh := make(chan error, len(services))
	wg := conc.NewWaitGroup()
	for _, s := range services {
		wg.Go(func() {
			if err := s.Run(ctx); err != nil {
				n.log.Errorw("Service error", "name", reflect.TypeOf(s), "err", err)
				errCh <- err
				cancel()
			}
		})
	}

	<-ctx.Done()
	wg.Wait()
	close(errCh)
	for err := range errCh {
		runErr = errors.Join(runErr, err)
	}
	n.log.Infow("Shutting down incrementer...")
	return runErr
}

// makeServices opens every listener up front. If one fails the ones already open are
// closed again.
func (n *Node) makeServices() ([]service.Service, error) {
	built := make([]*httpService, 0, 3)
	fail := func(err error) ([]service.Service, error) {
		for _, s := range built {
			if closeErr := s.Close(); closeErr != nil {
				n.log.Warnw("Failed to close listener", "addr", s.Addr(), "err", closeErr)
			}
		}
		return nil, err
	}

	ui, err := makeUI(n.cfg.HTTPHost, n.cfg.HTTPPort, n.controller, n.cfg, n.log)
	if err != nil {
		return fail(err)
	}
	built = append(built, ui)

	if n.cfg.Metrics {
		metrics, err := makeMetrics(n.cfg.HTTPHost, n.cfg.MetricsPort, n.registry)
		if err != nil {
			return fail(err)
		}
		built = append(built, metrics)
	}
	if n.cfg.Pprof {
		pprof, err := makePPROF(n.cfg.HTTPHost, n.cfg.PprofPort)
		if err != nil {
			return fail(err)
		}
		built = append(built, pprof)
	}

	services := make([]service.Service, 0, len(built))
	for _, s := range built {
		services = append(services, s)
	}
	return services, nil
}

// Read returns the current counter value without a wallet.
func (n *Node) Read(ctx context.Context) (*uint256.Int, error) {
	defer n.closeFn()

	if _, err := chain.CheckChainID(ctx, n.backend, n.cfg.Network); err != nil {
		return new(uint256.Int), err
	}
	return counter.Read(ctx, counter.Bind(n.address, n.abi, n.backend, nil).WithListener(n.listener))
}

// Increment connects the configured wallet and submits a single increment. A failed
// read after connecting does not stop the submission.
func (n *Node) Increment(ctx context.Context, amount string) (controller.Snapshot, error) {
	defer n.closeFn()

	if _, err := chain.CheckChainID(ctx, n.backend, n.cfg.Network); err != nil {
		return n.controller.Snapshot(), err
	}
	if err := n.controller.Connect(ctx); err != nil && !n.controller.State().Connected() {
		return n.controller.Snapshot(), err
	}
	err := n.controller.Submit(ctx, amount)
	return n.controller.Snapshot(), err
}

func (n *Node) Config() Config {
	return *n.cfg
}

func (n *Node) Controller() *controller.Controller {
	return n.controller
}
