package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NethermindEth/incrementer/node"
	"github.com/NethermindEth/incrementer/utils"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Version string

const greeting = `
  ___                                          _
 |_ _|_ __   ___ _ __ ___ _ __ ___   ___ _ __ | |_ ___ _ __
  | || '_ \ / __| '__/ _ \ '_ ' _ \ / _ \ '_ \| __/ _ \ '__|
  | || | | | (__| | |  __/ | | | | |  __/ | | | ||  __/ |
 |___|_| |_|\___|_|  \___|_| |_| |_|\___|_| |_|\__\___|_|

Incrementer keeps a counter on an Ethereum contract. Open the UI, connect a wallet and add to it.

`

const envPrefix = "INCREMENTER"

var defaultCORSOrigins = []string{"*"}

const (
	configF          = "config"
	logLevelF        = "log-level"
	colourF          = "colour"
	logFileF         = "log-file"
	networkF         = "network"
	ethNodeF         = "eth-node"
	contractAddressF = "contract-address"
	abiPathF         = "abi-path"
	keystoreF        = "keystore"
	accountF         = "account"
	passwordFileF    = "password-file"
	privateKeyF      = "private-key"
	httpHostF        = "http-host"
	httpPortF        = "http-port"
	corsOriginsF     = "cors-origins"
	bannerDelayF     = "banner-delay"
	txTimeoutF       = "tx-timeout"
	metricsF         = "metrics"
	metricsPortF     = "metrics-port"
	pprofF           = "pprof"
	pprofPortF       = "pprof-port"

	defaultConfig          = ""
	defaultColour          = true
	defaultLogFile         = ""
	defaultEthNode         = ""
	defaultContractAddress = ""
	defaultABIPath         = ""
	defaultKeystore        = ""
	defaultAccount         = ""
	defaultPasswordFile    = ""
	defaultPrivateKey      = ""
	defaultHTTPHost        = "localhost"
	defaultHTTPPort        = uint16(6070)
	defaultBannerDelay     = 3 * time.Second
	defaultTxTimeout       = time.Duration(0)
	defaultMetrics         = false
	defaultMetricsPort     = uint16(9090)
	defaultPprof           = false
	defaultPprofPort       = uint16(6062)

	configFlagUsage   = "The yaml configuration file."
	logLevelFlagUsage = "Options: trace, debug, info, warn, error."
	colourUsage       = "Use `--colour=false` command to disable colourized outputs (ANSI Escape Codes)."
	logFileUsage      = "Also write logs to this file, rotated by size."
	networkUsage      = "Options: mainnet, sepolia, holesky, localhost, custom. " +
		"The Ethereum endpoint must serve this network unless it is custom."
	ethNodeUsage = "The Ethereum JSON-RPC endpoint. Defaults to http://127.0.0.1:8545 on localhost " +
		"and is required for every other network."
	contractAddressUsage = "Address of the deployed Incrementer contract."
	abiPathUsage         = "Path to a compiled contract artifact (json with an abi field). " +
		"Defaults to the embedded Incrementer artifact."
	keystoreUsage     = "Directory of an encrypted Ethereum keystore to sign with."
	accountUsage      = "Keystore account to sign with. Defaults to the first account."
	passwordFileUsage = "File whose first line is the keystore passphrase. Prompts on the terminal when unset."
	privateKeyUsage   = "Hex private key to sign with. Intended for local development chains only."
	httpHostUsage     = "The interface on which the UI and API listen."
	httpPortUsage     = "The port on which the UI and API listen."
	corsOriginsUsage  = "Origins allowed to call the API and open the websocket. \"*\" allows any origin."
	bannerDelayUsage  = "How long the success banner stays up after an increment."
	txTimeoutUsage    = "Give up waiting for an increment to be mined after this long. 0 waits until cancelled."
	metricsUsage      = "Enables the Prometheus metrics endpoint on the default port."
	metricsPortUsage  = "The port on which the Prometheus endpoint listens."
	pprofUsage        = "Enables the pprof endpoint on the default port."
	pprofPortUsage    = "The port on which the pprof endpoint listens."
)

// NewCmd builds the root command and its subcommands. Each command loads the
// configuration with the precedence flag, environment, config file then default.
func NewCmd(newNodeFn node.NewFn) *cobra.Command {
	var cfgFile string
	incrementerCmd := &cobra.Command{
		Use:          "incrementer [flags]",
		Short:        "Counter dApp backed by an Ethereum contract.",
		Version:      Version,
		SilenceUsage: true,
	}

	defaultLogLevel := utils.NewLogLevel(utils.INFO)
	defaultNetwork := utils.Localhost

	flags := incrementerCmd.PersistentFlags()
	flags.StringVar(&cfgFile, configF, defaultConfig, configFlagUsage)
	flags.Var(defaultLogLevel, logLevelF, logLevelFlagUsage)
	flags.Bool(colourF, defaultColour, colourUsage)
	flags.String(logFileF, defaultLogFile, logFileUsage)
	flags.Var(&defaultNetwork, networkF, networkUsage)
	flags.String(ethNodeF, defaultEthNode, ethNodeUsage)
	flags.String(contractAddressF, defaultContractAddress, contractAddressUsage)
	flags.String(abiPathF, defaultABIPath, abiPathUsage)
	flags.String(keystoreF, defaultKeystore, keystoreUsage)
	flags.String(accountF, defaultAccount, accountUsage)
	flags.String(passwordFileF, defaultPasswordFile, passwordFileUsage)
	flags.String(privateKeyF, defaultPrivateKey, privateKeyUsage)
	flags.String(httpHostF, defaultHTTPHost, httpHostUsage)
	flags.Uint16(httpPortF, defaultHTTPPort, httpPortUsage)
	flags.StringSlice(corsOriginsF, defaultCORSOrigins, corsOriginsUsage)
	flags.Duration(bannerDelayF, defaultBannerDelay, bannerDelayUsage)
	flags.Duration(txTimeoutF, defaultTxTimeout, txTimeoutUsage)
	flags.Bool(metricsF, defaultMetrics, metricsUsage)
	flags.Uint16(metricsPortF, defaultMetricsPort, metricsPortUsage)
	flags.Bool(pprofF, defaultPprof, pprofUsage)
	flags.Uint16(pprofPortF, defaultPprofPort, pprofPortUsage)
	incrementerCmd.MarkFlagsMutuallyExclusive(keystoreF, privateKeyF)

	newNode := func(cmd *cobra.Command) (node.Incrementer, error) {
		cfg, err := loadConfig(cmd, cfgFile)
		if err != nil {
			return nil, err
		}
		return newNodeFn(cfg, Version)
	}

	incrementerCmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if _, err := fmt.Fprint(cmd.OutOrStdout(), greeting); err != nil {
			return err
		}
		n, err := newNode(cmd)
		if err != nil {
			return err
		}
		return n.Run(cmd.Context())
	}
	incrementerCmd.AddCommand(ReadCmd(newNode), IncrementCmd(newNode))
	return incrementerCmd
}

func loadConfig(cmd *cobra.Command, cfgFile string) (*node.Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigType("yaml")
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	cfg := new(node.Config)
	decodeHooks := mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHooks)); err != nil {
		return nil, errors.Join(errors.New("failed to load config"), err)
	}
	return cfg, nil
}
