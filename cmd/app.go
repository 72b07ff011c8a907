package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stellar-swap/config"
	"stellar-swap/pkg/client"
	"stellar-swap/pkg/contract"
	"stellar-swap/pkg/metrics"
	"stellar-swap/pkg/rates"
	"stellar-swap/pkg/swap"
	"stellar-swap/pkg/types"
	"stellar-swap/pkg/wallet"
)

// promptOutput receives wallet prompts; stdout is reserved for command output
var promptOutput io.Writer = os.Stderr

// newPrompter returns the approval prompter for wallet requests
func newPrompter(autoApprove bool, in io.Reader, out io.Writer) wallet.Prompter {
	if autoApprove {
		return wallet.AutoApprove{}
	}
	return wallet.NewTerminalPrompter(in, out)
}

// app bundles the clients a command needs
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	metrics *metrics.Metrics
	rpc     *client.RPCClient
	horizon *client.HorizonClient
	builder *contract.Builder
	wallets *wallet.Manager
	table   *rates.Table
}

// newApp loads configuration and wires the network clients
func newApp(cmd *cobra.Command, withMetrics bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	autoApprove, _ := cmd.Flags().GetBool("yes")
	if walletID, _ := cmd.Flags().GetString("wallet"); walletID != "" {
		cfg.Wallet = walletID
	}

	a := &app{
		cfg:    cfg,
		logger: newLogger(cfg.LogLevel, verbose),
		table:  rates.Default(),
	}

	if withMetrics {
		a.metrics = metrics.New(metrics.DefaultNamespace, prometheus.NewRegistry())
	}

	a.rpc = client.NewRPCClient(cfg.RPCURL,
		client.WithTimeout(cfg.RPCTimeout),
		client.WithMetrics(a.metrics),
	)
	a.horizon = client.NewHorizonClient(cfg.HorizonURL, &http.Client{Timeout: cfg.RPCTimeout})

	a.builder, err = contract.NewBuilder(cfg.ContractID, cfg.NetworkPassphrase, cfg.BaseFee, cfg.TxTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid contract configuration: %w", err)
	}

	prompter := newPrompter(autoApprove, os.Stdin, promptOutput)
	network := wallet.Network{Name: cfg.NetworkName(), Passphrase: cfg.NetworkPassphrase}
	a.wallets = wallet.NewManager(wallet.BrowserWallets(network)...)
	if err := a.wallets.Register(wallet.NewKeystore(cfg.SecretKey, network, prompter)); err != nil {
		return nil, err
	}

	// "auto" picks the first available wallet
	if strings.EqualFold(cfg.Wallet, "auto") {
		if w, ok := a.wallets.Default(context.Background()); ok {
			cfg.Wallet = w.ID()
		}
	}

	return a, nil
}

// selectedWallet returns the configured wallet backend
func (a *app) selectedWallet() (wallet.Wallet, error) {
	w, ok := a.wallets.Get(a.cfg.Wallet)
	if !ok {
		return nil, fmt.Errorf("unknown wallet '%s' (run 'stellar-swap wallets' to list them)", a.cfg.Wallet)
	}
	return w, nil
}

// connect connects the configured wallet and loads the account balance
func (a *app) connect(ctx context.Context) (*types.WalletSession, error) {
	return swap.Connect(ctx, a.wallets, a.horizon, a.cfg.Wallet)
}

// counter creates the read-side swap counter
func (a *app) counter() *swap.Counter {
	return swap.NewCounter(swap.NewCounterReader(a.horizon, a.rpc, a.builder), a.logger)
}
