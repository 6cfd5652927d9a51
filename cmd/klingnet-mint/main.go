// klingnet-mint mints and burns tokens through an external signing wallet.
//
// Usage:
//
//	klingnet-mint [global flags] <command> [flags]
//	klingnet-mint --help
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Klingon-tech/klingnet-mint/config"
	"github.com/Klingon-tech/klingnet-mint/internal/explorer"
	"github.com/Klingon-tech/klingnet-mint/internal/log"
	"github.com/Klingon-tech/klingnet-mint/internal/pipeline"
	"github.com/Klingon-tech/klingnet-mint/internal/storage"
	"github.com/Klingon-tech/klingnet-mint/internal/token"
	"github.com/Klingon-tech/klingnet-mint/internal/wallet"
	"github.com/Klingon-tech/klingnet-mint/internal/walletclient"
	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	flags, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		usage()
		os.Exit(1)
	}
	if flags.Version {
		fmt.Printf("klingnet-mint %s\n", version)
		return
	}
	if flags.Help || len(flags.Args) == 0 {
		usage()
		if !flags.Help {
			os.Exit(1)
		}
		return
	}

	cmd := flags.Args[0]
	cmdArgs := flags.Args[1:]

	// Commands that need no configuration.
	switch cmd {
	case "help":
		usage()
		return
	case "version":
		fmt.Printf("klingnet-mint %s\n", version)
		return
	case "config":
		cmdConfig(flags, cmdArgs)
		return
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fatal("%v", err)
	}
	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("init logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "mint":
		withApp(cfg, func(a *app) error { return cmdMint(ctx, a, cmdArgs) })
	case "burn":
		withApp(cfg, func(a *app) error { return cmdBurn(ctx, a, cmdArgs) })
	case "tokens":
		withApp(cfg, func(a *app) error { return cmdTokens(ctx, a, cmdArgs) })
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: klingnet-mint [global flags] <command> [flags]

Global flags:
  --network <net>       mainnet (default) or testnet
  --testnet             Shorthand for --network=testnet
  --datadir <path>      Data directory (default: ~/.klingnet-mint)
  --config, -c <file>   Config file (default: <datadir>/klingnet-mint.conf)
  --wallet-rpc <url>    Wallet bridge endpoint (default: http://127.0.0.1:9053)
  --explorer <url>      Explorer API used for token metadata
  --storage <backend>   Metadata cache: badger (default), bolt or memory
  --log-level <lvl>     debug, info, warn, error or disabled
  --log-file <path>     Also write JSON logs to a file
  --log-json            Log as JSON

Commands:
  mint --name <n> --quantity <q> [opts]
                                  Mint a new token
  burn --token <id>:<amount> [--token ...] [opts]
                                  Burn tokens held by the wallet
  tokens [--cached|--clear-cache] [--json]
                                  List tokens held by the wallet
  config init                     Write a default config file
  version                         Show version information
  help                            Show this message

Amounts given to --ergs are in ERG; fees in the config file are in nanoERG.
Use --dry-run with mint or burn to print the unsigned transaction without
asking the wallet to sign it.
`)
}

// ── Wiring ──────────────────────────────────────────────────────────────

// app holds the collaborators shared by wallet commands.
type app struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	tokens   *token.Store
	cache    *storage.Namespace
}

// withApp wires the pipeline for cfg, runs fn and releases the cache
// before reporting fn's error.
func withApp(cfg *config.Config, fn func(*app) error) {
	a, closeFn, err := newApp(cfg)
	if err != nil {
		fatal("%v", err)
	}
	err = fn(a)
	closeFn()
	if err != nil {
		fatal("%s", describe(err))
	}
}

func newApp(cfg *config.Config) (*app, func(), error) {
	params, err := pipelineParams(cfg)
	if err != nil {
		return nil, nil, err
	}

	client := walletclient.NewWithTimeout(cfg.Wallet.RPC, cfg.Wallet.Timeout)
	p, err := pipeline.New(walletclient.NewWallet(client), params)
	if err != nil {
		return nil, nil, err
	}

	if err := config.EnsureDataDirs(cfg); err != nil {
		return nil, nil, err
	}
	db, err := storage.Open(cfg.Storage.Backend, cfg.StorageDir())
	if err != nil {
		return nil, nil, fmt.Errorf("open metadata cache: %w", err)
	}
	ns, err := storage.NewNamespace(db, string(cfg.Network))
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	store := token.NewStore(ns)

	var src pipeline.TokenSource
	if cfg.Explorer.URL != "" {
		src = explorer.New(cfg.Explorer.URL, cfg.Explorer.Timeout)
	}
	p.SetTokenSource(src, store)

	log.Pipeline.Debug().
		Str("network", string(cfg.Network)).
		Str("wallet", client.Endpoint()).
		Str("explorer", cfg.Explorer.URL).
		Str("storage", cfg.Storage.Backend).
		Msg("Pipeline ready")

	closeFn := func() {
		if err := db.Close(); err != nil {
			log.Storage.Warn().Err(err).Msg("Failed to close metadata cache")
		}
	}
	return &app{cfg: cfg, pipeline: p, tokens: store, cache: ns}, closeFn, nil
}

// pipelineParams converts validated configuration into pipeline parameters.
func pipelineParams(cfg *config.Config) (pipeline.Params, error) {
	network := cfg.NetworkByte()
	addr, err := types.ParseNetworkAddress(cfg.Fee.AppAddress, network)
	if err != nil {
		return pipeline.Params{}, fmt.Errorf("fee.app_address: %w", err)
	}
	tree, err := types.ParseScript(cfg.Fee.MinerTree)
	if err != nil {
		return pipeline.Params{}, fmt.Errorf("fee.miner_tree: %w", err)
	}
	policy, err := pipeline.ParseMalformedPolicy(cfg.Wallet.Malformed)
	if err != nil {
		return pipeline.Params{}, err
	}
	return pipeline.Params{
		Network:       network,
		MinBoxValue:   types.NewAmount(cfg.Box.MinValue),
		NetworkFee:    types.NewAmount(cfg.Fee.Network),
		AppFee:        types.NewAmount(cfg.Fee.App),
		AppFeeAddress: addr,
		MinerFeeTree:  tree,
		Malformed:     policy,
	}, nil
}

// ── Error helpers ───────────────────────────────────────────────────────

// describe turns pipeline errors into something an operator can act on.
func describe(err error) string {
	var funds *wallet.InsufficientFundsError
	var invalid *pipeline.ValidationError
	switch {
	case errors.As(err, &invalid):
		return fmt.Sprintf("invalid %s: %s", invalid.Field, invalid.Reason)
	case errors.As(err, &funds) && funds.IsValueBound():
		return fmt.Sprintf("%v\nBox value out of bounds: the wallet cannot cover this request; fund the wallet, or increase the amount sent (--ergs) when the change would be below the minimum box value.", err)
	case errors.As(err, &funds) && funds.IsTokenBound():
		return fmt.Sprintf("%v\nThe wallet does not hold the tokens requested; check 'klingnet-mint tokens'.", err)
	case errors.Is(err, pipeline.ErrSigningRejected):
		return "signing was declined in the wallet; nothing was submitted"
	case errors.Is(err, pipeline.ErrMalformedBox):
		return fmt.Sprintf("%v\nSet wallet.malformed = drop to skip unreadable boxes.", err)
	case errors.Is(err, context.Canceled):
		return "interrupted"
	default:
		return err.Error()
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
