package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

// Validate checks runtime config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}

	if err := validateURL(cfg.Wallet.RPC, "wallet.rpc"); err != nil {
		return err
	}
	if cfg.Wallet.Timeout < 0 {
		return fmt.Errorf("wallet.timeout must not be negative")
	}
	if cfg.Wallet.Malformed == "" {
		cfg.Wallet.Malformed = "abort"
	}
	switch cfg.Wallet.Malformed {
	case "abort", "drop":
	default:
		return fmt.Errorf("wallet.malformed must be abort or drop")
	}
	if cfg.Explorer.URL != "" {
		if err := validateURL(cfg.Explorer.URL, "explorer.url"); err != nil {
			return err
		}
	}

	if cfg.Box.MinValue == 0 {
		return fmt.Errorf("box.min_value must be positive")
	}
	if cfg.Fee.Network < cfg.Box.MinValue {
		return fmt.Errorf("fee.network (%d) is below box.min_value (%d)", cfg.Fee.Network, cfg.Box.MinValue)
	}
	if cfg.Fee.App < cfg.Box.MinValue {
		return fmt.Errorf("fee.app (%d) is below box.min_value (%d)", cfg.Fee.App, cfg.Box.MinValue)
	}
	if cfg.Fee.AppAddress == "" {
		return fmt.Errorf("fee.app_address is required")
	}
	addr, err := types.ParseNetworkAddress(cfg.Fee.AppAddress, cfg.NetworkByte())
	if err != nil {
		return fmt.Errorf("fee.app_address: %w", err)
	}
	if _, err := addr.Script(); err != nil {
		return fmt.Errorf("fee.app_address: %w", err)
	}
	if cfg.Fee.MinerTree == "" {
		cfg.Fee.MinerTree = MinerFeeTree
	}
	if b, err := hex.DecodeString(cfg.Fee.MinerTree); err != nil || len(b) == 0 {
		return fmt.Errorf("fee.miner_tree must be a non-empty hex script")
	}

	switch cfg.Storage.Backend {
	case "", "badger", "bolt", "memory":
	default:
		return fmt.Errorf("storage.backend must be badger, bolt or memory")
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "", "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
	}
	return nil
}

func validateURL(raw, field string) error {
	u, err := url.Parse(raw)
	if err != nil || raw == "" {
		return fmt.Errorf("%s must be a URL", field)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", field)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host", field)
	}
	return nil
}

// NetworkByte returns the address network of the configured network.
func (c *Config) NetworkByte() types.Network {
	if c.Network == Testnet {
		return types.Testnet
	}
	return types.Mainnet
}
