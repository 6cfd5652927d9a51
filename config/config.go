// Package config handles application configuration.
//
// Configuration is split into two categories:
//   - Protocol constants: box limits and the miner fee script, fixed by the
//     network (protocol.go)
//   - Client settings: wallet bridge, explorer, fee schedule, storage and
//     logging, which can vary per installation
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// =============================================================================
// Client Configuration
// =============================================================================

// Config holds runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Wallet bridge
	Wallet WalletConfig

	// Block explorer
	Explorer ExplorerConfig

	// Fee schedule and dust floor
	Fee FeeConfig
	Box BoxConfig

	// Token metadata cache
	Storage StorageConfig

	// Logging
	Log LogConfig
}

// WalletConfig holds wallet bridge settings.
type WalletConfig struct {
	RPC       string        `conf:"wallet.rpc"`       // JSON-RPC endpoint of the wallet bridge
	Timeout   time.Duration `conf:"wallet.timeout"`   // Per-call timeout (signing is unbounded)
	Malformed string        `conf:"wallet.malformed"` // abort or drop
}

// ExplorerConfig holds block explorer settings.
type ExplorerConfig struct {
	URL     string        `conf:"explorer.url"`
	Timeout time.Duration `conf:"explorer.timeout"`
}

// FeeConfig holds the fee schedule, in nanoERG.
type FeeConfig struct {
	Network    uint64 `conf:"fee.network"`     // Miner fee
	App        uint64 `conf:"fee.app"`         // Operator fee
	AppAddress string `conf:"fee.app_address"` // Operator address
	MinerTree  string `conf:"fee.miner_tree"`  // Hex script paying the miner
}

// BoxConfig holds output limits.
type BoxConfig struct {
	MinValue uint64 `conf:"box.min_value"` // Dust floor, in nanoERG
}

// StorageConfig selects the metadata cache backend.
type StorageConfig struct {
	Backend string `conf:"storage.backend"` // badger, bolt or memory
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.klingnet-mint
//	macOS:   ~/Library/Application Support/KlingnetMint
//	Windows: %APPDATA%\KlingnetMint
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingnet-mint"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "KlingnetMint")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "KlingnetMint")
		}
		return filepath.Join(home, "AppData", "Roaming", "KlingnetMint")
	default:
		return filepath.Join(home, ".klingnet-mint")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// StorageDir returns the token metadata cache directory. It is shared by
// all networks; each network reads its own namespace.
func (c *Config) StorageDir() string {
	return filepath.Join(c.DataDir, "cache")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "klingnet-mint.conf")
}
