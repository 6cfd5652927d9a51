package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key = value
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "network":
		cfg.Network = NetworkType(value)
	case "datadir":
		cfg.DataDir = value

	// Wallet bridge
	case "wallet.rpc":
		cfg.Wallet.RPC = value
	case "wallet.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Wallet.Timeout = d
	case "wallet.malformed":
		cfg.Wallet.Malformed = strings.ToLower(value)

	// Explorer
	case "explorer.url", "explorer":
		cfg.Explorer.URL = value
	case "explorer.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Explorer.Timeout = d

	// Fees (nanoERG)
	case "fee.network":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Fee.Network = n
	case "fee.app":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Fee.App = n
	case "fee.app_address":
		cfg.Fee.AppAddress = value
	case "fee.miner_tree":
		cfg.Fee.MinerTree = strings.ToLower(value)

	// Boxes
	case "box.min_value":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Box.MinValue = n

	// Storage
	case "storage.backend":
		cfg.Storage.Backend = strings.ToLower(value)

	// Logging
	case "log.level":
		cfg.Log.Level = strings.ToLower(value)
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	def := Default(network)
	appAddress := "fee.app_address = " + def.Fee.AppAddress
	if def.Fee.AppAddress == "" {
		appAddress = "# fee.app_address = <operator address>"
	}

	content := `# Klingnet Mint Configuration
#
# Amounts are in nanoERG (1 ERG = 1000000000 nanoERG).

# Network: mainnet or testnet
network = ` + string(network) + `

# Data directory (default: ~/.klingnet-mint)
# datadir = ~/.klingnet-mint

# ============================================================================
# Wallet bridge (JSON-RPC, holds the keys and signs)
# ============================================================================

wallet.rpc = ` + def.Wallet.RPC + `
wallet.timeout = 10s

# What to do with boxes the wallet returns that do not parse:
# abort (fail the request) or drop (skip them)
wallet.malformed = abort

# ============================================================================
# Block explorer (token metadata lookups)
# ============================================================================

explorer.url = ` + def.Explorer.URL + `
# explorer.timeout = 10s

# ============================================================================
# Fees
# ============================================================================

fee.network = ` + strconv.FormatUint(def.Fee.Network, 10) + `
fee.app = ` + strconv.FormatUint(def.Fee.App, 10) + `
` + appAddress + `

# Script paying the block miner (hex). Leave unset for the network default.
# fee.miner_tree =

# Minimum value of every output
box.min_value = ` + strconv.FormatUint(def.Box.MinValue, 10) + `

# ============================================================================
# Storage (token metadata cache): badger, bolt or memory
# ============================================================================

storage.backend = badger

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
