package config

import "time"

// DefaultAppFeeAddress receives the operator fee on mainnet.
const DefaultAppFeeAddress = "9hDPCYffeTEAcShngRGNMJsWddCUQLpNzAqwM9hQyx2w6qubmab"

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		Wallet: WalletConfig{
			RPC:       "http://127.0.0.1:9053",
			Timeout:   10 * time.Second,
			Malformed: "abort",
		},
		Explorer: ExplorerConfig{
			URL:     "https://api.ergoplatform.com",
			Timeout: 10 * time.Second,
		},
		Fee: FeeConfig{
			Network:    DefaultNetworkFee,
			App:        DefaultAppFee,
			AppAddress: DefaultAppFeeAddress,
			MinerTree:  MinerFeeTree,
		},
		Box: BoxConfig{
			MinValue: DefaultMinBoxValue,
		},
		Storage: StorageConfig{
			Backend: "badger",
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default configuration for testnet. There is
// no default operator address; fee.app_address must be configured.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.Wallet.RPC = "http://127.0.0.1:9052"
	cfg.Explorer.URL = "https://api-testnet.ergoplatform.com"
	cfg.Fee.AppAddress = ""
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	default:
		return DefaultMainnet()
	}
}
