package config

import "github.com/Klingon-tech/hdwallet/pkg/types"

// Default wallet settings.
const (
	DefaultEntropyBits = 256
	DefaultAccount     = 0
)

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: types.Mainnet,
		DataDir: DefaultDataDir(),
		Wallet: WalletConfig{
			EntropyBits: DefaultEntropyBits,
			AddressType: types.P2WPKH,
			Account:     DefaultAccount,
			Workers:     0,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// Default returns the default configuration for the given network.
func Default(network types.Network) *Config {
	cfg := DefaultMainnet()
	if network.Valid() {
		cfg.Network = network
	}
	return cfg
}
