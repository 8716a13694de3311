package config

import (
	"fmt"
	"strings"

	"github.com/Klingon-tech/hdwallet/pkg/types"
)

// MaxWorkers caps batch derivation goroutines.
const MaxWorkers = 256

var logLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true,
	"error": true, "disabled": true, "off": true,
}

// Validate checks the config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if !cfg.Network.Valid() {
		return fmt.Errorf("network must be one of %q, %q or %q", types.Mainnet, types.Testnet, types.Regtest)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("datadir must not be empty")
	}

	bits := cfg.Wallet.EntropyBits
	if bits < 128 || bits > 256 || bits%32 != 0 {
		return fmt.Errorf("wallet.entropy must be 128, 160, 192, 224 or 256, got %d", bits)
	}
	if cfg.Wallet.AddressType != types.P2WPKH && cfg.Wallet.AddressType != types.P2PKH {
		return fmt.Errorf("wallet.type must be %q or %q", types.P2WPKH, types.P2PKH)
	}
	if cfg.Wallet.Account >= 1<<31 {
		return fmt.Errorf("wallet.account must be below 2^31")
	}
	if cfg.Wallet.Workers < 0 || cfg.Wallet.Workers > MaxWorkers {
		return fmt.Errorf("wallet.workers must be in range [0, %d]", MaxWorkers)
	}

	if !logLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
	}
	return nil
}
