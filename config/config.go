// Package config handles hdwallet-cli configuration.
//
// Settings are resolved in order: built-in defaults, the hdwallet.conf file
// in the data directory, then global command-line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/Klingon-tech/hdwallet/pkg/types"
)

// ConfigFileName is the name of the config file inside the data directory.
const ConfigFileName = "hdwallet.conf"

// Config holds the CLI runtime configuration.
type Config struct {
	// Core
	Network types.Network `conf:"network"`
	DataDir string        `conf:"datadir"`

	// Wallet defaults for new wallets and derivation
	Wallet WalletConfig

	// Logging
	Log LogConfig
}

// WalletConfig holds defaults used when creating wallets and deriving keys.
type WalletConfig struct {
	EntropyBits int               `conf:"wallet.entropy"` // 128..256, multiple of 32
	AddressType types.AddressType `conf:"wallet.type"`    // p2wpkh or p2pkh
	Account     uint32            `conf:"wallet.account"`
	Workers     int               `conf:"wallet.workers"` // scan workers, 0 = GOMAXPROCS
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
//	Linux:   ~/.hdwallet
//	macOS:   ~/Library/Application Support/HDWallet
//	Windows: %APPDATA%\HDWallet
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hdwallet"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "HDWallet")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "HDWallet")
		}
		return filepath.Join(home, "AppData", "Roaming", "HDWallet")
	default:
		return filepath.Join(home, ".hdwallet")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// KeystoreDir returns the encrypted wallet directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.NetworkDataDir(), "keystore")
}

// IndexDir returns the address index database directory.
func (c *Config) IndexDir() string {
	return filepath.Join(c.NetworkDataDir(), "index")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, ConfigFileName)
}
