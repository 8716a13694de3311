package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Klingon-tech/hdwallet/pkg/types"
)

// LoadFile loads configuration values from a .conf file.
// Format: key = value (one per line, # for comments). A missing file
// yields no values.
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
		net, err := types.ParseNetwork(value)
		if err != nil {
			return err
		}
		cfg.Network = net
	case "datadir":
		cfg.DataDir = value

	// Wallet
	case "wallet.entropy":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Wallet.EntropyBits = n
	case "wallet.type":
		t, err := types.ParseAddressType(value)
		if err != nil {
			return err
		}
		cfg.Wallet.AddressType = t
	case "wallet.account":
		n, err := strconv.ParseUint(value, 10, 31)
		if err != nil {
			return err
		}
		cfg.Wallet.Account = uint32(n)
	case "wallet.workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Wallet.Workers = n

	// Logging
	case "log.level":
		cfg.Log.Level = value
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
func WriteDefaultConfig(path string, network types.Network) error {
	content := `# hdwallet-cli configuration
#
# Global flags given on the command line override these values.

# Network: mainnet, testnet or regtest
network = ` + string(network) + `

# Data directory (default: ~/.hdwallet)
# datadir = ~/.hdwallet

# ============================================================================
# Wallet defaults
# ============================================================================

# Mnemonic strength in bits: 128, 160, 192, 224 or 256 (12 to 24 words)
wallet.entropy = 256

# Address type for new wallets: p2wpkh (BIP-84) or p2pkh (BIP-44)
wallet.type = p2wpkh

# Account number used for new wallets
wallet.account = 0

# Workers for batch derivation (0 = one per CPU)
# wallet.workers = 0

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0600)
}
