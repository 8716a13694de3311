package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Klingon-tech/hdwallet/pkg/types"
)

// Version is the hdwallet-cli version string.
const Version = "0.1.0"

// Flags holds parsed global command-line flags. Flags must precede the
// sub-command; everything from the sub-command on is left in Args.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	Network string
	Testnet bool
	Regtest bool
	DataDir string
	Config  string

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args (sub-command and its flags)
	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetLogJSON bool
}

// ParseFlags parses global flags from args (without the program name).
// -h and --help set Help rather than failing.
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("hdwallet-cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")

	// Core
	fs.StringVar(&f.Network, "network", "", "Network: mainnet, testnet or regtest")
	fs.BoolVar(&f.Testnet, "testnet", false, "Use testnet (shorthand for --network=testnet)")
	fs.BoolVar(&f.Regtest, "regtest", false, "Use regtest (shorthand for --network=regtest)")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			f.Help = true
			return f, nil
		}
		return nil, err
	}

	if f.Testnet && f.Regtest {
		return nil, fmt.Errorf("--testnet and --regtest are mutually exclusive")
	}
	switch {
	case f.Testnet:
		f.Network = string(types.Testnet)
	case f.Regtest:
		f.Network = string(types.Regtest)
	}
	f.SetLogJSON = isFlagSet(fs, "log-json")
	f.Args = fs.Args()
	return f, nil
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) error {
	// Core
	if f.Network != "" {
		net, err := types.ParseNetwork(f.Network)
		if err != nil {
			return err
		}
		cfg.Network = net
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	// Logging
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
	return nil
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// PrintUsage writes the global help text.
func PrintUsage(w io.Writer) {
	usage := `hdwallet-cli - BIP-32/39/44/84 hierarchical deterministic wallet tool

Usage:
  hdwallet-cli [global options] <command> [command options]

Commands:
  create        Generate a new mnemonic and store an encrypted wallet
  restore       Import an existing mnemonic into the keystore
  validate      Check a mnemonic (word count, words, checksum)
  derive        Derive the key and address at a path
  new-address   Derive and record the next receive or change address
  addresses     List addresses recorded for a wallet
  list          List stored wallets
  find          Look up which wallet owns an address
  set-index     Move a wallet's next receive or change index
  delete        Remove a wallet and its indexed addresses
  export-key    Print the WIF private key of a wallet address
  xpub          Print a wallet's account extended public key
  scan          Derive a range of addresses from an extended public key
  keygen        Generate a standalone random key and P2PKH address

Global Options:
  --network       Network: mainnet (default), testnet or regtest
  --testnet       Shorthand for --network=testnet
  --regtest       Shorthand for --network=regtest
  --datadir       Data directory (default: ~/.hdwallet)
  --config, -c    Config file path (default: <datadir>/hdwallet.conf)
  --log-level     Log level: debug, info, warn, error (default: info)
  --log-file      Also write JSON logs to this file
  --log-json      Output logs as JSON
  --version       Show version information
  --help, -h      Show this help message

Examples:
  # Create a 24-word native segwit wallet
  hdwallet-cli create --name main

  # Derive the first BIP-84 address of a mnemonic on testnet
  hdwallet-cli --testnet derive --mnemonic "..." --path "m/84'/1'/0'/0/0"

  # Watch-only scan of 20 receive addresses
  hdwallet-cli scan --xpub xpub6... --count 20

Run 'hdwallet-cli <command> --help' for command options.
`
	fmt.Fprint(w, usage)
}

// Load resolves configuration with the following precedence:
// 1. Default values
// 2. Config file
// 3. Command-line flags
//
// The data directories and a default config file are created afterwards.
// With --help or --version only the flags are returned.
func Load(args []string) (*Config, *Flags, error) {
	flags, err := ParseFlags(args)
	if err != nil {
		return nil, nil, err
	}
	if flags.Help || flags.Version {
		return nil, flags, nil
	}

	// Determine network first (needed for defaults)
	network := types.Mainnet
	if flags.Network != "" {
		if network, err = types.ParseNetwork(flags.Network); err != nil {
			return nil, nil, err
		}
	}

	// Start with defaults
	cfg := Default(network)

	// Override datadir if specified
	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}

	// Determine config file path
	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}

	// Load config file
	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}

	// Apply file config
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	// Apply flags (highest precedence)
	if err := ApplyFlags(cfg, flags); err != nil {
		return nil, nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	// Auto-create data directories and default config on first use.
	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	return cfg, flags, nil
}

// EnsureDataDirs creates the data directory structure and a default config
// file if they don't already exist. It is idempotent.
func EnsureDataDirs(cfg *Config) error {
	dirs := []string{
		cfg.DataDir,
		cfg.NetworkDataDir(),
		cfg.KeystoreDir(),
		cfg.IndexDir(),
		cfg.LogsDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	// Create default config if it doesn't exist.
	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}

	return nil
}
