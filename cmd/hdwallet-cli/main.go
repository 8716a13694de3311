// hdwallet-cli creates, restores and derives from BIP-32/39/44/84
// hierarchical deterministic wallets.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Klingon-tech/hdwallet/config"
	"github.com/Klingon-tech/hdwallet/internal/log"
)

func main() {
	cfg, flags, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		config.PrintUsage(os.Stderr)
		os.Exit(1)
	}
	if flags.Help {
		config.PrintUsage(os.Stdout)
		return
	}
	if flags.Version {
		fmt.Printf("hdwallet-cli %s\n", config.Version)
		return
	}
	if len(flags.Args) == 0 {
		config.PrintUsage(os.Stderr)
		os.Exit(1)
	}

	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("init logging: %v", err)
	}
	log.CLI.Debug().
		Str("network", string(cfg.Network)).
		Str("datadir", cfg.DataDir).
		Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := flags.Args[0]
	cmdArgs := flags.Args[1:]

	switch cmd {
	case "create":
		cmdCreate(cmdArgs, cfg)
	case "restore":
		cmdRestore(cmdArgs, cfg)
	case "validate":
		cmdValidate(cmdArgs)
	case "derive":
		cmdDerive(cmdArgs, cfg)
	case "new-address":
		cmdNewAddress(cmdArgs, cfg)
	case "addresses":
		cmdAddresses(cmdArgs, cfg)
	case "list":
		cmdList(cfg)
	case "find":
		cmdFind(cmdArgs, cfg)
	case "set-index":
		cmdSetIndex(cmdArgs, cfg)
	case "delete":
		cmdDelete(cmdArgs, cfg)
	case "export-key":
		cmdExportKey(cmdArgs, cfg)
	case "xpub":
		cmdXPub(cmdArgs, cfg)
	case "scan":
		cmdScan(ctx, cmdArgs, cfg)
	case "keygen":
		cmdKeygen(cmdArgs, cfg)
	case "help":
		config.PrintUsage(os.Stdout)
	case "version":
		fmt.Printf("hdwallet-cli %s\n", config.Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		config.PrintUsage(os.Stderr)
		os.Exit(1)
	}
}
