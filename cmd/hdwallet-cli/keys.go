package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/Klingon-tech/hdwallet/config"
	"github.com/Klingon-tech/hdwallet/internal/log"
	"github.com/Klingon-tech/hdwallet/internal/wallet"
	"github.com/Klingon-tech/hdwallet/pkg/crypto"
)

// ── derive ──────────────────────────────────────────────────────────────

func cmdDerive(args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("derive", flag.ExitOnError)
	mnemonicFlag := fs.String("mnemonic", "", "Mnemonic phrase")
	xkey := fs.String("xkey", "", "Extended key to derive from instead of a mnemonic")
	pathFlag := fs.String("path", "", "Derivation path (default: first address of the configured account)")
	typ := fs.String("type", "", "Address type: p2wpkh or p2pkh (default from config)")
	passphrase := fs.Bool("passphrase", false, "Prompt for a BIP-39 passphrase")
	fs.Parse(args)

	t := addressType(*typ, cfg)
	pathStr := *pathFlag
	if pathStr == "" {
		pathStr = wallet.AddressPath(wallet.PurposeFor(t), cfg.Network, cfg.Wallet.Account, wallet.ChangeExternal, 0).String()
	}
	path, err := wallet.ParsePath(pathStr)
	if err != nil {
		fatal("%v", err)
	}

	var root *wallet.ExtendedKey
	if *xkey != "" {
		parsed, err := wallet.ParseExtendedKey(*xkey)
		if err != nil {
			fatal("%v", err)
		}
		if root, err = forNetwork(parsed, cfg.Network); err != nil {
			fatal("%v", err)
		}
	} else {
		mnemonic := readMnemonic(*mnemonicFlag)
		if err := wallet.CheckMnemonic(mnemonic).Err(); err != nil {
			fatal("%v", err)
		}
		seed := wallet.MnemonicToSeed(mnemonic, readPassphrase(*passphrase))
		root, err = wallet.NewMasterKey(seed, cfg.Network)
		clear(seed)
		if err != nil {
			fatal("%v", err)
		}
	}

	key, err := root.DerivePath(path)
	if err != nil {
		fatal("%v", err)
	}
	report, err := describeKey(path.String(), key, t)
	if err != nil {
		fatal("%v", err)
	}
	report.print(os.Stdout)
}

// ── scan ────────────────────────────────────────────────────────────────

func cmdScan(ctx context.Context, args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	xpub := fs.String("xpub", "", "Account extended public key")
	start := fs.Uint("start", 0, "First address index")
	count := fs.Uint("count", 20, "Number of addresses")
	change := fs.Bool("change", false, "Scan the change chain")
	typ := fs.String("type", "", "Address type: p2wpkh or p2pkh (default from config)")
	workers := fs.Int("workers", cfg.Wallet.Workers, "Derivation goroutines (0 = one per CPU)")
	fs.Parse(args)

	if *xpub == "" {
		fatal("Usage: hdwallet-cli scan --xpub <key> [--start N] [--count N] [--change]")
	}
	if *workers < 0 || *workers > config.MaxWorkers {
		fatal("workers must be in range [0, %d]", config.MaxWorkers)
	}
	if uint64(*start)+uint64(*count) > uint64(wallet.HardenedKeyStart) {
		fatal("start+count must not exceed 2^31")
	}

	parsed, err := wallet.ParseExtendedKey(*xpub)
	if err != nil {
		fatal("%v", err)
	}
	account, err := forNetwork(parsed.Neuter(), cfg.Network)
	if err != nil {
		fatal("%v", err)
	}
	t := addressType(*typ, cfg)

	branch := wallet.ChangeExternal
	if *change {
		branch = wallet.ChangeInternal
	}
	chain, err := account.DeriveChild(branch, false)
	if err != nil {
		fatal("derive chain %d: %v", branch, err)
	}

	keys, err := wallet.DeriveRange(ctx, chain, uint32(*start), uint32(*count), false, *workers)
	if err != nil {
		fatal("%v", err)
	}
	for _, k := range keys {
		if k.Err != nil {
			if errors.Is(k.Err, wallet.ErrInvalidChildKey) {
				log.CLI.Warn().Uint32("index", k.Index).Msg("Skipping invalid child key")
				continue
			}
			fatal("%v", k.Err)
		}
		addr, err := k.Key.Address(t)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("%d/%-8d %s\n", branch, k.Index, addr)
	}
}

// ── keygen ──────────────────────────────────────────────────────────────

func cmdKeygen(args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	typ := fs.String("type", "p2pkh", "Address type: p2pkh or p2wpkh")
	fs.Parse(args)

	t := addressType(*typ, cfg)
	priv, err := crypto.GenerateKey()
	if err != nil {
		fatal("generate key: %v", err)
	}
	defer priv.Zero()

	addr, wif, err := standaloneKey(priv, t, cfg.Network)
	if err != nil {
		priv.Zero()
		fatal("%v", err)
	}
	fmt.Printf("Public key: %x\n", priv.PublicKey())
	fmt.Printf("Address:    %s\n", addr)
	fmt.Printf("WIF:        %s\n", wif)
}
