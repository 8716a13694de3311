package main

import (
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/Klingon-tech/hdwallet/config"
	"github.com/Klingon-tech/hdwallet/internal/log"
	"github.com/Klingon-tech/hdwallet/internal/wallet"
	"github.com/Klingon-tech/hdwallet/pkg/types"
)

// ── create / restore ────────────────────────────────────────────────────

func cmdCreate(args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	words := fs.Int("words", bitsToWords(cfg.Wallet.EntropyBits), "Mnemonic length in words (12, 15, 18, 21, 24)")
	typ := fs.String("type", "", "Address type: p2wpkh or p2pkh (default from config)")
	account := fs.Uint("account", uint(cfg.Wallet.Account), "BIP-44 account number")
	passphrase := fs.Bool("passphrase", false, "Prompt for a BIP-39 passphrase")
	export := fs.String("export", "", "Also write an export file for the first address")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: hdwallet-cli create --name <name> [--words 24] [--type p2wpkh] [--export file]")
	}
	bits, err := wordsToBits(*words)
	if err != nil {
		fatal("%v", err)
	}

	mnemonic, err := wallet.GenerateMnemonic(bits, rand.Reader)
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}

	fmt.Println("Mnemonic (write this down!):")
	fmt.Printf("  %s\n\n", mnemonic)

	secret := wallet.Secret{Mnemonic: mnemonic.String(), Passphrase: readPassphrase(*passphrase)}
	info, entry := storeWallet(cfg, *name, secret, addressType(*typ, cfg), accountNumber(*account))

	if *export != "" {
		path, err := wallet.ParsePath(entry.Path)
		if err != nil {
			fatal("%v", err)
		}
		rec, err := wallet.NewExportRecord(mnemonic, secret.Passphrase, path, info.AddressType, info.Network)
		if err != nil {
			fatal("build export: %v", err)
		}
		if err := wallet.WriteExport(*export, rec); err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Export:  %s\n", *export)
	}
}

func cmdRestore(args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	mnemonicFlag := fs.String("mnemonic", "", "Mnemonic phrase (read from stdin if omitted)")
	typ := fs.String("type", "", "Address type: p2wpkh or p2pkh (default from config)")
	account := fs.Uint("account", uint(cfg.Wallet.Account), "BIP-44 account number")
	passphrase := fs.Bool("passphrase", false, "Prompt for a BIP-39 passphrase")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: hdwallet-cli restore --name <name> [--mnemonic \"...\"] [--type p2wpkh]")
	}

	mnemonic := readMnemonic(*mnemonicFlag)
	if err := wallet.CheckMnemonic(mnemonic).Err(); err != nil {
		fatal("%v", err)
	}
	secret := wallet.Secret{Mnemonic: mnemonic.String(), Passphrase: readPassphrase(*passphrase)}
	storeWallet(cfg, *name, secret, addressType(*typ, cfg), accountNumber(*account))
}

// storeWallet encrypts a wallet into the keystore, derives its first
// receive address and records it in the address index.
func storeWallet(cfg *config.Config, name string, secret wallet.Secret, t types.AddressType, account uint32) (*wallet.WalletInfo, wallet.AccountEntry) {
	password := readNewPassword()

	ks := openKeystore(cfg)
	info, err := ks.Create(name, secret, password, wallet.DefaultParams(), wallet.WalletOptions{
		Network:     cfg.Network,
		AddressType: t,
		Account:     account,
	})
	if err != nil {
		fatal("create wallet: %v", err)
	}
	entry, err := ks.NextAddress(name, false)
	if err != nil {
		fatal("derive address: %v", err)
	}
	indexAddress(cfg, info, entry)

	log.CLI.Info().Str("wallet", name).Str("id", info.WalletID).Msg("Wallet stored")
	fmt.Printf("Wallet:  %s (%s)\n", info.Name, info.WalletID)
	fmt.Printf("Account: %s\n", info.AccountPath())
	fmt.Printf("Address: %s\n", entry.Address)
	return info, entry
}

// accountNumber checks an --account value before narrowing it.
func accountNumber(v uint) uint32 {
	if v >= uint(wallet.HardenedKeyStart) {
		fatal("account must be below 2^31")
	}
	return uint32(v)
}

// ── validate ────────────────────────────────────────────────────────────

func cmdValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	mnemonicFlag := fs.String("mnemonic", "", "Mnemonic phrase (read from stdin if omitted)")
	fs.Parse(args)

	check := wallet.CheckMnemonic(readMnemonic(*mnemonicFlag))
	fmt.Printf("Words:  %d\n", check.WordCount)
	fmt.Printf("Status: %s\n", check.Status)
	if check.Status == wallet.MnemonicUnknownWord {
		fmt.Printf("Word:   %q at position %d\n", check.Word, check.Index+1)
	}
	if !check.Valid() {
		os.Exit(1)
	}
}

// ── addresses ───────────────────────────────────────────────────────────

func cmdNewAddress(args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("new-address", flag.ExitOnError)
	name := fs.String("wallet", "", "Wallet name")
	change := fs.Bool("change", false, "Derive a change address instead of a receive address")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: hdwallet-cli new-address --wallet <name> [--change]")
	}

	ks := openKeystore(cfg)
	info, err := ks.Info(*name)
	if err != nil {
		fatal("%v", err)
	}
	entry, err := ks.NextAddress(*name, *change)
	if err != nil {
		fatal("derive address: %v", err)
	}
	indexAddress(cfg, info, entry)

	fmt.Printf("Address: %s\n", entry.Address)
	fmt.Printf("Path:    %s\n", entry.Path)
}

func cmdAddresses(args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("addresses", flag.ExitOnError)
	name := fs.String("wallet", "", "Wallet name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: hdwallet-cli addresses --wallet <name>")
	}

	accounts, err := openKeystore(cfg).ListAccounts(*name)
	if err != nil {
		fatal("%v", err)
	}
	if len(accounts) == 0 {
		fmt.Printf("No addresses yet. Run 'hdwallet-cli new-address --wallet %s'.\n", *name)
		return
	}
	fmt.Printf("%-12s %-24s %s\n", "NAME", "PATH", "ADDRESS")
	for _, a := range accounts {
		fmt.Printf("%-12s %-24s %s\n", a.Name, a.Path, a.Address)
	}
}

func cmdList(cfg *config.Config) {
	ks := openKeystore(cfg)
	names, err := ks.List()
	if err != nil {
		fatal("%v", err)
	}
	if len(names) == 0 {
		fmt.Printf("No %s wallets in %s\n", cfg.Network, cfg.KeystoreDir())
		return
	}
	for _, name := range names {
		info, err := ks.Info(name)
		if err != nil {
			fmt.Printf("%-16s (unreadable: %v)\n", name, err)
			continue
		}
		fmt.Printf("%-16s %s  %-7s %-18s next receive %d, change %d\n",
			info.Name, info.WalletID, info.AddressType, info.AccountPath(),
			info.NextExternalIndex, info.NextChangeIndex)
	}
}

func cmdFind(args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("find", flag.ExitOnError)
	address := fs.String("address", "", "Address to look up")
	fs.Parse(args)

	if *address == "" {
		fatal("Usage: hdwallet-cli find --address <address>")
	}

	ix := openIndex(cfg)
	entry, err := ix.Lookup(*address)
	ix.Close()
	if errors.Is(err, wallet.ErrAddressNotFound) {
		fatal("address %s is not in the %s index", *address, cfg.Network)
	}
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Wallet:  %s\n", entry.Wallet)
	fmt.Printf("Path:    %s\n", entry.Path)
	fmt.Printf("Type:    %s\n", entry.Type)
	fmt.Printf("Network: %s\n", entry.Network)
}

func cmdSetIndex(args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("set-index", flag.ExitOnError)
	name := fs.String("wallet", "", "Wallet name")
	receive := fs.Int64("receive", -1, "Next receive address index")
	change := fs.Int64("change", -1, "Next change address index")
	fs.Parse(args)

	if *name == "" || (*receive < 0 && *change < 0) {
		fatal("Usage: hdwallet-cli set-index --wallet <name> [--receive N] [--change N]")
	}

	ks := openKeystore(cfg)
	for _, idx := range []struct {
		value int64
		set   func(string, uint32) error
	}{{*receive, ks.SetExternalIndex}, {*change, ks.SetChangeIndex}} {
		if idx.value < 0 {
			continue
		}
		if idx.value >= int64(wallet.HardenedKeyStart) {
			fatal("index must be below 2^31")
		}
		if err := idx.set(*name, uint32(idx.value)); err != nil {
			fatal("%v", err)
		}
	}

	external, err := ks.GetExternalIndex(*name)
	if err != nil {
		fatal("%v", err)
	}
	internal, err := ks.GetChangeIndex(*name)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Next receive index: %d\n", external)
	fmt.Printf("Next change index:  %d\n", internal)
}

func cmdDelete(args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	name := fs.String("wallet", "", "Wallet name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: hdwallet-cli delete --wallet <name>")
	}

	ks := openKeystore(cfg)
	password, err := readPassword("Enter password to confirm deletion: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if _, err := ks.LoadSecret(*name, password); err != nil {
		fatal("%v", err)
	}

	ix := openIndex(cfg)
	n, err := deleteWallet(ks, ix, *name)
	ix.Close()
	if err != nil {
		fatal("%v", err)
	}
	log.CLI.Info().Str("wallet", *name).Int("addresses", n).Msg("Wallet deleted")
	fmt.Printf("Deleted wallet %s (%d indexed addresses removed)\n", *name, n)
}

// ── keys ────────────────────────────────────────────────────────────────

func cmdExportKey(args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("export-key", flag.ExitOnError)
	name := fs.String("wallet", "", "Wallet name")
	index := fs.Uint("index", 0, "Address index")
	change := fs.Bool("change", false, "Use the change chain")
	output := fs.String("output", "", "Write the key to an export file instead of stdout")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: hdwallet-cli export-key --wallet <name> [--index N] [--change] [--output file]")
	}
	if *index >= uint(wallet.HardenedKeyStart) {
		fatal("index must be below 2^31")
	}

	ks := openKeystore(cfg)
	info, err := ks.Info(*name)
	if err != nil {
		fatal("%v", err)
	}
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	master, err := ks.MasterKey(*name, password)
	if err != nil {
		fatal("%v", err)
	}

	branch := wallet.ChangeExternal
	if *change {
		branch = wallet.ChangeInternal
	}
	path := info.AccountPath().Child(wallet.Normal(branch)).Child(wallet.Normal(uint32(*index)))
	key, err := master.DerivePath(path)
	if err != nil {
		fatal("%v", err)
	}
	addr, err := key.Address(info.AddressType)
	if err != nil {
		fatal("%v", err)
	}
	wif, err := key.WIF()
	if err != nil {
		fatal("%v", err)
	}

	if *output != "" {
		rec := &wallet.ExportRecord{
			Version:       wallet.ExportVersion,
			Path:          path.String(),
			Address:       addr.String(),
			Network:       info.Network,
			PrivateKeyWIF: wif,
		}
		if err := wallet.WriteExport(*output, rec); err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Key for %s written to %s\n", addr, *output)
		return
	}

	fmt.Printf("Path:    %s\n", path)
	fmt.Printf("Address: %s\n", addr)
	fmt.Printf("WIF:     %s\n", wif)
}

func cmdXPub(args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("xpub", flag.ExitOnError)
	name := fs.String("wallet", "", "Wallet name")
	account := fs.Int("account", -1, "Account number (default: the wallet's own account)")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: hdwallet-cli xpub --wallet <name> [--account N]")
	}

	ks := openKeystore(cfg)
	info, err := ks.Info(*name)
	if err != nil {
		fatal("%v", err)
	}
	if int64(*account) >= int64(wallet.HardenedKeyStart) {
		fatal("account must be below 2^31")
	}
	if *account < 0 || uint32(*account) == info.Account {
		fmt.Printf("Path: %s\n", info.AccountPath())
		fmt.Printf("XPub: %s\n", info.AccountXPub)
		return
	}

	// Other accounts need the hardened path from the master key.
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	master, err := ks.MasterKey(*name, password)
	if err != nil {
		fatal("%v", err)
	}
	path := wallet.AccountPath(wallet.PurposeFor(info.AddressType), info.Network, uint32(*account))
	key, err := master.DerivePath(path)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Path: %s\n", path)
	fmt.Printf("XPub: %s\n", key.Neuter())
}
