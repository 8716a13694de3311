package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/Klingon-tech/hdwallet/config"
	"github.com/Klingon-tech/hdwallet/internal/wallet"
	"github.com/Klingon-tech/hdwallet/pkg/crypto"
	"github.com/Klingon-tech/hdwallet/pkg/types"
	"golang.org/x/term"
)

// stdin is shared so piped secrets are read line by line across prompts.
var stdin = bufio.NewReader(os.Stdin)

// wordsToBits converts a mnemonic word count to entropy bits.
func wordsToBits(words int) (int, error) {
	if words < 12 || words > 24 || words%3 != 0 {
		return 0, fmt.Errorf("word count must be 12, 15, 18, 21 or 24, got %d", words)
	}
	return words / 3 * 32, nil
}

// bitsToWords is the inverse of wordsToBits.
func bitsToWords(bits int) int {
	return bits / 32 * 3
}

// forNetwork retags a key parsed from a testnet serialization when the
// active network is regtest, which shares testnet's version bytes.
// Any other mismatch is an error.
func forNetwork(k *wallet.ExtendedKey, net types.Network) (*wallet.ExtendedKey, error) {
	switch {
	case k.Network() == net:
		return k, nil
	case k.Network() == types.Testnet && net == types.Regtest:
		return k.WithNetwork(net), nil
	default:
		return nil, fmt.Errorf("key is for %s, active network is %s", k.Network(), net)
	}
}

// readLine reads one line from r without the trailing newline.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readPassword prompts on stderr and reads a secret without echo. When
// stdin is not a terminal the secret is read as a plain line.
func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	if !term.IsTerminal(int(syscall.Stdin)) {
		line, err := readLine(stdin)
		if err != nil {
			return nil, err
		}
		return []byte(line), nil
	}
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	return pw, err
}

// readNewPassword prompts twice and rejects empty or mismatched input.
func readNewPassword() []byte {
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}
	if len(password) == 0 {
		fatal("password must not be empty")
	}
	return password
}

// readPassphrase prompts for the optional BIP-39 passphrase when asked to.
func readPassphrase(prompt bool) string {
	if !prompt {
		return ""
	}
	pass, err := readPassword("BIP-39 passphrase: ")
	if err != nil {
		fatal("read passphrase: %v", err)
	}
	return string(pass)
}

// readMnemonic returns the mnemonic given on the command line, or reads it
// from stdin.
func readMnemonic(flagValue string) wallet.Mnemonic {
	if flagValue != "" {
		return wallet.ParseMnemonic(flagValue)
	}
	line, err := readPassword("Mnemonic: ")
	if err != nil {
		fatal("read mnemonic: %v", err)
	}
	return wallet.ParseMnemonic(string(line))
}

// addressType resolves a --type flag, falling back to the configured type.
func addressType(flagValue string, cfg *config.Config) types.AddressType {
	if flagValue == "" {
		return cfg.Wallet.AddressType
	}
	t, err := types.ParseAddressType(flagValue)
	if err != nil {
		fatal("%v", err)
	}
	return t
}

// keyReport is what derive prints for one key.
type keyReport struct {
	Path      string
	Network   types.Network
	ExtPriv   string
	ExtPub    string
	PublicKey string
	Address   string
	WIF       string
}

// describeKey fills a keyReport for key. Private fields stay empty for a
// public-only key.
func describeKey(path string, key *wallet.ExtendedKey, t types.AddressType) (*keyReport, error) {
	addr, err := key.Address(t)
	if err != nil {
		return nil, err
	}
	r := &keyReport{
		Path:      path,
		Network:   key.Network(),
		ExtPub:    key.Neuter().String(),
		PublicKey: fmt.Sprintf("%x", key.PublicKeyBytes()),
		Address:   addr.String(),
	}
	if key.IsPrivate() {
		r.ExtPriv = key.String()
		if r.WIF, err = key.WIF(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *keyReport) print(w io.Writer) {
	if r.Path != "" {
		fmt.Fprintf(w, "Path:       %s\n", r.Path)
	}
	fmt.Fprintf(w, "Network:    %s\n", r.Network)
	if r.ExtPriv != "" {
		fmt.Fprintf(w, "Ext. priv:  %s\n", r.ExtPriv)
	}
	fmt.Fprintf(w, "Ext. pub:   %s\n", r.ExtPub)
	fmt.Fprintf(w, "Public key: %s\n", r.PublicKey)
	fmt.Fprintf(w, "Address:    %s\n", r.Address)
	if r.WIF != "" {
		fmt.Fprintf(w, "WIF:        %s\n", r.WIF)
	}
}

// standaloneKey builds the address and WIF of a raw private key.
func standaloneKey(priv *crypto.PrivateKey, t types.AddressType, net types.Network) (types.Address, string, error) {
	addr, err := wallet.PublicKeyAddress(t, priv.PublicKey(), net)
	if err != nil {
		return types.Address{}, "", err
	}
	wif, err := wallet.EncodeWIF(priv.Serialize(), net, true)
	if err != nil {
		return types.Address{}, "", err
	}
	return addr, wif, nil
}

func openKeystore(cfg *config.Config) *wallet.Keystore {
	ks, err := wallet.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	return ks
}

func openIndex(cfg *config.Config) *wallet.AddressIndex {
	ix, err := wallet.OpenAddressIndex(cfg.IndexDir())
	if err != nil {
		fatal("open address index: %v", err)
	}
	return ix
}

// indexAddress records a wallet address in the lookup index.
func indexAddress(cfg *config.Config, info *wallet.WalletInfo, entry wallet.AccountEntry) {
	ix := openIndex(cfg)
	err := addToIndex(ix, info, entry)
	ix.Close()
	if err != nil {
		fatal("index address: %v", err)
	}
}

func addToIndex(ix *wallet.AddressIndex, info *wallet.WalletInfo, entry wallet.AccountEntry) error {
	return ix.Add(wallet.IndexEntry{
		Address: entry.Address,
		Wallet:  info.Name,
		Path:    entry.Path,
		Type:    info.AddressType,
		Network: info.Network,
	})
}

// deleteWallet removes a wallet file and its index entries, returning the
// number of addresses dropped from the index.
func deleteWallet(ks *wallet.Keystore, ix *wallet.AddressIndex, name string) (int, error) {
	if err := ks.Delete(name); err != nil {
		return 0, err
	}
	n, err := ix.RemoveWallet(name)
	if err != nil {
		return 0, fmt.Errorf("wallet %q deleted but index cleanup failed: %w", name, err)
	}
	return n, nil
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
