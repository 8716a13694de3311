package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Klingon-tech/hdwallet/internal/log"
	"github.com/Klingon-tech/hdwallet/pkg/types"
)

const keystoreVersion = 1

// keystoreFile is the on-disk JSON format for an encrypted wallet.
type keystoreFile struct {
	Version         int               `json:"version"`
	CreatedAt       time.Time         `json:"created_at"`
	Network         types.Network     `json:"network"`
	WalletID        string            `json:"wallet_id"`
	AddressType     types.AddressType `json:"address_type"`
	Account         uint32            `json:"account"`
	AccountXPub     string            `json:"account_xpub"`
	EncryptedSecret []byte            `json:"encrypted_secret"`
	Accounts        []AccountEntry    `json:"accounts"`

	NextChangeIndex   uint32 `json:"next_change_index"`   // BIP-44 internal chain index.
	NextExternalIndex uint32 `json:"next_external_index"` // BIP-44 external chain index.
}

// Secret is the encrypted part of a wallet: the mnemonic and its optional
// BIP-39 passphrase.
type Secret struct {
	Mnemonic   string `json:"mnemonic"`
	Passphrase string `json:"passphrase,omitempty"`
}

// Seed validates the mnemonic and derives the BIP-39 seed.
func (s *Secret) Seed() ([]byte, error) {
	return SeedFromMnemonic(s.Mnemonic, s.Passphrase)
}

// WalletOptions selects the network and account a new wallet derives for.
type WalletOptions struct {
	Network     types.Network
	AddressType types.AddressType
	Account     uint32
}

// WalletInfo is the non-secret metadata of a stored wallet.
type WalletInfo struct {
	Name              string
	CreatedAt         time.Time
	Network           types.Network
	WalletID          string
	AddressType       types.AddressType
	Account           uint32
	AccountXPub       string
	NextExternalIndex uint32
	NextChangeIndex   uint32
}

// AccountPath returns the derivation path of the wallet's account key.
func (w *WalletInfo) AccountPath() DerivationPath {
	return AccountPath(PurposeFor(w.AddressType), w.Network, w.Account)
}

// AccountEntry stores metadata for a derived address.
type AccountEntry struct {
	Index   uint32 `json:"index"`
	Change  uint32 `json:"change"` // 0=external (deposit), 1=internal (change)
	Name    string `json:"name"`
	Address string `json:"address"`
	Path    string `json:"path,omitempty"`
}

// Derivation returns the BIP-44 (change, index) pair for this account entry.
func (a AccountEntry) Derivation() (change uint32, index uint32) {
	return a.Change, a.Index
}

// Keystore manages encrypted key storage on disk.
type Keystore struct {
	path string
}

// NewKeystore creates a keystore that reads/writes to the given directory.
// The directory is created if it doesn't exist.
func NewKeystore(path string) (*Keystore, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{path: path}, nil
}

// walletPath returns the file path for a wallet by name.
func (ks *Keystore) walletPath(name string) string {
	return filepath.Join(ks.path, name+".wallet")
}

func validWalletName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return fmt.Errorf("invalid wallet name %q", name)
	}
	return nil
}

// Create stores a new wallet. The mnemonic is validated, the account
// extended public key is derived and kept in clear for watch-only address
// generation, and the secret is encrypted under password. A wallet with
// the same master key as an existing one is rejected with ErrDuplicateWallet.
func (ks *Keystore) Create(name string, secret Secret, password []byte, params EncryptionParams, opts WalletOptions) (*WalletInfo, error) {
	if err := validWalletName(name); err != nil {
		return nil, err
	}
	path := ks.walletPath(name)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrWalletExists, name)
	}
	if opts.AddressType == "" {
		opts.AddressType = types.P2WPKH
	}

	seed, err := secret.Seed()
	if err != nil {
		return nil, err
	}
	defer zero(seed)
	master, err := NewMasterKey(seed, opts.Network)
	if err != nil {
		return nil, err
	}
	walletID := master.ID()

	existing, err := ks.findByID(walletID)
	if err != nil {
		return nil, err
	}
	if existing != "" {
		return nil, fmt.Errorf("%w: %q has id %s", ErrDuplicateWallet, existing, walletID)
	}

	account, err := master.DerivePath(AccountPath(PurposeFor(opts.AddressType), opts.Network, opts.Account))
	if err != nil {
		return nil, fmt.Errorf("derive account key: %w", err)
	}

	plain, err := json.Marshal(secret)
	if err != nil {
		return nil, fmt.Errorf("marshal secret: %w", err)
	}
	encrypted, err := Encrypt(plain, password, params)
	zero(plain)
	if err != nil {
		return nil, fmt.Errorf("encrypt secret: %w", err)
	}

	kf := keystoreFile{
		Version:         keystoreVersion,
		CreatedAt:       time.Now().UTC(),
		Network:         opts.Network,
		WalletID:        walletID,
		AddressType:     opts.AddressType,
		Account:         opts.Account,
		AccountXPub:     account.Neuter().String(),
		EncryptedSecret: encrypted,
		Accounts:        []AccountEntry{},
	}
	if err := ks.writeFile(path, &kf); err != nil {
		return nil, err
	}

	log.Keystore.Info().
		Str("wallet", name).
		Str("wallet_id", walletID).
		Str("network", opts.Network.String()).
		Str("type", string(opts.AddressType)).
		Msg("Wallet created")
	return kf.info(name), nil
}

// findByID returns the name of the wallet with the given ID, or "".
func (ks *Keystore) findByID(id string) (string, error) {
	names, err := ks.List()
	if err != nil {
		return "", err
	}
	for _, name := range names {
		kf, err := ks.readFile(ks.walletPath(name))
		if err != nil {
			log.Keystore.Warn().Str("wallet", name).Err(err).Msg("Skipping unreadable wallet file")
			continue
		}
		if kf.WalletID == id {
			return name, nil
		}
	}
	return "", nil
}

// LoadSecret decrypts a wallet and returns its mnemonic and passphrase.
func (ks *Keystore) LoadSecret(name string, password []byte) (*Secret, error) {
	kf, err := ks.readFile(ks.walletPath(name))
	if err != nil {
		return nil, err
	}

	plain, err := Decrypt(kf.EncryptedSecret, password)
	if err != nil {
		return nil, fmt.Errorf("decrypt wallet: %w", err)
	}
	defer zero(plain)

	var secret Secret
	if err := json.Unmarshal(plain, &secret); err != nil {
		return nil, fmt.Errorf("parse secret: %w", err)
	}
	return &secret, nil
}

// MasterKey decrypts a wallet and derives its master key.
func (ks *Keystore) MasterKey(name string, password []byte) (*ExtendedKey, error) {
	kf, err := ks.readFile(ks.walletPath(name))
	if err != nil {
		return nil, err
	}
	secret, err := ks.LoadSecret(name, password)
	if err != nil {
		return nil, err
	}
	seed, err := secret.Seed()
	if err != nil {
		return nil, err
	}
	defer zero(seed)
	master, err := NewMasterKey(seed, kf.Network)
	if err != nil {
		return nil, err
	}
	if master.ID() != kf.WalletID {
		return nil, fmt.Errorf("wallet %q: decrypted secret does not match wallet id %s", name, kf.WalletID)
	}
	return master, nil
}

// Info returns the non-secret metadata of a wallet.
func (ks *Keystore) Info(name string) (*WalletInfo, error) {
	kf, err := ks.readFile(ks.walletPath(name))
	if err != nil {
		return nil, err
	}
	return kf.info(name), nil
}

// AccountKey returns the wallet's account-level extended public key.
func (ks *Keystore) AccountKey(name string) (*ExtendedKey, error) {
	kf, err := ks.readFile(ks.walletPath(name))
	if err != nil {
		return nil, err
	}
	key, err := ParseExtendedKey(kf.AccountXPub)
	if err != nil {
		return nil, fmt.Errorf("wallet %q: %w", name, err)
	}
	return key.WithNetwork(kf.Network), nil
}

// NextAddress derives the next unused external (or change) address from the
// account public key, records it and advances the index. Indices with no
// valid key are skipped.
func (ks *Keystore) NextAddress(name string, change bool) (AccountEntry, error) {
	path := ks.walletPath(name)
	kf, err := ks.readFile(path)
	if err != nil {
		return AccountEntry{}, err
	}
	account, err := ParseExtendedKey(kf.AccountXPub)
	if err != nil {
		return AccountEntry{}, fmt.Errorf("wallet %q: %w", name, err)
	}
	account = account.WithNetwork(kf.Network)

	branch, next, label := ChangeExternal, &kf.NextExternalIndex, "receive"
	if change {
		branch, next, label = ChangeInternal, &kf.NextChangeIndex, "change"
	}
	chain, err := account.DeriveChild(branch, false)
	if err != nil {
		return AccountEntry{}, fmt.Errorf("derive %s chain: %w", label, err)
	}

	for {
		if *next >= HardenedKeyStart {
			return AccountEntry{}, fmt.Errorf("wallet %q: %s chain exhausted", name, label)
		}
		index := *next
		*next++
		key, err := chain.DeriveChild(index, false)
		if errors.Is(err, ErrInvalidChildKey) {
			log.Keystore.Warn().Str("wallet", name).Uint32("index", index).Msg("Skipping invalid child key")
			continue
		}
		if err != nil {
			return AccountEntry{}, err
		}
		addr, err := key.Address(kf.AddressType)
		if err != nil {
			return AccountEntry{}, err
		}
		entry := AccountEntry{
			Index:   index,
			Change:  branch,
			Name:    fmt.Sprintf("%s-%d", label, index),
			Address: addr.String(),
			Path:    kf.info(name).AccountPath().Child(Normal(branch)).Child(Normal(index)).String(),
		}
		if err := kf.addAccount(entry); err != nil {
			return AccountEntry{}, err
		}
		if err := ks.writeFile(path, kf); err != nil {
			return AccountEntry{}, err
		}
		l := log.WithWallet(kf.WalletID)
		l.Debug().Str("wallet", name).Str("path", entry.Path).Msg("Derived address")
		return entry, nil
	}
}

// AddAccount records a derived account in the wallet metadata.
func (ks *Keystore) AddAccount(walletName string, acct AccountEntry) error {
	path := ks.walletPath(walletName)
	kf, err := ks.readFile(path)
	if err != nil {
		return err
	}
	if err := kf.addAccount(acct); err != nil {
		return err
	}
	return ks.writeFile(path, kf)
}

func (kf *keystoreFile) addAccount(acct AccountEntry) error {
	// Check for duplicate derivation path or duplicate address.
	for _, existing := range kf.Accounts {
		exChange, exIndex := existing.Derivation()
		if exChange == acct.Change && exIndex == acct.Index {
			// Idempotent insert if metadata points to the same address.
			if existing.Address == acct.Address {
				return nil
			}
			return fmt.Errorf("account path change=%d index=%d already exists", acct.Change, acct.Index)
		}
		if existing.Address != "" && existing.Address == acct.Address {
			return nil
		}
	}
	kf.Accounts = append(kf.Accounts, acct)
	return nil
}

// ListAccounts returns the account entries for a wallet.
func (ks *Keystore) ListAccounts(walletName string) ([]AccountEntry, error) {
	kf, err := ks.readFile(ks.walletPath(walletName))
	if err != nil {
		return nil, err
	}
	return kf.Accounts, nil
}

// List returns the names of all wallet files in the keystore, sorted.
func (ks *Keystore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.path)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if ext := filepath.Ext(name); ext == ".wallet" {
			names = append(names, name[:len(name)-len(ext)])
		}
	}
	sort.Strings(names)
	return names, nil
}

// GetChangeIndex returns the next change address index for a wallet.
func (ks *Keystore) GetChangeIndex(name string) (uint32, error) {
	kf, err := ks.readFile(ks.walletPath(name))
	if err != nil {
		return 0, err
	}
	return kf.NextChangeIndex, nil
}

// GetExternalIndex returns the next external address index for a wallet.
func (ks *Keystore) GetExternalIndex(name string) (uint32, error) {
	kf, err := ks.readFile(ks.walletPath(name))
	if err != nil {
		return 0, err
	}
	return kf.NextExternalIndex, nil
}

// SetExternalIndex sets the next external address index to the given value.
func (ks *Keystore) SetExternalIndex(name string, idx uint32) error {
	return ks.update(name, func(kf *keystoreFile) { kf.NextExternalIndex = idx })
}

// SetChangeIndex sets the next change address index to the given value.
func (ks *Keystore) SetChangeIndex(name string, idx uint32) error {
	return ks.update(name, func(kf *keystoreFile) { kf.NextChangeIndex = idx })
}

func (ks *Keystore) update(name string, fn func(*keystoreFile)) error {
	path := ks.walletPath(name)
	kf, err := ks.readFile(path)
	if err != nil {
		return err
	}
	fn(kf)
	return ks.writeFile(path, kf)
}

// Delete removes a wallet file.
func (ks *Keystore) Delete(name string) error {
	path := ks.walletPath(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%w: %q", ErrWalletNotFound, name)
	}
	if err := os.Remove(path); err != nil {
		return err
	}
	log.Keystore.Info().Str("wallet", name).Msg("Wallet deleted")
	return nil
}

func (kf *keystoreFile) info(name string) *WalletInfo {
	return &WalletInfo{
		Name:              name,
		CreatedAt:         kf.CreatedAt,
		Network:           kf.Network,
		WalletID:          kf.WalletID,
		AddressType:       kf.AddressType,
		Account:           kf.Account,
		AccountXPub:       kf.AccountXPub,
		NextExternalIndex: kf.NextExternalIndex,
		NextChangeIndex:   kf.NextChangeIndex,
	}
}

// writeFile replaces the wallet file atomically via a temp file and rename.
func (ks *Keystore) writeFile(path string, kf *keystoreFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal wallet: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write wallet: %w", err)
	}
	return nil
}

func (ks *Keystore) readFile(path string) (*keystoreFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("read wallet: %w", err)
	}
	var kf keystoreFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse wallet: %w", err)
	}
	if kf.Version != keystoreVersion {
		return nil, fmt.Errorf("%w: wallet version %d", ErrUnsupportedFile, kf.Version)
	}
	return &kf, nil
}
