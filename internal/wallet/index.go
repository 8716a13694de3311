package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Klingon-tech/hdwallet/internal/log"
	"github.com/Klingon-tech/hdwallet/internal/storage"
	"github.com/Klingon-tech/hdwallet/pkg/types"
)

// Index key namespaces.
var (
	addrPrefix   = []byte("a/") // a/<address> -> IndexEntry
	walletPrefix = []byte("w/") // w/<wallet>/<path> -> address
)

// IndexEntry records where an address came from.
type IndexEntry struct {
	Address   string            `json:"address"`
	Wallet    string            `json:"wallet"`
	Path      string            `json:"path"`
	Type      types.AddressType `json:"type"`
	Network   types.Network     `json:"network"`
	CreatedAt time.Time         `json:"created_at"`
}

// AddressIndex maps addresses back to the wallet and path that derived
// them. Lookups need no password.
type AddressIndex struct {
	db      storage.DB
	addrs   *storage.PrefixDB
	wallets *storage.PrefixDB
}

// NewAddressIndex creates an index over db. The caller owns db.
func NewAddressIndex(db storage.DB) *AddressIndex {
	return &AddressIndex{
		db:      db,
		addrs:   storage.NewPrefixDB(db, addrPrefix),
		wallets: storage.NewPrefixDB(db, walletPrefix),
	}
}

// OpenAddressIndex opens a Badger-backed index in dir.
func OpenAddressIndex(dir string) (*AddressIndex, error) {
	db, err := storage.NewBadger(dir)
	if err != nil {
		return nil, err
	}
	return NewAddressIndex(db), nil
}

// Close closes the underlying database.
func (ix *AddressIndex) Close() error {
	return ix.db.Close()
}

func walletKey(wallet, path string) []byte {
	return []byte(wallet + "/" + path)
}

// Add records an address. Re-adding the same address for the same wallet
// and path is a no-op; the same address under another owner is an error.
func (ix *AddressIndex) Add(e IndexEntry) error {
	addr, err := types.ParseAddress(e.Address)
	if err != nil {
		return fmt.Errorf("index %q: %w", e.Address, err)
	}
	if e.Type == "" {
		e.Type = addr.Type
	}
	if e.Network == "" {
		e.Network = addr.Network
	}
	if e.Type != addr.Type {
		return fmt.Errorf("index %q: type %q does not match address type %q", e.Address, e.Type, addr.Type)
	}
	// Regtest P2PKH addresses share testnet's version byte.
	if e.Network != addr.Network && !(addr.Network == types.Testnet && e.Network == types.Regtest) {
		return fmt.Errorf("index %q: network %q does not match address network %q", e.Address, e.Network, addr.Network)
	}
	if e.Wallet == "" || e.Path == "" {
		return fmt.Errorf("index %q: wallet and path are required", e.Address)
	}

	existing, err := ix.Lookup(e.Address)
	switch {
	case err == nil:
		if existing.Wallet == e.Wallet && existing.Path == e.Path {
			return nil
		}
		return fmt.Errorf("address %s already indexed for %s at %s", e.Address, existing.Wallet, existing.Path)
	case !errors.Is(err, ErrAddressNotFound):
		return err
	}

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal index entry: %w", err)
	}

	b := storage.NewWriteBatch(ix.db)
	storage.PrefixedBatch(b, addrPrefix).Put([]byte(e.Address), data)
	storage.PrefixedBatch(b, walletPrefix).Put(walletKey(e.Wallet, e.Path), []byte(e.Address))
	if err := b.Commit(); err != nil {
		return fmt.Errorf("index %s: %w", e.Address, err)
	}

	log.Index.Debug().Str("wallet", e.Wallet).Str("path", e.Path).Str("address", e.Address).Msg("Indexed address")
	return nil
}

// Lookup returns the entry for an address, or ErrAddressNotFound.
func (ix *AddressIndex) Lookup(address string) (*IndexEntry, error) {
	data, err := ix.addrs.Get([]byte(address))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAddressNotFound, address)
	}
	if err != nil {
		return nil, err
	}
	var e IndexEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parse index entry: %w", err)
	}
	return &e, nil
}

// WalletAddresses returns every indexed address of a wallet, ordered by
// path key.
func (ix *AddressIndex) WalletAddresses(wallet string) ([]IndexEntry, error) {
	var addrs []string
	err := ix.wallets.ForEach([]byte(wallet+"/"), func(_, value []byte) error {
		addrs = append(addrs, string(value))
		return nil
	})
	if err != nil {
		return nil, err
	}

	entries := make([]IndexEntry, 0, len(addrs))
	for _, a := range addrs {
		e, err := ix.Lookup(a)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

// RemoveWallet drops every address of a wallet from the index.
func (ix *AddressIndex) RemoveWallet(wallet string) (int, error) {
	entries, err := ix.WalletAddresses(wallet)
	if err != nil {
		return 0, err
	}
	b := storage.NewWriteBatch(ix.db)
	for _, e := range entries {
		storage.PrefixedBatch(b, addrPrefix).Delete([]byte(e.Address))
		storage.PrefixedBatch(b, walletPrefix).Delete(walletKey(wallet, e.Path))
	}
	if err := b.Commit(); err != nil {
		return 0, fmt.Errorf("remove wallet %q: %w", wallet, err)
	}
	log.Index.Info().Str("wallet", wallet).Int("removed", len(entries)).Msg("Removed wallet from index")
	return len(entries), nil
}
