package wallet

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/hdwallet/internal/storage"
	"github.com/Klingon-tech/hdwallet/pkg/types"
)

func testIndexes(t *testing.T) map[string]*AddressIndex {
	t.Helper()
	badger, err := OpenAddressIndex(t.TempDir())
	if err != nil {
		t.Fatalf("OpenAddressIndex() error: %v", err)
	}
	t.Cleanup(func() { badger.Close() })
	return map[string]*AddressIndex{
		"memory": NewAddressIndex(storage.NewMemory()),
		"badger": badger,
	}
}

func TestAddressIndex_AddLookup(t *testing.T) {
	for name, ix := range testIndexes(t) {
		t.Run(name, func(t *testing.T) {
			e := IndexEntry{
				Address: "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu",
				Wallet:  "main",
				Path:    "m/84'/0'/0'/0/0",
				Type:    types.P2WPKH,
				Network: types.Mainnet,
			}
			if err := ix.Add(e); err != nil {
				t.Fatalf("Add() error: %v", err)
			}
			// Same owner and path again is a no-op.
			if err := ix.Add(e); err != nil {
				t.Fatalf("repeat Add() error: %v", err)
			}

			got, err := ix.Lookup(e.Address)
			if err != nil {
				t.Fatalf("Lookup() error: %v", err)
			}
			if got.Wallet != e.Wallet || got.Path != e.Path || got.Type != e.Type || got.Network != e.Network {
				t.Errorf("Lookup() = %+v", got)
			}
			if got.CreatedAt.IsZero() {
				t.Error("CreatedAt not set")
			}

			conflict := e
			conflict.Wallet = "other"
			if err := ix.Add(conflict); err == nil {
				t.Error("Add() with another owner should fail")
			}

			if _, err := ix.Lookup("1LqBGSKuX5yYUonjxT5qGfpUsXKYYWeabA"); !errors.Is(err, ErrAddressNotFound) {
				t.Errorf("Lookup() error = %v, want ErrAddressNotFound", err)
			}
		})
	}
}

func TestAddressIndex_AddInvalid(t *testing.T) {
	ix := NewAddressIndex(storage.NewMemory())
	tests := []IndexEntry{
		{Address: "not-an-address", Wallet: "w", Path: "m/0"},
		{Address: "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", Path: "m/0"},
		{Address: "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", Wallet: "w"},
		{Address: "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", Wallet: "w", Path: "m/0", Type: types.P2PKH},
		{Address: "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", Wallet: "w", Path: "m/0", Network: types.Testnet},
		{Address: "mkpZhYtJu2r87Js3pDiWJDmPte2NRZ8bJV", Wallet: "w", Path: "m/0", Network: types.Mainnet},
	}
	for _, e := range tests {
		if err := ix.Add(e); err == nil {
			t.Errorf("Add(%+v) should fail", e)
		}
	}
}

func TestAddressIndex_WalletAddressesAndRemove(t *testing.T) {
	for name, ix := range testIndexes(t) {
		t.Run(name, func(t *testing.T) {
			master := testMaster(t, vector1Seed)
			for i := uint32(0); i < 3; i++ {
				key, err := master.Child(i)
				if err != nil {
					t.Fatal(err)
				}
				addr, err := key.Address(types.P2PKH)
				if err != nil {
					t.Fatal(err)
				}
				if err := ix.Add(IndexEntry{Address: addr.String(), Wallet: "alpha", Path: "m/" + formatIndex(i), Type: types.P2PKH, Network: types.Mainnet}); err != nil {
					t.Fatalf("Add() error: %v", err)
				}
			}
			if err := ix.Add(IndexEntry{Address: "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", Wallet: "alphabet", Path: "m/84'/0'/0'/0/0"}); err != nil {
				t.Fatal(err)
			}

			entries, err := ix.WalletAddresses("alpha")
			if err != nil {
				t.Fatalf("WalletAddresses() error: %v", err)
			}
			if len(entries) != 3 {
				t.Fatalf("WalletAddresses() = %d entries, want 3", len(entries))
			}
			if entries[0].Address != "1FHz8bpEE5qUZ9XhfjzAbCCwo5bT1HMNAc" {
				t.Errorf("first entry = %s", entries[0].Address)
			}

			n, err := ix.RemoveWallet("alpha")
			if err != nil {
				t.Fatalf("RemoveWallet() error: %v", err)
			}
			if n != 3 {
				t.Errorf("RemoveWallet() = %d, want 3", n)
			}
			if _, err := ix.Lookup(entries[0].Address); !errors.Is(err, ErrAddressNotFound) {
				t.Errorf("Lookup() after remove error = %v", err)
			}
			if _, err := ix.Lookup("bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu"); err != nil {
				t.Errorf("other wallet's address should survive: %v", err)
			}
		})
	}
}

func TestAddressIndex_AddFillsTypeAndNetwork(t *testing.T) {
	tests := []struct {
		entry   IndexEntry
		typ     types.AddressType
		network types.Network
	}{
		{
			IndexEntry{Address: "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", Wallet: "w", Path: "m/84'/0'/0'/0/0"},
			types.P2WPKH, types.Mainnet,
		},
		{
			IndexEntry{Address: "mkpZhYtJu2r87Js3pDiWJDmPte2NRZ8bJV", Wallet: "w", Path: "m/44'/1'/0'/0/0"},
			types.P2PKH, types.Testnet,
		},
		{
			IndexEntry{Address: "mkpZhYtJu2r87Js3pDiWJDmPte2NRZ8bJV", Wallet: "r", Path: "m/44'/1'/0'/0/0", Network: types.Regtest},
			types.P2PKH, types.Regtest,
		},
	}
	for name, ix := range testIndexes(t) {
		t.Run(name, func(t *testing.T) {
			for _, tt := range tests {
				if err := ix.Add(tt.entry); err != nil {
					t.Fatalf("Add(%+v) error: %v", tt.entry, err)
				}
				got, err := ix.Lookup(tt.entry.Address)
				if err != nil {
					t.Fatalf("Lookup(%s) error: %v", tt.entry.Address, err)
				}
				if got.Type != tt.typ || got.Network != tt.network {
					t.Errorf("Lookup(%s) = %s/%s, want %s/%s", tt.entry.Address, got.Type, got.Network, tt.typ, tt.network)
				}
				if _, err := ix.RemoveWallet(tt.entry.Wallet); err != nil {
					t.Fatalf("RemoveWallet() error: %v", err)
				}
			}
		})
	}
}
