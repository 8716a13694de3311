package wallet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Klingon-tech/hdwallet/pkg/types"
)

func testKeystore(t *testing.T) *Keystore {
	t.Helper()
	dir := t.TempDir()
	ks, err := NewKeystore(dir)
	if err != nil {
		t.Fatalf("NewKeystore() error: %v", err)
	}
	return ks
}

func createTestWallet(t *testing.T, ks *Keystore, name string, opts WalletOptions) *WalletInfo {
	t.Helper()
	info, err := ks.Create(name, Secret{Mnemonic: testMnemonic}, []byte("test-password"), fastParams(), opts)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	return info
}

func TestKeystore_CreateAndLoad(t *testing.T) {
	ks := testKeystore(t)
	password := []byte("test-password")
	secret := Secret{Mnemonic: testMnemonic, Passphrase: "TREZOR"}

	info, err := ks.Create("mywallet", secret, password, fastParams(), WalletOptions{Network: types.Mainnet})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if info.AddressType != types.P2WPKH {
		t.Errorf("default AddressType = %s, want p2wpkh", info.AddressType)
	}
	if got := info.AccountPath().String(); got != "m/84'/0'/0'" {
		t.Errorf("AccountPath() = %s", got)
	}

	loaded, err := ks.LoadSecret("mywallet", password)
	if err != nil {
		t.Fatalf("LoadSecret() error: %v", err)
	}
	if *loaded != secret {
		t.Errorf("LoadSecret() = %+v, want %+v", loaded, secret)
	}

	master, err := ks.MasterKey("mywallet", password)
	if err != nil {
		t.Fatalf("MasterKey() error: %v", err)
	}
	seed, err := secret.Seed()
	if err != nil {
		t.Fatal(err)
	}
	want, err := NewMasterKey(seed, types.Mainnet)
	if err != nil {
		t.Fatal(err)
	}
	if master.String() != want.String() {
		t.Error("MasterKey() does not match the stored mnemonic")
	}
	if master.ID() != info.WalletID {
		t.Error("wallet id mismatch")
	}
}

func TestKeystore_CreateInvalidMnemonic(t *testing.T) {
	ks := testKeystore(t)
	_, err := ks.Create("bad", Secret{Mnemonic: "abandon abandon"}, []byte("p"), fastParams(), WalletOptions{Network: types.Mainnet})
	if !errors.Is(err, ErrInvalidMnemonic) {
		t.Errorf("Create() error = %v, want ErrInvalidMnemonic", err)
	}
	names, _ := ks.List()
	if len(names) != 0 {
		t.Errorf("failed Create() left files behind: %v", names)
	}
}

func TestKeystore_CreateDuplicate(t *testing.T) {
	ks := testKeystore(t)
	createTestWallet(t, ks, "dup", WalletOptions{Network: types.Mainnet})

	_, err := ks.Create("dup", Secret{Mnemonic: testMnemonic, Passphrase: "other"}, []byte("pass"), fastParams(), WalletOptions{Network: types.Mainnet})
	if !errors.Is(err, ErrWalletExists) {
		t.Errorf("second Create() error = %v, want ErrWalletExists", err)
	}

	_, err = ks.Create("copy", Secret{Mnemonic: testMnemonic}, []byte("pass"), fastParams(), WalletOptions{Network: types.Mainnet})
	if !errors.Is(err, ErrDuplicateWallet) {
		t.Errorf("Create() with same seed error = %v, want ErrDuplicateWallet", err)
	}

	// A different passphrase is a different wallet.
	if _, err := ks.Create("hidden", Secret{Mnemonic: testMnemonic, Passphrase: "x"}, []byte("pass"), fastParams(), WalletOptions{Network: types.Mainnet}); err != nil {
		t.Errorf("Create() with new passphrase error: %v", err)
	}
}

func TestKeystore_CreateInvalidName(t *testing.T) {
	ks := testKeystore(t)
	for _, name := range []string{"", ".", "..", "a/b", "../escape"} {
		if _, err := ks.Create(name, Secret{Mnemonic: testMnemonic}, []byte("p"), fastParams(), WalletOptions{Network: types.Mainnet}); err == nil {
			t.Errorf("Create(%q) should fail", name)
		}
	}
}

func TestKeystore_LoadWrongPassword(t *testing.T) {
	ks := testKeystore(t)
	createTestWallet(t, ks, "wallet", WalletOptions{Network: types.Mainnet})

	if _, err := ks.LoadSecret("wallet", []byte("wrong")); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("LoadSecret() error = %v, want ErrDecryptionFailed", err)
	}
	if _, err := ks.MasterKey("wallet", []byte("wrong")); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("MasterKey() error = %v, want ErrDecryptionFailed", err)
	}
}

func TestKeystore_LoadNonexistent(t *testing.T) {
	ks := testKeystore(t)
	if _, err := ks.LoadSecret("doesnotexist", []byte("pass")); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("LoadSecret() error = %v, want ErrWalletNotFound", err)
	}
	if _, err := ks.Info("doesnotexist"); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("Info() error = %v, want ErrWalletNotFound", err)
	}
}

func TestKeystore_NextAddress(t *testing.T) {
	ks := testKeystore(t)
	createTestWallet(t, ks, "w", WalletOptions{Network: types.Mainnet})

	first, err := ks.NextAddress("w", false)
	if err != nil {
		t.Fatalf("NextAddress() error: %v", err)
	}
	if first.Address != "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu" {
		t.Errorf("first address = %s", first.Address)
	}
	if first.Path != "m/84'/0'/0'/0/0" || first.Index != 0 || first.Change != ChangeExternal {
		t.Errorf("first entry = %+v", first)
	}

	second, err := ks.NextAddress("w", false)
	if err != nil {
		t.Fatal(err)
	}
	if second.Index != 1 || second.Address == first.Address {
		t.Errorf("second entry = %+v", second)
	}

	change, err := ks.NextAddress("w", true)
	if err != nil {
		t.Fatal(err)
	}
	if change.Path != "m/84'/0'/0'/1/0" || change.Change != ChangeInternal {
		t.Errorf("change entry = %+v", change)
	}

	ext, _ := ks.GetExternalIndex("w")
	chg, _ := ks.GetChangeIndex("w")
	if ext != 2 || chg != 1 {
		t.Errorf("indices = %d/%d, want 2/1", ext, chg)
	}

	accounts, err := ks.ListAccounts("w")
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 3 {
		t.Fatalf("ListAccounts() = %d entries, want 3", len(accounts))
	}

	// Addresses derived watch-only match full private derivation.
	master, err := ks.MasterKey("w", []byte("test-password"))
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range accounts {
		key, err := master.DerivePath(MustParsePath(a.Path))
		if err != nil {
			t.Fatal(err)
		}
		addr, err := key.Address(types.P2WPKH)
		if err != nil {
			t.Fatal(err)
		}
		if addr.String() != a.Address {
			t.Errorf("%s: %s, want %s", a.Path, a.Address, addr)
		}
	}
}

func TestKeystore_NextAddressLegacyTestnet(t *testing.T) {
	ks := testKeystore(t)
	info := createTestWallet(t, ks, "legacy", WalletOptions{Network: types.Testnet, AddressType: types.P2PKH})
	if got := info.AccountPath().String(); got != "m/44'/1'/0'" {
		t.Errorf("AccountPath() = %s", got)
	}

	entry, err := ks.NextAddress("legacy", false)
	if err != nil {
		t.Fatalf("NextAddress() error: %v", err)
	}
	if entry.Address != "mkpZhYtJu2r87Js3pDiWJDmPte2NRZ8bJV" {
		t.Errorf("address = %s", entry.Address)
	}

	key, err := ks.AccountKey("legacy")
	if err != nil {
		t.Fatal(err)
	}
	if key.IsPrivate() || key.Network() != types.Testnet || key.Depth() != 3 {
		t.Errorf("AccountKey() = private:%v net:%s depth:%d", key.IsPrivate(), key.Network(), key.Depth())
	}
}

func TestKeystore_SetIndices(t *testing.T) {
	ks := testKeystore(t)
	createTestWallet(t, ks, "w", WalletOptions{Network: types.Regtest})

	if err := ks.SetExternalIndex("w", 10); err != nil {
		t.Fatalf("SetExternalIndex() error: %v", err)
	}
	if err := ks.SetChangeIndex("w", 4); err != nil {
		t.Fatalf("SetChangeIndex() error: %v", err)
	}

	entry, err := ks.NextAddress("w", false)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Index != 10 {
		t.Errorf("Index = %d, want 10", entry.Index)
	}
	info, err := ks.Info("w")
	if err != nil {
		t.Fatal(err)
	}
	if info.NextExternalIndex != 11 || info.NextChangeIndex != 4 {
		t.Errorf("indices = %d/%d, want 11/4", info.NextExternalIndex, info.NextChangeIndex)
	}

	if err := ks.SetExternalIndex("missing", 1); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("SetExternalIndex() on missing wallet error = %v", err)
	}
}

func TestKeystore_AddAccountIdempotent(t *testing.T) {
	ks := testKeystore(t)
	createTestWallet(t, ks, "w", WalletOptions{Network: types.Mainnet})

	entry := AccountEntry{Index: 5, Change: 0, Name: "manual", Address: "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu"}
	if err := ks.AddAccount("w", entry); err != nil {
		t.Fatalf("AddAccount() error: %v", err)
	}
	if err := ks.AddAccount("w", entry); err != nil {
		t.Fatalf("repeat AddAccount() error: %v", err)
	}
	conflict := entry
	conflict.Address = "bc1qnnypkcfrvu3e9dhzeggpn4kh622l4cq7c5sghz"
	if err := ks.AddAccount("w", conflict); err == nil {
		t.Error("AddAccount() with conflicting address should fail")
	}

	accounts, _ := ks.ListAccounts("w")
	if len(accounts) != 1 {
		t.Errorf("ListAccounts() = %d entries, want 1", len(accounts))
	}
}

func TestKeystore_ListAndDelete(t *testing.T) {
	ks := testKeystore(t)
	if _, err := ks.Create("beta", Secret{Mnemonic: testMnemonic}, []byte("p"), fastParams(), WalletOptions{Network: types.Mainnet}); err != nil {
		t.Fatal(err)
	}
	if _, err := ks.Create("alpha", Secret{Mnemonic: testMnemonic, Passphrase: "2"}, []byte("p"), fastParams(), WalletOptions{Network: types.Mainnet}); err != nil {
		t.Fatal(err)
	}
	// Unrelated files are ignored.
	if err := os.WriteFile(filepath.Join(ks.path, "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	names, err := ks.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("List() = %v, want [alpha beta]", names)
	}

	if err := ks.Delete("alpha"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := ks.Delete("alpha"); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("second Delete() error = %v, want ErrWalletNotFound", err)
	}
	names, _ = ks.List()
	if len(names) != 1 || names[0] != "beta" {
		t.Errorf("List() after delete = %v", names)
	}
}

func TestKeystore_FilePermissions(t *testing.T) {
	ks := testKeystore(t)
	createTestWallet(t, ks, "perms", WalletOptions{Network: types.Mainnet})

	info, err := os.Stat(filepath.Join(ks.path, "perms.wallet"))
	if err != nil {
		t.Fatalf("Stat() error: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
	if _, err := os.Stat(filepath.Join(ks.path, "perms.wallet.tmp")); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestKeystore_UnsupportedVersion(t *testing.T) {
	ks := testKeystore(t)
	path := filepath.Join(ks.path, "old.wallet")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := ks.Info("old"); !errors.Is(err, ErrUnsupportedFile) {
		t.Errorf("Info() error = %v, want ErrUnsupportedFile", err)
	}
}
