package wallet

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Klingon-tech/hdwallet/pkg/types"
)

func TestNewExportRecord(t *testing.T) {
	rec, err := NewExportRecord(ParseMnemonic(testMnemonic), "", MustParsePath("m/84'/0'/0'/0/0"), types.P2WPKH, types.Mainnet)
	if err != nil {
		t.Fatalf("NewExportRecord() error: %v", err)
	}
	want := ExportRecord{
		Version:       ExportVersion,
		Mnemonic:      testMnemonic,
		Path:          "m/84'/0'/0'/0/0",
		Address:       "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu",
		Network:       types.Mainnet,
		PrivateKeyWIF: "KyZpNDKnfs94vbrwhJneDi77V6jF64PWPF8x5cdJb8ifgg2DUc9d",
	}
	if *rec != want {
		t.Errorf("NewExportRecord() = %+v, want %+v", *rec, want)
	}
}

func TestNewExportRecord_InvalidMnemonic(t *testing.T) {
	_, err := NewExportRecord(ParseMnemonic("abandon abandon"), "", MustParsePath("m/0"), types.P2PKH, types.Mainnet)
	if !errors.Is(err, ErrInvalidMnemonic) {
		t.Errorf("NewExportRecord() error = %v, want ErrInvalidMnemonic", err)
	}
}

func TestWriteReadExport(t *testing.T) {
	rec, err := NewExportRecord(ParseMnemonic(testMnemonic), "", MustParsePath("m/84'/1'/0'/0/0"), types.P2WPKH, types.Testnet)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "export.json")
	if err := WriteExport(path, rec); err != nil {
		t.Fatalf("WriteExport() error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 0600", perm)
	}

	// The on-disk field names are part of the format.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	for _, field := range []string{"version", "mnemonic", "path", "address", "network", "private_key_wif"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("missing field %q", field)
		}
	}

	back, err := ReadExport(path)
	if err != nil {
		t.Fatalf("ReadExport() error: %v", err)
	}
	if *back != *rec {
		t.Errorf("ReadExport() = %+v, want %+v", *back, *rec)
	}
	if back.Address != "tb1q6rz28mcfaxtmd6v789l9rrlrusdprr9pqcpvkl" {
		t.Errorf("Address = %s", back.Address)
	}
}

func TestReadExport_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := ReadExport(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("ReadExport() of missing file should fail")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadExport(bad); err == nil {
		t.Error("ReadExport() of invalid JSON should fail")
	}

	future := filepath.Join(dir, "future.json")
	if err := os.WriteFile(future, []byte(`{"version": 2, "address": "x"}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadExport(future); !errors.Is(err, ErrUnsupportedFile) {
		t.Errorf("ReadExport() error = %v, want ErrUnsupportedFile", err)
	}
}
