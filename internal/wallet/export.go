package wallet

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Klingon-tech/hdwallet/pkg/types"
)

// ExportVersion is the current plaintext export format version.
const ExportVersion = 1

// ExportRecord is the plaintext single-address export written for backups
// and interop: one wallet per UTF-8 JSON file.
type ExportRecord struct {
	Version       int           `json:"version"`
	Mnemonic      string        `json:"mnemonic,omitempty"`
	Path          string        `json:"path,omitempty"`
	Address       string        `json:"address"`
	Network       types.Network `json:"network"`
	PrivateKeyWIF string        `json:"private_key_wif"`
}

// NewExportRecord derives the key at path from a mnemonic and fills in the
// address of type t and its WIF.
func NewExportRecord(m Mnemonic, passphrase string, path DerivationPath, t types.AddressType, net types.Network) (*ExportRecord, error) {
	if err := CheckMnemonic(m).Err(); err != nil {
		return nil, err
	}
	seed := MnemonicToSeed(m, passphrase)
	defer zero(seed)

	master, err := NewMasterKey(seed, net)
	if err != nil {
		return nil, err
	}
	key, err := master.DerivePath(path)
	if err != nil {
		return nil, err
	}
	addr, err := key.Address(t)
	if err != nil {
		return nil, err
	}
	wif, err := key.WIF()
	if err != nil {
		return nil, err
	}
	return &ExportRecord{
		Version:       ExportVersion,
		Mnemonic:      m.String(),
		Path:          path.String(),
		Address:       addr.String(),
		Network:       net,
		PrivateKeyWIF: wif,
	}, nil
}

// WriteExport writes rec as indented JSON readable only by the owner.
func WriteExport(path string, rec *ExportRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// ReadExport reads an export file and checks its version and network.
func ReadExport(path string) (*ExportRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	var rec ExportRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}
	if rec.Version != ExportVersion {
		return nil, fmt.Errorf("%w: export version %d", ErrUnsupportedFile, rec.Version)
	}
	return &rec, nil
}
