package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// AddressSize is the length of a public key hash in bytes.
const AddressSize = 20

// AddressType identifies the output script an address pays to.
type AddressType string

const (
	// P2PKH is a legacy pay-to-public-key-hash address (Base58Check).
	P2PKH AddressType = "p2pkh"
	// P2WPKH is a native segwit v0 pay-to-witness-public-key-hash address (Bech32).
	P2WPKH AddressType = "p2wpkh"
)

// ParseAddressType converts a case-insensitive name into an AddressType.
// "segwit" and "legacy" are accepted as aliases.
func ParseAddressType(s string) (AddressType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "p2pkh", "legacy":
		return P2PKH, nil
	case "p2wpkh", "segwit", "bech32":
		return P2WPKH, nil
	}
	return "", fmt.Errorf("unknown address type %q (want p2pkh or p2wpkh)", s)
}

// Address is a 160-bit public key hash bound to an address type and network.
// It is a plain value; the string form is recomputed on demand.
type Address struct {
	Type    AddressType
	Network Network
	Hash    [AddressSize]byte
}

// NewAddress builds an address from a 20-byte public key hash.
func NewAddress(t AddressType, net Network, hash []byte) (Address, error) {
	if len(hash) != AddressSize {
		return Address{}, fmt.Errorf("address hash must be %d bytes, got %d", AddressSize, len(hash))
	}
	if t != P2PKH && t != P2WPKH {
		return Address{}, fmt.Errorf("unknown address type %q", t)
	}
	if !net.Valid() {
		return Address{}, fmt.Errorf("unknown network %q", net)
	}
	a := Address{Type: t, Network: net}
	copy(a.Hash[:], hash)
	return a, nil
}

// IsZero returns true if the address is the zero value.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Encode renders the address in its network-specific string form.
func (a Address) Encode() (string, error) {
	params := a.Network.Params()
	switch a.Type {
	case P2PKH:
		payload := make([]byte, 0, 1+AddressSize)
		payload = append(payload, params.PubKeyHashVersion)
		payload = append(payload, a.Hash[:]...)
		return Base58CheckEncode(payload)
	case P2WPKH:
		return SegwitEncode(params.Bech32HRP, 0, a.Hash[:])
	}
	return "", fmt.Errorf("unknown address type %q", a.Type)
}

// String returns the encoded address, e.g. "bc1q..." or "1...".
func (a Address) String() string {
	s, err := a.Encode()
	if err != nil {
		// Only reachable for a hand-built zero or corrupt value.
		return string(a.Type) + ":" + hex.EncodeToString(a.Hash[:])
	}
	return s
}

// Hex returns the raw hex-encoded public key hash.
func (a Address) Hex() string {
	return hex.EncodeToString(a.Hash[:])
}

// MarshalJSON encodes the address as its string form.
func (a Address) MarshalJSON() ([]byte, error) {
	s, err := a.Encode()
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// UnmarshalJSON decodes an address string.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*a = Address{}
		return nil
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress parses a P2PKH or P2WPKH address for any supported network.
// Base58 P2PKH addresses on testnet and regtest share a version byte and
// are reported as testnet.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, fmt.Errorf("%w: empty address", ErrEncoding)
	}

	if hrp, ok := segwitHRP(s); ok {
		for _, net := range Networks {
			if net.Params().Bech32HRP != hrp {
				continue
			}
			_, version, program, err := SegwitDecode(s)
			if err != nil {
				return Address{}, fmt.Errorf("invalid segwit address: %w", err)
			}
			if version != 0 || len(program) != AddressSize {
				return Address{}, fmt.Errorf("%w: not a P2WPKH program (version %d, %d bytes)",
					ErrInvalidWitnessProgram, version, len(program))
			}
			return NewAddress(P2WPKH, net, program)
		}
	}

	payload, err := Base58CheckDecode(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address: %w", err)
	}
	if len(payload) != 1+AddressSize {
		return Address{}, fmt.Errorf("%w: P2PKH payload is %d bytes, want %d", ErrEncoding, len(payload), 1+AddressSize)
	}
	switch payload[0] {
	case MainnetParams.PubKeyHashVersion:
		return NewAddress(P2PKH, Mainnet, payload[1:])
	case TestnetParams.PubKeyHashVersion:
		return NewAddress(P2PKH, Testnet, payload[1:])
	}
	return Address{}, fmt.Errorf("%w: unknown P2PKH version byte 0x%02x", ErrEncoding, payload[0])
}

// segwitHRP returns the lowercase HRP of s if it looks like a bech32 string
// with a known segwit prefix.
func segwitHRP(s string) (string, bool) {
	sep := strings.LastIndexByte(s, '1')
	if sep < 1 {
		return "", false
	}
	hrp := strings.ToLower(s[:sep])
	for _, net := range Networks {
		if net.Params().Bech32HRP == hrp {
			return hrp, true
		}
	}
	return "", false
}
