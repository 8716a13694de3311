package types

import (
	"fmt"
	"strings"
)

// Network identifies the Bitcoin network an address or key belongs to.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
	Regtest Network = "regtest"
)

// Params holds the version bytes and prefixes a network fixes.
type Params struct {
	Name Network

	// PubKeyHashVersion prefixes P2PKH payloads.
	PubKeyHashVersion byte
	// WIFVersion prefixes WIF-encoded private keys.
	WIFVersion byte
	// Bech32HRP is the human-readable part of segwit addresses.
	Bech32HRP string

	// HD key serialization versions (BIP-32).
	HDPrivateVersion [4]byte
	HDPublicVersion  [4]byte

	// CoinType is the BIP-44 coin type (unhardened).
	CoinType uint32
}

var (
	// MainnetParams are the parameters for the Bitcoin main network.
	MainnetParams = Params{
		Name:              Mainnet,
		PubKeyHashVersion: 0x00,
		WIFVersion:        0x80,
		Bech32HRP:         "bc",
		HDPrivateVersion:  [4]byte{0x04, 0x88, 0xad, 0xe4}, // xprv
		HDPublicVersion:   [4]byte{0x04, 0x88, 0xb2, 0x1e}, // xpub
		CoinType:          0,
	}

	// TestnetParams are the parameters for the Bitcoin test network.
	TestnetParams = Params{
		Name:              Testnet,
		PubKeyHashVersion: 0x6f,
		WIFVersion:        0xef,
		Bech32HRP:         "tb",
		HDPrivateVersion:  [4]byte{0x04, 0x35, 0x83, 0x94}, // tprv
		HDPublicVersion:   [4]byte{0x04, 0x35, 0x87, 0xcf}, // tpub
		CoinType:          1,
	}

	// RegtestParams are the parameters for a local regression-test network.
	// Only the segwit HRP differs from testnet.
	RegtestParams = Params{
		Name:              Regtest,
		PubKeyHashVersion: 0x6f,
		WIFVersion:        0xef,
		Bech32HRP:         "bcrt",
		HDPrivateVersion:  [4]byte{0x04, 0x35, 0x83, 0x94},
		HDPublicVersion:   [4]byte{0x04, 0x35, 0x87, 0xcf},
		CoinType:          1,
	}
)

// Networks lists every supported network in a stable order.
var Networks = []Network{Mainnet, Testnet, Regtest}

// ParseNetwork converts a case-insensitive name into a Network.
func ParseNetwork(s string) (Network, error) {
	n := Network(strings.ToLower(strings.TrimSpace(s)))
	if !n.Valid() {
		return "", fmt.Errorf("unknown network %q (want mainnet, testnet or regtest)", s)
	}
	return n, nil
}

// Valid reports whether n is a supported network.
func (n Network) Valid() bool {
	switch n {
	case Mainnet, Testnet, Regtest:
		return true
	}
	return false
}

// Params returns the parameters for n. An unknown network is a programming
// error; validate user input with ParseNetwork first.
func (n Network) Params() *Params {
	switch n {
	case Mainnet:
		return &MainnetParams
	case Testnet:
		return &TestnetParams
	case Regtest:
		return &RegtestParams
	}
	panic(fmt.Sprintf("types: unknown network %q", string(n)))
}

// String returns the network name.
func (n Network) String() string {
	return string(n)
}

// UnmarshalText decodes and validates a network name.
func (n *Network) UnmarshalText(text []byte) error {
	parsed, err := ParseNetwork(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
