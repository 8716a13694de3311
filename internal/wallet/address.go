package wallet

import (
	"fmt"

	"github.com/Klingon-tech/hdwallet/pkg/crypto"
	"github.com/Klingon-tech/hdwallet/pkg/types"
)

// P2PKHAddress returns the legacy address paying to Hash160(pubKey).
func P2PKHAddress(pubKey []byte, net types.Network) (types.Address, error) {
	return PublicKeyAddress(types.P2PKH, pubKey, net)
}

// P2WPKHAddress returns the native segwit v0 address paying to
// Hash160(pubKey).
func P2WPKHAddress(pubKey []byte, net types.Network) (types.Address, error) {
	return PublicKeyAddress(types.P2WPKH, pubKey, net)
}

// PublicKeyAddress hashes a 33-byte compressed public key into an address
// of type t. An unknown network is a programming error and panics.
func PublicKeyAddress(t types.AddressType, pubKey []byte, net types.Network) (types.Address, error) {
	_ = net.Params() // panics on unknown networks
	if _, err := crypto.ParsePublicKey(pubKey); err != nil {
		return types.Address{}, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}
	hash := crypto.Hash160(pubKey)
	return types.NewAddress(t, net, hash[:])
}

// Address derives an address of type t from this key's public key on the
// key's network.
func (k *ExtendedKey) Address(t types.AddressType) (types.Address, error) {
	return PublicKeyAddress(t, k.pubKey, k.net)
}
