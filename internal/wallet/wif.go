package wallet

import (
	"bytes"
	"fmt"

	"github.com/Klingon-tech/hdwallet/pkg/crypto"
	"github.com/Klingon-tech/hdwallet/pkg/types"
)

const compressedSuffix = 0x01

// WIF is a decoded Wallet Import Format private key.
type WIF struct {
	PrivateKey []byte
	Network    types.Network
	// Compressed marks keys whose address uses the compressed public key.
	Compressed bool
}

// EncodeWIF encodes a 32-byte private key as
// Base58Check(version | key [| 0x01]).
func EncodeWIF(priv []byte, net types.Network, compressed bool) (string, error) {
	if !crypto.ValidPrivateKey(priv) {
		return "", fmt.Errorf("%w: private key out of range", ErrInvalidWIF)
	}
	payload := make([]byte, 0, 1+crypto.PrivateKeySize+1)
	payload = append(payload, net.Params().WIFVersion)
	payload = append(payload, priv...)
	if compressed {
		payload = append(payload, compressedSuffix)
	}
	defer zero(payload)
	return types.Base58CheckEncode(payload)
}

// DecodeWIF parses a WIF string. The testnet version byte is shared with
// regtest and decodes as testnet.
func DecodeWIF(s string) (*WIF, error) {
	payload, err := types.Base58CheckDecode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWIF, err)
	}
	defer zero(payload)

	w := &WIF{}
	switch len(payload) {
	case 1 + crypto.PrivateKeySize:
	case 1 + crypto.PrivateKeySize + 1:
		if payload[len(payload)-1] != compressedSuffix {
			return nil, fmt.Errorf("%w: bad compression flag 0x%02x", ErrInvalidWIF, payload[len(payload)-1])
		}
		w.Compressed = true
	default:
		return nil, fmt.Errorf("%w: payload is %d bytes", ErrInvalidWIF, len(payload))
	}

	switch payload[0] {
	case types.MainnetParams.WIFVersion:
		w.Network = types.Mainnet
	case types.TestnetParams.WIFVersion:
		w.Network = types.Testnet
	default:
		return nil, fmt.Errorf("%w: unknown version 0x%02x", ErrInvalidWIF, payload[0])
	}

	key := payload[1 : 1+crypto.PrivateKeySize]
	if !crypto.ValidPrivateKey(key) {
		return nil, fmt.Errorf("%w: private key out of range", ErrInvalidWIF)
	}
	w.PrivateKey = bytes.Clone(key)
	return w, nil
}

// PublicKey returns the public key in the form the WIF commits to.
// Uncompressed keys are rejected since no supported address uses them.
func (w *WIF) PublicKey() ([]byte, error) {
	if !w.Compressed {
		return nil, fmt.Errorf("%w: uncompressed keys are not supported", ErrInvalidWIF)
	}
	return crypto.PublicKeyFromPrivate(w.PrivateKey)
}

// WIF returns the compressed WIF encoding of the private key.
func (k *ExtendedKey) WIF() (string, error) {
	if !k.IsPrivate() {
		return "", ErrPublicOnly
	}
	return EncodeWIF(k.key, k.net, true)
}
