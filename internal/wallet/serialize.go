package wallet

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/hdwallet/pkg/crypto"
	"github.com/Klingon-tech/hdwallet/pkg/types"
)

// serializedKeySize is version(4) | depth(1) | fingerprint(4) | index(4) |
// chain code(32) | key(33), before the Base58Check checksum.
const serializedKeySize = 4 + 1 + FingerprintSize + 4 + ChainCodeSize + 33

// String returns the BIP-32 serialization (xprv/xpub on mainnet, tprv/tpub
// on testnet and regtest).
func (k *ExtendedKey) String() string {
	params := k.net.Params()
	buf := make([]byte, 0, serializedKeySize)
	if k.IsPrivate() {
		buf = append(buf, params.HDPrivateVersion[:]...)
	} else {
		buf = append(buf, params.HDPublicVersion[:]...)
	}
	buf = append(buf, k.depth)
	buf = append(buf, k.parentFP[:]...)
	buf = binary.BigEndian.AppendUint32(buf, k.childIndex)
	buf = append(buf, k.chainCode...)
	if k.IsPrivate() {
		buf = append(buf, 0x00)
		buf = append(buf, k.key...)
	} else {
		buf = append(buf, k.pubKey...)
	}
	defer zero(buf)

	s, err := types.Base58CheckEncode(buf)
	if err != nil {
		// The payload is never empty.
		panic(err)
	}
	return s
}

// ParseExtendedKey decodes a serialized extended key. Testnet and regtest
// share version bytes, so such keys come back tagged as testnet; use
// WithNetwork to retag them.
func ParseExtendedKey(s string) (*ExtendedKey, error) {
	raw, err := types.Base58CheckDecode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExtendedKey, err)
	}
	defer zero(raw)
	if len(raw) != serializedKeySize {
		return nil, fmt.Errorf("%w: payload is %d bytes, want %d", ErrInvalidExtendedKey, len(raw), serializedKeySize)
	}

	var version [4]byte
	copy(version[:], raw[:4])
	net, private, ok := lookupVersion(version)
	if !ok {
		return nil, fmt.Errorf("%w: unknown version %x", ErrInvalidExtendedKey, version)
	}

	k := &ExtendedKey{
		depth:      raw[4],
		childIndex: binary.BigEndian.Uint32(raw[9:13]),
		chainCode:  bytes.Clone(raw[13:45]),
		net:        net,
	}
	copy(k.parentFP[:], raw[5:9])
	keyData := raw[45:]

	if k.depth == 0 && (k.parentFP != [FingerprintSize]byte{} || k.childIndex != 0) {
		return nil, fmt.Errorf("%w: depth 0 key with parent fingerprint or index", ErrInvalidExtendedKey)
	}

	if private {
		if keyData[0] != 0x00 {
			return nil, fmt.Errorf("%w: private key data must start with 0x00", ErrInvalidExtendedKey)
		}
		pub, err := crypto.PublicKeyFromPrivate(keyData[1:])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidExtendedKey, err)
		}
		k.key = bytes.Clone(keyData[1:])
		k.pubKey = pub
		return k, nil
	}

	pub, err := crypto.ParsePublicKey(keyData)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExtendedKey, err)
	}
	k.pubKey = pub
	return k, nil
}

func lookupVersion(v [4]byte) (types.Network, bool, bool) {
	for _, net := range types.Networks {
		p := net.Params()
		switch v {
		case p.HDPrivateVersion:
			return net, true, true
		case p.HDPublicVersion:
			return net, false, true
		}
	}
	return "", false, false
}
