package types

import (
	"fmt"
	"strings"
)

// Bech32 charset used for encoding (BIP-173).
const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

const (
	bech32MaxLength    = 90
	bech32ChecksumSize = 6

	bech32Const  = 1
	bech32mConst = 0x2bc830a3
)

// Bech32Variant selects the checksum constant.
type Bech32Variant int

const (
	// Bech32 is the BIP-173 encoding, used for witness version 0.
	Bech32 Bech32Variant = iota + 1
	// Bech32m is the BIP-350 encoding, used for witness versions 1 through 16.
	Bech32m
)

func (v Bech32Variant) String() string {
	switch v {
	case Bech32:
		return "bech32"
	case Bech32m:
		return "bech32m"
	default:
		return fmt.Sprintf("Bech32Variant(%d)", int(v))
	}
}

func (v Bech32Variant) constant() uint32 {
	if v == Bech32m {
		return bech32mConst
	}
	return bech32Const
}

// bech32CharsetRev maps bech32 characters to their 5-bit values. -1 = invalid.
var bech32CharsetRev [128]int8

func init() {
	for i := range bech32CharsetRev {
		bech32CharsetRev[i] = -1
	}
	for i, c := range bech32Charset {
		bech32CharsetRev[c] = int8(i)
	}
}

// Bech32Encode encodes a human-readable part and 5-bit data groups into a
// bech32 or bech32m string. The result is always lowercase.
func Bech32Encode(hrp string, data []byte, variant Bech32Variant) (string, error) {
	if err := validateHRP(hrp); err != nil {
		return "", err
	}
	if len(hrp)+1+len(data)+bech32ChecksumSize > bech32MaxLength {
		return "", fmt.Errorf("%w: bech32 string exceeds %d characters", ErrEncoding, bech32MaxLength)
	}
	for i, b := range data {
		if b > 31 {
			return "", fmt.Errorf("%w: data group %d is not a 5-bit value", ErrEncoding, i)
		}
	}
	hrp = strings.ToLower(hrp)

	chk := bech32CreateChecksum(hrp, data, variant)

	// Build result: hrp + "1" + data + checksum
	var sb strings.Builder
	sb.Grow(len(hrp) + 1 + len(data) + bech32ChecksumSize)
	sb.WriteString(hrp)
	sb.WriteByte('1')
	for _, b := range data {
		sb.WriteByte(bech32Charset[b])
	}
	for _, b := range chk {
		sb.WriteByte(bech32Charset[b])
	}
	return sb.String(), nil
}

// Bech32Decode decodes a bech32 or bech32m string into its lowercase
// human-readable part, the 5-bit data groups (checksum stripped) and the
// variant whose checksum constant matched.
func Bech32Decode(s string) (string, []byte, Bech32Variant, error) {
	if len(s) == 0 {
		return "", nil, 0, fmt.Errorf("%w: empty bech32 string", ErrEncoding)
	}
	if len(s) > bech32MaxLength {
		return "", nil, 0, fmt.Errorf("%w: bech32 string exceeds %d characters", ErrEncoding, bech32MaxLength)
	}

	// Reject mixed case.
	hasUpper := false
	hasLower := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 33 || c > 126 {
			return "", nil, 0, fmt.Errorf("%w: byte 0x%02x at position %d", ErrInvalidCharacter, c, i)
		}
		if c >= 'A' && c <= 'Z' {
			hasUpper = true
		}
		if c >= 'a' && c <= 'z' {
			hasLower = true
		}
	}
	if hasUpper && hasLower {
		return "", nil, 0, fmt.Errorf("%w: mixed case", ErrEncoding)
	}

	// Work in lowercase.
	s = strings.ToLower(s)

	// Find the last '1' separator.
	sepIdx := strings.LastIndexByte(s, '1')
	if sepIdx < 1 {
		return "", nil, 0, fmt.Errorf("%w: missing separator", ErrEncoding)
	}
	if sepIdx+1+bech32ChecksumSize > len(s) {
		return "", nil, 0, fmt.Errorf("%w: data part too short", ErrEncoding)
	}

	hrp := s[:sepIdx]
	dataStr := s[sepIdx+1:]

	// Decode data characters.
	data := make([]byte, len(dataStr))
	for i := 0; i < len(dataStr); i++ {
		val := bech32CharsetRev[dataStr[i]]
		if val < 0 {
			return "", nil, 0, fmt.Errorf("%w: %q at position %d", ErrInvalidCharacter, dataStr[i], sepIdx+1+i)
		}
		data[i] = byte(val)
	}

	var variant Bech32Variant
	switch bech32Polymod(append(bech32HRPExpand(hrp), data...)) {
	case bech32Const:
		variant = Bech32
	case bech32mConst:
		variant = Bech32m
	default:
		return "", nil, 0, fmt.Errorf("%w: bech32", ErrChecksumMismatch)
	}

	return hrp, data[:len(data)-bech32ChecksumSize], variant, nil
}

// SegwitEncode encodes a witness version and program as a segwit address
// (BIP-173 for version 0, BIP-350 for versions 1-16).
func SegwitEncode(hrp string, version byte, program []byte) (string, error) {
	if err := validateWitnessProgram(version, program); err != nil {
		return "", err
	}
	conv, err := ConvertBits(program, 8, 5, true)
	if err != nil {
		return "", err
	}
	variant := Bech32
	if version > 0 {
		variant = Bech32m
	}
	data := make([]byte, 0, 1+len(conv))
	data = append(data, version)
	data = append(data, conv...)
	return Bech32Encode(hrp, data, variant)
}

// SegwitDecode decodes a segwit address into its human-readable part,
// witness version and witness program.
func SegwitDecode(addr string) (string, byte, []byte, error) {
	hrp, data, variant, err := Bech32Decode(addr)
	if err != nil {
		return "", 0, nil, err
	}
	if len(data) == 0 {
		return "", 0, nil, fmt.Errorf("%w: missing witness version", ErrInvalidWitnessProgram)
	}
	version := data[0]
	if version > 16 {
		return "", 0, nil, fmt.Errorf("%w: version %d", ErrInvalidWitnessProgram, version)
	}
	if (version == 0 && variant != Bech32) || (version > 0 && variant != Bech32m) {
		return "", 0, nil, fmt.Errorf("%w: %s checksum used for witness version %d", ErrChecksumMismatch, variant, version)
	}
	program, err := ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return "", 0, nil, fmt.Errorf("%w: %v", ErrInvalidWitnessProgram, err)
	}
	if err := validateWitnessProgram(version, program); err != nil {
		return "", 0, nil, err
	}
	return hrp, version, program, nil
}

func validateWitnessProgram(version byte, program []byte) error {
	if version > 16 {
		return fmt.Errorf("%w: version %d", ErrInvalidWitnessProgram, version)
	}
	if len(program) < 2 || len(program) > 40 {
		return fmt.Errorf("%w: program length %d", ErrInvalidWitnessProgram, len(program))
	}
	if version == 0 && len(program) != 20 && len(program) != 32 {
		return fmt.Errorf("%w: version 0 program length %d", ErrInvalidWitnessProgram, len(program))
	}
	return nil
}

func validateHRP(hrp string) error {
	if len(hrp) == 0 || len(hrp) > 83 {
		return fmt.Errorf("%w: HRP length %d", ErrEncoding, len(hrp))
	}
	hasUpper, hasLower := false, false
	for i := 0; i < len(hrp); i++ {
		c := hrp[i]
		if c < 33 || c > 126 {
			return fmt.Errorf("%w: HRP byte 0x%02x at position %d", ErrInvalidCharacter, c, i)
		}
		if c >= 'A' && c <= 'Z' {
			hasUpper = true
		}
		if c >= 'a' && c <= 'z' {
			hasLower = true
		}
	}
	if hasUpper && hasLower {
		return fmt.Errorf("%w: mixed-case HRP", ErrEncoding)
	}
	return nil
}

// bech32Polymod computes the bech32 polynomial modulus.
func bech32Polymod(values []byte) uint32 {
	gen := [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if (top>>uint(i))&1 == 1 {
				chk ^= gen[i]
			}
		}
	}
	return chk
}

// bech32HRPExpand expands the HRP for checksum computation.
func bech32HRPExpand(hrp string) []byte {
	ret := make([]byte, 0, len(hrp)*2+1)
	for i := 0; i < len(hrp); i++ {
		ret = append(ret, hrp[i]>>5)
	}
	ret = append(ret, 0)
	for i := 0; i < len(hrp); i++ {
		ret = append(ret, hrp[i]&31)
	}
	return ret
}

// bech32CreateChecksum creates the 6-group checksum for the given HRP and data.
func bech32CreateChecksum(hrp string, data []byte, variant Bech32Variant) []byte {
	values := append(bech32HRPExpand(hrp), data...)
	values = append(values, 0, 0, 0, 0, 0, 0)
	polymod := bech32Polymod(values) ^ variant.constant()
	ret := make([]byte, bech32ChecksumSize)
	for i := 0; i < bech32ChecksumSize; i++ {
		ret[i] = byte((polymod >> uint(5*(5-i))) & 31)
	}
	return ret
}

// ConvertBits converts between bit groups.
// fromBits/toBits are the source/destination group sizes (e.g. 8 and 5).
// pad controls whether incomplete groups are zero-padded.
func ConvertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	acc := uint32(0)
	bits := uint(0)
	maxv := uint32((1 << toBits) - 1)
	ret := make([]byte, 0, len(data)*int(fromBits)/int(toBits)+1)

	for _, b := range data {
		if uint32(b)>>fromBits != 0 {
			return nil, fmt.Errorf("%w: invalid data byte %d", ErrEncoding, b)
		}
		acc = acc<<fromBits | uint32(b)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			ret = append(ret, byte((acc>>bits)&maxv))
		}
	}

	if pad {
		if bits > 0 {
			ret = append(ret, byte((acc<<(toBits-bits))&maxv))
		}
	} else {
		if bits >= fromBits {
			return nil, fmt.Errorf("%w: excess padding", ErrEncoding)
		}
		if (acc<<(toBits-bits))&maxv != 0 {
			return nil, fmt.Errorf("%w: non-zero padding", ErrEncoding)
		}
	}

	return ret, nil
}
