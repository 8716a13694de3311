// Package wallet implements HD wallet functionality: BIP-39 mnemonics,
// BIP-32 key derivation, address encoding and encrypted wallet storage.
package wallet

import (
	"crypto/sha256"
	"fmt"
	"io"
	"strings"

	"github.com/tyler-smith/go-bip39/wordlists"
	"golang.org/x/text/unicode/norm"
)

// MnemonicEntropyBits is the default entropy size (24 words).
const MnemonicEntropyBits = 256

const (
	bitsPerWord  = 11
	wordlistSize = 1 << bitsPerWord
)

// wordIndex maps each English wordlist entry to its 11-bit value.
var wordIndex = make(map[string]int, wordlistSize)

func init() {
	if len(wordlists.English) != wordlistSize {
		panic(fmt.Sprintf("wallet: english wordlist has %d words", len(wordlists.English)))
	}
	for i, w := range wordlists.English {
		wordIndex[w] = i
	}
}

// Mnemonic is an ordered BIP-39 word sequence.
type Mnemonic []string

// String joins the words with single spaces.
func (m Mnemonic) String() string {
	return strings.Join(m, " ")
}

// ParseMnemonic normalizes a user-supplied sentence (NFKD, lower case) and
// splits it on whitespace. It does not validate.
func ParseMnemonic(s string) Mnemonic {
	return Mnemonic(strings.Fields(strings.ToLower(norm.NFKD.String(s))))
}

// validEntropyLength reports whether n bytes is 128..256 bits in 32-bit steps.
func validEntropyLength(n int) bool {
	return n >= 16 && n <= 32 && n%4 == 0
}

// NewEntropy reads bits/8 bytes from rng. bits must be one of 128, 160,
// 192, 224 or 256.
func NewEntropy(bits int, rng io.Reader) ([]byte, error) {
	if bits%8 != 0 || !validEntropyLength(bits/8) {
		return nil, fmt.Errorf("%w: %d bits", ErrInvalidEntropyLength, bits)
	}
	entropy := make([]byte, bits/8)
	if _, err := io.ReadFull(rng, entropy); err != nil {
		return nil, fmt.Errorf("read entropy: %w", err)
	}
	return entropy, nil
}

// GenerateMnemonic draws fresh entropy from rng and encodes it as a mnemonic.
func GenerateMnemonic(bits int, rng io.Reader) (Mnemonic, error) {
	entropy, err := NewEntropy(bits, rng)
	if err != nil {
		return nil, err
	}
	defer zero(entropy)
	return NewMnemonic(entropy)
}

// NewMnemonic encodes entropy and its SHA-256 checksum as words.
func NewMnemonic(entropy []byte) (Mnemonic, error) {
	if !validEntropyLength(len(entropy)) {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidEntropyLength, len(entropy))
	}
	entBits := len(entropy) * 8
	csBits := entBits / 32
	count := (entBits + csBits) / bitsPerWord

	// At most 8 checksum bits, so one hash byte covers them.
	hash := sha256.Sum256(entropy)
	data := make([]byte, 0, len(entropy)+1)
	data = append(data, entropy...)
	data = append(data, hash[0])
	defer zero(data)

	words := make(Mnemonic, count)
	for i := range words {
		idx := 0
		for b := 0; b < bitsPerWord; b++ {
			pos := i*bitsPerWord + b
			idx = idx<<1 | int(data[pos/8]>>(7-pos%8)&1)
		}
		words[i] = wordlists.English[idx]
	}
	return words, nil
}

// MnemonicStatus is the outcome of a mnemonic check.
type MnemonicStatus int

const (
	MnemonicValid MnemonicStatus = iota
	MnemonicBadWordCount
	MnemonicUnknownWord
	MnemonicBadChecksum
)

func (s MnemonicStatus) String() string {
	switch s {
	case MnemonicValid:
		return "valid"
	case MnemonicBadWordCount:
		return "bad word count"
	case MnemonicUnknownWord:
		return "unknown word"
	case MnemonicBadChecksum:
		return "bad checksum"
	default:
		return fmt.Sprintf("MnemonicStatus(%d)", int(s))
	}
}

// MnemonicCheck describes why a mnemonic is or is not valid.
type MnemonicCheck struct {
	Status MnemonicStatus
	// WordCount is the number of words examined.
	WordCount int
	// Index and Word identify the first unknown word. Index is -1 otherwise.
	Index int
	Word  string
}

// Valid reports whether the mnemonic passed every check.
func (c MnemonicCheck) Valid() bool {
	return c.Status == MnemonicValid
}

// Err returns nil for a valid mnemonic, or ErrInvalidMnemonic wrapped with
// the reason.
func (c MnemonicCheck) Err() error {
	switch c.Status {
	case MnemonicValid:
		return nil
	case MnemonicBadWordCount:
		return fmt.Errorf("%w: %d words (want 12, 15, 18, 21 or 24)", ErrInvalidMnemonic, c.WordCount)
	case MnemonicUnknownWord:
		return fmt.Errorf("%w: unknown word %q at position %d", ErrInvalidMnemonic, c.Word, c.Index+1)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidMnemonic, c.Status)
	}
}

// CheckMnemonic validates word count, wordlist membership and checksum.
func CheckMnemonic(m Mnemonic) MnemonicCheck {
	entropy, check := decodeMnemonic(m)
	zero(entropy)
	return check
}

// ValidateMnemonic checks if a mnemonic is valid per BIP-39
// (correct word count, valid words, valid checksum).
func ValidateMnemonic(mnemonic string) bool {
	return CheckMnemonic(ParseMnemonic(mnemonic)).Valid()
}

// Entropy recovers the entropy a valid mnemonic encodes.
func (m Mnemonic) Entropy() ([]byte, error) {
	entropy, check := decodeMnemonic(m)
	if err := check.Err(); err != nil {
		return nil, err
	}
	return entropy, nil
}

// decodeMnemonic unpacks the 11-bit groups and verifies the checksum. The
// entropy is returned only when the check passes.
func decodeMnemonic(m Mnemonic) ([]byte, MnemonicCheck) {
	check := MnemonicCheck{WordCount: len(m), Index: -1}
	if len(m) < 12 || len(m) > 24 || len(m)%3 != 0 {
		check.Status = MnemonicBadWordCount
		return nil, check
	}

	totalBits := len(m) * bitsPerWord
	csBits := totalBits / 33
	entBits := totalBits - csBits

	buf := make([]byte, (totalBits+7)/8)
	defer zero(buf)
	for i, w := range m {
		idx, ok := wordIndex[w]
		if !ok {
			check.Status = MnemonicUnknownWord
			check.Index = i
			check.Word = w
			return nil, check
		}
		for b := 0; b < bitsPerWord; b++ {
			if idx>>(bitsPerWord-1-b)&1 == 1 {
				pos := i*bitsPerWord + b
				buf[pos/8] |= 1 << (7 - pos%8)
			}
		}
	}

	entropy := make([]byte, entBits/8)
	copy(entropy, buf)
	hash := sha256.Sum256(entropy)
	want := hash[0] >> (8 - csBits)
	got := buf[entBits/8] >> (8 - csBits)
	if got != want {
		zero(entropy)
		check.Status = MnemonicBadChecksum
		return nil, check
	}

	check.Status = MnemonicValid
	return entropy, check
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
