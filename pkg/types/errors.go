package types

import "errors"

// Codec errors. Callers match them with errors.Is; the returned error
// carries the offending detail (position, length, version).
var (
	ErrEncoding              = errors.New("malformed encoding input")
	ErrChecksumMismatch      = errors.New("checksum mismatch")
	ErrInvalidCharacter      = errors.New("invalid character")
	ErrInvalidWitnessProgram = errors.New("invalid witness program")
)
