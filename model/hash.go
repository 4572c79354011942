package model

import (
	"bytes"

	"github.com/tari-project/tari-sub016/errors"
	fasthex "github.com/tmthrgd/go-hex"
)

const HashSize = 32

// FixedHash is a 32 byte hash, displayed as lower-case hex.
type FixedHash [HashSize]byte

var ZeroHash FixedHash

func NewFixedHashFromBytes(b []byte) (FixedHash, error) {
	var h FixedHash

	if len(b) != HashSize {
		return h, errors.NewInvalidArgumentError("hash must be %d bytes, got %d", HashSize, len(b))
	}

	copy(h[:], b)

	return h, nil
}

func NewFixedHashFromString(s string) (FixedHash, error) {
	b, err := fasthex.DecodeString(s)
	if err != nil {
		return ZeroHash, errors.NewInvalidArgumentError("invalid hash hex %q", s, err)
	}

	return NewFixedHashFromBytes(b)
}

func (h FixedHash) String() string {
	return fasthex.EncodeToString(h[:])
}

func (h FixedHash) Bytes() []byte {
	b := make([]byte, HashSize)
	copy(b, h[:])

	return b
}

func (h FixedHash) IsZero() bool {
	return h == ZeroHash
}

func (h FixedHash) Compare(other FixedHash) int {
	return bytes.Compare(h[:], other[:])
}

func (h FixedHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *FixedHash) UnmarshalText(text []byte) error {
	parsed, err := NewFixedHashFromString(string(text))
	if err != nil {
		return err
	}

	*h = parsed

	return nil
}

// HexBytes is a variable length byte slice that marshals as hex text.
type HexBytes []byte

func (b HexBytes) String() string {
	return fasthex.EncodeToString(b)
}

func (b HexBytes) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *HexBytes) UnmarshalText(text []byte) error {
	decoded, err := fasthex.DecodeString(string(text))
	if err != nil {
		return errors.NewInvalidArgumentError("invalid hex bytes", err)
	}

	*b = decoded

	return nil
}
