package model

import (
	"git.gammaspectra.live/P2Pool/edwards25519"
	"github.com/tari-project/tari-sub016/errors"
	fasthex "github.com/tmthrgd/go-hex"
)

// BlindingFactor is a canonical little-endian scalar, used for the total kernel offset.
type BlindingFactor [32]byte

func (b BlindingFactor) String() string {
	return fasthex.EncodeToString(b[:])
}

func (b BlindingFactor) IsZero() bool {
	return b == BlindingFactor{}
}

// Add returns b + other modulo the group order. Both operands must be canonical scalars.
func (b BlindingFactor) Add(other BlindingFactor) (BlindingFactor, error) {
	x, err := edwards25519.NewScalar().SetCanonicalBytes(b[:])
	if err != nil {
		return BlindingFactor{}, errors.NewInvalidArgumentError("kernel offset %s is not a canonical scalar", b, err)
	}

	y, err := edwards25519.NewScalar().SetCanonicalBytes(other[:])
	if err != nil {
		return BlindingFactor{}, errors.NewInvalidArgumentError("kernel offset %s is not a canonical scalar", other, err)
	}

	var sum BlindingFactor

	copy(sum[:], edwards25519.NewScalar().Add(x, y).Bytes())

	return sum, nil
}

func (b BlindingFactor) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *BlindingFactor) UnmarshalText(text []byte) error {
	decoded, err := fasthex.DecodeString(string(text))
	if err != nil {
		return errors.NewInvalidArgumentError("invalid blinding factor hex", err)
	}

	if len(decoded) != len(b) {
		return errors.NewInvalidArgumentError("blinding factor must be %d bytes, got %d", len(b), len(decoded))
	}

	copy(b[:], decoded)

	return nil
}
