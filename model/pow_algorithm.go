package model

import (
	"strings"

	"github.com/tari-project/tari-sub016/errors"
)

type PowAlgorithm uint8

const (
	PowAlgorithmMonero PowAlgorithm = 0
	PowAlgorithmSha3   PowAlgorithm = 1
)

// PowAlgorithms lists every supported algorithm in a stable order.
var PowAlgorithms = []PowAlgorithm{PowAlgorithmMonero, PowAlgorithmSha3}

func (p PowAlgorithm) String() string {
	switch p {
	case PowAlgorithmMonero:
		return "Monero"
	case PowAlgorithmSha3:
		return "Sha3"
	default:
		return "Unknown"
	}
}

func (p PowAlgorithm) IsValid() bool {
	return p == PowAlgorithmMonero || p == PowAlgorithmSha3
}

func ParsePowAlgorithm(s string) (PowAlgorithm, error) {
	switch strings.ToLower(s) {
	case "monero", "randomx":
		return PowAlgorithmMonero, nil
	case "sha3", "sha3x":
		return PowAlgorithmSha3, nil
	default:
		return 0, errors.NewUnsupportedPowAlgorithmError("unknown pow algorithm %q", s)
	}
}

func (p PowAlgorithm) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, errors.NewUnsupportedPowAlgorithmError("unknown pow algorithm %d", uint8(p))
	}

	return []byte(strings.ToLower(p.String())), nil
}

func (p *PowAlgorithm) UnmarshalText(text []byte) error {
	parsed, err := ParsePowAlgorithm(string(text))
	if err != nil {
		return err
	}

	*p = parsed

	return nil
}

// ProofOfWork is the algorithm tag plus the algorithm specific auxiliary data.
type ProofOfWork struct {
	PowAlgo PowAlgorithm `json:"pow_algo"`
	PowData HexBytes     `json:"pow_data"`
}

// Bytes is the algorithm byte followed by the raw pow data.
func (p ProofOfWork) Bytes() []byte {
	b := make([]byte, 0, 1+len(p.PowData))
	b = append(b, byte(p.PowAlgo))

	return append(b, p.PowData...)
}
