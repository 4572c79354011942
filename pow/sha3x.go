package pow

import (
	"encoding/binary"

	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
	"golang.org/x/crypto/sha3"
)

// Sha3xHash is SHA3-256 applied three times over nonce || merge mining hash || pow bytes.
func Sha3xHash(header *model.BlockHeader) []byte {
	h := sha3.New256()

	var nonce [8]byte

	binary.LittleEndian.PutUint64(nonce[:], header.Nonce)
	mm := header.MergeMiningHash()

	h.Write(nonce[:])
	h.Write(mm[:])
	h.Write(header.Pow.Bytes())
	first := h.Sum(nil)

	second := sha3.Sum256(first)
	third := sha3.Sum256(second[:])

	return third[:]
}

func Sha3xDifficulty(header *model.BlockHeader) (model.Difficulty, error) {
	if header.Pow.PowAlgo != model.PowAlgorithmSha3 {
		return 0, errors.NewInvalidPowError("header %d is not a sha3x header", header.Height)
	}

	return BigEndianDifficulty(Sha3xHash(header))
}
