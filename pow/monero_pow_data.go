package pow

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
	fasthex "github.com/tmthrgd/go-hex"
)

const (
	MaxRandomXKeySize       = 63
	MaxBlockHashingBlobSize = 512
)

// MoneroPowData is the merge mining proof carried in the pow data of a Monero header: the RandomX
// seed, the Monero block hashing blob and the auxiliary chain merkle root committed to by the Monero
// coinbase.
type MoneroPowData struct {
	RandomXKey       []byte
	BlockHashingBlob []byte
	MergeMiningRoot  model.FixedHash
}

// Bytes encodes the data as uvarint(len(key)) || key || uvarint(len(blob)) || blob || root.
func (m *MoneroPowData) Bytes() []byte {
	b := make([]byte, 0, 2*binary.MaxVarintLen64+len(m.RandomXKey)+len(m.BlockHashingBlob)+model.HashSize)

	b = binary.AppendUvarint(b, uint64(len(m.RandomXKey)))
	b = append(b, m.RandomXKey...)
	b = binary.AppendUvarint(b, uint64(len(m.BlockHashingBlob)))
	b = append(b, m.BlockHashingBlob...)

	return append(b, m.MergeMiningRoot[:]...)
}

func (m *MoneroPowData) String() string {
	return fmt.Sprintf("key=%s blob=%d bytes root=%s", fasthex.EncodeToString(m.RandomXKey), len(m.BlockHashingBlob), m.MergeMiningRoot)
}

// NewMoneroPowDataFromBytes decodes pow data. The input must be consumed exactly and must be the only
// encoding of the decoded value.
func NewMoneroPowDataFromBytes(b []byte) (*MoneroPowData, error) {
	r := b

	key, r, err := readVarBytes(r, MaxRandomXKeySize, "randomx key")
	if err != nil {
		return nil, err
	}

	blob, r, err := readVarBytes(r, MaxBlockHashingBlobSize, "block hashing blob")
	if err != nil {
		return nil, err
	}

	if len(r) < model.HashSize {
		return nil, errors.NewInvalidPowDataError("monero pow data is missing the merge mining root")
	}

	m := &MoneroPowData{RandomXKey: key, BlockHashingBlob: blob}
	r = r[copy(m.MergeMiningRoot[:], r):]

	if len(r) != 0 {
		return nil, errors.NewInvalidPowDataError("%d bytes leftover after decoding monero pow data", len(r))
	}

	if !bytes.Equal(m.Bytes(), b) {
		return nil, errors.NewInvalidPowDataError("monero pow data is not canonically encoded")
	}

	return m, nil
}

func readVarBytes(r []byte, maxLen uint64, name string) ([]byte, []byte, error) {
	l, n := binary.Uvarint(r)
	if n <= 0 {
		return nil, nil, errors.NewInvalidPowDataError("invalid %s length", name)
	}

	r = r[n:]

	if l == 0 || l > maxLen {
		return nil, nil, errors.NewInvalidPowDataError("%s length %d is outside 1..%d", name, l, maxLen)
	}

	if uint64(len(r)) < l {
		return nil, nil, errors.NewInvalidPowDataError("%s is truncated", name)
	}

	out := make([]byte, l)
	copy(out, r[:l])

	return out, r[l:], nil
}

// NewMoneroPowDataFromHeader decodes the pow data of a Monero header and checks that it commits to
// the header's merge mining hash.
func NewMoneroPowDataFromHeader(header *model.BlockHeader) (*MoneroPowData, error) {
	if header.Pow.PowAlgo != model.PowAlgorithmMonero {
		return nil, errors.NewInvalidPowDataError("header %d is not merge mined with monero", header.Height)
	}

	m, err := NewMoneroPowDataFromBytes(header.Pow.PowData)
	if err != nil {
		return nil, err
	}

	if expected := header.MergeMiningHash(); m.MergeMiningRoot != expected {
		return nil, errors.NewInvalidMergeMiningRootError("merge mining root %s does not match header merge mining hash %s", m.MergeMiningRoot, expected)
	}

	return m, nil
}

// CheckPowData checks the pow data shape of header. Sha3 headers must carry no pow data. For Monero
// headers the decoded data is returned so the caller can check the seed.
func CheckPowData(header *model.BlockHeader) (*MoneroPowData, error) {
	switch header.Pow.PowAlgo {
	case model.PowAlgorithmSha3:
		if len(header.Pow.PowData) != 0 {
			return nil, errors.NewInvalidPowDataError("sha3 header %d must not carry pow data", header.Height)
		}

		return nil, nil
	case model.PowAlgorithmMonero:
		return NewMoneroPowDataFromHeader(header)
	default:
		return nil, errors.NewUnsupportedPowAlgorithmError("unknown pow algorithm %d", uint8(header.Pow.PowAlgo))
	}
}
