package model

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/tari-project/tari-sub016/errors"
	"golang.org/x/crypto/blake2b"
)

const (
	mergeMiningHashDomain = "tari.block_header.merge_mining"
	headerHashDomain      = "tari.block_header.hash"

	// fixed part of the encoding: everything except the variable length pow data
	blockHeaderFixedSize = 2 + 8 + HashSize + 8 + HashSize + HashSize + 8 + HashSize + 8 + 32 + 8 + 1
)

// BlockHeader is a Tari block header as received from a peer.
type BlockHeader struct {
	// Version of the block header.
	Version uint16 `json:"version"`

	// Height of this block since the genesis block (height 0).
	Height uint64 `json:"height"`

	// Hash of the previous block header in the blockchain.
	PrevHash FixedHash `json:"prev_hash"`

	// Timestamp at which the block was built, in seconds since the unix epoch.
	Timestamp uint64 `json:"timestamp"`

	// Merkle roots and sizes of the output, witness and kernel MMRs.
	OutputMR      FixedHash `json:"output_mr"`
	WitnessMR     FixedHash `json:"witness_mr"`
	OutputMMRSize uint64    `json:"output_mmr_size"`
	KernelMR      FixedHash `json:"kernel_mr"`
	KernelMMRSize uint64    `json:"kernel_mmr_size"`

	// Sum of the kernel offsets of every transaction in the block.
	TotalKernelOffset BlindingFactor `json:"total_kernel_offset"`

	Nonce uint64      `json:"nonce"`
	Pow   ProofOfWork `json:"pow"`
}

// NewBlockHeaderFromPrevious returns a header at prev.Height+1 that links to prev. Merkle roots and
// sizes are carried over, nonce and pow are left for the miner.
func NewBlockHeaderFromPrevious(prev *BlockHeader, timestamp uint64) *BlockHeader {
	return &BlockHeader{
		Version:       prev.Version,
		Height:        prev.Height + 1,
		PrevHash:      prev.Hash(),
		Timestamp:     timestamp,
		OutputMR:      prev.OutputMR,
		WitnessMR:     prev.WitnessMR,
		OutputMMRSize: prev.OutputMMRSize,
		KernelMR:      prev.KernelMR,
		KernelMMRSize: prev.KernelMMRSize,
		Pow:           ProofOfWork{PowAlgo: prev.Pow.PowAlgo},
	}
}

// MergeMiningHash commits to every header field except the nonce and the proof of work. It is the
// value a merge miner embeds in the parent chain.
func (bh *BlockHeader) MergeMiningHash() FixedHash {
	h, _ := blake2b.New256(nil)

	h.Write([]byte(mergeMiningHashDomain))
	h.Write(bh.miningBytes())

	var out FixedHash

	copy(out[:], h.Sum(nil))

	return out
}

// Hash is the block hash: the merge mining hash extended with the proof of work and the nonce.
func (bh *BlockHeader) Hash() FixedHash {
	mm := bh.MergeMiningHash()

	h, _ := blake2b.New256(nil)

	h.Write([]byte(headerHashDomain))
	h.Write(mm[:])
	h.Write(bh.Pow.Bytes())

	var nonce [8]byte

	binary.LittleEndian.PutUint64(nonce[:], bh.Nonce)
	h.Write(nonce[:])

	var out FixedHash

	copy(out[:], h.Sum(nil))

	return out
}

// Clone returns a deep copy of the header, pow data included.
func (bh *BlockHeader) Clone() *BlockHeader {
	c := *bh
	c.Pow.PowData = slices.Clone(bh.Pow.PowData)

	return &c
}

func (bh *BlockHeader) PowAlgo() PowAlgorithm {
	return bh.Pow.PowAlgo
}

func (bh *BlockHeader) miningBytes() []byte {
	b := make([]byte, 0, blockHeaderFixedSize)

	b = binary.LittleEndian.AppendUint16(b, bh.Version)
	b = binary.LittleEndian.AppendUint64(b, bh.Height)
	b = append(b, bh.PrevHash[:]...)
	b = binary.LittleEndian.AppendUint64(b, bh.Timestamp)
	b = append(b, bh.OutputMR[:]...)
	b = append(b, bh.WitnessMR[:]...)
	b = binary.LittleEndian.AppendUint64(b, bh.OutputMMRSize)
	b = append(b, bh.KernelMR[:]...)
	b = binary.LittleEndian.AppendUint64(b, bh.KernelMMRSize)
	b = append(b, bh.TotalKernelOffset[:]...)

	return b
}

// Bytes is the canonical storage encoding of the header.
func (bh *BlockHeader) Bytes() []byte {
	b := bh.miningBytes()

	b = binary.LittleEndian.AppendUint64(b, bh.Nonce)
	b = append(b, byte(bh.Pow.PowAlgo))
	b = binary.AppendUvarint(b, uint64(len(bh.Pow.PowData)))

	return append(b, bh.Pow.PowData...)
}

func NewBlockHeaderFromBytes(headerBytes []byte) (*BlockHeader, error) {
	if len(headerBytes) < blockHeaderFixedSize+1 {
		return nil, errors.NewInvalidBlockHeaderEncodingError("block header should be at least %d bytes long, got %d", blockHeaderFixedSize+1, len(headerBytes))
	}

	bh := &BlockHeader{}
	r := headerBytes

	bh.Version = binary.LittleEndian.Uint16(r)
	r = r[2:]
	bh.Height = binary.LittleEndian.Uint64(r)
	r = r[8:]
	r = r[copy(bh.PrevHash[:], r):]
	bh.Timestamp = binary.LittleEndian.Uint64(r)
	r = r[8:]
	r = r[copy(bh.OutputMR[:], r):]
	r = r[copy(bh.WitnessMR[:], r):]
	bh.OutputMMRSize = binary.LittleEndian.Uint64(r)
	r = r[8:]
	r = r[copy(bh.KernelMR[:], r):]
	bh.KernelMMRSize = binary.LittleEndian.Uint64(r)
	r = r[8:]
	r = r[copy(bh.TotalKernelOffset[:], r):]
	bh.Nonce = binary.LittleEndian.Uint64(r)
	r = r[8:]
	bh.Pow.PowAlgo = PowAlgorithm(r[0])
	r = r[1:]

	if !bh.Pow.PowAlgo.IsValid() {
		return nil, errors.NewUnsupportedPowAlgorithmError("unknown pow algorithm %d", uint8(bh.Pow.PowAlgo))
	}

	powDataLen, n := binary.Uvarint(r)
	if n <= 0 {
		return nil, errors.NewInvalidBlockHeaderEncodingError("invalid pow data length")
	}

	r = r[n:]

	if uint64(len(r)) != powDataLen {
		return nil, errors.NewInvalidBlockHeaderEncodingError("pow data length %d does not match remaining %d bytes", powDataLen, len(r))
	}

	if powDataLen > 0 {
		bh.Pow.PowData = make(HexBytes, powDataLen)
		copy(bh.Pow.PowData, r)
	}

	return bh, nil
}

func (bh *BlockHeader) String() string {
	return fmt.Sprintf("#%d %s (%s, ts=%d)", bh.Height, bh.Hash(), bh.Pow.PowAlgo, bh.Timestamp)
}
