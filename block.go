package pathoram

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	// addrSize, leafSize, payloadSize and flagSize are sized per
	// SPEC_FULL.md §3: 4 bytes big-endian address, 4 bytes big-endian
	// leaf, 4 raw payload bytes, 1 flag byte.
	addrSize    = 4
	leafSize    = 4
	payloadSize = 4
	flagSize    = 1

	// BlockSize is the fixed serialized width of one block, in bytes.
	BlockSize = addrSize + leafSize + payloadSize + flagSize

	// BucketSize (Z) is the number of blocks grouped into one bucket.
	BucketSize = 4

	// dummyFlagByte and realFlagByte are the single-byte encodings of
	// the block's dummy flag; '1' marks a dummy, '0' marks a real block.
	dummyFlagByte byte = '1'
	realFlagByte  byte = '0'

	// dummyPayload is the literal payload every dummy block carries.
	dummyPayload = "----"
)

// bucketSeparator joins serialized blocks inside a bucket's plaintext.
var bucketSeparator = []byte("||")

// block is a single logical record: the unit the stash and the tree
// buckets both hold. addr is the logical address `a` (or the dummy
// sentinel, equal to the server's N); leaf is the `x` the block is
// currently (or was last) mapped to; data is exactly 4 bytes.
type block struct {
	addr  uint32
	leaf  uint32
	data  [payloadSize]byte
	dummy bool
}

// newDummyBlock builds a filler block with the sentinel address n and
// the literal "----" payload, per SPEC_FULL.md §3.
func newDummyBlock(n uint32) block {
	var b block
	b.addr = n
	b.dummy = true
	copy(b.data[:], dummyPayload)
	return b
}

// serialize encodes a block into its fixed 13-byte wire form.
func (b block) serialize() []byte {
	out := make([]byte, 0, BlockSize)
	var tmp [4]byte

	binary.BigEndian.PutUint32(tmp[:], b.addr)
	out = append(out, tmp[:]...)

	binary.BigEndian.PutUint32(tmp[:], b.leaf)
	out = append(out, tmp[:]...)

	out = append(out, b.data[:]...)

	if b.dummy {
		out = append(out, dummyFlagByte)
	} else {
		out = append(out, realFlagByte)
	}
	return out
}

// deserializeBlock is the inverse of block.serialize.
func deserializeBlock(raw []byte) (block, error) {
	if len(raw) != BlockSize {
		return block{}, fmt.Errorf("%w: block is %d bytes, want %d", ErrCorruptBucket, len(raw), BlockSize)
	}
	var b block
	b.addr = binary.BigEndian.Uint32(raw[0:addrSize])
	b.leaf = binary.BigEndian.Uint32(raw[addrSize : addrSize+leafSize])
	copy(b.data[:], raw[addrSize+leafSize:addrSize+leafSize+payloadSize])
	b.dummy = raw[BlockSize-1] == dummyFlagByte
	return b, nil
}

// encodeBucket joins Z serialized blocks with the literal "||"
// separator, producing the plaintext that gets AEAD-sealed as one unit.
func encodeBucket(blocks [BucketSize]block) []byte {
	parts := make([][]byte, BucketSize)
	for i, b := range blocks {
		parts[i] = b.serialize()
	}
	return bytes.Join(parts, bucketSeparator)
}

// decodeBucket is the inverse of encodeBucket. It fails with
// ErrCorruptBucket if the plaintext doesn't split into exactly Z
// pieces of exactly BlockSize bytes each.
func decodeBucket(plaintext []byte) ([BucketSize]block, error) {
	var out [BucketSize]block

	pieces := bytes.Split(plaintext, bucketSeparator)
	if len(pieces) != BucketSize {
		return out, fmt.Errorf("%w: got %d pieces, want %d", ErrCorruptBucket, len(pieces), BucketSize)
	}
	for i, piece := range pieces {
		b, err := deserializeBlock(piece)
		if err != nil {
			return out, err
		}
		out[i] = b
	}
	return out, nil
}
