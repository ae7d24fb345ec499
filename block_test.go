package pathoram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockSerializeRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		b    block
	}{
		{"real block", block{addr: 3, leaf: 1, data: [payloadSize]byte{'A', 'B', 'C', 'D'}}},
		{"dummy block", newDummyBlock(16)},
		{"zero address", block{addr: 0, leaf: 0, data: [payloadSize]byte{'-', '-', '-', '-'}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := tc.b.serialize()
			require.Len(t, raw, BlockSize)

			got, err := deserializeBlock(raw)
			require.NoError(t, err)
			assert.Equal(t, tc.b, got)
		})
	}
}

func TestDeserializeBlockWrongLength(t *testing.T) {
	_, err := deserializeBlock([]byte{1, 2, 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptBucket)
}

func TestEncodeDecodeBucketRoundTrip(t *testing.T) {
	var bucket [BucketSize]block
	bucket[0] = block{addr: 1, leaf: 0, data: [payloadSize]byte{'A', 'B', 'C', 'D'}}
	bucket[1] = newDummyBlock(16)
	bucket[2] = block{addr: 5, leaf: 1, data: [payloadSize]byte{'W', 'X', 'Y', 'Z'}}
	bucket[3] = newDummyBlock(16)

	plaintext := encodeBucket(bucket)
	assert.Len(t, plaintext, BucketSize*BlockSize+2*(BucketSize-1))

	got, err := decodeBucket(plaintext)
	require.NoError(t, err)
	assert.Equal(t, bucket, got)
}

func TestDecodeBucketCorrupt(t *testing.T) {
	t.Run("wrong piece count", func(t *testing.T) {
		_, err := decodeBucket([]byte("not||enough||pieces"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCorruptBucket)
	})

	t.Run("wrong piece length", func(t *testing.T) {
		var bucket [BucketSize]block
		for i := range bucket {
			bucket[i] = newDummyBlock(16)
		}
		plaintext := encodeBucket(bucket)
		plaintext = append(plaintext, 'X') // corrupt the final piece's length
		_, err := decodeBucket(plaintext)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCorruptBucket)
	})
}

func TestNewDummyBlockSentinel(t *testing.T) {
	b := newDummyBlock(100)
	assert.True(t, b.dummy)
	assert.Equal(t, uint32(100), b.addr)
	assert.Equal(t, dummyPayload, string(b.data[:]))
}
