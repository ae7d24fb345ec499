package pathoram

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, n, z int) (*Server, *Client) {
	t.Helper()
	server, err := NewServer(n, z)
	require.NoError(t, err)
	client, err := NewClient(server)
	require.NoError(t, err)
	return server, client
}

// Scenario 1: store then retrieve returns the stored value.
func TestAccessStoreThenRetrieve(t *testing.T) {
	_, c := newTestClient(t, 16, 4)

	_, err := c.Store(3, []byte("ABCD"))
	require.NoError(t, err)

	got, err := c.Retrieve(3)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABCD"), got)
}

// Scenario 2: overwrite then retrieve returns the newest value.
func TestAccessOverwriteThenRetrieve(t *testing.T) {
	_, c := newTestClient(t, 16, 4)

	_, err := c.Store(3, []byte("ABCD"))
	require.NoError(t, err)
	_, err = c.Store(3, []byte("WXYZ"))
	require.NoError(t, err)

	got, err := c.Retrieve(3)
	require.NoError(t, err)
	assert.Equal(t, []byte("WXYZ"), got)
}

// Scenario 3: retrieving a never-written address returns nil.
func TestAccessRetrieveUnwritten(t *testing.T) {
	_, c := newTestClient(t, 16, 4)

	got, err := c.Retrieve(7)
	require.NoError(t, err)
	assert.Nil(t, got)
}

// Scenario 4: delete then retrieve returns nil.
func TestAccessDeleteThenRetrieve(t *testing.T) {
	_, c := newTestClient(t, 16, 4)

	_, err := c.Store(5, []byte("ABCD"))
	require.NoError(t, err)
	old, err := c.Delete(5)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABCD"), old)

	got, err := c.Retrieve(5)
	require.NoError(t, err)
	assert.Nil(t, got)
}

// Store's return value is the value observed before the write.
func TestStoreReturnsPreviousValue(t *testing.T) {
	_, c := newTestClient(t, 16, 4)

	old, err := c.Store(2, []byte("ABCD"))
	require.NoError(t, err)
	assert.Nil(t, old)

	old, err = c.Store(2, []byte("WXYZ"))
	require.NoError(t, err)
	assert.Equal(t, []byte("ABCD"), old)
}

// Invalid arguments never perform I/O and never touch client state.
func TestAccessInvalidArguments(t *testing.T) {
	_, c := newTestClient(t, 16, 4)

	_, err := c.Retrieve(-1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = c.Retrieve(16)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = c.Store(0, []byte("too long"))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, 0, c.StashSize())
}

// Scenario 6: tampering with a bucket on an address's path aborts the
// access with an integrity error.
func TestAccessTamperedBucketFailsIntegrity(t *testing.T) {
	server, c := newTestClient(t, 16, 4)

	_, err := c.Store(0, []byte("ABCD"))
	require.NoError(t, err)

	ciphertext, err := server.Get(0)
	require.NoError(t, err)
	tampered := append([]byte(nil), ciphertext...)
	tampered[0] ^= 0xFF
	require.NoError(t, server.Put(0, tampered))

	_, err = c.Retrieve(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIntegrity)
}

// Repeated writes to the same address must not grow the stash without
// bound.
func TestRepeatedWriteSameAddressBoundsStash(t *testing.T) {
	_, c := newTestClient(t, 16, 4)

	for i := 0; i < 50; i++ {
		_, err := c.Store(1, []byte("ABCD"))
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, c.StashSize(), 8)
}

// Scenario 5: over a mixed read/write/delete workload, every access
// returns what a plain map model predicts and the stash never holds more
// than N blocks.
func TestMixedWorkloadScenario(t *testing.T) {
	const n = 16
	_, c := newTestClient(t, n, 4)

	model := make(map[int][]byte)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		addr := rng.Intn(n)
		switch roll := rng.Intn(100); {
		case roll < 34:
			got, err := c.Retrieve(addr)
			require.NoError(t, err)
			assert.Equal(t, model[addr], got, "read at op %d, addr %d", i, addr)

		case roll < 67:
			payload := randomFourBytes(rng)
			old, err := c.Store(addr, payload)
			require.NoError(t, err)
			assert.Equal(t, model[addr], old, "write-returned-old at op %d, addr %d", i, addr)
			cp := make([]byte, 4)
			copy(cp, payload)
			model[addr] = cp

		default:
			old, err := c.Delete(addr)
			require.NoError(t, err)
			assert.Equal(t, model[addr], old, "delete-returned-old at op %d, addr %d", i, addr)
			delete(model, addr)
		}

		assert.LessOrEqual(t, c.StashSize(), n, "stash grew unreasonably large at op %d", i)
	}
}

func randomFourBytes(rng *rand.Rand) []byte {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, 4)
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return b
}

// N=12, Z=4 is the non-power-of-two boundary case the spec calls out
// as worth an explicit test.
func TestAccessNonPowerOfTwoBucketCount(t *testing.T) {
	_, c := newTestClient(t, 12, 4)
	assert.Equal(t, 1, c.Height())
	assert.Equal(t, 2, c.NumLeaves())

	for a := 0; a < 12; a++ {
		_, err := c.Store(a, []byte{byte('a' + a), 0, 0, 0})
		require.NoError(t, err)
	}
	for a := 0; a < 12; a++ {
		got, err := c.Retrieve(a)
		require.NoError(t, err)
		assert.Equal(t, byte('a'+a), got[0])
	}
}

// N=2Z is the smallest admissible configuration: a single-node tree
// where every access touches exactly one bucket.
func TestAccessMinimalTree(t *testing.T) {
	_, c := newTestClient(t, 8, 4)
	assert.Equal(t, 0, c.Height())
	assert.Equal(t, 1, c.NumLeaves())

	_, err := c.Store(0, []byte("ABCD"))
	require.NoError(t, err)
	_, err = c.Store(1, []byte("WXYZ"))
	require.NoError(t, err)

	got, err := c.Retrieve(0)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABCD"), got)

	got, err = c.Retrieve(1)
	require.NoError(t, err)
	assert.Equal(t, []byte("WXYZ"), got)
}

func TestNewClientWithStashLimitOption(t *testing.T) {
	server, err := NewServer(16, 4)
	require.NoError(t, err)

	client, err := NewClient(server, WithStashLimit(4))
	require.NoError(t, err)
	assert.Equal(t, 16, client.Capacity())
}
