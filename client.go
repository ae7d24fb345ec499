package pathoram

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"
)

// Op identifies the kind of logical access Client.Access performs.
type Op int

const (
	OpRead Op = iota
	OpWrite
	OpDelete
)

func (op Op) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// Client is the Path-ORAM access engine: the position map, the stash,
// per-bucket keys and nonces, and the Access operation that ties them
// together into an oblivious read/write/delete. See SPEC_FULL.md §4.3.
type Client struct {
	server *Server

	n         int
	z         int
	l         int
	numLeaves uint32

	posMap  []uint32
	ciphers []*bucketCipher
	stash   *stash

	cfg *clientConfig
}

// NewClient constructs a Client against server: it samples a fresh key
// per tree node, writes an encrypted all-dummy bucket to every node,
// and samples a uniformly random leaf for every logical address. See
// SPEC_FULL.md §4.3.4.
func NewClient(server *Server, opts ...Option) (*Client, error) {
	n, z, l, _ := server.Geometry()
	numLeaves := uint32(server.NumLeaves())

	c := &Client{
		server:    server,
		n:         n,
		z:         z,
		l:         l,
		numLeaves: numLeaves,
		posMap:    make([]uint32, n),
		ciphers:   make([]*bucketCipher, server.NumNodes()),
		stash:     newStash(),
		cfg:       newClientConfig(opts),
	}

	dummyBucket := [BucketSize]block{}
	for i := range dummyBucket {
		dummyBucket[i] = newDummyBlock(uint32(n))
	}
	plaintext := encodeBucket(dummyBucket)

	for node := 0; node < server.NumNodes(); node++ {
		cipher, err := newBucketCipher(rand.Reader)
		if err != nil {
			return nil, err
		}
		c.ciphers[node] = cipher

		ciphertext, err := cipher.seal(rand.Reader, node, plaintext)
		if err != nil {
			return nil, err
		}
		if err := server.Put(node, ciphertext); err != nil {
			return nil, err
		}
	}

	for a := 0; a < n; a++ {
		leaf, err := c.randomLeaf()
		if err != nil {
			return nil, err
		}
		c.posMap[a] = leaf
	}

	return c, nil
}

// Capacity returns N, the number of addressable logical blocks.
func (c *Client) Capacity() int { return c.n }

// Height returns L, the tree height.
func (c *Client) Height() int { return c.l }

// NumLeaves returns 2^L.
func (c *Client) NumLeaves() int { return int(c.numLeaves) }

// StashSize returns the current number of real blocks held in the
// stash.
func (c *Client) StashSize() int { return c.stash.size() }

func (c *Client) randomLeaf() (uint32, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(c.numLeaves)))
	if err != nil {
		return 0, fmt.Errorf("pathoram: sample random leaf: %w", err)
	}
	return uint32(n.Int64()), nil
}

// Access performs an oblivious read, write, or delete of logical
// address a. op must be one of OpRead, OpWrite, OpDelete; data is
// required (and must be exactly 4 bytes) for OpWrite and ignored
// otherwise. It returns the value observed at a before this access, or
// nil if a holds no value (never written, or deleted). See SPEC_FULL.md
// §4.3.3.
func (c *Client) Access(op Op, a int, data []byte) ([]byte, error) {
	start := time.Now()
	defer c.cfg.metrics.observeAccess(start)

	if a < 0 || a >= c.n {
		return nil, fmt.Errorf("%w: address %d out of range [0,%d)", ErrInvalidArgument, a, c.n)
	}
	var payload [payloadSize]byte
	if op == OpWrite {
		if len(data) != payloadSize {
			return nil, fmt.Errorf("%w: write payload is %d bytes, want %d", ErrInvalidArgument, len(data), payloadSize)
		}
		copy(payload[:], data)
	} else if op != OpRead && op != OpDelete {
		return nil, fmt.Errorf("%w: unknown op %v", ErrInvalidArgument, op)
	}

	oldLeaf := c.posMap[a]
	newLeaf, err := c.randomLeaf()
	if err != nil {
		return nil, err
	}

	blocks, err := c.readPath(oldLeaf)
	if err != nil {
		c.cfg.metrics.recordIntegrityFailure()
		c.cfg.logger.Error("pathoram: path read failed, access aborted",
			zap.Int("addr", a), zap.String("op", op.String()), zap.Error(err))
		return nil, err
	}

	// Past this point the read succeeded: commit the remap and merge
	// newly-read real blocks into the stash.
	c.posMap[a] = newLeaf
	for _, b := range blocks {
		if b.dummy {
			continue
		}
		if _, exists := c.stash.find(b.addr); exists {
			continue
		}
		c.stash.insert(b)
	}

	oldData := c.locateAndAct(op, uint32(a), newLeaf, payload)

	if err := c.evict(oldLeaf); err != nil {
		return nil, err
	}

	c.cfg.metrics.setStashSize(c.stash.size())
	if c.stash.size() > c.cfg.stashLimit {
		overflow := &StashOverflowError{Size: c.stash.size(), Limit: c.cfg.stashLimit}
		c.cfg.metrics.recordStashOverflow()
		c.cfg.logger.Warn("pathoram: stash exceeds advisory soft bound", zap.Error(overflow))
	}

	return oldData, nil
}

// Store is the write wrapper over Access.
func (c *Client) Store(a int, data []byte) ([]byte, error) {
	return c.Access(OpWrite, a, data)
}

// Retrieve is the read wrapper over Access.
func (c *Client) Retrieve(a int) ([]byte, error) {
	return c.Access(OpRead, a, nil)
}

// Delete is the delete wrapper over Access.
func (c *Client) Delete(a int) ([]byte, error) {
	return c.Access(OpDelete, a, nil)
}

// readPath fetches and authenticate-decrypts every bucket on the
// root-to-leaf path for leaf, buffering the decoded blocks locally. It
// does not mutate the stash or position map — on any failure the
// caller's state is exactly as it was before the call, satisfying
// SPEC_FULL.md §4.3.5 and §7.
func (c *Client) readPath(leaf uint32) ([]block, error) {
	path := rootToLeafPath(leaf, c.l)
	out := make([]block, 0, len(path)*BucketSize)

	for _, node := range path {
		ciphertext, err := c.server.Get(node)
		if err != nil {
			return nil, err
		}
		plaintext, err := c.ciphers[node].open(node, ciphertext)
		if err != nil {
			return nil, err
		}
		bucket, err := decodeBucket(plaintext)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIntegrity, err)
		}
		out = append(out, bucket[:]...)
	}
	return out, nil
}

// locateAndAct finds the (at most one) real block addressed a in the
// stash and applies op to it, returning the pre-op data or nil. Per
// SPEC_FULL.md §4.3.3, a write that doesn't find an existing block
// appends a fresh one instead.
func (c *Client) locateAndAct(op Op, a, newLeaf uint32, payload [payloadSize]byte) []byte {
	idx, found := c.stash.find(a)

	switch op {
	case OpRead:
		if !found {
			return nil
		}
		data := c.stash.at(idx).data
		out := make([]byte, payloadSize)
		copy(out, data[:])
		return out

	case OpWrite:
		if found {
			old := c.stash.at(idx).data
			out := make([]byte, payloadSize)
			copy(out, old[:])
			c.stash.setData(idx, newLeaf, payload)
			return out
		}
		c.stash.insert(block{addr: a, leaf: newLeaf, data: payload})
		return nil

	case OpDelete:
		if !found {
			return nil
		}
		old := c.stash.at(idx).data
		out := make([]byte, payloadSize)
		copy(out, old[:])
		c.stash.remove(idx)
		return out
	}

	return nil
}

// evict repopulates the leaf-to-root path for oldLeaf from stash
// contents, padding with fresh dummies, per SPEC_FULL.md §4.3.3 step 4.
// The concrete placement order is pluggable — see evict.go.
func (c *Client) evict(oldLeaf uint32) error {
	switch c.cfg.evictionStrategy {
	case EvictGreedyByDepth:
		return c.evictGreedyByDepth(oldLeaf)
	case EvictConstantTime:
		return c.evictConstantTime(oldLeaf)
	default:
		return c.evictLevelByLevel(oldLeaf)
	}
}
