package pathoram

import (
	"crypto/rand"
	"crypto/subtle"
)

// EvictionStrategy selects how Client.evict repopulates a leaf-to-root
// path from the stash after locate & act. Grounded on
// etclab-pathoram-go's eviction.go/constanttime.go, adapted to this
// package's arena-backed stash, position-map-authoritative eligibility
// check, and whole-bucket AEAD rather than per-field encryption.
type EvictionStrategy int

const (
	// EvictLevelByLevel walks the path leaf-first, filling each bucket
	// with whichever eligible stash blocks it finds before moving up
	// a level. This is the default: it matches SPEC_FULL.md §4.3.3
	// step 4 literally and is what Client uses unless overridden.
	EvictLevelByLevel EvictionStrategy = iota

	// EvictGreedyByDepth considers each stash block in turn and places
	// it at the deepest level of the path it's eligible for, rather
	// than filling buckets level-by-level. In practice this tends to
	// leave fewer blocks stuck in the stash, since a block is never
	// passed over in favor of a shallower block that could just as
	// well wait for its own (shallower) eligible level.
	EvictGreedyByDepth

	// EvictConstantTime performs the same placement as
	// EvictLevelByLevel but always inspects every stash slot (live or
	// free) and every bucket slot regardless of whether a placement
	// occurs, so the number of operations — though not true hardware
	// timing — never depends on stash occupancy or which address was
	// just accessed. Intended for deployments where even coarse
	// timing is observable by a co-located adversary.
	EvictConstantTime
)

// sealAndStore encrypts plaintext bucket under node's key with a fresh
// nonce and writes it to the server.
func (c *Client) sealAndStore(node int, bucket [BucketSize]block) error {
	ciphertext, err := c.ciphers[node].seal(rand.Reader, node, encodeBucket(bucket))
	if err != nil {
		return err
	}
	return c.server.Put(node, ciphertext)
}

// onPath reports whether node lies on the root-to-leaf path for leaf.
func (c *Client) onPath(node int, leaf uint32) bool {
	for _, n := range rootToLeafPath(leaf, c.l) {
		if n == node {
			return true
		}
	}
	return false
}

// evictLevelByLevel is the default strategy: for each node from leaf
// to root, fill its bucket with whatever eligible stash blocks are
// still around, then move up. Eligibility always consults the
// position map, never a stash block's own (advisory) leaf field.
func (c *Client) evictLevelByLevel(oldLeaf uint32) error {
	path := leafToRootPath(oldLeaf, c.l) // leaf first, root last

	for _, node := range path {
		var bucket [BucketSize]block
		filled := 0
		var placedIdx []int

		for _, idx := range c.stash.liveIndices() {
			if filled >= BucketSize {
				break
			}
			b := c.stash.at(idx)
			if !c.onPath(node, c.posMap[b.addr]) {
				continue
			}
			bucket[filled] = b
			filled++
			placedIdx = append(placedIdx, idx)
		}
		for i := filled; i < BucketSize; i++ {
			bucket[i] = newDummyBlock(uint32(c.n))
		}

		if err := c.sealAndStore(node, bucket); err != nil {
			return err
		}
		for _, idx := range placedIdx {
			c.stash.remove(idx)
		}
	}
	return nil
}

// evictGreedyByDepth places each stash block at the deepest level of
// the path it's eligible for, one block at a time, instead of filling
// buckets level-by-level.
func (c *Client) evictGreedyByDepth(oldLeaf uint32) error {
	path := leafToRootPath(oldLeaf, c.l) // leaf first (deepest), root last
	var buckets [][BucketSize]block = make([][BucketSize]block, len(path))
	filled := make([]int, len(path))

	var placedIdx []int
	for _, idx := range c.stash.liveIndices() {
		b := c.stash.at(idx)
		blockPath := leafToRootPath(c.posMap[b.addr], c.l)

		for level, node := range path {
			if filled[level] >= BucketSize {
				continue
			}
			if blockPath[level] != node {
				continue
			}
			buckets[level][filled[level]] = b
			filled[level]++
			placedIdx = append(placedIdx, idx)
			break
		}
	}

	for level, node := range path {
		for i := filled[level]; i < BucketSize; i++ {
			buckets[level][i] = newDummyBlock(uint32(c.n))
		}
		if err := c.sealAndStore(node, buckets[level]); err != nil {
			return err
		}
	}
	for _, idx := range placedIdx {
		c.stash.remove(idx)
	}
	return nil
}

// evictConstantTime performs level-by-level placement but always walks
// every arena slot (live, free, already-placed-this-round) and every
// bucket slot, using crypto/subtle so that which slots matched and how
// many blocks were pending never changes the sequence of operations
// performed.
func (c *Client) evictConstantTime(oldLeaf uint32) error {
	path := leafToRootPath(oldLeaf, c.l)
	consumed := make([]int, len(c.stash.slots))

	for _, node := range path {
		var bucket [BucketSize]block
		for slot := 0; slot < BucketSize; slot++ {
			chosen := -1

			for i := range c.stash.slots {
				live := 0
				if c.stash.live[i] {
					live = 1
				}
				notConsumed := subtle.ConstantTimeEq(int32(consumed[i]), 0)

				onPath := 0
				for _, n := range rootToLeafPath(c.posMap[c.stash.slots[i].addr], c.l) {
					onPath |= subtle.ConstantTimeEq(int32(n), int32(node))
				}
				eligible := live & notConsumed & onPath
				notYetChosen := subtle.ConstantTimeEq(int32(chosen), -1)
				if subtle.ConstantTimeSelect(eligible&notYetChosen, 1, 0) == 1 {
					chosen = i
				}
			}

			if chosen >= 0 {
				bucket[slot] = c.stash.slots[chosen]
				consumed[chosen] = 1
			} else {
				bucket[slot] = newDummyBlock(uint32(c.n))
			}
		}

		if err := c.sealAndStore(node, bucket); err != nil {
			return err
		}
	}

	for i, wasConsumed := range consumed {
		if wasConsumed == 1 {
			c.stash.remove(i)
		}
	}
	return nil
}
