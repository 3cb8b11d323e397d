package evaluator

import (
	"sync/atomic"
)

// Cache is a direct-mapped table of scores keyed by the side-independent
// position hash. Each slot is two words, key^data and data; a reader that
// races a writer sees a pair that fails to validate and treats it as a
// miss.
type Cache struct {
	slots []cacheSlot
	mask  uint64
}

type cacheSlot struct {
	check atomic.Uint64
	data  atomic.Uint64
}

// NewCache allocates 1<<bits slots.
func NewCache(bits int) *Cache {
	n := uint64(1) << bits
	return &Cache{slots: make([]cacheSlot, n), mask: n - 1}
}

func pack(v ValuePair) uint64 {
	return uint64(uint32(v.Material))<<32 | uint64(uint32(v.Positional))
}

func unpack(d uint64) ValuePair {
	return ValuePair{Material: int32(uint32(d >> 32)), Positional: int32(uint32(d))}
}

// index drops the low bit of key before masking. Keys come from hashes
// with the side-to-move bit cleared, so that bit is always zero.
func (c *Cache) index(key uint64) uint64 {
	return (key >> 1) & c.mask
}

// Get returns the stored score for key.
func (c *Cache) Get(key uint64) (ValuePair, bool) {
	s := &c.slots[c.index(key)]
	check, data := s.check.Load(), s.data.Load()
	if check^data != key {
		return ValuePair{}, false
	}
	return unpack(data), true
}

// Put stores a score, replacing whatever shared the slot.
func (c *Cache) Put(key uint64, v ValuePair) {
	s := &c.slots[c.index(key)]
	d := pack(v)
	s.data.Store(d)
	s.check.Store(key ^ d)
}

// Clear empties the cache.
func (c *Cache) Clear() {
	for i := range c.slots {
		c.slots[i].check.Store(0)
		c.slots[i].data.Store(0)
	}
}
