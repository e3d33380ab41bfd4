// Package bufpool provides a tiered pool of extended attribute value buffers.
//
// Encoded xattr values fall into three size classes:
//   - Small (256 bytes): ACLs of up to 31 entries
//   - Medium (4KB): values that fit in an inode on most file systems
//   - Large (64KB): the kernel limit for a single xattr value
//
// Requests above the large class are allocated directly and never pooled.
//
// Usage:
//
//	buf := bufpool.Get(a.EncodedSize())
//	defer bufpool.Put(buf)
package bufpool

import (
	"sync"
)

// Default size classes.
const (
	DefaultSmallSize  = 256
	DefaultMediumSize = 4 << 10
	DefaultLargeSize  = 64 << 10
)

// Config overrides the size classes of a Pool. Zero fields take defaults.
type Config struct {
	SmallSize  int
	MediumSize int
	LargeSize  int
}

// Pool hands out byte slices from three sync.Pools keyed by capacity.
type Pool struct {
	tiers [3]tier
}

type tier struct {
	size int
	pool sync.Pool
}

// NewPool creates a pool. A nil cfg uses the default classes.
func NewPool(cfg *Config) *Pool {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	sizes := [3]int{
		orDefault(c.SmallSize, DefaultSmallSize),
		orDefault(c.MediumSize, DefaultMediumSize),
		orDefault(c.LargeSize, DefaultLargeSize),
	}

	p := &Pool{}
	for i, size := range sizes {
		t := &p.tiers[i]
		t.size = size
		t.pool.New = func() any {
			buf := make([]byte, size)
			return &buf
		}
	}
	return p
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// Get returns a slice of length size. Its capacity is that of the smallest
// class that holds size, or exactly size when no class does.
//
// The slice must be handed back with Put and not used afterwards.
func (p *Pool) Get(size int) []byte {
	for i := range p.tiers {
		t := &p.tiers[i]
		if size <= t.size {
			buf := *t.pool.Get().(*[]byte)
			return buf[:size]
		}
	}
	return make([]byte, size)
}

// Put returns buf to the pool. Slices whose capacity matches no class are
// left to the garbage collector.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}
	for i := range p.tiers {
		t := &p.tiers[i]
		if cap(buf) == t.size {
			full := buf[:cap(buf)]
			t.pool.Put(&full)
			return
		}
	}
}

var globalPool = NewPool(nil)

// Get returns a buffer from the package pool.
func Get(size int) []byte {
	return globalPool.Get(size)
}

// Put returns a buffer to the package pool.
func Put(buf []byte) {
	globalPool.Put(buf)
}
