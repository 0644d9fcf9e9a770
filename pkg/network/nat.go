package network

import (
	"sort"
	"sync"

	"github.com/corenet/netd/pkg/metrics"
)

// natInterval is a half-open range [Start, End) of free offsets.
type natInterval struct {
	Start, End int
}

// NATBitmap is an ordered sparse bitmap over [0, count): Get returns
// the lowest free offset, Put returns it. It is implemented as a
// sorted slice of free intervals rather than a literal bit array, so
// its cost scales with the number of free runs rather than with count.
// Put finds its place by binary search, but inserting or merging a run
// shifts the slice, which is linear in the number of free runs; Get
// takes from the first interval in constant time.
type NATBitmap struct {
	mu    sync.Mutex
	free  []natInterval // sorted by Start, non-adjacent, non-overlapping
	count int
}

// NewNATBitmap creates a bitmap over [0, count), entirely free.
func NewNATBitmap(count int) *NATBitmap {
	b := &NATBitmap{count: count}
	if count > 0 {
		b.free = []natInterval{{Start: 0, End: count}}
	}
	return b
}

// Get allocates and returns the smallest free offset. It fails with
// ResourceNotAvailable when the bitmap is exhausted.
func (b *NATBitmap) Get() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.free) == 0 {
		metrics.NATExhaustedTotal.Inc()
		return 0, NewResourceNotAvailable("nat pool exhausted")
	}
	iv := &b.free[0]
	offset := iv.Start
	iv.Start++
	if iv.Start >= iv.End {
		b.free = b.free[1:]
	}
	return offset, nil
}

// Put returns offset to the pool, merging it with adjacent free
// intervals so repeated Get/Put cycles do not fragment the bitmap.
func (b *NATBitmap) Put(offset int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := sort.Search(len(b.free), func(i int) bool { return b.free[i].Start >= offset })

	merged := natInterval{Start: offset, End: offset + 1}

	// Merge with the interval immediately before, if adjacent.
	if i > 0 && b.free[i-1].End == offset {
		merged.Start = b.free[i-1].Start
		i--
		b.free = append(b.free[:i], b.free[i+1:]...)
	}
	// Merge with the interval immediately after, if adjacent.
	if i < len(b.free) && b.free[i].Start == merged.End {
		merged.End = b.free[i].End
		b.free = append(b.free[:i], b.free[i+1:]...)
	}

	b.free = append(b.free, natInterval{})
	copy(b.free[i+1:], b.free[i:])
	b.free[i] = merged
}

// Allocated returns the number of offsets currently allocated.
func (b *NATBitmap) Allocated() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count - b.freeCountLocked()
}

// Free returns the number of offsets currently free.
func (b *NATBitmap) Free() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.freeCountLocked()
}

func (b *NATBitmap) freeCountLocked() int {
	n := 0
	for _, iv := range b.free {
		n += iv.End - iv.Start
	}
	return n
}
