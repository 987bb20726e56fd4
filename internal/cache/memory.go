package cache

import (
	"bytes"
	"context"
	"io"
	"math"
	"sort"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

type blockKey struct {
	key   string
	start int64
}

// Memory is the player cache: byte blocks keyed by track and offset, evicted
// least-recently-used first once the byte budget is exceeded.
type Memory struct {
	mu     sync.Mutex
	lru    *simplelru.LRU[blockKey, []byte]
	index  map[string][]int64 // sorted block starts per key
	size   int64
	budget int64
}

// Verify Memory implements Tier at compile time.
var _ Tier = (*Memory)(nil)

// NewMemory creates a player cache holding at most budget bytes.
func NewMemory(budget int64) *Memory {
	m := &Memory{
		index:  make(map[string][]int64),
		budget: budget,
	}
	// Entry count is unbounded, eviction is driven by the byte budget.
	m.lru, _ = simplelru.NewLRU[blockKey, []byte](math.MaxInt32, m.onEvict)
	return m
}

func (m *Memory) onEvict(k blockKey, data []byte) {
	m.size -= int64(len(data))
	starts := m.index[k.key]
	i := sort.Search(len(starts), func(i int) bool { return starts[i] >= k.start })
	if i < len(starts) && starts[i] == k.start {
		starts = append(starts[:i], starts[i+1:]...)
	}
	if len(starts) == 0 {
		delete(m.index, k.key)
	} else {
		m.index[k.key] = starts
	}
}

// Write stores data for key at pos. A block already stored at the same
// offset is replaced.
func (m *Memory) Write(key string, pos int64, data []byte) {
	if len(data) == 0 || int64(len(data)) > m.budget {
		return
	}
	block := bytes.Clone(data)

	m.mu.Lock()
	defer m.mu.Unlock()

	k := blockKey{key: key, start: pos}
	if old, ok := m.lru.Peek(k); ok {
		m.size -= int64(len(old))
	} else {
		starts := m.index[key]
		i := sort.Search(len(starts), func(i int) bool { return starts[i] >= pos })
		starts = append(starts, 0)
		copy(starts[i+1:], starts[i:])
		starts[i] = pos
		m.index[key] = starts
	}
	m.lru.Add(k, block)
	m.size += int64(len(block))

	for m.size > m.budget {
		if _, _, ok := m.lru.RemoveOldest(); !ok {
			break
		}
	}
}

// Has reports whether every byte of [pos, pos+length) is cached. A negative
// length is never satisfiable since the content size is unknown here.
func (m *Memory) Has(_ context.Context, key string, pos, length int64) bool {
	if length < 0 {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.spans(key, pos, pos+length)
	return ok
}

// Open returns a reader over the cached range, or ErrMiss.
func (m *Memory) Open(_ context.Context, key string, pos, length int64) (io.ReadCloser, error) {
	if length < 0 {
		return nil, ErrMiss
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	parts, ok := m.spans(key, pos, pos+length)
	if !ok {
		return nil, ErrMiss
	}
	readers := make([]io.Reader, len(parts))
	for i, p := range parts {
		readers[i] = bytes.NewReader(p)
	}
	return io.NopCloser(io.MultiReader(readers...)), nil
}

// Size returns the number of cached bytes.
func (m *Memory) Size() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// spans collects the slices covering [from, to), marking each touched block
// as recently used. Must be called with mu held.
func (m *Memory) spans(key string, from, to int64) ([][]byte, bool) {
	var parts [][]byte
	starts := m.index[key]
	cur := from
	for cur < to {
		// last block starting at or before cur
		i := sort.Search(len(starts), func(i int) bool { return starts[i] > cur }) - 1
		if i < 0 {
			return nil, false
		}
		data, ok := m.lru.Get(blockKey{key: key, start: starts[i]})
		if !ok {
			return nil, false
		}
		end := starts[i] + int64(len(data))
		if end <= cur {
			return nil, false
		}
		stop := min(end, to)
		parts = append(parts, data[cur-starts[i]:stop-starts[i]])
		cur = stop
	}
	return parts, true
}
