package render

import (
	"bytes"
	"io"
	"sync"
)

// frameRenderer is the part of Animation the cache wraps.
type frameRenderer interface {
	FrameCount() int
	RenderFrame(w io.Writer, i int) error
}

// FrameCache wraps an Animation with an in-memory LRU cache of
// rendered frame SVGs, so repeated requests for a frame don't
// re-render it.
type FrameCache struct {
	inner frameRenderer
	cache *lruCache
}

// NewFrameCache creates a cache decorator around an animation.
func NewFrameCache(inner frameRenderer, maxEntries int) *FrameCache {
	return &FrameCache{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

// FrameCount reports the frame count of the wrapped animation.
func (c *FrameCache) FrameCount() int {
	return c.inner.FrameCount()
}

// Frame renders frame i, serving repeats from the cache. Render
// failures are not cached.
func (c *FrameCache) Frame(i int) ([]byte, error) {
	if svg, ok := c.cache.get(i); ok {
		return svg, nil
	}
	var buf bytes.Buffer
	if err := c.inner.RenderFrame(&buf, i); err != nil {
		return nil, err
	}
	svg := buf.Bytes()
	c.cache.put(i, svg)
	return svg, nil
}

// lruCache is a simple thread-safe LRU cache for rendered frames.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[int]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   int
	value []byte
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[int]*entry),
	}
}

func (c *lruCache) get(key int) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key int, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
