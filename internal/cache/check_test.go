package cache

import "fmt"

// verify walks the recency list in both directions and checks it against the
// key index. It must not be called concurrently with mutating operations.
func (c *Cache[K, V]) verify() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	l := c.lru
	if got := l.len(); got < 0 || got > c.capacity {
		return fmt.Errorf("len %d outside [0, %d]", got, c.capacity)
	}
	if l.slots[headSlot].prev != nilSlot || l.slots[tailSlot].next != nilSlot {
		return fmt.Errorf("sentinel escaped its boundary")
	}

	seen := make(map[K]struct{}, l.len())
	n := 0
	prev := headSlot
	for i := l.slots[headSlot].next; i != tailSlot; i = l.slots[i].next {
		if i == nilSlot || i == headSlot {
			return fmt.Errorf("broken forward chain at position %d", n)
		}
		if l.slots[i].prev != prev {
			return fmt.Errorf("slot %d: prev=%d, want %d", i, l.slots[i].prev, prev)
		}
		k := l.slots[i].key
		if _, dup := seen[k]; dup {
			return fmt.Errorf("key %v linked twice", k)
		}
		seen[k] = struct{}{}
		j, ok := c.index.lookup(k)
		if !ok {
			return fmt.Errorf("key %v linked but not indexed", k)
		}
		if j != i {
			return fmt.Errorf("key %v indexed at slot %d, linked at %d", k, j, i)
		}
		prev = i
		n++
		if n > c.capacity {
			return fmt.Errorf("list longer than capacity %d", c.capacity)
		}
	}
	if l.slots[tailSlot].prev != prev {
		return fmt.Errorf("tail.prev=%d, want %d", l.slots[tailSlot].prev, prev)
	}
	if n != l.len() {
		return fmt.Errorf("walked %d entries, list reports %d", n, l.len())
	}
	if n != c.index.len() {
		return fmt.Errorf("walked %d entries, index holds %d", n, c.index.len())
	}
	if len(l.slots)-2 > c.capacity {
		return fmt.Errorf("arena grew to %d slots", len(l.slots))
	}
	return nil
}
