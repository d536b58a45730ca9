package cache

// keyIndex maps a key to the arena slot holding its entry.
type keyIndex[K comparable] struct {
	slots map[K]int
}

func newKeyIndex[K comparable](capacity int) keyIndex[K] {
	return keyIndex[K]{slots: make(map[K]int, min(capacity, maxPrealloc))}
}

func (x keyIndex[K]) lookup(key K) (int, bool) {
	i, ok := x.slots[key]
	return i, ok
}

// insert requires that key is absent; updates go through the existing slot.
func (x keyIndex[K]) insert(key K, i int) { x.slots[key] = i }

func (x keyIndex[K]) remove(key K) { delete(x.slots, key) }

func (x keyIndex[K]) len() int { return len(x.slots) }
