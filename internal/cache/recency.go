package cache

const (
	headSlot = 0
	tailSlot = 1
	nilSlot  = -1

	// maxPrealloc bounds the up-front arena and index sizing; larger caches
	// grow on demand.
	maxPrealloc = 1024
)

// slot is one position in the arena backing the recency list.
//
// Links are indices into the arena rather than pointers, so an entry's handle
// (its slot index) stays stable for as long as the entry is live.
type slot[K comparable, V any] struct {
	key   K
	value V
	prev  int
	next  int
}

// recencyList orders live entries from most recently used (right after the
// head sentinel) to least recently used (right before the tail sentinel).
//
// The two sentinels occupy slots 0 and 1 for the lifetime of the list, so
// pushFront, unlink and popBack never special-case an empty list.
//
// Freed slots are chained through their next field and reused by alloc
// before the arena is extended. Since the cache frees a slot before
// allocating one when full, the arena never holds more than capacity+2 slots.
type recencyList[K comparable, V any] struct {
	slots []slot[K, V]
	free  int
	n     int
}

func newRecencyList[K comparable, V any](capacity int) *recencyList[K, V] {
	l := &recencyList[K, V]{}
	l.init(capacity)
	return l
}

func (l *recencyList[K, V]) init(capacity int) {
	if l.slots != nil {
		clear(l.slots)
		l.slots = l.slots[:2]
	} else {
		l.slots = make([]slot[K, V], 2, min(capacity, maxPrealloc)+2)
	}
	l.slots[headSlot] = slot[K, V]{prev: nilSlot, next: tailSlot}
	l.slots[tailSlot] = slot[K, V]{prev: headSlot, next: nilSlot}
	l.free = nilSlot
	l.n = 0
}

// alloc returns an unlinked slot holding key and value.
func (l *recencyList[K, V]) alloc(key K, value V) int {
	var i int
	if l.free != nilSlot {
		i = l.free
		l.free = l.slots[i].next
	} else {
		l.slots = append(l.slots, slot[K, V]{})
		i = len(l.slots) - 1
	}
	l.slots[i] = slot[K, V]{key: key, value: value, prev: nilSlot, next: nilSlot}
	return i
}

// release returns an unlinked slot to the free list and drops its key and
// value so the arena does not pin them.
func (l *recencyList[K, V]) release(i int) {
	l.slots[i] = slot[K, V]{prev: nilSlot, next: l.free}
	l.free = i
}

// pushFront links i right after the head sentinel. i must be unlinked.
func (l *recencyList[K, V]) pushFront(i int) {
	first := l.slots[headSlot].next
	l.slots[i].prev = headSlot
	l.slots[i].next = first
	l.slots[first].prev = i
	l.slots[headSlot].next = i
	l.n++
}

// unlink detaches i from its neighbours. i must be linked and must not be a sentinel.
func (l *recencyList[K, V]) unlink(i int) {
	s := &l.slots[i]
	l.slots[s.prev].next = s.next
	l.slots[s.next].prev = s.prev
	s.prev, s.next = nilSlot, nilSlot
	l.n--
}

// moveToFront promotes a linked slot to most recently used.
func (l *recencyList[K, V]) moveToFront(i int) {
	if l.slots[headSlot].next == i {
		return
	}
	l.unlink(i)
	l.pushFront(i)
}

// popBack unlinks and returns the least recently used slot.
// ok is false when the list holds no entries.
func (l *recencyList[K, V]) popBack() (i int, ok bool) {
	last := l.slots[tailSlot].prev
	if last == headSlot {
		return nilSlot, false
	}
	l.unlink(last)
	return last, true
}

func (l *recencyList[K, V]) front() int { return l.slots[headSlot].next }

func (l *recencyList[K, V]) len() int { return l.n }
