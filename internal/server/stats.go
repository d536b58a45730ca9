package server

import (
	"sync/atomic"

	"github.com/cornelk/hashmap"
)

// Stats counts cache outcomes and command calls. Safe for concurrent use.
type Stats struct {
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	commands  *hashmap.Map[string, *atomic.Uint64]
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Commands  map[string]uint64
}

func newStats() *Stats {
	return &Stats{commands: hashmap.New[string, *atomic.Uint64]()}
}

func (st *Stats) hit()   { st.hits.Add(1) }
func (st *Stats) miss()  { st.misses.Add(1) }
func (st *Stats) evict() { st.evictions.Add(1) }

// called records one call of the named command.
func (st *Stats) called(name string) {
	c, ok := st.commands.Get(name)
	if !ok {
		c, _ = st.commands.GetOrInsert(name, new(atomic.Uint64))
	}
	c.Add(1)
}

// Snapshot copies the current counters.
func (st *Stats) Snapshot() Snapshot {
	s := Snapshot{
		Hits:      st.hits.Load(),
		Misses:    st.misses.Load(),
		Evictions: st.evictions.Load(),
		Commands:  make(map[string]uint64, st.commands.Len()),
	}
	st.commands.Range(func(name string, c *atomic.Uint64) bool {
		s.Commands[name] = c.Load()
		return true
	})
	return s
}
