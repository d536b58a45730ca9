package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats_ConcurrentCalls(t *testing.T) {
	st := newStats()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 1000 {
				if i%2 == 0 {
					st.called("get")
					st.hit()
				} else {
					st.called("set")
					st.miss()
				}
			}
		}()
	}
	wg.Wait()

	snap := st.Snapshot()
	assert.Equal(t, uint64(4000), snap.Hits)
	assert.Equal(t, uint64(4000), snap.Misses)
	assert.Equal(t, map[string]uint64{"get": 4000, "set": 4000}, snap.Commands)
}

func TestReportStats(t *testing.T) {
	buf := &bytes.Buffer{}
	s, err := New(Config{Capacity: 2}, slog.New(slog.NewJSONHandler(buf, nil)))
	require.NoError(t, err)

	run(s, "SET", "a", "1")
	run(s, "GET", "a")
	s.reportStats(context.Background())

	var entry struct {
		Msg   string `json:"msg"`
		Cache struct {
			Size     int `json:"size"`
			Capacity int `json:"capacity"`
			Hits     int `json:"hits"`
		} `json:"cache"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "cache stats", entry.Msg)
	assert.Equal(t, 1, entry.Cache.Size)
	assert.Equal(t, 2, entry.Cache.Capacity)
	assert.Equal(t, 1, entry.Cache.Hits)
}

func TestStatsLoop_StopsOnCancel(t *testing.T) {
	s := newTestServer(t, 1)
	ctx, cancel := context.WithCancel(context.Background())

	s.wg.Add(1)
	go s.statsLoop(ctx, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stats loop did not stop")
	}
}
