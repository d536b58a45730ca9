package server

import (
	"context"
	"log/slog"
	"time"

	"lrucache/internal/logger"
)

// statsLoop periodically logs a stats snapshot until ctx is canceled.
func (s *Server) statsLoop(ctx context.Context, every time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reportStats(ctx)
		}
	}
}

func (s *Server) reportStats(ctx context.Context) {
	snap := s.stats.Snapshot()
	s.log.InfoContext(ctx, "cache stats", logger.Group("cache",
		slog.Int("size", s.cache.Len()),
		slog.Int("capacity", s.cache.Cap()),
		slog.Uint64("hits", snap.Hits),
		slog.Uint64("misses", snap.Misses),
		slog.Uint64("evictions", snap.Evictions),
		slog.Int("clients", s.clients.Count()),
	))
}
