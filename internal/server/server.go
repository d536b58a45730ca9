package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/cloudwego/netpoll"
	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"

	"lrucache/internal/cache"
	"lrucache/internal/logger"
)

// Config controls the cache size and the network front end.
//
//   - StatsInterval <= 0 disables the periodic stats log
//   - ShutdownTimeout bounds how long Serve waits for open connections on exit;
//     <= 0 means no deadline
type Config struct {
	Capacity        int           `env:"LRU_CAPACITY" envDefault:"1024"`
	Addr            string        `env:"LRU_ADDR" envDefault:":6380"`
	ReadTimeout     time.Duration `env:"LRU_READ_TIMEOUT" envDefault:"10s"`
	StatsInterval   time.Duration `env:"LRU_STATS_INTERVAL" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"LRU_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Server exposes a Cache[string, []byte] over the Redis protocol.
//
// Every command maps to single Cache calls, so the cache's own serialization
// is the only ordering guarantee clients get.
//
// Ownership model:
// Serve owns the event loop and the stats goroutine and stops both before it returns.
type Server struct {
	cfg   Config
	log   *slog.Logger
	cache *cache.Cache[string, []byte]
	stats *Stats

	clients cmap.ConcurrentMap[string, *client]

	mu    sync.Mutex
	addr  net.Addr
	ready chan struct{}

	wg sync.WaitGroup
}

type client struct {
	id        string
	remote    string
	connected time.Time
}

type connIDKey struct{}

// ErrAlreadyServing is returned when Serve is called on a server that is already running.
var ErrAlreadyServing = errors.New("server is already serving")

// New builds a server around a fresh cache of cfg.Capacity entries.
// It fails with cache.ErrInvalidCapacity if the capacity is not positive.
func New(cfg Config, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		log:     log,
		stats:   newStats(),
		clients: cmap.New[*client](),
		ready:   make(chan struct{}),
	}

	c, err := cache.New(cfg.Capacity, cache.WithEvictHook(s.onEvict))
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	s.cache = c
	return s, nil
}

// ConnIDFromContext returns the connection ID stored in ctx by the server,
// for use with logger.WithContextValue-style extractors.
func ConnIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(connIDKey{}).(string)
	return id, ok
}

// LogConnID is a logger.ContextExtractor that adds "conn_id" to records
// logged with a connection context.
func LogConnID(ctx context.Context) (slog.Attr, bool) {
	id, ok := ConnIDFromContext(ctx)
	if !ok {
		return slog.Attr{}, false
	}
	return slog.String("conn_id", id), true
}

// Cache returns the cache served by s.
func (s *Server) Cache() *cache.Cache[string, []byte] { return s.cache }

// Stats returns the server's counters.
func (s *Server) Stats() *Stats { return s.stats }

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the bound listen address, or nil before Ready is closed.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Serve listens on cfg.Addr and serves until ctx is canceled or the event
// loop fails. It shuts the loop down gracefully before returning.
func (s *Server) Serve(ctx context.Context) error {
	opts := []netpoll.Option{
		netpoll.WithOnConnect(s.onConnect),
		netpoll.WithOnDisconnect(s.onDisconnect),
	}
	if s.cfg.ReadTimeout > 0 {
		opts = append(opts, netpoll.WithReadTimeout(s.cfg.ReadTimeout))
	}
	loop, err := netpoll.NewEventLoop(s.onRequest, opts...)
	if err != nil {
		return fmt.Errorf("create event loop: %w", err)
	}

	// addr is only set once both the loop and the listener exist, so a failed
	// Serve can be retried.
	s.mu.Lock()
	if s.addr != nil {
		s.mu.Unlock()
		return ErrAlreadyServing
	}
	ln, err := netpoll.CreateListener("tcp", s.cfg.Addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.addr = ln.Addr()
	s.mu.Unlock()

	statsCtx, stopStats := context.WithCancel(ctx)
	if s.cfg.StatsInterval > 0 {
		s.wg.Add(1)
		go s.statsLoop(statsCtx, s.cfg.StatsInterval)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- loop.Serve(ln) }()

	s.log.Info("lru cache listening",
		slog.String("addr", s.addr.String()),
		slog.Int("capacity", s.cache.Cap()),
	)
	close(s.ready)

	select {
	case <-ctx.Done():
		err = nil
	case err = <-serveErr:
		if err != nil {
			err = fmt.Errorf("serve: %w", err)
		}
	}

	stopStats()
	shutdownCtx, cancel := s.shutdownContext()
	defer cancel()
	if shutdownErr := loop.Shutdown(shutdownCtx); shutdownErr != nil {
		s.log.Warn("event loop shutdown", logger.Error(shutdownErr))
	}
	s.wg.Wait()

	s.log.Info("lru cache stopped", slog.Int("size", s.cache.Len()))
	return err
}

// shutdownContext bounds graceful shutdown by cfg.ShutdownTimeout;
// a non-positive timeout waits for open connections without a deadline.
func (s *Server) shutdownContext() (context.Context, context.CancelFunc) {
	if s.cfg.ShutdownTimeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
}

func (s *Server) onConnect(ctx context.Context, conn netpoll.Connection) context.Context {
	c := &client{
		id:        uuid.NewString(),
		remote:    conn.RemoteAddr().String(),
		connected: time.Now(),
	}
	s.clients.Set(c.id, c)

	ctx = context.WithValue(ctx, connIDKey{}, c.id)
	s.log.DebugContext(ctx, "client connected", logger.Remote(c.remote))
	return ctx
}

func (s *Server) onDisconnect(ctx context.Context, conn netpoll.Connection) {
	id, ok := ConnIDFromContext(ctx)
	if !ok {
		return
	}
	if c, ok := s.clients.Pop(id); ok {
		s.log.DebugContext(ctx, "client disconnected",
			logger.Remote(c.remote),
			slog.Duration("connected_for", time.Since(c.connected)),
		)
	}
}

// onRequest executes every complete command buffered on conn, writing the
// replies for each batch in one flush. When a partial frame is left over it
// blocks until more bytes arrive rather than returning to the event loop.
func (s *Server) onRequest(ctx context.Context, conn netpoll.Connection) error {
	reader, writer := conn.Reader(), conn.Writer()

	for {
		buf, err := reader.Peek(reader.Len())
		if err != nil {
			return err
		}

		out, consumed, protoErr := s.executeBuffered(ctx, buf)

		if err := reader.Skip(consumed); err != nil {
			return err
		}
		if err := reader.Release(); err != nil {
			return err
		}
		if len(out) > 0 {
			if _, err := writer.WriteBinary(out); err != nil {
				return err
			}
			if err := writer.Flush(); err != nil {
				return err
			}
		}
		if protoErr != nil {
			s.log.WarnContext(ctx, "closing connection", logger.Error(protoErr))
			return conn.Close()
		}

		pending := reader.Len()
		if pending == 0 {
			return nil
		}
		if _, err := reader.Peek(pending + 1); err != nil {
			return err
		}
	}
}

// executeBuffered runs the complete commands at the front of buf and returns
// their replies and the number of bytes they occupied. On a protocol error
// the whole buffer counts as consumed and an error reply is appended.
func (s *Server) executeBuffered(ctx context.Context, buf []byte) (out []byte, consumed int, err error) {
	for consumed < len(buf) {
		args, n, perr := parseCommand(buf[consumed:])
		if errors.Is(perr, ErrIncomplete) {
			break
		}
		if perr != nil {
			return appendError(out, "ERR "+perr.Error()), len(buf), perr
		}
		consumed += n
		if len(args) > 0 {
			out = s.execute(ctx, args, out)
		}
	}
	return out, consumed, nil
}

func (s *Server) onEvict(key string, value []byte) {
	s.stats.evict()
	s.log.Debug("evicted", logger.Key(key), slog.Int("bytes", len(value)))
}
