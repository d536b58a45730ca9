package server

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"
)

type handler func(s *Server, ctx context.Context, args []string, dst []byte) []byte

// command arity follows Redis: positive means exactly that many arguments
// including the name, negative means at least -arity.
type command struct {
	arity   int
	handler handler
}

var commands = map[string]command{
	"PING":     {-1, cmdPing},
	"ECHO":     {2, cmdEcho},
	"GET":      {2, cmdGet},
	"PEEK":     {2, cmdPeek},
	"SET":      {3, cmdSet},
	"DEL":      {-2, cmdDel},
	"EXISTS":   {-2, cmdExists},
	"DBSIZE":   {1, cmdDBSize},
	"KEYS":     {2, cmdKeys},
	"FLUSHALL": {-1, cmdFlushAll},
	"INFO":     {-1, cmdInfo},
	"COMMAND":  {-1, cmdCommand},
}

// execute runs one command and appends its reply to dst.
func (s *Server) execute(ctx context.Context, args []string, dst []byte) []byte {
	name := strings.ToUpper(args[0])
	cmd, ok := commands[name]
	if !ok {
		return appendError(dst, fmt.Sprintf("ERR unknown command '%s'", args[0]))
	}
	if (cmd.arity > 0 && len(args) != cmd.arity) || len(args) < -cmd.arity {
		return appendError(dst, fmt.Sprintf("ERR wrong number of arguments for '%s' command", strings.ToLower(name)))
	}
	s.stats.called(strings.ToLower(name))
	return cmd.handler(s, ctx, args, dst)
}

func cmdPing(_ *Server, _ context.Context, args []string, dst []byte) []byte {
	switch len(args) {
	case 1:
		return appendSimple(dst, "PONG")
	case 2:
		return appendBulkString(dst, args[1])
	default:
		return appendError(dst, "ERR wrong number of arguments for 'ping' command")
	}
}

func cmdEcho(_ *Server, _ context.Context, args []string, dst []byte) []byte {
	return appendBulkString(dst, args[1])
}

func cmdGet(s *Server, _ context.Context, args []string, dst []byte) []byte {
	v, ok := s.cache.Get(args[1])
	if !ok {
		s.stats.miss()
		return appendNull(dst)
	}
	s.stats.hit()
	return appendBulk(dst, v)
}

// PEEK is GET without promotion; it is not counted as a hit or miss.
func cmdPeek(s *Server, _ context.Context, args []string, dst []byte) []byte {
	v, ok := s.cache.Peek(args[1])
	if !ok {
		return appendNull(dst)
	}
	return appendBulk(dst, v)
}

func cmdSet(s *Server, _ context.Context, args []string, dst []byte) []byte {
	s.cache.Put(args[1], []byte(args[2]))
	return appendSimple(dst, "OK")
}

func cmdDel(s *Server, _ context.Context, args []string, dst []byte) []byte {
	var n int64
	for _, k := range args[1:] {
		if s.cache.Remove(k) {
			n++
		}
	}
	return appendInt(dst, n)
}

// EXISTS peeks so that probing a key never changes eviction order.
func cmdExists(s *Server, _ context.Context, args []string, dst []byte) []byte {
	var n int64
	for _, k := range args[1:] {
		if _, ok := s.cache.Peek(k); ok {
			n++
		}
	}
	return appendInt(dst, n)
}

func cmdDBSize(s *Server, _ context.Context, _ []string, dst []byte) []byte {
	return appendInt(dst, int64(s.cache.Len()))
}

// KEYS replies in most to least recently used order.
func cmdKeys(s *Server, _ context.Context, args []string, dst []byte) []byte {
	pattern := args[1]
	if _, err := path.Match(pattern, ""); err != nil {
		return appendError(dst, "ERR invalid pattern")
	}

	keys := s.cache.Keys()
	if pattern != "*" {
		keys = slices.DeleteFunc(keys, func(k string) bool {
			ok, _ := path.Match(pattern, k)
			return !ok
		})
	}

	dst = appendArrayHeader(dst, len(keys))
	for _, k := range keys {
		dst = appendBulkString(dst, k)
	}
	return dst
}

func cmdFlushAll(s *Server, ctx context.Context, _ []string, dst []byte) []byte {
	n := s.cache.Clear()
	s.log.InfoContext(ctx, "cache flushed", "dropped", n)
	return appendSimple(dst, "OK")
}

func cmdInfo(s *Server, _ context.Context, _ []string, dst []byte) []byte {
	return appendBulkString(dst, s.info())
}

// COMMAND exists so redis-cli can connect; no command docs are served.
func cmdCommand(_ *Server, _ context.Context, _ []string, dst []byte) []byte {
	return appendArrayHeader(dst, 0)
}

func (s *Server) info() string {
	snap := s.stats.Snapshot()

	var b strings.Builder
	b.WriteString("# Cache\r\n")
	fmt.Fprintf(&b, "capacity:%d\r\n", s.cache.Cap())
	fmt.Fprintf(&b, "size:%d\r\n", s.cache.Len())
	fmt.Fprintf(&b, "hits:%d\r\n", snap.Hits)
	fmt.Fprintf(&b, "misses:%d\r\n", snap.Misses)
	fmt.Fprintf(&b, "evictions:%d\r\n", snap.Evictions)

	b.WriteString("\r\n# Clients\r\n")
	fmt.Fprintf(&b, "connected_clients:%d\r\n", s.clients.Count())

	b.WriteString("\r\n# Commandstats\r\n")
	names := make([]string, 0, len(snap.Commands))
	for name := range snap.Commands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		b.WriteString("cmdstat_" + name + ":calls=" + strconv.FormatUint(snap.Commands[name], 10) + "\r\n")
	}
	return b.String()
}
