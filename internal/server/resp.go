package server

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	maxBulkLen   = 64 << 20
	maxArgs      = 1 << 20
	maxInlineLen = 64 << 10

	// maxArgsPrealloc caps how much of a client-declared argument count is
	// allocated before the arguments have arrived.
	maxArgsPrealloc = 1024
)

var (
	// ErrIncomplete means the buffer ends before a full command frame.
	ErrIncomplete = errors.New("incomplete command")
	// ErrProtocol means the buffer cannot be parsed as RESP.
	ErrProtocol = errors.New("protocol error")
)

var crlf = []byte("\r\n")

// parseCommand decodes one command from the front of b and returns its
// arguments along with the number of bytes consumed.
//
// Commands are either RESP arrays of bulk strings or inline space-separated
// lines. An empty array or blank inline line yields no arguments but still
// consumes bytes.
func parseCommand(b []byte) (args []string, n int, err error) {
	if len(b) == 0 {
		return nil, 0, ErrIncomplete
	}
	if b[0] != '*' {
		return parseInline(b)
	}

	count, n, err := parseLength(b, '*', maxArgs)
	if err != nil {
		return nil, 0, err
	}
	if count <= 0 {
		return nil, n, nil
	}

	args = make([]string, 0, min(count, maxArgsPrealloc))
	for range count {
		size, m, err := parseLength(b[n:], '$', maxBulkLen)
		if err != nil {
			return nil, 0, err
		}
		if size < 0 {
			return nil, 0, protocolError("null bulk string in command")
		}
		n += m
		if len(b)-n < size+2 {
			return nil, 0, ErrIncomplete
		}
		if !bytes.Equal(b[n+size:n+size+2], crlf) {
			return nil, 0, protocolError("bulk string not terminated by CRLF")
		}
		args = append(args, string(b[n:n+size]))
		n += size + 2
	}
	return args, n, nil
}

// parseLength reads a "<prefix><int>\r\n" header.
func parseLength(b []byte, prefix byte, limit int) (v, n int, err error) {
	if len(b) == 0 {
		return 0, 0, ErrIncomplete
	}
	if b[0] != prefix {
		return 0, 0, protocolError("expected '" + string(prefix) + "', got '" + string(b[0]) + "'")
	}
	end := bytes.Index(b, crlf)
	if end < 0 {
		if len(b) > 32 {
			return 0, 0, protocolError("header too long")
		}
		return 0, 0, ErrIncomplete
	}
	v, err = strconv.Atoi(string(b[1:end]))
	if err != nil {
		return 0, 0, protocolError("invalid length")
	}
	if v > limit {
		return 0, 0, protocolError("length out of range")
	}
	return v, end + 2, nil
}

func parseInline(b []byte) ([]string, int, error) {
	end := bytes.IndexByte(b, '\n')
	if end < 0 {
		if len(b) > maxInlineLen {
			return nil, 0, protocolError("too big inline request")
		}
		return nil, 0, ErrIncomplete
	}
	line := strings.TrimSuffix(string(b[:end]), "\r")
	return strings.Fields(line), end + 1, nil
}

func protocolError(msg string) error {
	return fmt.Errorf("%w: %s", ErrProtocol, msg)
}

func appendSimple(dst []byte, s string) []byte {
	dst = append(dst, '+')
	dst = append(dst, s...)
	return append(dst, crlf...)
}

func appendError(dst []byte, msg string) []byte {
	dst = append(dst, '-')
	dst = append(dst, msg...)
	return append(dst, crlf...)
}

func appendInt(dst []byte, v int64) []byte {
	dst = append(dst, ':')
	dst = strconv.AppendInt(dst, v, 10)
	return append(dst, crlf...)
}

func appendBulk(dst []byte, b []byte) []byte {
	dst = append(dst, '$')
	dst = strconv.AppendInt(dst, int64(len(b)), 10)
	dst = append(dst, crlf...)
	dst = append(dst, b...)
	return append(dst, crlf...)
}

func appendBulkString(dst []byte, s string) []byte {
	dst = append(dst, '$')
	dst = strconv.AppendInt(dst, int64(len(s)), 10)
	dst = append(dst, crlf...)
	dst = append(dst, s...)
	return append(dst, crlf...)
}

func appendNull(dst []byte) []byte {
	return append(dst, "$-1\r\n"...)
}

func appendArrayHeader(dst []byte, n int) []byte {
	dst = append(dst, '*')
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, crlf...)
}
