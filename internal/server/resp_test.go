package server

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantArgs []string
		wantN    int
	}{
		{"array", "*2\r\n$3\r\nGET\r\n$1\r\nk\r\n", []string{"GET", "k"}, 20},
		{"binary safe value", "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$4\r\na\r\nb\r\n", []string{"SET", "k", "a\r\nb"}, 30},
		{"empty bulk", "*2\r\n$4\r\nECHO\r\n$0\r\n\r\n", []string{"ECHO", ""}, 20},
		{"inline", "PING\r\n", []string{"PING"}, 6},
		{"inline with args and bare LF", "SET k v\n", []string{"SET", "k", "v"}, 8},
		{"blank inline", "\r\n", nil, 2},
		{"empty array", "*0\r\n", nil, 4},
		{"trailing data left alone", "PING\r\nPING\r\n", []string{"PING"}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, n, err := parseCommand([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.wantArgs, nilIfEmpty(args))
			assert.Equal(t, tt.wantN, n)
		})
	}
}

func TestParseCommand_Incomplete(t *testing.T) {
	full := "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$5\r\nvalue\r\n"
	for i := range len(full) {
		_, _, err := parseCommand([]byte(full[:i]))
		assert.ErrorIs(t, err, ErrIncomplete, "prefix of length %d", i)
	}

	args, n, err := parseCommand([]byte(full))
	require.NoError(t, err)
	assert.Equal(t, len(full), n)
	assert.Equal(t, []string{"SET", "k", "value"}, args)
}

func TestParseCommand_ProtocolErrors(t *testing.T) {
	for name, in := range map[string]string{
		"bad count":          "*x\r\n",
		"missing bulk":       "*1\r\n:1\r\n",
		"bad bulk length":    "*1\r\n$abc\r\n",
		"null bulk":          "*1\r\n$-1\r\n",
		"unterminated bulk":  "*1\r\n$3\r\nGETxx",
		"bulk too large":     "*1\r\n$999999999999\r\n",
		"header without end": "*1111111111111111111111111111111111111",
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := parseCommand([]byte(in))
			assert.ErrorIs(t, err, ErrProtocol)
			assert.NotContains(t, err.Error(), "\n")
		})
	}
}

func TestEncoders(t *testing.T) {
	var b []byte
	b = appendSimple(b, "OK")
	b = appendError(b, "ERR x")
	b = appendInt(b, -3)
	b = appendBulk(b, []byte("hi"))
	b = appendBulkString(b, "")
	b = appendNull(b)
	b = appendArrayHeader(b, 2)

	assert.Equal(t, "+OK\r\n-ERR x\r\n:-3\r\n$2\r\nhi\r\n$0\r\n\r\n$-1\r\n*2\r\n", string(b))
}

func nilIfEmpty(args []string) []string {
	if len(args) == 0 {
		return nil
	}
	return args
}

func TestExecuteBuffered(t *testing.T) {
	s := newTestServer(t, 2)

	out, n, err := s.executeBuffered(context.Background(), []byte("PING\r\n*2\r\n$4\r\nECHO\r\n$2\r\nhi\r\n*1\r\n$4\r\nPI"))
	require.NoError(t, err)
	assert.Equal(t, "+PONG\r\n$2\r\nhi\r\n", string(out))
	assert.Equal(t, 28, n)

	out, n, err = s.executeBuffered(context.Background(), []byte("PING\r\n*1\r\n$z\r\nPING\r\n"))
	assert.ErrorIs(t, err, ErrProtocol)
	assert.Equal(t, 20, n)
	assert.Equal(t, "+PONG\r\n-ERR protocol error: invalid length\r\n", string(out))
}

func TestParseCommand_LargeCountOnPartialFrame(t *testing.T) {
	in := []byte("*1048576\r\n$1\r\na")

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	const calls = 100
	for range calls {
		_, _, err := parseCommand(in)
		require.ErrorIs(t, err, ErrIncomplete)
	}
	runtime.ReadMemStats(&after)

	perCall := (after.TotalAlloc - before.TotalAlloc) / calls
	assert.Less(t, perCall, uint64(64<<10), "declared count must not drive allocation")
}
