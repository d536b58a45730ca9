package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Key records a cache key under the key "key".
func Key(k string) slog.Attr {
	return slog.String("key", k)
}

// Remote records a peer address under the key "remote".
func Remote(addr string) slog.Attr {
	return slog.String("remote", addr)
}

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}
