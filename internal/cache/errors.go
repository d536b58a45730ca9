package cache

import "errors"

// ErrInvalidCapacity is returned by New when the requested capacity is not positive.
var ErrInvalidCapacity = errors.New("cache capacity must be positive")
